package controllers

import (
	"net/http"
	"strings"

	"github.com/marketly/marketly-backend/api/responses"
	"github.com/marketly/marketly-backend/api/validators"
	"github.com/marketly/marketly-backend/internal/products"
	"github.com/marketly/marketly-backend/pkg/logger"
)

// ProductList serves the public catalogue with optional filters:
// q, category, store_id, min_price, max_price, page, limit.
func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, err := productFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, total, err := svc.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, rows, params.Meta(total))
	}
}

func productFilter(r *http.Request) (products.ListFilter, error) {
	q := r.URL.Query()
	filter := products.ListFilter{
		Query:    validators.SanitizeString(q.Get("q"), 120),
		Category: strings.TrimSpace(q.Get("category")),
	}
	if raw := strings.TrimSpace(q.Get("store_id")); raw != "" {
		id, err := validators.ParseUUID(raw, "store_id")
		if err != nil {
			return filter, err
		}
		filter.StoreID = &id
	}
	var err error
	if filter.MinPrice, err = validators.ParseQueryDecimal(r, "min_price"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = validators.ParseQueryDecimal(r, "max_price"); err != nil {
		return filter, err
	}
	return filter, nil
}

func ProductFeatured(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.Featured(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func ProductGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductLike(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		result, err := svc.ToggleLike(r.Context(), userID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
