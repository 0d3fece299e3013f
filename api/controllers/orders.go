package controllers

import (
	"net/http"
	"strings"

	"github.com/marketly/marketly-backend/api/responses"
	"github.com/marketly/marketly-backend/api/validators"
	"github.com/marketly/marketly-backend/internal/orders"
	"github.com/marketly/marketly-backend/pkg/enums"
	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
	"github.com/marketly/marketly-backend/pkg/logger"
)

type updateStatusRequest struct {
	Status string  `json:"status" validate:"required,max=32"`
	Note   *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

func orderFilter(r *http.Request) (orders.ListFilter, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	if raw == "" {
		return orders.ListFilter{}, nil
	}
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return orders.ListFilter{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
	}
	return orders.ListFilter{Status: &status}, nil
}

// OrderList returns the caller's orders, newest first.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, err := orderFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, total, err := svc.ListForUser(r.Context(), userID, filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, rows, params.Meta(total))
	}
}

// OrderListStore returns orders containing the caller's store products.
func OrderListStore(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, err := orderFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, total, err := svc.ListForStore(r.Context(), userID, filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, rows, params.Meta(total))
	}
}

func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		order, err := svc.Get(r.Context(), userID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func OrderUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		var body updateStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.UpdateStatus(r.Context(), userID, id, orders.UpdateStatusInput{
			Status: body.Status,
			Note:   body.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
