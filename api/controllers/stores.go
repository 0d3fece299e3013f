package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/marketly/marketly-backend/api/responses"
	"github.com/marketly/marketly-backend/api/validators"
	"github.com/marketly/marketly-backend/internal/stores"
	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
	"github.com/marketly/marketly-backend/pkg/logger"
)

type paymentOptionsRequest struct {
	COD    bool `json:"cod_enabled"`
	Stripe bool `json:"stripe_enabled"`
}

func (p *paymentOptionsRequest) toModel() *dbtypes.PaymentOptions {
	if p == nil {
		return nil
	}
	return &dbtypes.PaymentOptions{CODEnabled: p.COD, StripeEnabled: p.Stripe}
}

type storeRequest struct {
	Name           *string                `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Description    *string                `json:"description,omitempty" validate:"omitempty,max=2000"`
	LogoURL        *string                `json:"logo_url,omitempty" validate:"omitempty,url"`
	BannerURL      *string                `json:"banner_url,omitempty" validate:"omitempty,url"`
	Category       *string                `json:"category,omitempty" validate:"omitempty,max=60"`
	PaymentOptions *paymentOptionsRequest `json:"payment_options,omitempty"`
}

type productRequest struct {
	Name                   *string                         `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description            *string                         `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category               *string                         `json:"category,omitempty" validate:"omitempty,max=60"`
	Images                 *[]string                       `json:"images,omitempty" validate:"omitempty,max=10"`
	Price                  *decimal.Decimal                `json:"price,omitempty"`
	OriginalPrice          *decimal.Decimal                `json:"original_price,omitempty"`
	Stock                  *int                            `json:"stock,omitempty" validate:"omitempty,gte=0"`
	PaymentOptionsOverride *dbtypes.PaymentOptionsOverride `json:"payment_options_override,omitempty"`
	IsActive               *bool                           `json:"is_active,omitempty"`
}

func (p productRequest) toInput() stores.ProductInput {
	in := stores.ProductInput{
		Description:   p.Description,
		OriginalPrice: p.OriginalPrice,
		IsActive:      p.IsActive,
	}
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Category != nil {
		in.Category = *p.Category
	}
	if p.Images != nil {
		in.Images = *p.Images
	}
	if p.Price != nil {
		in.Price = *p.Price
	}
	if p.Stock != nil {
		in.Stock = *p.Stock
	}
	if p.PaymentOptionsOverride != nil {
		in.PaymentOptionsOverride = *p.PaymentOptionsOverride
	}
	return in
}

func (p productRequest) toUpdate() stores.ProductUpdate {
	return stores.ProductUpdate{
		Name:                   p.Name,
		Description:            p.Description,
		Category:               p.Category,
		Images:                 p.Images,
		Price:                  p.Price,
		OriginalPrice:          p.OriginalPrice,
		Stock:                  p.Stock,
		PaymentOptionsOverride: p.PaymentOptionsOverride,
		IsActive:               p.IsActive,
	}
}

func StoreCreate(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		var body storeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := stores.CreateStoreInput{
			Description:    body.Description,
			LogoURL:        body.LogoURL,
			BannerURL:      body.BannerURL,
			Category:       body.Category,
			PaymentOptions: body.PaymentOptions.toModel(),
		}
		if body.Name != nil {
			input.Name = *body.Name
		}
		store, err := svc.Create(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, store)
	}
}

func StoreGet(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		store, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

func StoreUpdate(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		var body storeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, err := svc.Update(r.Context(), userID, id, stores.UpdateStoreInput{
			Name:           body.Name,
			Description:    body.Description,
			LogoURL:        body.LogoURL,
			BannerURL:      body.BannerURL,
			Category:       body.Category,
			PaymentOptions: body.PaymentOptions.toModel(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

func StoreFollow(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		result, err := svc.ToggleFollow(r.Context(), userID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func StoreAddProduct(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		storeID, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		var body productRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.AddProduct(r.Context(), userID, storeID, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func StoreUpdateProduct(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		storeID, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		productID, ok := pathID(w, r, logg, "productId")
		if !ok {
			return
		}
		var body productRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.UpdateProduct(r.Context(), userID, storeID, productID, body.toUpdate())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func StoreDeleteProduct(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		storeID, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		productID, ok := pathID(w, r, logg, "productId")
		if !ok {
			return
		}
		if err := svc.DeleteProduct(r.Context(), userID, storeID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": true, "product_id": productID})
	}
}
