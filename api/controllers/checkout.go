package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/marketly/marketly-backend/api/responses"
	"github.com/marketly/marketly-backend/api/validators"
	"github.com/marketly/marketly-backend/internal/checkout"
	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
	"github.com/marketly/marketly-backend/pkg/logger"
)

type paymentMethodRequest struct {
	Type string `json:"type" validate:"required,max=20"`
}

// checkoutRequest is the body of cart checkout and direct order submission.
// Either address_id or delivery_address supplies the shipping address.
type checkoutRequest struct {
	AddressID       *uuid.UUID               `json:"address_id,omitempty"`
	DeliveryAddress *dbtypes.AddressSnapshot `json:"delivery_address,omitempty"`
	PaymentMethod   paymentMethodRequest     `json:"payment_method"`
	PaymentIntentID *string                  `json:"payment_intent_id,omitempty" validate:"omitempty,max=255"`
	Notes           *string                  `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Items           []checkout.LineRequest   `json:"items,omitempty" validate:"omitempty,max=100"`
}

func (c checkoutRequest) input() checkout.Input {
	in := checkout.Input{
		AddressID:       c.AddressID,
		PaymentMethod:   c.PaymentMethod.Type,
		PaymentIntentID: c.PaymentIntentID,
		Notes:           c.Notes,
	}
	if c.DeliveryAddress != nil {
		in.DeliveryAddress = *c.DeliveryAddress
	}
	return in
}

// CartCheckout converts the caller's cart into an order.
func CartCheckout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.CheckoutCart(r.Context(), userID, body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrderSubmit places an order for the lines in the body without using the cart.
func OrderSubmit(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.SubmitOrder(r.Context(), userID, checkout.SubmitInput{
			Input: body.input(),
			Items: body.Items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
