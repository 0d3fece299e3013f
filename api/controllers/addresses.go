package controllers

import (
	"net/http"

	"github.com/marketly/marketly-backend/api/responses"
	"github.com/marketly/marketly-backend/api/validators"
	"github.com/marketly/marketly-backend/internal/addresses"
	"github.com/marketly/marketly-backend/pkg/logger"
)

type createAddressRequest struct {
	Type       string  `json:"type,omitempty" validate:"omitempty,oneof=home work other"`
	FullName   string  `json:"full_name" validate:"required,max=120"`
	Phone      string  `json:"phone" validate:"required,max=32"`
	Line1      string  `json:"line1" validate:"required,max=200"`
	Line2      *string `json:"line2,omitempty" validate:"omitempty,max=200"`
	City       string  `json:"city" validate:"required,max=100"`
	State      string  `json:"state" validate:"required,max=100"`
	PostalCode string  `json:"postal_code" validate:"required,max=20"`
	Country    string  `json:"country" validate:"required,max=60"`
	Landmark   *string `json:"landmark,omitempty" validate:"omitempty,max=200"`
	IsDefault  bool    `json:"is_default,omitempty"`
}

type updateAddressRequest struct {
	Type       *string `json:"type,omitempty" validate:"omitempty,oneof=home work other"`
	FullName   *string `json:"full_name,omitempty" validate:"omitempty,max=120"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Line1      *string `json:"line1,omitempty" validate:"omitempty,max=200"`
	Line2      *string `json:"line2,omitempty" validate:"omitempty,max=200"`
	City       *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State      *string `json:"state,omitempty" validate:"omitempty,max=100"`
	PostalCode *string `json:"postal_code,omitempty" validate:"omitempty,max=20"`
	Country    *string `json:"country,omitempty" validate:"omitempty,max=60"`
	Landmark   *string `json:"landmark,omitempty" validate:"omitempty,max=200"`
	IsDefault  *bool   `json:"is_default,omitempty"`
	Version    *int    `json:"version,omitempty" validate:"omitempty,min=1"`
}

func AddressList(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		rows, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func AddressCreate(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		var body createAddressRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		address, err := svc.Create(r.Context(), userID, addresses.Input{
			Type:       body.Type,
			FullName:   body.FullName,
			Phone:      body.Phone,
			Line1:      body.Line1,
			Line2:      body.Line2,
			City:       body.City,
			State:      body.State,
			PostalCode: body.PostalCode,
			Country:    body.Country,
			Landmark:   body.Landmark,
			IsDefault:  body.IsDefault,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, address)
	}
}

func AddressUpdate(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		var body updateAddressRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		address, err := svc.Update(r.Context(), userID, id, addresses.UpdateInput{
			Type:       body.Type,
			FullName:   body.FullName,
			Phone:      body.Phone,
			Line1:      body.Line1,
			Line2:      body.Line2,
			City:       body.City,
			State:      body.State,
			PostalCode: body.PostalCode,
			Country:    body.Country,
			Landmark:   body.Landmark,
			IsDefault:  body.IsDefault,
			Version:    body.Version,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, address)
	}
}

func AddressDelete(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), userID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": true, "address_id": id})
	}
}

func AddressSetDefault(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		address, err := svc.SetDefault(r.Context(), userID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, address)
	}
}
