package addresses

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketly/marketly-backend/pkg/db/models"
	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
	"github.com/marketly/marketly-backend/pkg/enums"
)

// AddressDTO is an address book entry as returned to its owner.
type AddressDTO struct {
	ID         uuid.UUID         `json:"id"`
	Type       enums.AddressType `json:"type"`
	FullName   string            `json:"full_name"`
	Phone      string            `json:"phone"`
	Line1      string            `json:"line1"`
	Line2      *string           `json:"line2,omitempty"`
	City       string            `json:"city"`
	State      string            `json:"state"`
	PostalCode string            `json:"postal_code"`
	Country    string            `json:"country"`
	Landmark   *string           `json:"landmark,omitempty"`
	IsDefault  bool              `json:"is_default"`
	Version    int               `json:"version"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Input carries the fields of a new address.
type Input struct {
	Type       string
	FullName   string
	Phone      string
	Line1      string
	Line2      *string
	City       string
	State      string
	PostalCode string
	Country    string
	Landmark   *string
	IsDefault  bool
}

// UpdateInput carries optional changes. Version, when set, must match the
// stored version.
type UpdateInput struct {
	Type       *string
	FullName   *string
	Phone      *string
	Line1      *string
	Line2      *string
	City       *string
	State      *string
	PostalCode *string
	Country    *string
	Landmark   *string
	IsDefault  *bool
	Version    *int
}

func FromModel(a *models.Address) AddressDTO {
	return AddressDTO{
		ID:         a.ID,
		Type:       a.Type,
		FullName:   a.FullName,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Landmark:   a.Landmark,
		IsDefault:  a.IsDefault,
		Version:    a.Version,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// Snapshot copies the address onto an order.
func Snapshot(a AddressDTO) dbtypes.AddressSnapshot {
	snap := dbtypes.AddressSnapshot{
		FullName:   a.FullName,
		Phone:      a.Phone,
		Line1:      a.Line1,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
	if a.Line2 != nil {
		snap.Line2 = *a.Line2
	}
	if a.Landmark != nil {
		snap.Landmark = *a.Landmark
	}
	return snap
}
