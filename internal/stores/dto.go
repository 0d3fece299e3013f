package stores

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketly/marketly-backend/internal/products"
	"github.com/marketly/marketly-backend/pkg/db/models"
	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
)

// StoreDTO exposes store data in API responses.
type StoreDTO struct {
	ID             uuid.UUID              `json:"id"`
	OwnerID        uuid.UUID              `json:"owner_id"`
	Name           string                 `json:"name"`
	Description    *string                `json:"description,omitempty"`
	LogoURL        *string                `json:"logo_url,omitempty"`
	BannerURL      *string                `json:"banner_url,omitempty"`
	Category       *string                `json:"category,omitempty"`
	PaymentOptions dbtypes.PaymentOptions `json:"payment_options"`
	FollowersCount int                    `json:"followers_count"`
	ProductCount   int                    `json:"product_count"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// DetailDTO is a store with its active catalogue.
type DetailDTO struct {
	StoreDTO
	Products []products.ProductDTO `json:"products"`
}

// CreateStoreInput captures the fields accepted when opening a store.
type CreateStoreInput struct {
	Name           string
	Description    *string
	LogoURL        *string
	BannerURL      *string
	Category       *string
	PaymentOptions *dbtypes.PaymentOptions
}

// UpdateStoreInput lists the mutable store fields; nil means unchanged.
type UpdateStoreInput struct {
	Name           *string
	Description    *string
	LogoURL        *string
	BannerURL      *string
	Category       *string
	PaymentOptions *dbtypes.PaymentOptions
}

// ProductInput is the payload for adding a product to a store.
type ProductInput struct {
	Name                   string
	Description            *string
	Category               string
	Images                 []string
	Price                  decimal.Decimal
	OriginalPrice          *decimal.Decimal
	Stock                  int
	PaymentOptionsOverride dbtypes.PaymentOptionsOverride
	IsActive               *bool
}

// ProductUpdate lists the mutable product fields; nil means unchanged.
type ProductUpdate struct {
	Name                   *string
	Description            *string
	Category               *string
	Images                 *[]string
	Price                  *decimal.Decimal
	OriginalPrice          *decimal.Decimal
	Stock                  *int
	PaymentOptionsOverride *dbtypes.PaymentOptionsOverride
	IsActive               *bool
}

// FollowResult reports the follow state after a toggle.
type FollowResult struct {
	Following      bool `json:"following"`
	FollowersCount int  `json:"followers_count"`
}

func FromModel(m *models.Store) StoreDTO {
	return StoreDTO{
		ID:             m.ID,
		OwnerID:        m.OwnerID,
		Name:           m.Name,
		Description:    m.Description,
		LogoURL:        m.LogoURL,
		BannerURL:      m.BannerURL,
		Category:       m.Category,
		PaymentOptions: m.PaymentOptions,
		FollowersCount: len(m.Followers),
		ProductCount:   len(m.ProductIDs),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	return &s
}
