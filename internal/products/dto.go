package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketly/marketly-backend/pkg/db/models"
	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
)

// ProductDTO is the list and detail shape of a product.
type ProductDTO struct {
	ID                     uuid.UUID                      `json:"id"`
	StoreID                uuid.UUID                      `json:"store_id"`
	Name                   string                         `json:"name"`
	Description            *string                        `json:"description,omitempty"`
	Category               string                         `json:"category"`
	Images                 []string                       `json:"images"`
	Price                  decimal.Decimal                `json:"price"`
	OriginalPrice          *decimal.Decimal               `json:"original_price,omitempty"`
	Stock                  int                            `json:"stock"`
	PaymentOptionsOverride dbtypes.PaymentOptionsOverride `json:"payment_options_override"`
	LikesCount             int                            `json:"likes_count"`
	IsActive               bool                           `json:"is_active"`
	CreatedAt              time.Time                      `json:"created_at"`
	UpdatedAt              time.Time                      `json:"updated_at"`
}

// StoreSummary is embedded in product detail responses.
type StoreSummary struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	LogoURL *string   `json:"logo_url,omitempty"`
}

// DetailDTO adds the owning store and the resolved payment options.
type DetailDTO struct {
	ProductDTO
	Store          *StoreSummary          `json:"store,omitempty"`
	PaymentOptions dbtypes.PaymentOptions `json:"payment_options"`
}

// LikeResult reports the like state after a toggle.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

func FromModel(p models.Product) ProductDTO {
	images := []string(p.Images)
	if images == nil {
		images = []string{}
	}
	return ProductDTO{
		ID:                     p.ID,
		StoreID:                p.StoreID,
		Name:                   p.Name,
		Description:            p.Description,
		Category:               p.Category,
		Images:                 images,
		Price:                  p.Price,
		OriginalPrice:          p.OriginalPrice,
		Stock:                  p.Stock,
		PaymentOptionsOverride: p.PaymentOptionsOverride,
		LikesCount:             p.LikesCount,
		IsActive:               p.IsActive,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
}

func FromModels(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out
}
