package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSummary is the live product state shown next to a cart line.
type ProductSummary struct {
	ID       uuid.UUID       `json:"id"`
	StoreID  uuid.UUID       `json:"store_id"`
	Name     string          `json:"name"`
	Image    *string         `json:"image,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	IsActive bool            `json:"is_active"`
}

// LineView is one cart line with current pricing.
type LineView struct {
	ProductID         uuid.UUID       `json:"product_id"`
	Quantity          int             `json:"quantity"`
	AddedAt           time.Time       `json:"added_at"`
	UnitPriceSnapshot decimal.Decimal `json:"unit_price_snapshot"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	LineTotal         decimal.Decimal `json:"line_total"`
	Available         bool            `json:"available"`
	Product           *ProductSummary `json:"product,omitempty"`
}

// View is the cart as returned to clients.
type View struct {
	ID           uuid.UUID       `json:"id"`
	OwnerID      uuid.UUID       `json:"owner_id"`
	Items        []LineView      `json:"items"`
	ItemCount    int             `json:"item_count"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Total        decimal.Decimal `json:"total"`
	Version      int             `json:"version"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
