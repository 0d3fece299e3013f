package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketly/marketly-backend/pkg/db/models"
	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
	"github.com/marketly/marketly-backend/pkg/enums"
)

// ListFilter narrows order lists.
type ListFilter struct {
	Status *enums.OrderStatus
}

// UpdateStatusInput is the payload of a status change.
type UpdateStatusInput struct {
	Status string
	Note   *string
}

// ItemDTO is a frozen order line.
type ItemDTO struct {
	ProductID uuid.UUID       `json:"product_id"`
	StoreID   uuid.UUID       `json:"store_id"`
	Name      string          `json:"name"`
	Image     *string         `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// PaymentMethodDTO mirrors the request shape of the payment method.
type PaymentMethodDTO struct {
	Type enums.PaymentMethodType `json:"type"`
}

// OrderDTO is the order as returned to buyers and sellers.
type OrderDTO struct {
	ID              uuid.UUID               `json:"id"`
	UserID          uuid.UUID               `json:"user_id"`
	Items           []ItemDTO               `json:"items"`
	Subtotal        decimal.Decimal         `json:"subtotal"`
	ShippingCost    decimal.Decimal         `json:"shipping_cost"`
	TotalAmount     decimal.Decimal         `json:"total_amount"`
	DeliveryAddress dbtypes.AddressSnapshot `json:"delivery_address"`
	Status          enums.OrderStatus       `json:"status"`
	StatusHistory   dbtypes.StatusHistory   `json:"status_history"`
	PaymentMethod   PaymentMethodDTO        `json:"payment_method"`
	PaymentStatus   enums.PaymentStatus     `json:"payment_status"`
	PaymentIntentID *string                 `json:"payment_intent_id,omitempty"`
	Notes           *string                 `json:"notes,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

func FromModel(o *models.Order) OrderDTO {
	items := make([]ItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, ItemDTO{
			ProductID: item.ProductID,
			StoreID:   item.StoreID,
			Name:      item.Name,
			Image:     item.Image,
			Quantity:  item.Quantity,
			Price:     item.Price,
			LineTotal: item.LineTotal,
		})
	}
	history := o.StatusHistory
	if history == nil {
		history = dbtypes.StatusHistory{}
	}
	return OrderDTO{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		Subtotal:        o.Subtotal,
		ShippingCost:    o.ShippingCost,
		TotalAmount:     o.TotalAmount,
		DeliveryAddress: o.DeliveryAddress,
		Status:          o.Status,
		StatusHistory:   history,
		PaymentMethod:   PaymentMethodDTO{Type: o.PaymentMethod},
		PaymentStatus:   o.PaymentStatus,
		PaymentIntentID: o.PaymentIntentID,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func fromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
