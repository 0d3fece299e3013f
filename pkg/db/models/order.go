package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
	"github.com/marketly/marketly-backend/pkg/enums"
)

// Order is never hard-deleted.
type Order struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	Items           []OrderItem             `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Subtotal        decimal.Decimal         `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ShippingCost    decimal.Decimal         `gorm:"column:shipping_cost;type:numeric(12,2);not null"`
	TotalAmount     decimal.Decimal         `gorm:"column:total_amount;type:numeric(12,2);not null"`
	DeliveryAddress dbtypes.AddressSnapshot `gorm:"column:delivery_address;not null"`
	Status          enums.OrderStatus       `gorm:"column:status;not null;index"`
	StatusHistory   dbtypes.StatusHistory   `gorm:"column:status_history;not null"`
	PaymentMethod   enums.PaymentMethodType `gorm:"column:payment_method;not null"`
	PaymentStatus   enums.PaymentStatus     `gorm:"column:payment_status;not null"`
	PaymentIntentID *string                 `gorm:"column:payment_intent_id;index"`
	Notes           *string                 `gorm:"column:notes"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem is a priced line frozen at order time.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	StoreID   uuid.UUID       `gorm:"column:store_id;type:uuid;not null;index"`
	Name      string          `gorm:"column:name;not null"`
	Image     *string         `gorm:"column:image"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
