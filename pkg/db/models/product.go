package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
)

// Product is a listing that belongs to exactly one store.
type Product struct {
	ID                     uuid.UUID                      `gorm:"column:id;type:uuid;primaryKey"`
	StoreID                uuid.UUID                      `gorm:"column:store_id;type:uuid;not null;index"`
	Name                   string                         `gorm:"column:name;not null"`
	Description            *string                        `gorm:"column:description"`
	Category               string                         `gorm:"column:category;not null;index"`
	Images                 dbtypes.StringList             `gorm:"column:images;not null"`
	Price                  decimal.Decimal                `gorm:"column:price;type:numeric(12,2);not null"`
	OriginalPrice          *decimal.Decimal               `gorm:"column:original_price;type:numeric(12,2)"`
	Stock                  int                            `gorm:"column:stock;not null"`
	PaymentOptionsOverride dbtypes.PaymentOptionsOverride `gorm:"column:payment_options_override;not null"`
	Likes                  dbtypes.UUIDList               `gorm:"column:likes;not null"`
	LikesCount             int                            `gorm:"column:likes_count;not null;index"`
	IsActive               bool                           `gorm:"column:is_active;not null"`
	CreatedAt              time.Time                      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time                      `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
