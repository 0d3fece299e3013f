package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
)

// Store is a seller storefront. One per owner.
type Store struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID        uuid.UUID              `gorm:"column:owner_id;type:uuid;not null;uniqueIndex"`
	Name           string                 `gorm:"column:name;not null"`
	Description    *string                `gorm:"column:description"`
	LogoURL        *string                `gorm:"column:logo_url"`
	BannerURL      *string                `gorm:"column:banner_url"`
	Category       *string                `gorm:"column:category"`
	PaymentOptions dbtypes.PaymentOptions `gorm:"column:payment_options;not null"`
	Followers      dbtypes.UUIDList       `gorm:"column:followers;not null"`
	ProductIDs     dbtypes.UUIDList       `gorm:"column:product_ids;not null"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Store) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
