package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketly/marketly-backend/pkg/enums"
)

// Address is an address book entry. Exactly one per user carries IsDefault.
type Address struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index;uniqueIndex:idx_addresses_single_default,where:is_default"`
	Type       enums.AddressType `gorm:"column:type;not null"`
	FullName   string            `gorm:"column:full_name;not null"`
	Phone      string            `gorm:"column:phone;not null"`
	Line1      string            `gorm:"column:line1;not null"`
	Line2      *string           `gorm:"column:line2"`
	City       string            `gorm:"column:city;not null"`
	State      string            `gorm:"column:state;not null"`
	PostalCode string            `gorm:"column:postal_code;not null"`
	Country    string            `gorm:"column:country;not null"`
	Landmark   *string           `gorm:"column:landmark"`
	IsDefault  bool              `gorm:"column:is_default;not null"`
	Version    int               `gorm:"column:version;not null"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
