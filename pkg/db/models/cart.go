package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
)

// Cart is the single shopping cart of a user. Version increments on every write.
type Cart struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID   uuid.UUID         `gorm:"column:owner_id;type:uuid;not null;uniqueIndex"`
	Items     dbtypes.CartLines `gorm:"column:items;not null"`
	Version   int               `gorm:"column:version;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
