package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
)

// User represents the canonical identity entity.
type User struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name         string           `gorm:"column:name;not null"`
	Email        string           `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string           `gorm:"column:password_hash;not null"`
	Phone        *string          `gorm:"column:phone"`
	AvatarURL    *string          `gorm:"column:avatar_url"`
	Bio          *string          `gorm:"column:bio"`
	IsStore      bool             `gorm:"column:is_store;not null"`
	StoreID      *uuid.UUID       `gorm:"column:store_id;type:uuid"`
	Followers    dbtypes.UUIDList `gorm:"column:followers;not null"`
	Following    dbtypes.UUIDList `gorm:"column:following;not null"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
