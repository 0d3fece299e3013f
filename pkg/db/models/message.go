package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a direct message. (SenderID, ClientMessageID) is unique when the client id is set.
type Message struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	SenderID        uuid.UUID  `gorm:"column:sender_id;type:uuid;not null;index;uniqueIndex:idx_messages_sender_client,priority:1"`
	ReceiverID      uuid.UUID  `gorm:"column:receiver_id;type:uuid;not null;index"`
	StoreID         *uuid.UUID `gorm:"column:store_id;type:uuid"`
	Content         string     `gorm:"column:content;not null"`
	IsRead          bool       `gorm:"column:is_read;not null"`
	ReadAt          *time.Time `gorm:"column:read_at"`
	ClientMessageID *string    `gorm:"column:client_message_id;uniqueIndex:idx_messages_sender_client,priority:2"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *Message) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
