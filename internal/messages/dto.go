package messages

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketly/marketly-backend/internal/users"
	"github.com/marketly/marketly-backend/pkg/db/models"
)

type MessageDTO struct {
	ID              uuid.UUID  `json:"id"`
	SenderID        uuid.UUID  `json:"sender_id"`
	ReceiverID      uuid.UUID  `json:"receiver_id"`
	StoreID         *uuid.UUID `json:"store_id,omitempty"`
	Content         string     `json:"content"`
	IsRead          bool       `json:"is_read"`
	ReadAt          *time.Time `json:"read_at,omitempty"`
	ClientMessageID *string    `json:"client_message_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// SendInput is the payload shared by the REST and realtime send paths.
type SendInput struct {
	ReceiverID      uuid.UUID  `json:"receiver_id" validate:"required"`
	StoreID         *uuid.UUID `json:"store_id,omitempty"`
	Content         string     `json:"content" validate:"required,max=4000"`
	ClientMessageID *string    `json:"client_message_id,omitempty" validate:"omitempty,max=128"`
}

// ConversationDTO is one inbox row: the partner, the newest message and the
// number of unread messages from that partner.
type ConversationDTO struct {
	Partner     users.SummaryDTO `json:"partner"`
	LastMessage MessageDTO       `json:"last_message"`
	UnreadCount int64            `json:"unread_count"`
}

type UnreadCountDTO struct {
	Count int64 `json:"count"`
}

type MarkReadResult struct {
	Updated int64 `json:"updated"`
}

func FromModel(m *models.Message) MessageDTO {
	return MessageDTO{
		ID:              m.ID,
		SenderID:        m.SenderID,
		ReceiverID:      m.ReceiverID,
		StoreID:         m.StoreID,
		Content:         m.Content,
		IsRead:          m.IsRead,
		ReadAt:          m.ReadAt,
		ClientMessageID: m.ClientMessageID,
		CreatedAt:       m.CreatedAt,
	}
}
