package messages

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketly/marketly-backend/internal/repo"
	"github.com/marketly/marketly-backend/pkg/db"
	"github.com/marketly/marketly-backend/pkg/db/models"
)

// Repository persists direct messages.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var msg models.Message
	if err := r.DB(ctx).First(&msg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *Repository) FindByClientID(ctx context.Context, senderID uuid.UUID, clientID string) (*models.Message, error) {
	var msg models.Message
	err := r.DB(ctx).
		Where("sender_id = ? AND client_message_id = ?", senderID, clientID).
		First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Create inserts msg. When a message with the same sender and client id
// already exists the stored row is returned with created=false.
func (r *Repository) Create(ctx context.Context, msg *models.Message) (*models.Message, bool, error) {
	if err := r.DB(ctx).Create(msg).Error; err != nil {
		if msg.ClientMessageID != nil && db.IsUniqueViolation(err, "") {
			existing, findErr := r.FindByClientID(ctx, msg.SenderID, *msg.ClientMessageID)
			if findErr != nil {
				return nil, false, findErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return msg, true, nil
}

// ListInvolving returns every message sent or received by userID, newest first.
func (r *Repository) ListInvolving(ctx context.Context, userID uuid.UUID) ([]models.Message, error) {
	var rows []models.Message
	err := r.DB(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// Thread returns the messages exchanged between a and b, oldest first.
func (r *Repository) Thread(ctx context.Context, a, b uuid.UUID) ([]models.Message, error) {
	var rows []models.Message
	err := r.DB(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// MarkRead flags every unread message from sender to receiver as read.
func (r *Repository) MarkRead(ctx context.Context, senderID, receiverID uuid.UUID) (int64, error) {
	res := r.DB(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
		UpdateColumns(map[string]any{"is_read": true, "read_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// MarkReadByID flags a single message read and reports whether it changed.
func (r *Repository) MarkReadByID(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).Model(&models.Message{}).
		Where("id = ? AND is_read = ?", id, false).
		UpdateColumns(map[string]any{"is_read": true, "read_at": time.Now().UTC()})
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) CountUnread(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Count(&count).Error
	return count, err
}

func (r *Repository) CountUnreadFrom(ctx context.Context, receiverID, senderID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", receiverID, senderID, false).
		Count(&count).Error
	return count, err
}

// Latest returns the newest message exchanged between a and b.
func (r *Repository) Latest(ctx context.Context, a, b uuid.UUID) (*models.Message, error) {
	var msg models.Message
	err := r.DB(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at DESC").
		First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
