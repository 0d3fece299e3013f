package messages

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/marketly/marketly-backend/internal/repo"
	"github.com/marketly/marketly-backend/internal/users"
	"github.com/marketly/marketly-backend/pkg/db"
	"github.com/marketly/marketly-backend/pkg/db/models"
	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
)

const maxContentLength = 4000

type userLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)
}

// Service implements direct messaging between two users.
type Service interface {
	Send(ctx context.Context, senderID uuid.UUID, input SendInput) (*MessageDTO, bool, error)
	Conversations(ctx context.Context, userID uuid.UUID) ([]ConversationDTO, error)
	Thread(ctx context.Context, userID, otherID uuid.UUID) ([]MessageDTO, error)
	MarkRead(ctx context.Context, userID, otherID uuid.UUID) (*MarkReadResult, error)
	MarkMessageRead(ctx context.Context, messageID uuid.UUID) (*MessageDTO, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (*UnreadCountDTO, error)
	ConversationSummary(ctx context.Context, userID, otherID uuid.UUID) (*ConversationDTO, error)
}

type service struct {
	repo  *Repository
	users userLookup
}

func NewService(repo *Repository, users userLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("message repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user lookup required")
	}
	return &service{repo: repo, users: users}, nil
}

// Send stores a message. A retry carrying the same client message id returns
// the original message with created=false.
func (s *service) Send(ctx context.Context, senderID uuid.UUID, input SendInput) (*MessageDTO, bool, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "content is required")
	}
	if len(content) > maxContentLength {
		return nil, false, pkgerrors.Newf(pkgerrors.CodeValidation, "content exceeds %d characters", maxContentLength)
	}
	if input.ReceiverID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "receiver_id is required")
	}
	if input.ReceiverID == senderID {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "cannot message yourself")
	}

	var clientID *string
	if input.ClientMessageID != nil {
		if trimmed := strings.TrimSpace(*input.ClientMessageID); trimmed != "" {
			clientID = &trimmed
			existing, err := s.repo.FindByClientID(ctx, senderID, trimmed)
			if err == nil {
				dto := FromModel(existing)
				return &dto, false, nil
			}
			if !db.IsNotFound(err) {
				return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load message")
			}
		}
	}

	ok, err := s.users.Exists(ctx, input.ReceiverID)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load receiver")
	}
	if !ok {
		return nil, false, pkgerrors.New(pkgerrors.CodeNotFound, "receiver not found")
	}

	msg, created, err := s.repo.Create(ctx, &models.Message{
		SenderID:        senderID,
		ReceiverID:      input.ReceiverID,
		StoreID:         input.StoreID,
		Content:         content,
		ClientMessageID: clientID,
	})
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create message")
	}
	dto := FromModel(msg)
	return &dto, created, nil
}

// Conversations groups the user's messages by partner, newest conversation first.
func (s *service) Conversations(ctx context.Context, userID uuid.UUID) ([]ConversationDTO, error) {
	rows, err := s.repo.ListInvolving(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list messages")
	}

	var order []uuid.UUID
	latest := map[uuid.UUID]models.Message{}
	unread := map[uuid.UUID]int64{}
	for _, msg := range rows {
		partner := msg.SenderID
		if partner == userID {
			partner = msg.ReceiverID
		}
		if _, seen := latest[partner]; !seen {
			latest[partner] = msg
			order = append(order, partner)
		}
		if msg.ReceiverID == userID && !msg.IsRead {
			unread[partner]++
		}
	}

	partners, err := s.users.FindByIDs(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load conversation partners")
	}

	out := make([]ConversationDTO, 0, len(order))
	for _, id := range order {
		last := latest[id]
		out = append(out, ConversationDTO{
			Partner:     partnerSummary(partners, id),
			LastMessage: FromModel(&last),
			UnreadCount: unread[id],
		})
	}
	return out, nil
}

// Thread returns the conversation with otherID oldest first and marks the
// partner's messages to the caller as read.
func (s *service) Thread(ctx context.Context, userID, otherID uuid.UUID) ([]MessageDTO, error) {
	if _, err := s.repo.MarkRead(ctx, otherID, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark messages read")
	}
	rows, err := s.repo.Thread(ctx, userID, otherID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load thread")
	}
	out := make([]MessageDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) MarkRead(ctx context.Context, userID, otherID uuid.UUID) (*MarkReadResult, error) {
	n, err := s.repo.MarkRead(ctx, otherID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark messages read")
	}
	return &MarkReadResult{Updated: n}, nil
}

func (s *service) MarkMessageRead(ctx context.Context, messageID uuid.UUID) (*MessageDTO, error) {
	if _, err := s.repo.MarkReadByID(ctx, messageID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark message read")
	}
	msg, err := s.repo.FindByID(ctx, messageID)
	if err != nil {
		return nil, repo.NotFound(err, "message not found")
	}
	dto := FromModel(msg)
	return &dto, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (*UnreadCountDTO, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count unread messages")
	}
	return &UnreadCountDTO{Count: n}, nil
}

// ConversationSummary builds the inbox row userID sees for otherID.
func (s *service) ConversationSummary(ctx context.Context, userID, otherID uuid.UUID) (*ConversationDTO, error) {
	last, err := s.repo.Latest(ctx, userID, otherID)
	if err != nil {
		return nil, repo.NotFound(err, "conversation not found")
	}
	n, err := s.repo.CountUnreadFrom(ctx, userID, otherID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count unread messages")
	}
	partners, err := s.users.FindByIDs(ctx, []uuid.UUID{otherID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load conversation partner")
	}
	return &ConversationDTO{
		Partner:     partnerSummary(partners, otherID),
		LastMessage: FromModel(last),
		UnreadCount: n,
	}, nil
}

func partnerSummary(partners map[uuid.UUID]models.User, id uuid.UUID) users.SummaryDTO {
	if u, ok := partners[id]; ok {
		return users.SummaryFromModel(u)
	}
	return users.SummaryDTO{ID: id}
}
