package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/marketly/marketly-backend/api/responses"
	"github.com/marketly/marketly-backend/api/validators"
	"github.com/marketly/marketly-backend/internal/messages"
	"github.com/marketly/marketly-backend/pkg/logger"
)

// MessageSender stores a message and fans it out to realtime subscribers.
type MessageSender interface {
	Send(ctx context.Context, senderID uuid.UUID, input messages.SendInput) (*messages.MessageDTO, bool, error)
}

// MessageSend answers 201 for a new message and 200 for a deduplicated retry.
func MessageSend(sender MessageSender, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		var body messages.SendInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		msg, created, err := sender.Send(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, msg)
	}
}

func MessageConversations(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		rows, err := svc.Conversations(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func MessageUnreadCount(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		count, err := svc.UnreadCount(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, count)
	}
}

// MessageThread returns the conversation with userId and marks it read.
func MessageThread(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		otherID, ok := pathID(w, r, logg, "userId")
		if !ok {
			return
		}
		rows, err := svc.Thread(r.Context(), userID, otherID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func MessageMarkRead(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		otherID, ok := pathID(w, r, logg, "userId")
		if !ok {
			return
		}
		result, err := svc.MarkRead(r.Context(), userID, otherID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
