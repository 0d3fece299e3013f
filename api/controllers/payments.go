package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84"

	"github.com/marketly/marketly-backend/api/responses"
	"github.com/marketly/marketly-backend/internal/payments"
	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
	"github.com/marketly/marketly-backend/pkg/logger"
)

// Stripe events with expanded objects run to a few hundred KiB.
const maxWebhookBytes = 512 << 10

// WebhookGuard is the redis backed replay guard; nil disables deduplication.
type WebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

func PaymentCreateIntent(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		result, err := svc.CreatePaymentIntent(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PaymentWebhook verifies the Stripe signature over the raw body before
// handing the event to the payment service. Replayed event ids are
// acknowledged without reprocessing.
func PaymentWebhook(svc payments.Service, secret string, guard WebhookGuard, logg *logger.Logger) http.HandlerFunc {
	if logg == nil {
		logg = logger.Nop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(ctx, logg, w, pkgerrors.Newf(pkgerrors.CodePayloadTooLarge, "webhook body exceeds %d bytes", maxWebhookBytes))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}

		event, err := payments.ParseWebhookEvent(payload, r.Header.Get("Stripe-Signature"), secret)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ctx = logg.WithFields(ctx, map[string]any{"stripe_event_id": event.ID, "stripe_event_type": string(event.Type)})

		if guard != nil {
			seen, err := guard.CheckAndMark(ctx, event.ID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "webhook idempotency check"))
				return
			}
			if seen {
				logg.Info(ctx, "payments.webhook_duplicate")
				responses.WriteSuccess(w, map[string]bool{"received": true, "duplicate": true})
				return
			}
		}

		if err := svc.HandleWebhookEvent(ctx, event); err != nil {
			releaseGuard(ctx, guard, event, logg)
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}

func releaseGuard(ctx context.Context, guard WebhookGuard, event stripe.Event, logg *logger.Logger) {
	if guard == nil {
		return
	}
	if err := guard.Release(ctx, event.ID); err != nil {
		logg.Error(ctx, "payments.webhook_release_failed", err)
	}
}
