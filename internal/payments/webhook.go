package payments

import (
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
)

// SignatureTolerance bounds how old a signed webhook timestamp may be.
const SignatureTolerance = 5 * time.Minute

// ParseWebhookEvent verifies the Stripe-Signature header over the raw body.
func ParseWebhookEvent(payload []byte, signature, secret string) (stripe.Event, error) {
	if secret == "" {
		return stripe.Event{}, pkgerrors.New(pkgerrors.CodeNotConfigured, "stripe webhook secret is not configured")
	}
	if signature == "" {
		return stripe.Event{}, pkgerrors.New(pkgerrors.CodeValidation, "missing Stripe-Signature header")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		Tolerance:                SignatureTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook signature")
	}
	return event, nil
}
