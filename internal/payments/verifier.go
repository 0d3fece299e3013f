package payments

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
)

// Verifier checks a client-supplied payment intent against the server's total.
type Verifier struct {
	gateway Gateway
}

func NewVerifier(gateway Gateway) (*Verifier, error) {
	if gateway == nil {
		return nil, errors.New("payment gateway required")
	}
	return &Verifier{gateway: gateway}, nil
}

// VerifyPaymentIntentForCheckout requires the intent to have succeeded and to
// match expectedMinor exactly. A user_id in the metadata must name ownerID.
func (v *Verifier) VerifyPaymentIntentForCheckout(ctx context.Context, ownerID uuid.UUID, intentID string, expectedMinor int64) error {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment_intent_id is required")
	}

	intent, err := v.gateway.GetPaymentIntent(ctx, intentID)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment intent not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch payment intent")
	}

	if owner, ok := intent.Metadata[MetadataUserID]; ok && owner != ownerID.String() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "payment intent belongs to another user")
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment has not succeeded").
			WithDetails(map[string]any{"status": intent.Status})
	}
	if currency := string(intent.Currency); currency != "" && !strings.EqualFold(currency, v.gateway.Currency()) {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment currency mismatch")
	}
	if intent.Amount != expectedMinor {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment amount does not match order total").
			WithDetails(map[string]any{"expected": expectedMinor, "paid": intent.Amount})
	}
	return nil
}
