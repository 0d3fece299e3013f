package payments

import (
	"context"

	"github.com/stripe/stripe-go/v84"
)

// Gateway is the subset of the Stripe client used for card payments.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, amountMinor int64, metadata map[string]string) (*stripe.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	Currency() string
}

// MetadataUserID is the intent metadata key naming the paying user.
const MetadataUserID = "user_id"
