package payments

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/marketly/marketly-backend/internal/checkout"
	"github.com/marketly/marketly-backend/pkg/enums"
	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
	"github.com/marketly/marketly-backend/pkg/logger"
	"github.com/marketly/marketly-backend/pkg/money"
)

type cartQuoter interface {
	Quote(ctx context.Context, ownerID uuid.UUID) (*checkout.Quote, error)
}

type paymentStatusUpdater interface {
	UpdatePaymentStatusByIntent(ctx context.Context, intentID string, status enums.PaymentStatus) (int, error)
}

// IntentResult is returned to the client to confirm the card payment.
type IntentResult struct {
	ClientSecret    string          `json:"client_secret"`
	PaymentIntentID string          `json:"payment_intent_id"`
	Amount          decimal.Decimal `json:"amount"`
	AmountMinor     int64           `json:"amount_minor"`
	Currency        string          `json:"currency"`
}

// Service exposes payment intent creation and webhook reconciliation.
type Service interface {
	CreatePaymentIntent(ctx context.Context, ownerID uuid.UUID) (*IntentResult, error)
	HandleWebhookEvent(ctx context.Context, event stripe.Event) error
}

// ServiceParams groups payment dependencies. A nil Gateway means Stripe is
// not configured.
type ServiceParams struct {
	Gateway Gateway
	Quotes  cartQuoter
	Orders  paymentStatusUpdater
	Logger  *logger.Logger
}

type service struct {
	gateway Gateway
	quotes  cartQuoter
	orders  paymentStatusUpdater
	logg    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Quotes == nil {
		return nil, errors.New("cart quoter required")
	}
	if params.Orders == nil {
		return nil, errors.New("orders updater required")
	}
	return &service{gateway: params.Gateway, quotes: params.Quotes, orders: params.Orders, logg: params.Logger}, nil
}

func (s *service) CreatePaymentIntent(ctx context.Context, ownerID uuid.UUID) (*IntentResult, error) {
	if s.gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotConfigured, "stripe is not configured")
	}
	quote, err := s.quotes.Quote(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if quote.TotalMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive")
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, quote.TotalMinor, map[string]string{
		MetadataUserID: ownerID.String(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}
	return &IntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          money.FromMinor(intent.Amount),
		AmountMinor:     intent.Amount,
		Currency:        s.gateway.Currency(),
	}, nil
}

// HandleWebhookEvent reconciles order payment status from intent outcomes.
// Unrelated event types are acknowledged and ignored.
func (s *service) HandleWebhookEvent(ctx context.Context, event stripe.Event) error {
	var status enums.PaymentStatus
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		status = enums.PaymentStatusCompleted
	case stripe.EventTypePaymentIntentPaymentFailed:
		status = enums.PaymentStatusFailed
	default:
		return nil
	}

	if event.Data == nil || len(event.Data.Raw) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent")
	}
	if intent.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}

	changed, err := s.orders.UpdatePaymentStatusByIntent(ctx, intent.ID, status)
	if err != nil {
		return err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"event_id":          event.ID,
			"event_type":        string(event.Type),
			"payment_intent_id": intent.ID,
			"orders_updated":    changed,
		}), "payments.webhook_reconciled")
	}
	return nil
}
