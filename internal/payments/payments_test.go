package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/marketly/marketly-backend/internal/checkout"
	"github.com/marketly/marketly-backend/pkg/enums"
	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
	"github.com/marketly/marketly-backend/pkg/redis/redistest"
)

type stubGateway struct {
	intent      *stripe.PaymentIntent
	err         error
	createdWith int64
	metadata    map[string]string
}

func (g *stubGateway) CreatePaymentIntent(_ context.Context, amountMinor int64, metadata map[string]string) (*stripe.PaymentIntent, error) {
	g.createdWith = amountMinor
	g.metadata = metadata
	if g.err != nil {
		return nil, g.err
	}
	return &stripe.PaymentIntent{ID: "pi_new", ClientSecret: "pi_new_secret", Amount: amountMinor}, nil
}

func (g *stubGateway) GetPaymentIntent(context.Context, string) (*stripe.PaymentIntent, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.intent, nil
}

func (g *stubGateway) Currency() string { return "inr" }

type stubQuoter struct {
	quote *checkout.Quote
	err   error
}

func (q stubQuoter) Quote(context.Context, uuid.UUID) (*checkout.Quote, error) {
	return q.quote, q.err
}

type stubOrders struct {
	intentID string
	status   enums.PaymentStatus
	calls    int
}

func (o *stubOrders) UpdatePaymentStatusByIntent(_ context.Context, intentID string, status enums.PaymentStatus) (int, error) {
	o.calls++
	o.intentID = intentID
	o.status = status
	return 1, nil
}

func TestVerifyPaymentIntentForCheckout(t *testing.T) {
	owner := uuid.New()
	succeeded := func() *stripe.PaymentIntent {
		return &stripe.PaymentIntent{
			ID:       "pi_1",
			Amount:   103800,
			Currency: "inr",
			Status:   stripe.PaymentIntentStatusSucceeded,
			Metadata: map[string]string{MetadataUserID: owner.String()},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*stripe.PaymentIntent)
		gateErr error
		code    pkgerrors.Code
	}{
		{name: "ok"},
		{name: "no owner metadata", mutate: func(pi *stripe.PaymentIntent) { pi.Metadata = nil }},
		{name: "other owner", mutate: func(pi *stripe.PaymentIntent) { pi.Metadata[MetadataUserID] = uuid.NewString() }, code: pkgerrors.CodeForbidden},
		{name: "not succeeded", mutate: func(pi *stripe.PaymentIntent) { pi.Status = stripe.PaymentIntentStatusRequiresPaymentMethod }, code: pkgerrors.CodeValidation},
		{name: "amount off by one", mutate: func(pi *stripe.PaymentIntent) { pi.Amount = 103799 }, code: pkgerrors.CodeValidation},
		{name: "currency mismatch", mutate: func(pi *stripe.PaymentIntent) { pi.Currency = "usd" }, code: pkgerrors.CodeValidation},
		{name: "unknown intent", gateErr: &stripe.Error{HTTPStatusCode: http.StatusNotFound}, code: pkgerrors.CodeValidation},
		{name: "stripe down", gateErr: errors.New("timeout"), code: pkgerrors.CodeDependency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := succeeded()
			if tt.mutate != nil {
				tt.mutate(intent)
			}
			verifier, err := NewVerifier(&stubGateway{intent: intent, err: tt.gateErr})
			require.NoError(t, err)

			err = verifier.VerifyPaymentIntentForCheckout(context.Background(), owner, "pi_1", 103800)
			if tt.code == "" {
				require.NoError(t, err)
				return
			}
			require.True(t, pkgerrors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestCreatePaymentIntent(t *testing.T) {
	owner := uuid.New()
	gateway := &stubGateway{}
	svc, err := NewService(ServiceParams{
		Gateway: gateway,
		Quotes:  stubQuoter{quote: &checkout.Quote{Total: decimal.NewFromInt(1038), TotalMinor: 103800}},
		Orders:  &stubOrders{},
	})
	require.NoError(t, err)

	res, err := svc.CreatePaymentIntent(context.Background(), owner)
	require.NoError(t, err)
	require.Equal(t, "pi_new_secret", res.ClientSecret)
	require.Equal(t, "pi_new", res.PaymentIntentID)
	require.Equal(t, int64(103800), gateway.createdWith)
	require.Equal(t, owner.String(), gateway.metadata[MetadataUserID])
	require.Equal(t, "inr", res.Currency)
	require.Equal(t, int64(103800), res.AmountMinor)
	require.True(t, decimal.NewFromInt(1038).Equal(res.Amount), res.Amount.String())
}

func TestCreatePaymentIntentFailures(t *testing.T) {
	unconfigured, err := NewService(ServiceParams{Quotes: stubQuoter{}, Orders: &stubOrders{}})
	require.NoError(t, err)
	_, err = unconfigured.CreatePaymentIntent(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotConfigured))

	emptyCart, err := NewService(ServiceParams{
		Gateway: &stubGateway{},
		Quotes:  stubQuoter{err: pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")},
		Orders:  &stubOrders{},
	})
	require.NoError(t, err)
	_, err = emptyCart.CreatePaymentIntent(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func signedPayload(t *testing.T, payload []byte, secret string) string {
	t.Helper()
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload(eventType, intentID string) []byte {
	return []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","type":%q,"api_version":%q,"data":{"object":{"id":%q,"object":"payment_intent","amount":1000,"status":"succeeded"}}}`,
		eventType, stripe.APIVersion, intentID))
}

func TestParseWebhookEvent(t *testing.T) {
	secret := "whsec_test"
	payload := eventPayload("payment_intent.succeeded", "pi_9")

	event, err := ParseWebhookEvent(payload, signedPayload(t, payload, secret), secret)
	require.NoError(t, err)
	require.Equal(t, stripe.EventTypePaymentIntentSucceeded, event.Type)
	require.Equal(t, "evt_1", event.ID)

	_, err = ParseWebhookEvent(payload, signedPayload(t, payload, "whsec_other"), secret)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ParseWebhookEvent(payload, "", secret)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ParseWebhookEvent(payload, "t=1,v1=abc", "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotConfigured))
}

func TestHandleWebhookEvent(t *testing.T) {
	orders := &stubOrders{}
	svc, err := NewService(ServiceParams{Quotes: stubQuoter{}, Orders: orders})
	require.NoError(t, err)
	secret := "whsec_test"

	tests := []struct {
		eventType string
		status    enums.PaymentStatus
	}{
		{"payment_intent.succeeded", enums.PaymentStatusCompleted},
		{"payment_intent.payment_failed", enums.PaymentStatusFailed},
	}
	for _, tt := range tests {
		payload := eventPayload(tt.eventType, "pi_9")
		event, err := ParseWebhookEvent(payload, signedPayload(t, payload, secret), secret)
		require.NoError(t, err)
		require.NoError(t, svc.HandleWebhookEvent(context.Background(), event))
		require.Equal(t, "pi_9", orders.intentID)
		require.Equal(t, tt.status, orders.status)
	}

	require.NoError(t, svc.HandleWebhookEvent(context.Background(), stripe.Event{Type: "charge.refunded"}))
	require.Equal(t, 2, orders.calls)
}

func TestEventGuard(t *testing.T) {
	client, fake := redistest.NewClient()
	guard, err := NewEventGuard(client, 24*time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	require.False(t, seen)
	require.Len(t, fake.Keys(), 1)

	seen, err = guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	require.True(t, seen)

	require.NoError(t, guard.Release(ctx, "evt_1"))
	seen, err = guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	require.False(t, seen)

	_, err = guard.CheckAndMark(ctx, "")
	require.Error(t, err)
}
