package controllers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/marketly/marketly-backend/api/middleware"
	"github.com/marketly/marketly-backend/internal/messages"
	"github.com/marketly/marketly-backend/internal/payments"
	"github.com/marketly/marketly-backend/pkg/config"
	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
	"github.com/marketly/marketly-backend/pkg/logger"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubPayments struct {
	handled int
	err     error
}

func (s *stubPayments) CreatePaymentIntent(context.Context, uuid.UUID) (*payments.IntentResult, error) {
	return nil, errors.New("not used")
}

func (s *stubPayments) HandleWebhookEvent(context.Context, stripe.Event) error {
	s.handled++
	return s.err
}

type stubGuard struct {
	seen     map[string]bool
	released []string
}

func (g *stubGuard) CheckAndMark(_ context.Context, id string) (bool, error) {
	if g.seen[id] {
		return true, nil
	}
	g.seen[id] = true
	return false, nil
}

func (g *stubGuard) Release(_ context.Context, id string) error {
	delete(g.seen, id)
	g.released = append(g.released, id)
	return nil
}

type stubSender struct {
	created bool
}

func (s stubSender) Send(_ context.Context, senderID uuid.UUID, input messages.SendInput) (*messages.MessageDTO, bool, error) {
	return &messages.MessageDTO{ID: uuid.New(), SenderID: senderID, ReceiverID: input.ReceiverID, Content: input.Content}, s.created, nil
}

type stubSocket struct{ calls int }

func (s *stubSocket) Serve(http.ResponseWriter, *http.Request, uuid.UUID) error {
	s.calls++
	return nil
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestDBStatusReportsUnavailableDatabase(t *testing.T) {
	rec := httptest.NewRecorder()
	DBStatus(stubPinger{err: errors.New("down")}, stubPinger{})(rec, httptest.NewRequest(http.MethodGet, "/api/db-status", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), `"database":"disconnected"`)
	require.Contains(t, rec.Body.String(), `"redis":"connected"`)
}

func TestHandlersRequireAuthenticatedUser(t *testing.T) {
	rec := httptest.NewRecorder()
	MessageSend(stubSender{}, logger.Nop())(rec, httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{}`)))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, string(pkgerrors.CodeUnauthorized), errorCode(t, rec))
}

func TestMessageSendStatusReflectsDeduplication(t *testing.T) {
	body := fmt.Sprintf(`{"receiver_id":%q,"content":"hi","client_message_id":"c-1"}`, uuid.NewString())

	for _, tc := range []struct {
		created bool
		status  int
	}{
		{created: true, status: http.StatusCreated},
		{created: false, status: http.StatusOK},
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(body))
		req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
		rec := httptest.NewRecorder()
		MessageSend(stubSender{created: tc.created}, logger.Nop())(rec, req)
		require.Equal(t, tc.status, rec.Code, rec.Body.String())
	}
}

func TestMessageSendRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{"content":"hi","extra":1}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	rec := httptest.NewRecorder()
	MessageSend(stubSender{}, logger.Nop())(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func signWebhook(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func webhookRequest(payload []byte, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(string(payload)))
	req.Header.Set("Stripe-Signature", signature)
	return req
}

func TestPaymentWebhookDeduplicatesEvents(t *testing.T) {
	const secret = "whsec_test"
	payload := []byte(fmt.Sprintf(`{"id":"evt_7","object":"event","type":"payment_intent.succeeded","api_version":%q,"data":{"object":{"id":"pi_7","object":"payment_intent"}}}`, stripe.APIVersion))
	svc := &stubPayments{}
	guard := &stubGuard{seen: map[string]bool{}}
	handler := PaymentWebhook(svc, secret, guard, logger.Nop())

	rec := httptest.NewRecorder()
	handler(rec, webhookRequest(payload, signWebhook(payload, secret)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	handler(rec, webhookRequest(payload, signWebhook(payload, secret)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"duplicate":true`)
	require.Equal(t, 1, svc.handled)

	rec = httptest.NewRecorder()
	handler(rec, webhookRequest(payload, signWebhook(payload, "whsec_other")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentWebhookReleasesGuardOnFailure(t *testing.T) {
	const secret = "whsec_test"
	payload := []byte(fmt.Sprintf(`{"id":"evt_8","object":"event","type":"payment_intent.succeeded","api_version":%q,"data":{"object":{"id":"pi_8","object":"payment_intent"}}}`, stripe.APIVersion))
	svc := &stubPayments{err: pkgerrors.New(pkgerrors.CodeInternal, "db down")}
	guard := &stubGuard{seen: map[string]bool{}}

	rec := httptest.NewRecorder()
	PaymentWebhook(svc, secret, guard, logger.Nop())(rec, webhookRequest(payload, signWebhook(payload, secret)))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, []string{"evt_8"}, guard.released)
	require.False(t, guard.seen["evt_8"])
}

func TestPaymentWebhookRejectsOversizedBody(t *testing.T) {
	const secret = "whsec_test"
	payload := []byte(`{"id":"evt_big","pad":"` + strings.Repeat("x", maxWebhookBytes) + `"}`)
	svc := &stubPayments{}

	rec := httptest.NewRecorder()
	PaymentWebhook(svc, secret, nil, logger.Nop())(rec, webhookRequest(payload, signWebhook(payload, secret)))

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
	require.Equal(t, string(pkgerrors.CodePayloadTooLarge), errorCode(t, rec))
	require.Zero(t, svc.handled)
}

func TestRealtimeRejectsBeforeUpgrade(t *testing.T) {
	socket := &stubSocket{}
	cfg := config.JWTConfig{Secret: "secret", Issuer: "marketly", ExpirationMinutes: 5}

	rec := httptest.NewRecorder()
	Realtime(socket, cfg, nil, logger.Nop())(rec, httptest.NewRequest(http.MethodGet, "/api/realtime?token=garbage", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Zero(t, socket.calls)
}
