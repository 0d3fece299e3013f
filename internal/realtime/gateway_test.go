package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/marketly/marketly-backend/pkg/config"
	"github.com/marketly/marketly-backend/pkg/logger"
)

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/realtime?token=query-token", nil)
	require.Equal(t, "query-token", TokenFromRequest(req))

	req.Header.Set("Authorization", "Bearer header-token")
	require.Equal(t, "header-token", TokenFromRequest(req))

	req = httptest.NewRequest(http.MethodGet, "/api/realtime", nil)
	require.Empty(t, TokenFromRequest(req))
}

func TestCheckOrigin(t *testing.T) {
	g := &Gateway{cfg: config.RealtimeConfig{AllowedOrigins: []string{"https://shop.example.com"}}}
	req := httptest.NewRequest(http.MethodGet, "/api/realtime", nil)
	require.True(t, g.checkOrigin(req))

	req.Header.Set("Origin", "https://shop.example.com")
	require.True(t, g.checkOrigin(req))

	req.Header.Set("Origin", "https://evil.example.com")
	require.False(t, g.checkOrigin(req))
}

func TestGatewayDeliversMessagesBetweenSockets(t *testing.T) {
	f := newDispatchFixture(t)
	gw, err := NewGateway(f.dispatcher, config.RealtimeConfig{
		AllowedOrigins: []string{"*"},
		WriteTimeout:   time.Second,
		PongWait:       5 * time.Second,
		MaxMessageSize: 1 << 16,
	}, logger.Nop())
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.URL.Query().Get("as"))
		if err != nil {
			http.Error(w, "bad user", http.StatusBadRequest)
			return
		}
		_ = gw.Serve(w, r, userID)
	}))
	t.Cleanup(srv.Close)

	dial := func(userID uuid.UUID) *websocket.Conn {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?as=" + userID.String()
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	}
	readUntil := func(conn *websocket.Conn, event string) Frame {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		for {
			var frame Frame
			require.NoError(t, conn.ReadJSON(&frame))
			if frame.Event == event {
				return frame
			}
		}
	}

	aliceConn := dial(f.alice)
	bobConn := dial(f.bob)

	require.NoError(t, bobConn.WriteJSON(Frame{
		Event: EventJoin,
		Data:  rawJSON(t, map[string]string{"partner_id": f.alice.String()}),
		Ack:   ackID(1),
	}))
	readUntil(bobConn, EventAck)

	require.NoError(t, aliceConn.WriteJSON(Frame{
		Event: EventSend,
		Data:  rawJSON(t, map[string]any{"receiver_id": f.bob, "content": "over the wire"}),
		Ack:   ackID(2),
	}))

	ack := readUntil(aliceConn, EventAck)
	require.Equal(t, 2, *ack.Ack)
	require.Contains(t, string(ack.Data), `"ok":true`)

	pushed := readUntil(bobConn, EventMessageNew)
	require.Contains(t, string(pushed.Data), "over the wire")

	require.Eventually(t, func() bool {
		unread, err := f.messages.UnreadCount(context.Background(), f.bob)
		return err == nil && unread.Count == 0
	}, time.Second, 20*time.Millisecond)
}

func TestGatewayRejectsMalformedFrames(t *testing.T) {
	f := newDispatchFixture(t)
	gw, err := NewGateway(f.dispatcher, config.RealtimeConfig{AllowedOrigins: []string{"*"}}, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = gw.Serve(w, r, f.alice)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var frame Frame
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, EventError, frame.Event)
}
