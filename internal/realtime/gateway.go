package realtime

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	pkgAuth "github.com/marketly/marketly-backend/pkg/auth"
	"github.com/marketly/marketly-backend/pkg/config"
	"github.com/marketly/marketly-backend/pkg/logger"
)

var errUpgradeFailed = errors.New("websocket upgrade failed")

// Gateway upgrades authenticated HTTP requests into realtime connections.
type Gateway struct {
	dispatcher *Dispatcher
	cfg        config.RealtimeConfig
	upgrader   websocket.Upgrader
	logg       *logger.Logger
}

func NewGateway(dispatcher *Dispatcher, cfg config.RealtimeConfig, logg *logger.Logger) (*Gateway, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	g := &Gateway{dispatcher: dispatcher, cfg: cfg, logg: logg}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     g.checkOrigin,
	}
	return g, nil
}

// TokenFromRequest reads the access token from the Authorization header or
// the token query parameter.
func TokenFromRequest(r *http.Request) string {
	if token, ok := pkgAuth.BearerToken(r.Header.Get("Authorization")); ok {
		return token
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// Serve upgrades the request for userID and blocks until the socket closes.
func (g *Gateway) Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", errUpgradeFailed, err)
	}

	c := newClient(conn, userID, g.cfg.WriteTimeout, g.cfg.PongWait)
	ctx := g.logg.WithFields(r.Context(), map[string]any{
		"user_id": userID.String(),
		"conn_id": c.ID(),
	})
	g.dispatcher.Connect(c)
	g.logg.Info(ctx, "realtime.connected")
	defer func() {
		g.dispatcher.Disconnect(c)
		g.logg.Info(ctx, "realtime.disconnected")
	}()

	go c.writePump()
	c.readPump(ctx, g.dispatcher, g.cfg.MaxMessageSize)
	return nil
}

func (g *Gateway) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range g.cfg.AllowedOrigins {
		allowed = strings.TrimSpace(allowed)
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
