package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/marketly/marketly-backend/api/responses"
	"github.com/marketly/marketly-backend/internal/realtime"
	pkgAuth "github.com/marketly/marketly-backend/pkg/auth"
	"github.com/marketly/marketly-backend/pkg/config"
	"github.com/marketly/marketly-backend/pkg/logger"
)

type socketServer interface {
	Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error
}

// Realtime authenticates the token before upgrading. Failures answer 401
// over plain HTTP so no room is ever joined.
func Realtime(gateway socketServer, cfg config.JWTConfig, checker pkgAuth.SessionChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := pkgAuth.Authenticate(r.Context(), cfg, checker, realtime.TokenFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := gateway.Serve(w, r, claims.UserID); err != nil && logg != nil {
			logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "realtime.upgrade_failed")
		}
	}
}
