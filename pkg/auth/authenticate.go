package auth

import (
	"context"

	"github.com/marketly/marketly-backend/pkg/config"
	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
)

// SessionChecker reports whether an access token id still has a live session.
type SessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Authenticate validates a raw access token for both HTTP and realtime callers.
// A nil checker skips the session lookup.
func Authenticate(ctx context.Context, cfg config.JWTConfig, checker SessionChecker, token string) (*AccessTokenClaims, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}

	if checker != nil {
		ok, err := checker.HasSession(ctx, claims.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
		}
	}
	return claims, nil
}
