package middleware

import (
	"net/http"

	"github.com/marketly/marketly-backend/api/responses"
	pkgAuth "github.com/marketly/marketly-backend/pkg/auth"
	"github.com/marketly/marketly-backend/pkg/config"
	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
	"github.com/marketly/marketly-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the claims.
func Auth(cfg config.JWTConfig, checker pkgAuth.SessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := pkgAuth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.Authenticate(r.Context(), cfg, checker, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID.String())
			ctx = withTokenID(ctx, claims.ID)
			if claims.StoreID != nil {
				ctx = WithStoreID(ctx, claims.StoreID.String())
			}

			if logg != nil {
				fields := map[string]any{"user_id": claims.UserID.String()}
				if claims.StoreID != nil {
					fields["store_id"] = claims.StoreID.String()
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
