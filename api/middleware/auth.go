package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/schoolmart/schoolmart-cart/api/responses"
	pkgAuth "github.com/schoolmart/schoolmart-cart/pkg/auth"
	"github.com/schoolmart/schoolmart-cart/pkg/config"
	pkgerrors "github.com/schoolmart/schoolmart-cart/pkg/errors"
	"github.com/schoolmart/schoolmart-cart/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// claims. The raw token is kept in the context so cart handlers can forward
// the caller's credentials to the upstream gateway unchanged.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID.String())
			ctx = context.WithValue(ctx, ctxRole, string(claims.Role))
			ctx = context.WithValue(ctx, ctxSessionID, claims.ID)
			ctx = context.WithValue(ctx, ctxAccessToken, token)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    claims.UserID.String(),
					"actor_role": string(claims.Role),
					"session_id": claims.ID,
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
