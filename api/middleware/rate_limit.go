package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/schoolmart/schoolmart-cart/api/responses"
	pkgerrors "github.com/schoolmart/schoolmart-cart/pkg/errors"
	"github.com/schoolmart/schoolmart-cart/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// MutationRateLimitPolicy throttles cart mutations per principal.
type MutationRateLimitPolicy struct {
	window time.Duration
	limit  int
}

// NewMutationRateLimitPolicy builds a policy; a zero limit or window disables
// throttling.
func NewMutationRateLimitPolicy(window time.Duration, limit int) MutationRateLimitPolicy {
	return MutationRateLimitPolicy{window: window, limit: limit}
}

func (p MutationRateLimitPolicy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

// MutationRateLimit applies a fixed-window counter to mutating cart requests,
// keyed by user id when authenticated and client IP otherwise. Reads pass
// through untouched.
func MutationRateLimit(policy MutationRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			scope := mutationScope(r)

			allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(policy.limit), policy.window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"scope":          scope,
						"attempts":       count,
						"limit":          policy.limit,
						"window_seconds": int(policy.window.Seconds()),
					})
					logg.Warn(logCtx, "cart.rate_limit.blocked")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many cart changes, slow down"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func mutationScope(r *http.Request) string {
	if userID := UserIDFromContext(r.Context()); userID != "" {
		return fmt.Sprintf("cart:user:%s", userID)
	}
	return fmt.Sprintf("cart:ip:%s", clientIP(r))
}

func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
