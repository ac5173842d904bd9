package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"

	dErrors "aegis/pkg/domain-errors"
	"aegis/pkg/platform/httputil"
	"aegis/pkg/requestcontext"
)

// Middleware returns a chi-compatible middleware enforcing one limit per
// client. The key is the authenticated requester when present, otherwise the
// client IP. A failing store lets requests through: the limiter protects
// capacity and must not become an outage amplifier.
func Middleware(store Store, limit Limit, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Key on the endpoint class, not the request path: paths carry
			// per-request segments (the lookup token), and a budget keyed on
			// them would reset with every distinct token.
			key := requestcontext.ClientIP(ctx)
			if rid := requestcontext.RequesterID(ctx); !rid.IsNil() {
				key = rid.String()
			}
			key = limit.Name + ":" + key

			result, err := store.Allow(ctx, key, limit.Requests, limit.Window)
			if err != nil {
				logger.WarnContext(ctx, "rate limit check failed, allowing request",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

			if !result.Allowed {
				w.Header().Set("Retry-After", strconv.FormatInt(int64(limit.Window.Seconds()), 10))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
