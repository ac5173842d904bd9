// Package httptransport composes the HTTP surface: middleware chain, public
// and authenticated route groups, health, and Prometheus metrics. Business
// logic stays in the feature packages; this layer only wires them.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	gatehandler "aegis/internal/gate/handler"
	"aegis/internal/platform/middleware"
	"aegis/internal/ratelimit"
	requesterhandler "aegis/internal/requester/handler"
	subjecthandler "aegis/internal/subject/handler"
	transparencyhandler "aegis/internal/transparency/handler"
	violationhandler "aegis/internal/violation/handler"
)

// Deps carries everything the router composes.
type Deps struct {
	Logger *slog.Logger

	Subjects     *subjecthandler.Handler
	Requesters   *requesterhandler.Handler
	Gate         *gatehandler.Handler
	Violations   *violationhandler.Handler
	Transparency *transparencyhandler.Handler
	Health       *HealthHandler

	Auth      middleware.Authenticator
	RateLimit ratelimit.Store
}

// NewRouter wires all endpoints.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(deps.Logger))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", deps.Health.HandleHealth)

		// Public surface.
		r.Group(func(r chi.Router) {
			r.Use(ratelimit.Middleware(deps.RateLimit, ratelimit.LimitRegistration, deps.Logger))
			deps.Subjects.Register(r)
			deps.Requesters.Register(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(ratelimit.Middleware(deps.RateLimit, ratelimit.LimitViolations, deps.Logger))
			deps.Violations.RegisterPublic(r)
		})
		deps.Transparency.Register(r)

		// Requester-authenticated surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAPIKey(deps.Auth, deps.Logger))
			r.Group(func(r chi.Router) {
				r.Use(ratelimit.Middleware(deps.RateLimit, ratelimit.LimitLookup, deps.Logger))
				deps.Gate.Register(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(ratelimit.Middleware(deps.RateLimit, ratelimit.LimitCompliance, deps.Logger))
				deps.Violations.RegisterAuthenticated(r)
			})
		})
	})

	return r
}
