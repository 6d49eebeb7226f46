// Package httptransport assembles the public HTTP surface: middleware, health,
// metrics and the module handlers.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"contactsync/internal/platform/metrics"
	"contactsync/internal/platform/middleware"
)

// Registrar mounts a module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// RouterDeps collects what the router needs. Validator may be nil, which
// leaves the API unauthenticated.
type RouterDeps struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Validator middleware.TokenValidator
	Health    []HealthCheck
	Modules   []Registrar
}

// NewRouter wires all endpoints. /healthz and /metrics stay outside the auth
// group so health checkers and scrapers need no token.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger, deps.Metrics))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", NewHealthHandler(deps.Health, deps.Logger).ServeHTTP)
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
		for _, m := range deps.Modules {
			m.Register(r)
		}
	})
	return r
}
