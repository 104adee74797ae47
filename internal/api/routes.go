package api

import (
	"net/http"
	"strings"

	"xjsf/internal/models"
	"xjsf/internal/ratelimit"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

type routeConfig struct {
	global   []mux.MiddlewareFunc
	services []mux.MiddlewareFunc
}

// RouteOption configures optional route behavior.
type RouteOption func(*routeConfig)

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware.
// Health probes are not traced.
func WithOTelMiddleware(serviceName string) RouteOption {
	return func(c *routeConfig) {
		c.global = append(c.global, otelmux.Middleware(serviceName,
			otelmux.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != "/health" && r.URL.Path != "/api/v1/health"
			}),
		))
	}
}

// WithBurstGuard puts limiter in front of the service routes only; health
// probes are never throttled.
func WithBurstGuard(limiter ratelimit.Limiter, trustProxyHeaders bool) RouteOption {
	return func(c *routeConfig) {
		c.services = append(c.services, ratelimit.Guard(limiter, trustProxyHeaders))
	}
}

// SetupRoutes configures the HTTP routes of the service host.
func SetupRoutes(handlers *Handlers, config *models.Config, opts ...RouteOption) *mux.Router {
	var rc routeConfig
	for _, opt := range opts {
		opt(&rc)
	}

	router := mux.NewRouter()
	router.Use(requestIDMiddleware)
	for _, m := range rc.global {
		router.Use(m)
	}
	router.Use(loggingMiddleware)
	router.Use(recoveryMiddleware)

	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/health", handlers.HealthCheck).Methods(http.MethodGet)

	services := router.NewRoute().Subrouter()
	if base := strings.Trim(config.Dispatch.BasePath, "/"); base != "" {
		services = router.PathPrefix("/" + base).Subrouter()
	}
	for _, m := range rc.services {
		services.Use(m)
	}
	services.HandleFunc("/{service}", handlers.Dispatch).Methods(http.MethodGet, http.MethodPost)

	router.NotFoundHandler = requestIDMiddleware(http.HandlerFunc(handlers.NotFound))
	router.MethodNotAllowedHandler = requestIDMiddleware(http.HandlerFunc(handlers.MethodNotAllowed))

	return router
}
