package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"xjsf/internal/clients"
	"xjsf/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Outcome summarises one dispatch for an Observer.
type Outcome struct {
	Service  string
	Format   string
	Status   string // models.Envelope* or "direct"
	Code     string // error code, empty unless Status is "error"
	Client   string // empty when no client was resolved
	Duration time.Duration
}

// Observer receives every dispatch outcome. Implementations must be safe
// for concurrent use.
type Observer interface {
	ObserveDispatch(ctx context.Context, o Outcome)
}

// Hub is the catalog of hosted services and the entry point of the
// dispatch pipeline. It is built once at startup and shared by the router
// and the built-in services.
type Hub struct {
	mu       sync.RWMutex
	services map[string]Service

	resolver     *clients.Resolver
	policy       string
	exposeTraces bool
	observer     Observer
	tracer       trace.Tracer
	logger       *slog.Logger
}

type Option func(*Hub)

// WithRejectPolicy selects what happens when a claimed identity cannot be
// verified: models.RejectPolicyDeny answers UNKNOWN_CLIENT,
// models.RejectPolicySkip serves the request without charging anyone.
func WithRejectPolicy(policy string) Option {
	return func(h *Hub) { h.policy = policy }
}

// WithExposeTraces includes diagnostic traces in FAULT envelopes.
func WithExposeTraces(expose bool) Option {
	return func(h *Hub) { h.exposeTraces = expose }
}

func WithObserver(o Observer) Option {
	return func(h *Hub) { h.observer = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

// NewHub returns an empty hub billing requests through resolver.
func NewHub(resolver *clients.Resolver, opts ...Option) *Hub {
	h := &Hub{
		services: make(map[string]Service),
		resolver: resolver,
		policy:   models.RejectPolicyDeny,
		tracer:   otel.Tracer("xjsf/service"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds svc under its descriptor name.
func (h *Hub) Register(svc Service) error {
	name := svc.Descriptor().Name
	if name == "" {
		return fmt.Errorf("service has no name")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.services[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateService, name)
	}
	h.services[name] = svc

	h.logger.Info("Registered service", "service", name, "group", svc.Descriptor().GroupName())
	return nil
}

// Drop removes a service. It reports whether one was registered.
func (h *Hub) Drop(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.services[name]; !exists {
		return false
	}
	delete(h.services, name)
	return true
}

func (h *Hub) Service(name string) (Service, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	svc, ok := h.services[name]
	return svc, ok
}

// Names returns the registered service names in sorted order.
func (h *Hub) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.services))
	for name := range h.services {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Services returns the registered services ordered by name.
func (h *Hub) Services() []Service {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Service, 0, len(h.services))
	for _, svc := range h.services {
		out = append(out, svc)
	}
	slices.SortFunc(out, func(a, b Service) int {
		return cmp.Compare(a.Descriptor().Name, b.Descriptor().Name)
	})
	return out
}

// Clients returns the client registry behind the hub's resolver.
func (h *Hub) Clients() *clients.Registry {
	return h.resolver.Registry()
}

// Identify resolves the client a request is billed to without charging it.
func (h *Hub) Identify(r *http.Request) (*clients.Client, error) {
	return h.resolver.Resolve(r)
}
