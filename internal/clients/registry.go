package clients

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"xjsf/internal/models"

	"go.uber.org/atomic"
)

// AnonymousID is the id of the default client. It is never stored in the
// id map, so no cookie or origin can resolve to it directly.
const AnonymousID = "anonymous"

// Registry maps client ids to Clients. It is built once from a roster and
// grows as new origins are seen. Clients are never removed.
type Registry struct {
	byID sync.Map // string -> *Client
	size atomic.Int64

	def    *Client
	auth   models.Authentication
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Registry)

// WithClock drives every client's windows from now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithAuthentication overrides the cookie names declared by the roster.
// An empty pair leaves the roster's declaration in place.
func WithAuthentication(auth models.Authentication) Option {
	return func(r *Registry) {
		if auth.NameCookie != "" {
			r.auth = auth
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry builds a registry from roster. A nil roster means no roster
// was configured at all: the default client is unlimited. A roster without
// a nameless entry gets a default client with zero caps, so unknown origins
// are refused.
func NewRegistry(roster *models.Roster, opts ...Option) (*Registry, error) {
	r := &Registry{
		now:    time.Now,
		logger: slog.Default(),
	}

	var entries []models.RosterEntry
	defLimits := UnlimitedLimits
	if roster != nil {
		if err := roster.Validate(); err != nil {
			return nil, fmt.Errorf("invalid roster: %w", err)
		}
		r.auth = roster.Authentication
		entries = roster.Clients

		defLimits = Limits{}
		if entry, ok := roster.Default(); ok {
			defLimits = entryLimits(entry)
		}
	}

	for _, opt := range opts {
		opt(r)
	}

	r.def = NewClient(AnonymousID, defLimits, WithClientClock(r.now))

	for _, entry := range entries {
		if entry.IsDefault() {
			continue
		}
		copts := []ClientOption{WithClientClock(r.now)}
		if entry.Password != nil {
			copts = append(copts, WithPassword(*entry.Password))
		}
		r.byID.Store(entry.Name, NewClient(entry.Name, entryLimits(entry), copts...))
		r.size.Inc()
	}

	r.logger.Info("Client registry loaded",
		"clients", r.Len(),
		"cookie_auth", r.auth.NameCookie != "",
		"default_limits", r.def.Limits(),
	)

	return r, nil
}

func entryLimits(e models.RosterEntry) Limits {
	limit := func(v *int) int {
		if v == nil || *v < 0 {
			return Unlimited
		}
		return *v
	}
	return Limits{
		PerMinute: limit(e.MinuteLimit),
		PerHour:   limit(e.HourLimit),
		PerDay:    limit(e.DayLimit),
	}
}

// Default returns the anonymous client.
func (r *Registry) Default() *Client { return r.def }

// Auth returns the cookie pair used for credential identification.
func (r *Registry) Auth() models.Authentication { return r.auth }

// Client looks up a registered client.
func (r *Registry) Client(id string) (*Client, bool) {
	v, ok := r.byID.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Client), true
}

// LoadOrCreate returns the client registered under id, registering a fresh
// one with the default client's limits and no credential if there is none.
// Concurrent callers for the same id all receive the same instance.
func (r *Registry) LoadOrCreate(id string) (c *Client, created bool) {
	if v, ok := r.byID.Load(id); ok {
		return v.(*Client), false
	}

	fresh := NewClient(id, r.def.Limits(), WithClientClock(r.now))
	v, loaded := r.byID.LoadOrStore(id, fresh)
	if !loaded {
		r.size.Inc()
		r.logger.Debug("Registered client for new origin", "client", id)
	}
	return v.(*Client), !loaded
}

// Len is the number of registered clients, not counting the default.
func (r *Registry) Len() int { return int(r.size.Load()) }

// Names returns the registered client ids in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.Len())
	r.byID.Range(func(k, _ any) bool {
		names = append(names, k.(string))
		return true
	})
	slices.Sort(names)
	return names
}
