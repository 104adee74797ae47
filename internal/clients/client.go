// Package clients tracks who is calling the host and how much they have used.
//
// A Client owns three fixed-window usage counters (minute, hour, day). Each
// counter rolls over lazily on the first charge after its window boundary;
// there are no timers. The Registry maps client ids to Clients and creates
// clients on first sight of an unknown origin. The Resolver maps a request
// to its Client.
package clients

import (
	"crypto/subtle"
	"math"
	"sync"
	"time"
)

// Unlimited is the cap of a window that never overflows.
const Unlimited = -1

// Window identifies one of the three usage windows.
type Window int

const (
	Minute Window = iota
	Hour
	Day
)

var windows = [...]Window{Minute, Hour, Day}

func (w Window) String() string {
	switch w {
	case Minute:
		return "minute"
	case Hour:
		return "hour"
	case Day:
		return "day"
	}
	return "unknown"
}

// Start returns the beginning of the window containing t, in UTC.
func (w Window) Start(t time.Time) time.Time {
	t = t.UTC()
	switch w {
	case Minute:
		return t.Truncate(time.Minute)
	case Hour:
		return t.Truncate(time.Hour)
	default:
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
}

// Limits holds the per-window caps. Any negative value means Unlimited.
type Limits struct {
	PerMinute int `json:"per_minute"`
	PerHour   int `json:"per_hour"`
	PerDay    int `json:"per_day"`
}

// UnlimitedLimits never reports a window as exceeded.
var UnlimitedLimits = Limits{PerMinute: Unlimited, PerHour: Unlimited, PerDay: Unlimited}

func (l Limits) of(w Window) int {
	var v int
	switch w {
	case Minute:
		v = l.PerMinute
	case Hour:
		v = l.PerHour
	default:
		v = l.PerDay
	}
	if v < 0 {
		return Unlimited
	}
	return v
}

func (l Limits) normalized() Limits {
	return Limits{PerMinute: l.of(Minute), PerHour: l.of(Hour), PerDay: l.of(Day)}
}

type counter struct {
	start time.Time
	used  int
}

// Client is one quota holder. All methods are safe for concurrent use.
type Client struct {
	id         string
	credential *string
	limits     Limits
	now        func() time.Time

	mu    sync.Mutex
	usage [len(windows)]counter
}

type ClientOption func(*Client)

// WithPassword requires candidate passwords to equal p.
func WithPassword(p string) ClientOption {
	return func(c *Client) { c.credential = &p }
}

// WithClientClock replaces time.Now for window bookkeeping.
func WithClientClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

func NewClient(id string, limits Limits, opts ...ClientOption) *Client {
	c := &Client{
		id:     id,
		limits: limits.normalized(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ID() string { return c.id }

func (c *Client) Limits() Limits { return c.limits }

// HasCredential reports whether a password is configured.
func (c *Client) HasCredential() bool { return c.credential != nil }

// PasswordMatches is true when no credential is configured or candidate is
// exactly the configured credential.
func (c *Client) PasswordMatches(candidate string) bool {
	if c.credential == nil {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(*c.credential)) == 1
}

// Consume charges cost against every window and reports whether any capped
// window is now over its cap. The charge sticks even when the result is true.
// Negative costs charge nothing.
func (c *Client) Consume(cost int) (exceeded bool) {
	if cost < 0 {
		cost = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for _, w := range windows {
		ctr := &c.usage[w]
		// A clock that steps backwards keeps the newer window.
		if start := w.Start(now); start.After(ctr.start) {
			ctr.start = start
			ctr.used = 0
		}
		if cost > math.MaxInt-ctr.used {
			ctr.used = math.MaxInt
		} else {
			ctr.used += cost
		}

		if limit := c.limits.of(w); limit != Unlimited && ctr.used > limit {
			exceeded = true
		}
	}
	return exceeded
}

// WindowUsage is a point-in-time view of one window.
type WindowUsage struct {
	Window string    `xml:"window,attr" json:"window"`
	Limit  int       `xml:"limit,attr" json:"limit"`
	Used   int       `xml:"used,attr" json:"used"`
	Start  time.Time `xml:"start,attr" json:"start"`
}

// Usage reports the counters as they would stand for a charge made now.
// Windows that have rolled over read as zero; nothing is mutated.
func (c *Client) Usage() []WindowUsage {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	out := make([]WindowUsage, 0, len(windows))
	for _, w := range windows {
		ctr := c.usage[w]
		if start := w.Start(now); start.After(ctr.start) {
			ctr = counter{start: start}
		}
		out = append(out, WindowUsage{
			Window: w.String(),
			Limit:  c.limits.of(w),
			Used:   ctr.used,
			Start:  ctr.start,
		})
	}
	return out
}
