package clients

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

var (
	// ErrUnidentified is wrapped by every resolution failure.
	ErrUnidentified = errors.New("client could not be identified")

	ErrUnknownClient      = fmt.Errorf("%w: unknown client", ErrUnidentified)
	ErrCredentialMismatch = fmt.Errorf("%w: credential mismatch", ErrUnidentified)
)

// Resolver decides which Client a request is billed to.
type Resolver struct {
	registry   *Registry
	trustProxy bool
}

// NewResolver returns a resolver over reg. With trustProxyHeaders set the
// origin is taken from X-Forwarded-For or X-Real-IP when present.
func NewResolver(reg *Registry, trustProxyHeaders bool) *Resolver {
	return &Resolver{registry: reg, trustProxy: trustProxyHeaders}
}

func (r *Resolver) Registry() *Registry { return r.registry }

// Resolve identifies the caller. A request that names itself through the
// username cookie must name a registered client with a matching password;
// otherwise the result wraps ErrUnidentified. Anonymous requests are billed
// to a client keyed by origin, created on first sight.
func (r *Resolver) Resolve(req *http.Request) (*Client, error) {
	if auth := r.registry.Auth(); auth.NameCookie != "" {
		if name, ok := cookieValue(req, auth.NameCookie); ok {
			c, found := r.registry.Client(name)
			if !found {
				return nil, fmt.Errorf("%w %q", ErrUnknownClient, name)
			}
			password, _ := cookieValue(req, auth.PasswordCookie)
			if !c.PasswordMatches(password) {
				return nil, fmt.Errorf("%w for %q", ErrCredentialMismatch, name)
			}
			return c, nil
		}
	}

	c, _ := r.registry.LoadOrCreate(Origin(req, r.trustProxy))
	return c, nil
}

func cookieValue(req *http.Request, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	ck, err := req.Cookie(name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

// Origin returns the caller's network address without the port. Proxy
// headers are consulted only when trustProxy is set.
func Origin(req *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
		if xri := strings.TrimSpace(req.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
