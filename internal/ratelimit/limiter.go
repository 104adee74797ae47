// Package ratelimit guards the service routes against request bursts from a
// single network origin. It is a transport concern and runs before the
// dispatcher; the per-client usage quota is enforced separately by the
// clients package.
package ratelimit

import "time"

// Limiter decides whether a request from key may proceed. Implementations
// must be safe for concurrent use.
type Limiter interface {
	Allow(key string) (allowed bool, info Info)
	Close()
}

// Info describes the bucket state after a decision, for response headers.
type Info struct {
	Limit      int           // requests per minute
	Remaining  int           // whole tokens left
	ResetAt    time.Time     // when the bucket is full again
	RetryAfter time.Duration // only set on denial
}
