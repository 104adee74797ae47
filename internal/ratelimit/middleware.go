package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"

	"xjsf/internal/clients"
	"xjsf/internal/logger"
	"xjsf/internal/models"
)

// Guard returns middleware that charges one token per request to the
// request's origin, as clients.Origin computes it. Rejected requests get
// 429 with a JSON ErrorResponse and never reach the dispatcher, so they are
// not counted against any client's usage quota.
func Guard(limiter Limiter, trustProxyHeaders bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := clients.Origin(r, trustProxyHeaders)
			allowed, info := limiter.Allow(origin)

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))

			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := int(info.RetryAfter.Seconds()) + 1
			h.Set("Retry-After", strconv.Itoa(retryAfter))
			h.Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(models.NewErrorResponse("Rate limit exceeded", models.ErrorCodeRateLimitExceeded))

			logger.FromContext(r.Context()).Warn("Burst limit exceeded",
				"origin", origin,
				"limit", info.Limit,
				"retry_after", retryAfter,
			)
		})
	}
}
