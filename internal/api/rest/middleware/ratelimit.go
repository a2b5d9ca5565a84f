package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/dtroode/passkeeper-server/internal/api/rest/response"
	"github.com/dtroode/passkeeper-server/internal/logger"
	"github.com/dtroode/passkeeper-server/internal/metrics"
	"github.com/dtroode/passkeeper-server/internal/ratelimit"
)

// RateLimit throttles requests per client IP and path.
type RateLimit struct {
	limiter ratelimit.Limiter
	metrics *metrics.Metrics
	logger  *logger.Logger
	now     func() time.Time
}

// NewRateLimit creates the middleware. A nil limiter lets every request through.
func NewRateLimit(limiter ratelimit.Limiter, metrics *metrics.Metrics, logger *logger.Logger) *RateLimit {
	return &RateLimit{limiter: limiter, metrics: metrics, logger: logger, now: time.Now}
}

func (m *RateLimit) Handle(next http.Handler) http.Handler {
	if m.limiter == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := m.limiter.Allow(r.Context(), clientIP(r)+"|"+r.URL.Path)
		if err != nil {
			// fail open
			m.logger.Warn("RateLimit middleware: limiter unavailable", "error", err.Error())
			next.ServeHTTP(w, r)
			return
		}

		if res.WindowTTL > 0 {
			resetAt := m.now().Add(res.WindowTTL).Unix()
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))
		}

		if !res.Allowed {
			retryAfter := int(res.RetryAfter.Round(time.Second).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			m.metrics.RateLimited(r.URL.Path)
			response.WriteError(w, response.ErrTooManyRequests)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
		next.ServeHTTP(w, r)
	})
}

// clientIP keys on the socket peer. Forwarded headers count only when a
// trusted proxy rewrote RemoteAddr upstream (chi RealIP).
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
