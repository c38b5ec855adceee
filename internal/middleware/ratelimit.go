// internal/middleware/ratelimit.go
//
// Per-client token-bucket throttling for the auth POST endpoints.
//
// Each client IP gets its own rate.Limiter.  Limiters live in a bounded LRU,
// so a flood of distinct addresses evicts the quietest buckets instead of
// growing memory.  Rejected requests get 429 with Retry-After and bump
// metrics.RateLimitedTotal.

package middleware

import (
	"math"
	"net/http"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yanizio/adept-auth/internal/cache"
	"github.com/yanizio/adept-auth/internal/metrics"
	"github.com/yanizio/adept-auth/internal/requestinfo"
)

// DefaultLimiterCapacity bounds how many client buckets are tracked.
const DefaultLimiterCapacity = 10000

// RateLimiter hands out one limiter per client IP.
type RateLimiter struct {
	rps     rate.Limit
	burst   int
	buckets *cache.LRU[string, *rate.Limiter]
}

// NewRateLimiter allows rps sustained requests per second per IP with the
// given burst.  capacity < 1 selects DefaultLimiterCapacity.
func NewRateLimiter(rps float64, burst, capacity int) *RateLimiter {
	if capacity < 1 {
		capacity = DefaultLimiterCapacity
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		buckets: cache.New[string, *rate.Limiter](capacity),
	}
}

// Allow reports whether key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	lim := rl.buckets.GetOrAdd(key, func() *rate.Limiter {
		return rate.NewLimiter(rl.rps, rl.burst)
	})
	return lim.Allow()
}

// Limit wraps next.  Safe methods are never throttled.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	retry := "1"
	if rl.rps > 0 {
		retry = strconv.Itoa(int(math.Ceil(1 / float64(rl.rps))))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		key := ""
		if info := requestinfo.FromContext(r.Context()); info != nil {
			key = info.IP
		}
		if key == "" {
			if ip := requestinfo.ClientIP(r, false); ip != nil {
				key = ip.String()
			}
		}

		if !rl.Allow(key) {
			metrics.RateLimitedTotal.Inc()
			zap.S().Warnw("rate limited", "ip", key, "path", r.URL.Path)
			w.Header().Set("Retry-After", retry)
			http.Error(w, "Too many requests.  Please wait and try again.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
