package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/zatekoja/careroute/internal/infrastructure/observability"
)

const (
	limiterCapacity = 10000
	limiterIdleTTL  = 10 * time.Minute
)

// RateLimiter limits requests per client IP. Idle clients are evicted so
// the limiter set stays bounded.
type RateLimiter struct {
	limiters *expirable.LRU[string, *rate.Limiter]
	rps      rate.Limit
	burst    int
}

// NewRateLimiter creates a per-client limiter allowing rps requests per
// second with the given burst. A non-positive rps disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](limiterCapacity, nil, limiterIdleTTL),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

// limiter returns the limiter for ip, creating one if it doesn't exist
func (l *RateLimiter) limiter(ip string) *rate.Limiter {
	if lim, ok := l.limiters.Get(ip); ok {
		return lim
	}
	lim := rate.NewLimiter(l.rps, l.burst)
	// a concurrent first request may race us here; either limiter is fine
	l.limiters.Add(ip, lim)
	return lim
}

// Middleware rejects requests over the client's budget with 429
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	if l.rps <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		if !l.limiter(ip).Allow() {
			observability.LoggerFromContext(r.Context()).Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("Rate limit exceeded")
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded, try again later"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP prefers the first X-Forwarded-For hop, then the peer address
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
