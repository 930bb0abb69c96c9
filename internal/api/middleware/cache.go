package middleware

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/zatekoja/careroute/internal/infrastructure/observability"
)

// DefaultCacheRoutes are the directory listings, which only change when
// the catalog is reloaded
var DefaultCacheRoutes = []string{
	"/api/doctors",
	"/api/hospitals",
	"/api/labs",
	"/api/pharmacies",
	"/api/donations",
}

type cachedResponse struct {
	contentType string
	body        []byte
}

// CacheMiddleware provides in-process HTTP response caching for GET routes
type CacheMiddleware struct {
	entries  *expirable.LRU[string, cachedResponse]
	prefixes []string
}

// NewCacheMiddleware creates a cache holding up to size responses for ttl
func NewCacheMiddleware(size int, ttl time.Duration, prefixes []string) *CacheMiddleware {
	if size <= 0 {
		size = 512
	}
	return &CacheMiddleware{
		entries:  expirable.NewLRU[string, cachedResponse](size, nil, ttl),
		prefixes: prefixes,
	}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !m.cacheable(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		cacheKey := m.generateCacheKey(r)
		if cached, ok := m.entries.Get(cacheKey); ok {
			observability.LoggerFromContext(r.Context()).Debug().Str("key", cacheKey).Msg("Cache HIT")
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", cached.contentType)
			w.WriteHeader(http.StatusOK)
			w.Write(cached.body)
			return
		}

		w.Header().Set("X-Cache", "MISS")
		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		next.ServeHTTP(recorder, r)

		// only successful responses are cached
		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			m.entries.Add(cacheKey, cachedResponse{
				contentType: recorder.Header().Get("Content-Type"),
				body:        bytes.Clone(recorder.body.Bytes()),
			})
		}
	})
}

// Purge drops every cached response
func (m *CacheMiddleware) Purge() {
	m.entries.Purge()
}

// cacheable matches a configured prefix, excluding live slot views
func (m *CacheMiddleware) cacheable(path string) bool {
	if strings.Contains(path, "/slots") {
		return false
	}
	for _, prefix := range m.prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// generateCacheKey keys on path, query and display language
func (m *CacheMiddleware) generateCacheKey(r *http.Request) string {
	key := r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	return key + "|" + r.Header.Get("Accept-Language")
}

// responseRecorder captures the response for caching
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

// WriteHeader captures the status code
func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

// Write captures the response body and writes to the client
func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}

func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
