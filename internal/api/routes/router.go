package routes

import (
	"net/http"

	"github.com/zatekoja/careroute/internal/api/handlers"
	"github.com/zatekoja/careroute/internal/api/middleware"
	"github.com/zatekoja/careroute/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	triageHandler    *handlers.TriageHandler
	bookingHandler   *handlers.BookingHandler
	directoryHandler *handlers.DirectoryHandler
	sseHandler       *handlers.SSEHandler

	cacheMiddleware *middleware.CacheMiddleware
	rateLimiter     *middleware.RateLimiter
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// Options carries the optional middleware the router applies
type Options struct {
	CacheMiddleware *middleware.CacheMiddleware
	RateLimiter     *middleware.RateLimiter
	AllowedOrigins  []string
	Metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	triageHandler *handlers.TriageHandler,
	bookingHandler *handlers.BookingHandler,
	directoryHandler *handlers.DirectoryHandler,
	sseHandler *handlers.SSEHandler,
	opts Options,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		triageHandler:    triageHandler,
		bookingHandler:   bookingHandler,
		directoryHandler: directoryHandler,
		sseHandler:       sseHandler,
		cacheMiddleware:  opts.CacheMiddleware,
		rateLimiter:      opts.RateLimiter,
		allowedOrigins:   opts.AllowedOrigins,
		metrics:          opts.Metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Triage endpoints
	r.mux.HandleFunc("POST /api/triage/classify", r.triageHandler.Classify)
	r.mux.HandleFunc("GET /api/triage/result", r.triageHandler.LatestResult)
	r.mux.HandleFunc("POST /api/triage/recommendations", r.triageHandler.Recommend)

	// Directory endpoints
	r.mux.HandleFunc("GET /api/doctors", r.directoryHandler.ListDoctors)
	r.mux.HandleFunc("GET /api/doctors/specialties", r.directoryHandler.ListSpecialties)
	r.mux.HandleFunc("GET /api/doctors/{id}", r.directoryHandler.GetDoctor)
	r.mux.HandleFunc("GET /api/hospitals", r.directoryHandler.ListHospitals)
	r.mux.HandleFunc("GET /api/labs", r.directoryHandler.ListLabs)
	r.mux.HandleFunc("GET /api/pharmacies", r.directoryHandler.ListPharmacies)
	r.mux.HandleFunc("GET /api/donations", r.directoryHandler.ListDonations)

	// Booking endpoints
	r.mux.HandleFunc("POST /api/bookings", r.bookingHandler.CreateBooking)
	r.mux.HandleFunc("GET /api/doctors/{id}/slots", r.bookingHandler.GetSlots)
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/doctors/{id}/slots/stream", r.sseHandler.StreamSlotUpdates)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.LoggingMiddleware(handler)
	if r.rateLimiter != nil {
		handler = r.rateLimiter.Middleware(handler)
	}

	// CORS wraps everything so headers are set even on rejected requests
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
