package routes

import (
	"net/http"

	"github.com/zatekoja/regen-tracker/internal/api/handlers"
	"github.com/zatekoja/regen-tracker/internal/api/middleware"
	"github.com/zatekoja/regen-tracker/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	authHandler      *handlers.AuthHandler
	wasteLogHandler  *handlers.WasteLogHandler
	facilityHandler  *handlers.FacilityHandler
	communityHandler *handlers.CommunityHandler
	sseHandler       *handlers.SSEHandler

	authenticator   middleware.Authenticator
	authLimiter     *middleware.RateLimiter
	cacheMiddleware *middleware.CacheMiddleware
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Auth      *handlers.AuthHandler
	WasteLog  *handlers.WasteLogHandler
	Facility  *handlers.FacilityHandler
	Community *handlers.CommunityHandler
	SSE       *handlers.SSEHandler
}

// Options configures the middleware around the handlers. AuthLimiter,
// CacheMiddleware and Metrics may be nil.
type Options struct {
	Authenticator   middleware.Authenticator
	AuthLimiter     *middleware.RateLimiter
	CacheMiddleware *middleware.CacheMiddleware
	AllowedOrigins  []string
	Metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(h Handlers, opts Options) *Router {
	return &Router{
		mux: http.NewServeMux(),

		authHandler:      h.Auth,
		wasteLogHandler:  h.WasteLog,
		facilityHandler:  h.Facility,
		communityHandler: h.Community,
		sseHandler:       h.SSE,

		authenticator:   opts.Authenticator,
		authLimiter:     opts.AuthLimiter,
		cacheMiddleware: opts.CacheMiddleware,
		allowedOrigins:  opts.AllowedOrigins,
		metrics:         opts.Metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	authed := middleware.RequireAuth(r.authenticator)
	user := func(fn http.HandlerFunc) http.Handler {
		return authed(fn)
	}
	admin := func(fn http.HandlerFunc) http.Handler {
		return authed(middleware.RequireAdmin(fn))
	}
	limited := func(fn http.HandlerFunc) http.Handler {
		if r.authLimiter == nil {
			return fn
		}
		return r.authLimiter.Limit(fn)
	}

	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Auth endpoints
	r.mux.Handle("POST /api/auth/register", limited(r.authHandler.Register))
	r.mux.Handle("POST /api/auth/login", limited(r.authHandler.Login))
	r.mux.Handle("POST /api/auth/refresh", limited(r.authHandler.Refresh))
	r.mux.Handle("GET /api/auth/me", user(r.authHandler.Me))
	r.mux.Handle("PUT /api/auth/profile", user(r.authHandler.UpdateProfile))

	// Waste log endpoints
	r.mux.Handle("POST /api/waste-logs", user(r.wasteLogHandler.CreateWasteLog))
	r.mux.Handle("GET /api/waste-logs", user(r.wasteLogHandler.ListWasteLogs))
	r.mux.Handle("GET /api/waste-logs/all", admin(r.wasteLogHandler.ListAllWasteLogs))
	r.mux.Handle("GET /api/waste-logs/{id}", user(r.wasteLogHandler.GetWasteLog))
	r.mux.Handle("PUT /api/waste-logs/{id}/status", admin(r.wasteLogHandler.UpdateStatus))
	r.mux.Handle("DELETE /api/waste-logs/{id}", user(r.wasteLogHandler.DeleteWasteLog))

	// Recycling center endpoints
	r.mux.HandleFunc("GET /api/recycling-centers", r.facilityHandler.ListFacilities)
	r.mux.HandleFunc("GET /api/recycling-centers/nearby", r.facilityHandler.FindNearby)
	r.mux.HandleFunc("GET /api/recycling-centers/{id}", r.facilityHandler.GetFacility)
	r.mux.Handle("POST /api/recycling-centers", admin(r.facilityHandler.CreateFacility))
	r.mux.Handle("PUT /api/recycling-centers/{id}", admin(r.facilityHandler.UpdateFacility))
	r.mux.Handle("DELETE /api/recycling-centers/{id}", admin(r.facilityHandler.DeleteFacility))

	// Community and dashboard endpoints
	r.mux.HandleFunc("GET /api/community/leaderboard", r.communityHandler.Leaderboard)
	r.mux.Handle("GET /api/dashboard", user(r.communityHandler.MyDashboard))
	r.mux.HandleFunc("GET /api/dashboard/global", r.communityHandler.GlobalDashboard)

	// Live profile stream
	if r.sseHandler != nil {
		r.mux.Handle("GET /api/stream/me", user(r.sseHandler.StreamMyUpdates))
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}
	handler = middleware.CacheControl(handler)
	handler = middleware.Compression(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
