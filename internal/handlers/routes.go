package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// corsHandler lets the browser UI call the API from its own origin with
// the session cookie attached
func (h *Handlers) corsHandler() func(http.Handler) http.Handler {
	if len(h.AllowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.New(cors.Options{
		AllowedOrigins:   h.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger) // Custom conditional HTTP logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(h.corsHandler())
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", h.handleHealth)

	// WebSocket (protected)
	if h.Hub != nil {
		r.With(h.Auth.RequireAuthAPI).Get("/ws", h.Hub.ServeHTTP)
	}

	// Auth routes (public)
	r.Post("/admin/login", h.handleLogin)
	r.Post("/admin/logout", h.handleLogout)
	r.Get("/admin/session", h.handleSession)

	// Registration (public)
	r.Route("/api/public/events/{id}", func(r chi.Router) {
		r.Get("/", h.handlePublicEvent)
		r.Post("/registration", h.handleRegister)
		r.Get("/registration/draft/{formID}", h.handleGetRegistrationDraft)
		r.Put("/registration/draft/{formID}", h.handleSaveRegistrationDraft)
		r.Delete("/registration/draft/{formID}", h.handleDiscardRegistrationDraft)
	})

	// Admin API (protected)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAuthAPI)

		r.Get("/api/admin/reference", h.handleGetReference)

		// Events
		r.Get("/api/admin/events", h.handleListEvents)
		r.Post("/api/admin/events", h.handleCreateEvent)
		r.Post("/api/admin/events/validate", h.handleValidateEvent)
		r.Get("/api/admin/events/new/{formID}", h.handleOpenNewEvent)
		r.Get("/api/admin/events/{id}", h.handleGetEvent)
		r.Put("/api/admin/events/{id}", h.handleUpdateEvent)
		r.Delete("/api/admin/events/{id}", h.handleDeleteEvent)
		r.Get("/api/admin/events/{id}/form", h.handleOpenEditEvent)
		r.Post("/api/admin/events/{id}/clone", h.handleCloneEvent)
		r.Get("/api/admin/events/{id}/registration-link", h.handleRegistrationLink)
		r.Get("/api/admin/events/{id}/registration-qr", h.handleRegistrationQR)

		// Applications & participants
		r.Get("/api/admin/events/{id}/applications", h.handleListApplications)
		r.Get("/api/admin/events/{id}/applications/{appID}", h.handleGetApplication)
		r.Put("/api/admin/events/{id}/applications/{appID}/state", h.handleSetApplicationState)
		r.Get("/api/admin/events/{id}/participants", h.handleListParticipants)

		// Drafts
		r.Get("/api/admin/drafts", h.handleListDrafts)
		r.Post("/api/admin/drafts/changes", h.handleSubmitChange)
		r.Get("/api/admin/drafts/{kind}/{formID}", h.handleGetDraft)
		r.Put("/api/admin/drafts/{kind}/{formID}", h.handleSaveDraft)
		r.Delete("/api/admin/drafts/{kind}/{formID}", h.handleClearDraft)

		// Opportunities
		r.Get("/api/admin/users/{userID}/opportunities", h.handleListOpportunities)
		r.Post("/api/admin/users/{userID}/opportunities", h.handleCreateOpportunity)
		r.Get("/api/admin/users/{userID}/opportunities/{id}", h.handleGetOpportunity)
		r.Put("/api/admin/users/{userID}/opportunities/{id}", h.handleUpdateOpportunity)
		r.Delete("/api/admin/users/{userID}/opportunities/{id}", h.handleDeleteOpportunity)

		// Locations
		r.Get("/api/admin/locations", h.handleSearchLocations)
		r.Post("/api/admin/locations", h.handleCreateLocation)
		r.Get("/api/admin/geocode", h.handleGeocode)

		// Users
		r.Get("/api/admin/users", h.handleSearchUsers)
		r.Get("/api/admin/users/{userID}", h.handleGetUser)
		r.Post("/api/admin/users/{userID}/eligibility", h.handleEligibility)

		// Settings & BIS session
		r.Get("/api/admin/settings", h.handleGetSettings)
		r.Put("/api/admin/settings", h.handleUpdateSettings)
		r.Post("/api/admin/bis/login", h.handleBISLogin)
		r.Post("/api/admin/bis/logout", h.handleBISLogout)
		r.Get("/api/admin/bis/me", h.handleBISMe)
	})

	return r
}
