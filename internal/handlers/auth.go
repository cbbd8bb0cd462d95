package handlers

import (
	"net/http"

	"github.com/abrezinsky/bisadmin/internal/auth"
)

// handleLogin checks the admin password and starts a session
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	token, ok := h.Auth.Login(req.Password)
	if !ok {
		h.respondError(w, r, Unauthorized("Invalid password"))
		return
	}

	auth.SetSessionCookie(w, token)
	respondOK(w, SessionResponse{Authenticated: true})
}

// handleLogout clears the session
func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		h.Auth.Logout(cookie.Value)
	}

	auth.ClearSessionCookie(w)
	respondOK(w, SessionResponse{Authenticated: false})
}

// handleSession tells the UI whether its cookie is still valid
func (h *Handlers) handleSession(w http.ResponseWriter, r *http.Request) {
	respondOK(w, SessionResponse{Authenticated: h.Auth.GetSessionFromRequest(r)})
}

// handleHealth reports whether the draft store answers
func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		if err := h.DB.Ping(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: err.Error()})
			return
		}
	}
	respondOK(w, HealthResponse{Status: "ok"})
}
