package handlers

import (
	"net/http"

	"github.com/abrezinsky/bisadmin/internal/services"
)

func (h *Handlers) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Settings.Get(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, settings)
}

func (h *Handlers) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req services.SettingsUpdate
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Settings.Update(r.Context(), req); err != nil {
		h.respondError(w, r, err)
		return
	}
	settings, err := h.Settings.Get(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, settings)
}

// handleBISLogin obtains a backend token for the given account
func (h *Handlers) handleBISLogin(w http.ResponseWriter, r *http.Request) {
	var req BISLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		h.respondError(w, r, BadRequest("email and password are required"))
		return
	}
	user, err := h.Settings.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, user)
}

func (h *Handlers) handleBISLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Settings.Logout(r.Context()); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, "Logged out of BIS")
}

func (h *Handlers) handleBISMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.Settings.Me(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, user)
}
