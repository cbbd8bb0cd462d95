package handlers

import (
	"net/http"

	"github.com/abrezinsky/bisadmin/internal/models"
	"github.com/abrezinsky/bisadmin/internal/services"
)

const defaultUserSearchLimit = 20

// Locations

func (h *Handlers) handleSearchLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := h.Location.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, locs)
}

func (h *Handlers) handleGeocode(w http.ResponseWriter, r *http.Request) {
	results, err := h.Location.Geocode(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, results)
}

func (h *Handlers) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	var loc models.LocationDetails
	if err := decodeJSON(r, &loc); err != nil {
		h.respondError(w, r, err)
		return
	}
	rec, err := h.Location.Create(r.Context(), loc)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, rec)
}

// Users

func (h *Handlers) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultUserSearchLimit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	users, err := h.User.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, users)
}

func (h *Handlers) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "userID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	user, err := h.User.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, user)
}

// handleEligibility checks whether a user may lead the described event
func (h *Handlers) handleEligibility(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "userID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req services.EligibilityRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.User.Eligibility(r.Context(), id, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, result)
}
