package handlers

import (
	"net/http"

	"github.com/abrezinsky/bisadmin/internal/models"
)

// opportunityIDs reads the owner and, when present, the opportunity id
func opportunityIDs(r *http.Request, withID bool) (userID, id int, err error) {
	if userID, err = parseIntParam(r, "userID"); err != nil {
		return 0, 0, err
	}
	if withID {
		if id, err = parseIntParam(r, "id"); err != nil {
			return 0, 0, err
		}
	}
	return userID, id, nil
}

func (h *Handlers) handleListOpportunities(w http.ResponseWriter, r *http.Request) {
	userID, _, err := opportunityIDs(r, false)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	list, err := h.Opportunity.List(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, list)
}

func (h *Handlers) handleGetOpportunity(w http.ResponseWriter, r *http.Request) {
	userID, id, err := opportunityIDs(r, true)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	o, err := h.Opportunity.Get(r.Context(), userID, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, o)
}

// handleCreateOpportunity creates an opportunity; form_id names the draft
// to drop on success
func (h *Handlers) handleCreateOpportunity(w http.ResponseWriter, r *http.Request) {
	userID, _, err := opportunityIDs(r, false)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var o models.Opportunity
	if err := decodeJSON(r, &o); err != nil {
		h.respondError(w, r, err)
		return
	}
	created, err := h.Opportunity.Create(r.Context(), userID, r.URL.Query().Get("form_id"), o)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, created)
}

func (h *Handlers) handleUpdateOpportunity(w http.ResponseWriter, r *http.Request) {
	userID, id, err := opportunityIDs(r, true)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var o models.Opportunity
	if err := decodeJSON(r, &o); err != nil {
		h.respondError(w, r, err)
		return
	}
	updated, err := h.Opportunity.Update(r.Context(), userID, id, o)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, updated)
}

func (h *Handlers) handleDeleteOpportunity(w http.ResponseWriter, r *http.Request) {
	userID, id, err := opportunityIDs(r, true)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Opportunity.Delete(r.Context(), userID, id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondDeleted(w)
}
