package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/bisadmin/internal/drafts"
	"github.com/abrezinsky/bisadmin/internal/models"
	"github.com/abrezinsky/bisadmin/internal/regform"
)

func (h *Handlers) handlePublicEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	event, err := h.Registration.PublicEvent(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, event)
}

// handleRegister submits an application. The optional form_id query
// parameter names the draft to drop on success.
func (h *Handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var form regform.Form
	if err := decodeJSON(r, &form); err != nil {
		h.respondError(w, r, err)
		return
	}
	app, err := h.Registration.Register(r.Context(), id, r.URL.Query().Get("form_id"), form)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, app)
}

func (h *Handlers) handleGetRegistrationDraft(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	form, err := h.Registration.Draft(r.Context(), id, chi.URLParam(r, "formID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, form)
}

func (h *Handlers) handleSaveRegistrationDraft(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var values drafts.Values
	if err := decodeJSON(r, &values); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Registration.SaveDraft(r.Context(), id, chi.URLParam(r, "formID"), values); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondDeleted(w)
}

func (h *Handlers) handleDiscardRegistrationDraft(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Registration.DiscardDraft(r.Context(), id, chi.URLParam(r, "formID")); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondDeleted(w)
}

func (h *Handlers) handleListApplications(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	filter := models.ApplicationFilter{State: r.URL.Query().Get("state")}
	if filter.Page, err = queryInt(r, "page", 0); err != nil {
		h.respondError(w, r, err)
		return
	}
	if filter.PageSize, err = queryInt(r, "page_size", 0); err != nil {
		h.respondError(w, r, err)
		return
	}

	page, err := h.Registration.ListApplications(r.Context(), id, filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, page)
}

func (h *Handlers) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	appID, err := parseIntParam(r, "appID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	app, err := h.Registration.GetApplication(r.Context(), id, appID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, app)
}

func (h *Handlers) handleSetApplicationState(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	appID, err := parseIntParam(r, "appID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req ApplicationStateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	app, err := h.Registration.SetApplicationState(r.Context(), id, appID, req.State)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, app)
}

func (h *Handlers) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	users, err := h.Registration.ListParticipants(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, users)
}
