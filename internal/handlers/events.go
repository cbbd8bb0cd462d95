package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/bisadmin/internal/drafts"
	"github.com/abrezinsky/bisadmin/internal/eventform"
	"github.com/abrezinsky/bisadmin/internal/models"
)

const defaultQRSize = 256

func (h *Handlers) handleGetReference(w http.ResponseWriter, r *http.Request) {
	ref, err := h.Reference.Load(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, ref)
}

func (h *Handlers) handleListEvents(w http.ResponseWriter, r *http.Request) {
	var filter models.EventFilter
	var err error
	q := r.URL.Query()
	filter.Search = q.Get("search")
	if filter.IDs, err = queryInts(r, "id"); err != nil {
		h.respondError(w, r, err)
		return
	}
	for name, dst := range map[string]*int{
		"group":     &filter.Group,
		"category":  &filter.Category,
		"page":      &filter.Page,
		"page_size": &filter.PageSize,
	} {
		if *dst, err = queryInt(r, name, 0); err != nil {
			h.respondError(w, r, err)
			return
		}
	}

	page, err := h.Events.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, page)
}

func (h *Handlers) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	event, err := h.Events.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, event)
}

func (h *Handlers) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Events.Delete(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondDeleted(w)
}

// handleOpenNewEvent opens the wizard for a new event. The form id is
// chosen by the UI and must start with "new-".
func (h *Handlers) handleOpenNewEvent(w http.ResponseWriter, r *http.Request) {
	opened, err := h.Events.OpenNew(r.Context(), chi.URLParam(r, "formID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, opened)
}

func (h *Handlers) handleOpenEditEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	form, err := h.Events.OpenEdit(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, form)
}

func (h *Handlers) handleCloneEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	opened, err := h.Events.Clone(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, opened)
}

func (h *Handlers) handleValidateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	sub := eventform.Submission{Kind: drafts.KindEvent, ID: req.FormID, Steps: req.Steps}
	if err := h.Events.Validate(r.Context(), sub); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, ValidateResponse{Valid: true})
}

func (h *Handlers) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if len(req.Steps) == 0 {
		h.respondError(w, r, BadRequest("steps are required"))
		return
	}
	event, err := h.Events.Create(r.Context(), req.FormID, req.Steps)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, event)
}

func (h *Handlers) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req EventSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if len(req.Steps) == 0 {
		h.respondError(w, r, BadRequest("steps are required"))
		return
	}
	event, err := h.Events.Update(r.Context(), id, req.Steps)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, event)
}

func (h *Handlers) handleRegistrationLink(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	link, err := h.Events.RegistrationLink(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, RegistrationLinkResponse{URL: link})
}

// handleRegistrationQR serves the sign-up link as a PNG
func (h *Handlers) handleRegistrationQR(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	size, err := queryInt(r, "size", defaultQRSize)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	png, err := h.Events.RegistrationQR(r.Context(), id, size)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}
