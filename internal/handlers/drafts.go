package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/bisadmin/internal/drafts"
)

func (h *Handlers) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		h.respondError(w, r, BadRequest("Missing kind query parameter"))
		return
	}
	list, err := h.Drafts.List(r.Context(), kind)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, list)
}

// handleSubmitChange queues a form change, for clients without a websocket
func (h *Handlers) handleSubmitChange(w http.ResponseWriter, r *http.Request) {
	var ev drafts.ChangeEvent
	if err := decodeJSON(r, &ev); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := ev.Validate(); err != nil {
		h.respondError(w, r, BadRequest(err.Error()))
		return
	}
	if err := h.Drafts.Submit(ev); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Drafts.Read(r.Context(), chi.URLParam(r, "kind"), chi.URLParam(r, "formID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if snap == nil {
		snap = drafts.Snapshot{}
	}
	respondOK(w, snap)
}

func (h *Handlers) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	var snap drafts.Snapshot
	if err := decodeJSON(r, &snap); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Drafts.Save(r.Context(), chi.URLParam(r, "kind"), chi.URLParam(r, "formID"), snap); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondDeleted(w)
}

func (h *Handlers) handleClearDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.Drafts.Clear(r.Context(), chi.URLParam(r, "kind"), chi.URLParam(r, "formID")); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondDeleted(w)
}
