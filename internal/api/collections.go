package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/notekeep/internal/models"
)

// ListTags handles GET /tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.ListTags(r.Context())
	if err != nil {
		writeError(w, r, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// AddTag handles POST /tags: adds one tag to several notes.
func (h *Handler) AddTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	notes, err := h.svc.AddTagToNotes(r.Context(), req.IDs, req.Tag)
	if err != nil {
		writeError(w, r, "add tag", err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// RemoveTag handles DELETE /notes/{id}/tags/{tag}.
func (h *Handler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	meta, err := h.svc.RemoveTagFromNote(r.Context(), noteID(r), chi.URLParam(r, "tag"))
	if err != nil {
		writeError(w, r, "remove tag", err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// MoveNote handles PUT /notes/{id}/notebook.
func (h *Handler) MoveNote(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	target := ""
	if req.NotebookID != nil {
		target = *req.NotebookID
	}
	meta, err := h.svc.MoveNote(r.Context(), noteID(r), target)
	if err != nil {
		writeError(w, r, "move note", err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// ListNotebooks handles GET /notebooks.
func (h *Handler) ListNotebooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.svc.ListNotebooks(r.Context())
	if err != nil {
		writeError(w, r, "list notebooks", err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// CreateNotebook handles POST /notebooks.
func (h *Handler) CreateNotebook(w http.ResponseWriter, r *http.Request) {
	var req NotebookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	name := ""
	if req.Name != nil {
		name = *req.Name
	}
	nb, err := h.svc.CreateNotebook(r.Context(), name)
	if err != nil {
		writeError(w, r, "create notebook", err)
		return
	}
	writeJSON(w, http.StatusCreated, nb)
}

// UpdateNotebook handles PATCH /notebooks/{id}: rename and/or archive.
func (h *Handler) UpdateNotebook(w http.ResponseWriter, r *http.Request) {
	var req NotebookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == nil && req.Archived == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("name or archived is required"))
		return
	}
	id := chi.URLParam(r, "id")
	var nb *models.Notebook
	if req.Name != nil {
		var err error
		if nb, err = h.svc.RenameNotebook(r.Context(), id, *req.Name); err != nil {
			writeError(w, r, "rename notebook", err)
			return
		}
	}
	if req.Archived != nil {
		var err error
		if nb, err = h.svc.ArchiveNotebook(r.Context(), id, *req.Archived); err != nil {
			writeError(w, r, "archive notebook", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, nb)
}

// ListTemplates handles GET /templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	tpls, err := h.svc.ListTemplates(r.Context())
	if err != nil {
		writeError(w, r, "list templates", err)
		return
	}
	writeJSON(w, http.StatusOK, tpls)
}

// SaveTemplate handles POST /templates.
func (h *Handler) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	var req TemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tpl, err := h.svc.SaveCustomTemplate(r.Context(), req.Name, req.Body)
	if err != nil {
		writeError(w, r, "save template", err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

// DeleteTemplate handles DELETE /templates/{id}.
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCustomTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, "delete template", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UseTemplate handles POST /templates/{id}/notes.
func (h *Handler) UseTemplate(w http.ResponseWriter, r *http.Request) {
	var req TitleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	meta, err := h.svc.CreateFromTemplate(r.Context(), chi.URLParam(r, "id"), req.Title)
	if err != nil {
		writeError(w, r, "create from template", err)
		return
	}
	writeJSON(w, http.StatusCreated, meta)
}
