package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/notekeep/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

func noteID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// ListNotes handles GET /notes.
//
//	@Summary		List notes, optionally filtered by an exact tag
//	@Tags			notes
//	@Produce		json
//	@Param			tag	query		string	false	"Filter by tag"
//	@Success		200	{array}		models.NoteMeta
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	if tag := r.URL.Query().Get("tag"); tag != "" {
		notes, err := h.svc.NotesByTag(r.Context(), tag)
		if err != nil {
			writeError(w, r, "notes by tag", err)
			return
		}
		writeJSON(w, http.StatusOK, notes)
		return
	}
	notes, err := h.svc.ListNotes(r.Context())
	if err != nil {
		writeError(w, r, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// GetNote handles GET /notes/{id}. The body checksum is also sent as ETag.
//
//	@Summary		Get a note with its body
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	note, err := h.svc.ReadNote(r.Context(), id)
	if err != nil {
		writeError(w, r, "read note", err)
		return
	}
	sum, err := h.svc.BodyChecksum(r.Context(), id)
	if err != nil {
		writeError(w, r, "read note", err)
		return
	}
	w.Header().Set("ETag", `"`+sum+`"`)
	writeJSON(w, http.StatusOK, NoteDetail{NoteContent: *note, Checksum: sum})
}

// CreateNote handles POST /notes.
//
//	@Summary		Create a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SaveNoteRequest	true	"Note to create"
//	@Success		201		{object}	models.NoteMeta
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req SaveNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	meta, err := h.svc.SaveNote(r.Context(), req.ID, req.Title, req.Body)
	if err != nil {
		writeError(w, r, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, meta)
}

// UpdateNote handles PUT /notes/{id}.
//
//	@Summary		Save a note with optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string			true	"Note id"
//	@Param			If-Match	header		string			false	"SHA-256 body checksum"
//	@Param			body		body		SaveNoteRequest	true	"New title and body"
//	@Success		200			{object}	models.NoteMeta
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req SaveNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	meta, err := h.svc.SaveNoteIfMatch(r.Context(), noteID(r), req.Title, req.Body, ifMatch)
	if err != nil {
		writeError(w, r, "update note", err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// PatchNote handles PATCH /notes/{id}: title and starred flag, no snapshot.
func (h *Handler) PatchNote(w http.ResponseWriter, r *http.Request) {
	var req PatchNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == nil && req.Important == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("title or important is required"))
		return
	}
	id := noteID(r)
	if req.Title != nil {
		if _, err := h.svc.UpdateTitle(r.Context(), id, *req.Title); err != nil {
			writeError(w, r, "update title", err)
			return
		}
	}
	if req.Important != nil {
		if _, err := h.svc.ToggleImportant(r.Context(), id, *req.Important); err != nil {
			writeError(w, r, "toggle important", err)
			return
		}
	}
	note, err := h.svc.ReadNote(r.Context(), id)
	if err != nil {
		writeError(w, r, "patch note", err)
		return
	}
	writeJSON(w, http.StatusOK, note.Meta)
}

// DeleteNote handles DELETE /notes/{id}.
//
//	@Summary		Delete a note with its history and attachments
//	@Tags			notes
//	@Param			id	path	string	true	"Note id"
//	@Success		204	"Note deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNote(r.Context(), noteID(r)); err != nil {
		writeError(w, r, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BatchDelete handles POST /notes/batch/delete.
func (h *Handler) BatchDelete(w http.ResponseWriter, r *http.Request) {
	var req IDsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.BatchDelete(r.Context(), req.IDs); err != nil {
		writeError(w, r, "batch delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BatchImportant handles POST /notes/batch/important.
func (h *Handler) BatchImportant(w http.ResponseWriter, r *http.Request) {
	var req BatchImportantRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	notes, err := h.svc.BatchSetImportant(r.Context(), req.IDs, req.Important)
	if err != nil {
		writeError(w, r, "batch important", err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// Merge handles POST /notes/merge.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	var req IDsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	meta, err := h.svc.Merge(r.Context(), req.IDs)
	if err != nil {
		writeError(w, r, "merge", err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// Duplicate handles POST /notes/{id}/duplicate.
func (h *Handler) Duplicate(w http.ResponseWriter, r *http.Request) {
	meta, err := h.svc.Duplicate(r.Context(), noteID(r))
	if err != nil {
		writeError(w, r, "duplicate", err)
		return
	}
	writeJSON(w, http.StatusCreated, meta)
}

// Backlinks handles GET /notes/{id}/backlinks.
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.Backlinks(r.Context(), noteID(r))
	if err != nil {
		writeError(w, r, "backlinks", err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// ListVersions handles GET /notes/{id}/versions.
func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListVersions(r.Context(), noteID(r))
	if err != nil {
		writeError(w, r, "list versions", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// GetVersion handles GET /notes/{id}/versions/{savedAt}.
func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.GetVersion(r.Context(), noteID(r), chi.URLParam(r, "savedAt"))
	if err != nil {
		writeError(w, r, "get version", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// RestoreVersion handles POST /notes/{id}/versions/{savedAt}/restore.
func (h *Handler) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	meta, err := h.svc.RestoreVersion(r.Context(), noteID(r), chi.URLParam(r, "savedAt"))
	if err != nil {
		writeError(w, r, "restore version", err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// Export handles GET /notes/{id}/export/{format} for text, md and html.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	var (
		out         string
		err         error
		contentType string
	)
	switch chi.URLParam(r, "format") {
	case "text":
		out, err = h.svc.ExportText(r.Context(), id)
		contentType = "text/plain; charset=utf-8"
	case "md":
		out, err = h.svc.ExportMarkdown(r.Context(), id)
		contentType = "text/markdown; charset=utf-8"
	case "html":
		out, err = h.svc.ExportHTML(r.Context(), id)
		contentType = "text/html; charset=utf-8"
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("format must be text, md or html"))
		return
	}
	if err != nil {
		writeError(w, r, "export", err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

// Search handles GET /search?q=.
//
//	@Summary		Filter notes with the query language
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	false	"Query, e.g. tag:work is:starred budget"
//	@Success		200	{array}		models.NoteMeta
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// Daily handles POST /daily: returns today's daily note, creating it if needed.
func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	meta, err := h.svc.DailyNote(r.Context())
	if err != nil {
		writeError(w, r, "daily note", err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}
