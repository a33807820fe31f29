package api

import (
	"encoding/base64"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 50 << 20 // 50 MB

// UploadImage handles POST /notes/{id}/images (multipart/form-data, field "file").
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}
	meta, err := h.svc.AttachImageData(r.Context(), noteID(r), base64.StdEncoding.EncodeToString(raw), header.Filename)
	if err != nil {
		writeError(w, r, "attach image", err)
		return
	}
	writeJSON(w, http.StatusCreated, meta)
}

// RemoveImage handles DELETE /notes/{id}/images?path=images/<id>/<file>.
func (h *Handler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	rel := r.URL.Query().Get("path")
	if rel == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}
	meta, err := h.svc.RemoveAttachment(r.Context(), noteID(r), rel)
	if err != nil {
		writeError(w, r, "remove attachment", err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// RenameImage handles PATCH /notes/{id}/images?path=... with body {"name": "..."}.
func (h *Handler) RenameImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	meta, err := h.svc.RenameAttachment(r.Context(), noteID(r), r.URL.Query().Get("path"), req.Name)
	if err != nil {
		writeError(w, r, "rename attachment", err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// ServeImage handles GET /images/*. Only files inside the images tree are served.
func (h *Handler) ServeImage(w http.ResponseWriter, r *http.Request) {
	rel := "images/" + strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	abs, err := h.svc.ResolveImagePath(rel)
	if err != nil {
		writeError(w, r, "resolve image", err)
		return
	}
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}
