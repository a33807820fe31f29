package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/notekeep/internal/noteservice"
)

// NewRouter creates a chi router with all shim routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.ListNotes)
		r.Post("/", h.CreateNote)
		r.Post("/merge", h.Merge)
		r.Post("/batch/delete", h.BatchDelete)
		r.Post("/batch/important", h.BatchImportant)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetNote)
			r.Put("/", h.UpdateNote)
			r.Patch("/", h.PatchNote)
			r.Delete("/", h.DeleteNote)
			r.Post("/duplicate", h.Duplicate)
			r.Get("/backlinks", h.Backlinks)
			r.Get("/export/{format}", h.Export)
			r.Put("/notebook", h.MoveNote)
			r.Delete("/tags/{tag}", h.RemoveTag)

			r.Get("/versions", h.ListVersions)
			r.Get("/versions/{savedAt}", h.GetVersion)
			r.Post("/versions/{savedAt}/restore", h.RestoreVersion)

			r.Post("/images", h.UploadImage)
			r.Patch("/images", h.RenameImage)
			r.Delete("/images", h.RemoveImage)
		})
	})

	r.Get("/images/*", h.ServeImage)
	r.Get("/search", h.Search)
	r.Get("/tags", h.ListTags)
	r.Post("/tags", h.AddTag)
	r.Post("/daily", h.Daily)

	r.Get("/notebooks", h.ListNotebooks)
	r.Post("/notebooks", h.CreateNotebook)
	r.Patch("/notebooks/{id}", h.UpdateNotebook)

	r.Get("/templates", h.ListTemplates)
	r.Post("/templates", h.SaveTemplate)
	r.Delete("/templates/{id}", h.DeleteTemplate)
	r.Post("/templates/{id}/notes", h.UseTemplate)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
