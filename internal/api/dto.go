package api

import "github.com/starford/notekeep/internal/models"

// SaveNoteRequest is the body of POST /notes and PUT /notes/{id}.
// ID is only honored on POST, where an unknown id creates the note under it.
type SaveNoteRequest struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// PatchNoteRequest updates index-only fields of a note.
type PatchNoteRequest struct {
	Title     *string `json:"title,omitempty"`
	Important *bool   `json:"important,omitempty"`
}

// NoteDetail is a note with its body and the checksum to send back in If-Match.
type NoteDetail struct {
	models.NoteContent
	Checksum string `json:"checksum"`
}

// IDsRequest carries a note id list (merge, batch delete).
type IDsRequest struct {
	IDs []string `json:"ids"`
}

// BatchImportantRequest is the body of POST /notes/batch/important.
type BatchImportantRequest struct {
	IDs       []string `json:"ids"`
	Important bool     `json:"important"`
}

// TagRequest adds a tag to one or more notes.
type TagRequest struct {
	IDs []string `json:"ids"`
	Tag string   `json:"tag"`
}

// MoveRequest files a note into a notebook; a null notebook unfiles it.
type MoveRequest struct {
	NotebookID *string `json:"notebookId"`
}

// NotebookRequest creates or updates a notebook.
type NotebookRequest struct {
	Name     *string `json:"name,omitempty"`
	Archived *bool   `json:"archived,omitempty"`
}

// TemplateRequest saves a custom template.
type TemplateRequest struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

// TitleRequest carries an optional title (template instantiation).
type TitleRequest struct {
	Title string `json:"title"`
}
