// Package models defines the domain types persisted by notekeep.
package models

// ImageRef is an attachment owned by a single note.
type ImageRef struct {
	Name    string `json:"name"`
	Path    string `json:"path"` // relative to the storage root
	AddedAt string `json:"addedAt"`
	Size    *int64 `json:"size,omitempty"`
}

// NoteMeta is the index entry for one note. The body lives in the content store.
type NoteMeta struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	CreatedAt  string     `json:"createdAt"`
	UpdatedAt  string     `json:"updatedAt"`
	Important  bool       `json:"important"`
	Filename   string     `json:"filename"`
	Images     []ImageRef `json:"images"`
	Tags       []string   `json:"tags"`
	LinksTo    []string   `json:"linksTo"`
	IsDaily    bool       `json:"isDaily"`
	NotebookID *string    `json:"notebookId"`
}

// Notebook groups notes. Notes reference it weakly through NotebookID.
type Notebook struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Archived  bool   `json:"archived"`
	CreatedAt string `json:"createdAt"`
}

// IndexFile is the aggregate root written to meta/index.json.
type IndexFile struct {
	Notes     []NoteMeta `json:"notes"`
	Notebooks []Notebook `json:"notebooks"`
}

// FindNote returns the position of the note with id, or -1.
func (f *IndexFile) FindNote(id string) int {
	for i := range f.Notes {
		if f.Notes[i].ID == id {
			return i
		}
	}
	return -1
}

// FindNotebook returns the position of the notebook with id, or -1.
func (f *IndexFile) FindNotebook(id string) int {
	for i := range f.Notebooks {
		if f.Notebooks[i].ID == id {
			return i
		}
	}
	return -1
}

// NoteContent pairs a note's metadata with its body text.
type NoteContent struct {
	Meta NoteMeta `json:"meta"`
	Body string   `json:"body"`
}

// VersionSnapshot is the stored form of one history entry.
type VersionSnapshot struct {
	SavedAt string `json:"savedAt"`
	Title   string `json:"title"`
	Body    string `json:"body"`
}

// VersionItem is a history listing entry with a shortened body.
type VersionItem struct {
	SavedAt     string `json:"savedAt"`
	Title       string `json:"title"`
	BodyPreview string `json:"bodyPreview"`
}

// NoteTemplate is a body skeleton used to create notes.
type NoteTemplate struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Body                string  `json:"body"`
	DefaultTitlePattern *string `json:"defaultTitlePattern"`
	IsCustom            bool    `json:"isCustom"`
}

// SyncConfig is the advisory sync location stored in meta/sync_config.json.
type SyncConfig struct {
	SyncFolder *string `json:"syncFolder"`
}
