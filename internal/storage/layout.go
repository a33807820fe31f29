package storage

import (
	"path"

	"github.com/starford/notekeep/internal/sandbox"
)

// Top-level directories under the storage root.
const (
	NotesDir    = "notes"
	MetaDir     = "meta"
	ImagesDir   = "images"
	VersionsDir = "versions"
)

// Files under MetaDir.
const (
	IndexFile      = "index.json"
	TemplatesFile  = "templates.json"
	SyncConfigFile = "sync_config.json"
)

// BackupDirs are the directories mirrored by backup export and import.
var BackupDirs = []string{NotesDir, MetaDir, ImagesDir}

// BodyFilename is the file name of a note's body inside NotesDir.
func BodyFilename(id string) string {
	return sandbox.Sanitize(id) + ".txt"
}

// BodyRel is the slash-separated path of a note's body relative to the root.
func BodyRel(id string) string {
	return path.Join(NotesDir, BodyFilename(id))
}

// ImagesRel is the attachment directory of a note relative to the root.
func ImagesRel(id string) string {
	return path.Join(ImagesDir, sandbox.Sanitize(id))
}

// VersionsRel is the snapshot directory of a note relative to the root.
func VersionsRel(id string) string {
	return path.Join(VersionsDir, sandbox.Sanitize(id))
}

// MetaRel is the path of a metadata file relative to the root.
func MetaRel(name string) string {
	return path.Join(MetaDir, name)
}
