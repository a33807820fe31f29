package index

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/starford/notekeep/internal/apperr"
	"github.com/starford/notekeep/internal/models"
	"github.com/starford/notekeep/internal/storage"
)

func testStore(t *testing.T) (*Store, *storage.FS) {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return NewStore(fs), fs
}

func sampleIndex() *models.IndexFile {
	size := int64(42)
	nb := "nb-1"
	return &models.IndexFile{
		Notes: []models.NoteMeta{
			{
				ID:        "a",
				Title:     "Project Plan",
				CreatedAt: "2026-01-01T10:00:00.000000Z",
				UpdatedAt: "2026-01-02T10:00:00.000000Z",
				Important: true,
				Filename:  "a.txt",
				Images: []models.ImageRef{
					{Name: "pic.png", Path: "images/a/1-pic.png", AddedAt: "2026-01-02T10:00:00.000000Z", Size: &size},
				},
				Tags:       []string{"project-plan", "work"},
				LinksTo:    []string{"b"},
				NotebookID: &nb,
			},
			{
				ID:        "b",
				Title:     "2026-01-03",
				CreatedAt: "2026-01-03T00:00:00.000000Z",
				UpdatedAt: "2026-01-03T00:00:00.000000Z",
				Filename:  "b.txt",
				Images:    []models.ImageRef{},
				Tags:      []string{"daily"},
				LinksTo:   []string{},
				IsDaily:   true,
			},
		},
		Notebooks: []models.Notebook{
			{ID: "nb-1", Name: "Work", CreatedAt: "2026-01-01T00:00:00.000000Z"},
		},
	}
}

func TestLoad_MissingIsEmpty(t *testing.T) {
	s, _ := testStore(t)
	idx, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(idx.Notes) != 0 || len(idx.Notebooks) != 0 {
		t.Errorf("expected empty index, got %+v", idx)
	}
	if ok, _ := s.Exists(); ok {
		t.Error("Load must not create the index file")
	}
}

func TestRoundTrip(t *testing.T) {
	s, _ := testStore(t)
	want := sampleIndex()
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestLoad_MalformedIsSerializationError(t *testing.T) {
	s, fs := testStore(t)
	for _, bad := range []string{"{not json", "[]", "null", "{}"} {
		_ = os.WriteFile(filepath.Join(fs.Root(), "meta", "index.json"), []byte(bad), 0o644)
		_, err := s.Load()
		if !errors.Is(err, apperr.ErrSerialization) {
			t.Errorf("Load(%q) error = %v, want ErrSerialization", bad, err)
		}
	}
}

func TestLoad_MissingOptionalFieldsDefault(t *testing.T) {
	s, fs := testStore(t)
	raw := `{"notes":[{"id":"x","title":"T","createdAt":"c","updatedAt":"u","important":false,"filename":"x.txt","images":[]}]}`
	_ = os.WriteFile(filepath.Join(fs.Root(), "meta", "index.json"), []byte(raw), 0o644)

	idx, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	n := idx.Notes[0]
	if n.Tags == nil || len(n.Tags) != 0 {
		t.Errorf("tags = %#v, want empty", n.Tags)
	}
	if n.LinksTo == nil || len(n.LinksTo) != 0 {
		t.Errorf("linksTo = %#v, want empty", n.LinksTo)
	}
	if n.IsDaily || n.NotebookID != nil {
		t.Errorf("isDaily/notebookId should default to false/nil: %+v", n)
	}
	if idx.Notebooks == nil {
		t.Error("notebooks should default to an empty list")
	}
}

func TestSave_NormalizesSets(t *testing.T) {
	s, _ := testStore(t)
	idx := &models.IndexFile{Notes: []models.NoteMeta{{
		ID:      "self",
		Tags:    []string{"b", "a", "b"},
		LinksTo: []string{"z", "self", "y", "z"},
	}}}
	if err := s.Save(idx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ := s.Load()
	if !reflect.DeepEqual(got.Notes[0].Tags, []string{"a", "b"}) {
		t.Errorf("tags = %v", got.Notes[0].Tags)
	}
	if !reflect.DeepEqual(got.Notes[0].LinksTo, []string{"y", "z"}) {
		t.Errorf("linksTo = %v", got.Notes[0].LinksTo)
	}
}

func TestSave_RejectsDuplicateIDs(t *testing.T) {
	s, _ := testStore(t)
	idx := &models.IndexFile{Notes: []models.NoteMeta{{ID: "dup"}, {ID: "dup"}}}
	if err := s.Save(idx); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Save error = %v, want ErrValidation", err)
	}
	if ok, _ := s.Exists(); ok {
		t.Error("rejected index must not be written")
	}
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	s, fs := testStore(t)
	for i := 0; i < 3; i++ {
		if err := s.Save(sampleIndex()); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	entries, _ := os.ReadDir(filepath.Join(fs.Root(), "meta"))
	if len(entries) != 1 || entries[0].Name() != "index.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("meta dir = %v, want only index.json", names)
	}
}
