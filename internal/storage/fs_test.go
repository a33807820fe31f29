package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/notekeep/internal/apperr"
)

func tempRoot(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestNewFS_CreatesLayout(t *testing.T) {
	s := tempRoot(t)
	for _, dir := range BackupDirs {
		info, err := os.Stat(filepath.Join(s.Root(), dir))
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s: %v", dir, err)
		}
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "notekeep-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := NewFS(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestReadBody_MissingIsEmpty(t *testing.T) {
	s := tempRoot(t)
	body, err := s.ReadBody("never-written")
	if err != nil {
		t.Fatalf("ReadBody: %v", err)
	}
	if body != "" {
		t.Errorf("body = %q, want empty", body)
	}
}

func TestWriteAndReadBody(t *testing.T) {
	s := tempRoot(t)
	if err := s.WriteBody("n1", "hello\nworld"); err != nil {
		t.Fatalf("WriteBody: %v", err)
	}
	got, err := s.ReadBody("n1")
	if err != nil {
		t.Fatalf("ReadBody: %v", err)
	}
	if got != "hello\nworld" {
		t.Errorf("body = %q", got)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "notes", "n1.txt")); err != nil {
		t.Errorf("body file not at notes/n1.txt: %v", err)
	}
	ok, _ := s.BodyExists("n1")
	if !ok {
		t.Error("BodyExists = false after write")
	}
}

func TestBodyFileNamedBySanitizedID(t *testing.T) {
	s := tempRoot(t)
	if err := s.WriteBody("a:b", "x"); err != nil {
		t.Fatalf("WriteBody: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "notes", "a_b.txt")); err != nil {
		t.Errorf("expected notes/a_b.txt: %v", err)
	}
}

func TestDeleteBody(t *testing.T) {
	s := tempRoot(t)
	_ = s.WriteBody("gone", "bye")
	if err := s.DeleteBody("gone"); err != nil {
		t.Fatalf("DeleteBody: %v", err)
	}
	if ok, _ := s.BodyExists("gone"); ok {
		t.Error("body still exists")
	}
	if err := s.DeleteBody("gone"); err != nil {
		t.Errorf("second DeleteBody should be a no-op: %v", err)
	}
}

func TestWriteAtomic_NoLeftoverTemp(t *testing.T) {
	s := tempRoot(t)
	_ = s.WriteAtomic("meta/index.json", []byte("original"))
	if err := s.WriteAtomic("meta/index.json", []byte("updated")); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	got, _ := s.ReadFile("meta/index.json")
	if string(got) != "updated" {
		t.Errorf("content = %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.Root(), "meta", ".notekeep-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestAbs_TraversalBlocked(t *testing.T) {
	s := tempRoot(t)
	for _, p := range []string{"../../etc/passwd", "../outside", "notes/../../x"} {
		if _, err := s.Abs(p); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("Abs(%q) error = %v, want ErrValidation", p, err)
		}
		if err := s.WriteAtomic(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestRemoveAll_RefusesRoot(t *testing.T) {
	s := tempRoot(t)
	if err := s.RemoveAll(""); err == nil {
		t.Error("expected error removing the root")
	}
}

func TestListDir(t *testing.T) {
	s := tempRoot(t)
	names, err := s.ListDir("versions/none")
	if err != nil || len(names) != 0 {
		t.Fatalf("missing dir: names=%v err=%v", names, err)
	}
	_ = s.WriteAtomic("versions/n/a.json", []byte("{}"))
	_ = s.WriteAtomic("versions/n/b.json", []byte("{}"))
	names, err = s.ListDir("versions/n")
	if err != nil {
		t.Fatalf("ListDir: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("names = %v, want 2 entries", names)
	}
}

func TestCopyDir(t *testing.T) {
	src := t.TempDir()
	_ = os.MkdirAll(filepath.Join(src, "sub"), 0o755)
	_ = os.WriteFile(filepath.Join(src, "a.txt"), []byte("a"), 0o644)
	_ = os.WriteFile(filepath.Join(src, "sub", "b.txt"), []byte("b"), 0o644)

	dest := filepath.Join(t.TempDir(), "out")
	if err := CopyDir(src, dest); err != nil {
		t.Fatalf("CopyDir: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dest, "sub", "b.txt"))
	if err != nil || string(got) != "b" {
		t.Errorf("nested copy = %q, %v", got, err)
	}
}

func TestCopyIn(t *testing.T) {
	s := tempRoot(t)
	src := filepath.Join(t.TempDir(), "pic.png")
	_ = os.WriteFile(src, []byte("12345"), 0o644)
	n, err := s.CopyIn(src, "images/n1/1-pic.png")
	if err != nil {
		t.Fatalf("CopyIn: %v", err)
	}
	if n != 5 {
		t.Errorf("n = %d, want 5", n)
	}
}
