package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/notekeep/internal/models"
	"github.com/starford/notekeep/internal/noteservice"
)

type harness struct {
	t    *testing.T
	root string
	cfg  string
}

func newCLI(t *testing.T) *harness {
	dir := t.TempDir()
	return &harness{t: t, root: filepath.Join(dir, "data"), cfg: filepath.Join(dir, "absent.yaml")}
}

// run executes the app and returns what it printed to stdout.
func (c *harness) run(args ...string) (string, error) {
	c.t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	defer func() { stdout = prev }()

	argv := append([]string{"notekeep", "--config", c.cfg, "--root", c.root}, args...)
	err := newApp().Run(context.Background(), argv)
	return buf.String(), err
}

func (c *harness) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	if err != nil {
		c.t.Fatalf("%v: %v", args, err)
	}
	return out
}

func (c *harness) save(args ...string) models.NoteMeta {
	c.t.Helper()
	var meta models.NoteMeta
	out := c.mustRun(append([]string{"save"}, args...)...)
	if err := json.Unmarshal([]byte(out), &meta); err != nil {
		c.t.Fatalf("decode save output %q: %v", out, err)
	}
	return meta
}

func TestCLI_SaveShowSearch(t *testing.T) {
	c := newCLI(t)
	if out := c.mustRun("init"); strings.TrimSpace(out) != c.root {
		t.Errorf("init printed %q, want %q", out, c.root)
	}

	meta := c.save("--title", "Groceries", "--body", "#shopping milk\n- [ ] eggs")
	if meta.ID == "" {
		t.Fatal("no id")
	}

	if out := c.mustRun("show", "--body", meta.ID); out != "#shopping milk\n- [ ] eggs" {
		t.Errorf("show --body = %q", out)
	}

	out := c.mustRun("search", "tag:shopping", "has:unchecked")
	if !strings.Contains(out, meta.ID) || !strings.Contains(out, "Groceries") {
		t.Errorf("search = %q", out)
	}
	if out := c.mustRun("search", "tag:nothing"); out != "" {
		t.Errorf("search miss = %q", out)
	}

	if out := c.mustRun("tags"); out != "groceries\nshopping\n" {
		t.Errorf("tags = %q", out)
	}
}

func TestCLI_VersionsAndRestore(t *testing.T) {
	c := newCLI(t)
	meta := c.save("--title", "Draft", "--body", "first")
	c.save("--id", meta.ID, "--title", "Draft", "--body", "second")

	out := c.mustRun("versions", "list", meta.ID)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 || !strings.HasSuffix(lines[0], "first") {
		t.Fatalf("versions = %q", out)
	}
	savedAt := strings.Fields(lines[0])[0]

	c.mustRun("versions", "restore", meta.ID, savedAt)
	if out := c.mustRun("show", "--body", meta.ID); out != "first" {
		t.Errorf("restored body = %q", out)
	}
}

func TestCLI_Errors(t *testing.T) {
	c := newCLI(t)
	if _, err := c.run("show"); err == nil {
		t.Error("show without id should fail")
	}
	if _, err := c.run("show", "missing"); err == nil {
		t.Error("show of unknown note should fail")
	}
	if _, err := c.run("delete"); err == nil {
		t.Error("delete without id should fail")
	}
}

func TestCLI_ExportToFile(t *testing.T) {
	c := newCLI(t)
	meta := c.save("--title", "Doc", "--body", "text")

	out := filepath.Join(t.TempDir(), "nested", "doc.txt")
	c.mustRun("export", "text", "--out", out, meta.ID)

	got := c.mustRun("export", "text", meta.ID)
	if got != "Doc\n\ntext\n" {
		t.Errorf("export = %q", got)
	}
}

func TestCLI_NotebooksAndSyncFolder(t *testing.T) {
	c := newCLI(t)
	var nb models.Notebook
	if err := json.Unmarshal([]byte(c.mustRun("notebooks", "create", "Work", "stuff")), &nb); err != nil {
		t.Fatal(err)
	}
	if nb.Name != "Work stuff" {
		t.Errorf("name = %q", nb.Name)
	}
	if out := c.mustRun("notebooks", "list"); !strings.Contains(out, nb.ID+"  Work stuff") {
		t.Errorf("list = %q", out)
	}

	if out := c.mustRun("sync-folder", "get"); out != "" {
		t.Errorf("unset sync folder = %q", out)
	}
	c.mustRun("sync-folder", "set", "/tmp/sync")
	if out := c.mustRun("sync-folder", "get"); out != "/tmp/sync\n" {
		t.Errorf("sync folder = %q", out)
	}
}

func TestCLI_Reconcile(t *testing.T) {
	c := newCLI(t)
	meta := c.save("--title", "Log", "--body", "start")
	if err := os.WriteFile(filepath.Join(c.root, "notes", meta.ID+".txt"), []byte("#late entry"), 0o644); err != nil {
		t.Fatal(err)
	}

	var report noteservice.ReconcileReport
	if err := json.Unmarshal([]byte(c.mustRun("reconcile")), &report); err != nil {
		t.Fatal(err)
	}
	if report.Checked != 1 || len(report.Updated) != 1 || report.Updated[0] != meta.ID {
		t.Errorf("report = %+v", report)
	}
	if out := c.mustRun("tags"); out != "late\nlog\n" {
		t.Errorf("tags = %q", out)
	}
}
