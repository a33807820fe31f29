package noteservice_test

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/notekeep/internal/apperr"
	"github.com/starford/notekeep/internal/noteservice"
	"github.com/starford/notekeep/internal/testutil"
)

func TestAttachImages(t *testing.T) {
	e := newEnv(t)
	n, _ := e.svc.SaveNote(ctx, "", "T", "")
	srcDir := t.TempDir()
	good := testutil.WriteFile(t, srcDir, "My Photo.PNG", "12345")

	meta, err := e.svc.AttachImages(ctx, n.ID, []string{good, filepath.Join(srcDir, "missing.png"), srcDir})
	if err != nil {
		t.Fatalf("AttachImages: %v", err)
	}
	if len(meta.Images) != 1 {
		t.Fatalf("images = %+v", meta.Images)
	}
	img := meta.Images[0]
	if img.Name != "My Photo.PNG" || img.Size == nil || *img.Size != 5 {
		t.Errorf("image = %+v", img)
	}
	wantPrefix := "images/" + n.ID + "/"
	if !strings.HasPrefix(img.Path, wantPrefix) || !strings.HasSuffix(img.Path, "-My Photo.PNG") {
		t.Errorf("path = %s", img.Path)
	}
	if !exists(e.path(img.Path)) {
		t.Error("attachment file missing")
	}

	// Same name in the same millisecond gets a distinct stored name.
	meta, _ = e.svc.AttachImages(ctx, n.ID, []string{good})
	if meta.Images[0].Path == meta.Images[1].Path {
		t.Errorf("stored names collide: %s", meta.Images[1].Path)
	}

	if _, err := e.svc.AttachImages(ctx, "missing", []string{good}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown note = %v", err)
	}
}

func TestAttachImageData(t *testing.T) {
	e := newEnv(t)
	n, _ := e.svc.SaveNote(ctx, "", "T", "")
	data := base64.StdEncoding.EncodeToString([]byte("fake-png"))

	meta, err := e.svc.AttachImageData(ctx, n.ID, data, "")
	if err != nil {
		t.Fatalf("AttachImageData: %v", err)
	}
	img := meta.Images[0]
	if img.Name != "paste" || !strings.HasSuffix(img.Path, "-paste.png") || *img.Size != 8 {
		t.Errorf("image = %+v", img)
	}
	got, _ := os.ReadFile(e.path(img.Path))
	if string(got) != "fake-png" {
		t.Errorf("stored bytes = %q", got)
	}

	meta, _ = e.svc.AttachImageData(ctx, n.ID, data, "shot.JPG")
	if img := meta.Images[1]; img.Name != "shot.JPG" || !strings.HasSuffix(img.Path, "-shot.jpg") {
		t.Errorf("named image = %+v", img)
	}

	for _, bad := range []string{"", "%%%"} {
		if _, err := e.svc.AttachImageData(ctx, n.ID, bad, "x.png"); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("AttachImageData(%q) = %v, want ErrValidation", bad, err)
		}
	}
}

func TestRemoveAndRenameAttachment(t *testing.T) {
	e := newEnv(t)
	n, _ := e.svc.SaveNote(ctx, "", "T", "")
	src := testutil.WriteFile(t, t.TempDir(), "a.png", "x")
	meta, _ := e.svc.AttachImages(ctx, n.ID, []string{src})
	rel := meta.Images[0].Path

	meta, err := e.svc.RenameAttachment(ctx, n.ID, rel, "  new:name  ")
	if err != nil || meta.Images[0].Name != "new_name" {
		t.Errorf("RenameAttachment = %+v, %v", meta, err)
	}
	if _, err := e.svc.RenameAttachment(ctx, n.ID, rel, "   "); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("blank name = %v", err)
	}
	if _, err := e.svc.RenameAttachment(ctx, n.ID, "images/x/none.png", "n"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown attachment = %v", err)
	}
	if _, err := e.svc.RemoveAttachment(ctx, n.ID, "../outside.png"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("traversal = %v", err)
	}

	// Paths the note does not reference are never deleted.
	if _, err := e.svc.RemoveAttachment(ctx, n.ID, "meta/index.json"); err != nil {
		t.Fatal(err)
	}
	if !exists(e.path("meta", "index.json")) {
		t.Fatal("unreferenced file was deleted")
	}

	meta, err = e.svc.RemoveAttachment(ctx, n.ID, rel)
	if err != nil || len(meta.Images) != 0 {
		t.Errorf("RemoveAttachment = %+v, %v", meta, err)
	}
	if exists(e.path(rel)) {
		t.Error("attachment file still on disk")
	}

	abs, err := e.svc.ResolveImagePath(rel)
	if err != nil || abs != e.path(rel) {
		t.Errorf("ResolveImagePath = %s, %v", abs, err)
	}
	if _, err := e.svc.ResolveImagePath("/etc/passwd"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("absolute path = %v", err)
	}
}

func TestTemplates(t *testing.T) {
	e := newEnv(t)
	list, err := e.svc.ListTemplates(ctx)
	if err != nil || len(list) != 3 {
		t.Fatalf("ListTemplates = %d, %v", len(list), err)
	}

	n, err := e.svc.CreateFromTemplate(ctx, "meeting-notes", "")
	if err != nil {
		t.Fatal(err)
	}
	if n.Title != "Meeting 2026-03-15" {
		t.Errorf("title = %q", n.Title)
	}
	c, _ := e.svc.ReadNote(ctx, n.ID)
	if !strings.HasPrefix(c.Body, "# Meeting: Meeting 2026-03-15\n\n**Date:** 2026-03-15\n") {
		t.Errorf("body = %q", c.Body)
	}

	n, _ = e.svc.CreateFromTemplate(ctx, "project-planning", "Apollo")
	if n.Title != "Apollo" {
		t.Errorf("override title = %q", n.Title)
	}
	if _, err := e.svc.CreateFromTemplate(ctx, "nope", ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown template = %v", err)
	}

	custom, err := e.svc.SaveCustomTemplate(ctx, " Standup ", "Yesterday:\nToday: {{date}}\n")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(custom.ID, "custom-") || !custom.IsCustom || *custom.DefaultTitlePattern != "Standup" {
		t.Errorf("custom = %+v", custom)
	}
	n, _ = e.svc.CreateFromTemplate(ctx, custom.ID, "")
	if n.Title != "Standup" {
		t.Errorf("custom title = %q", n.Title)
	}
	if list, _ := e.svc.ListTemplates(ctx); len(list) != 4 {
		t.Errorf("templates = %d, want 4", len(list))
	}

	if err := e.svc.DeleteCustomTemplate(ctx, "daily-journal"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("delete built-in = %v", err)
	}
	if err := e.svc.DeleteCustomTemplate(ctx, "custom-missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("delete unknown = %v", err)
	}
	if err := e.svc.DeleteCustomTemplate(ctx, custom.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.SaveCustomTemplate(ctx, "  ", "x"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("blank name = %v", err)
	}

	testutil.WriteFile(t, e.path("meta"), "templates.json", "{broken")
	if _, err := e.svc.ListTemplates(ctx); !errors.Is(err, apperr.ErrSerialization) {
		t.Errorf("corrupt templates = %v, want ErrSerialization", err)
	}
}

func TestApplyPlaceholders(t *testing.T) {
	body, title := noteservice.ApplyPlaceholders("{{title}} on {{date}}", "Plan {{date}}", "2026-01-02")
	if title != "Plan 2026-01-02" || body != "Plan 2026-01-02 on 2026-01-02" {
		t.Errorf("got %q / %q", body, title)
	}
}

func TestNotebooks(t *testing.T) {
	e := newEnv(t)
	if _, err := e.svc.CreateNotebook(ctx, "   "); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("blank name = %v", err)
	}
	work, err := e.svc.CreateNotebook(ctx, " Work ")
	if err != nil || work.Name != "Work" {
		t.Fatalf("CreateNotebook = %+v, %v", work, err)
	}
	e.clock.Advance(time.Second)
	home, _ := e.svc.CreateNotebook(ctx, "Home")
	e.clock.Advance(time.Second)
	misc, _ := e.svc.CreateNotebook(ctx, "Misc")

	if _, err := e.svc.ArchiveNotebook(ctx, work.ID, true); err != nil {
		t.Fatal(err)
	}
	list, _ := e.svc.ListNotebooks(ctx)
	var order []string
	for _, nb := range list {
		order = append(order, nb.Name)
	}
	if strings.Join(order, ",") != "Home,Misc,Work" {
		t.Errorf("order = %v", order)
	}

	renamed, err := e.svc.RenameNotebook(ctx, misc.ID, "Other")
	if err != nil || renamed.Name != "Other" {
		t.Errorf("RenameNotebook = %+v, %v", renamed, err)
	}
	if _, err := e.svc.RenameNotebook(ctx, "missing", "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("rename unknown = %v", err)
	}

	n, _ := e.svc.SaveNote(ctx, "", "T", "")
	moved, err := e.svc.MoveNote(ctx, n.ID, home.ID)
	if err != nil || moved.NotebookID == nil || *moved.NotebookID != home.ID {
		t.Errorf("MoveNote = %+v, %v", moved, err)
	}
	if _, err := e.svc.MoveNote(ctx, n.ID, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("move to unknown = %v", err)
	}
	moved, _ = e.svc.MoveNote(ctx, n.ID, "")
	if moved.NotebookID != nil {
		t.Errorf("unfiled note has notebook %v", *moved.NotebookID)
	}
}

func TestSyncFolder(t *testing.T) {
	e := newEnv(t)
	got, err := e.svc.GetSyncFolder(ctx)
	if err != nil || got != nil {
		t.Fatalf("initial = %v, %v", got, err)
	}
	folder := "/Users/me/Dropbox/notes"
	if err := e.svc.SetSyncFolder(ctx, &folder); err != nil {
		t.Fatal(err)
	}
	got, _ = e.svc.GetSyncFolder(ctx)
	if got == nil || *got != folder {
		t.Errorf("folder = %v", got)
	}
	if err := e.svc.SetSyncFolder(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if got, _ = e.svc.GetSyncFolder(ctx); got != nil {
		t.Errorf("cleared folder = %v", *got)
	}

	testutil.WriteFile(t, e.path("meta"), "sync_config.json", "not json")
	if got, err = e.svc.GetSyncFolder(ctx); err != nil || got != nil {
		t.Errorf("malformed config = %v, %v", got, err)
	}
}

func TestBackupRoundTrip(t *testing.T) {
	e := newEnv(t)
	n, _ := e.svc.SaveNote(ctx, "", "Keep me", "precious")
	src := testutil.WriteFile(t, t.TempDir(), "p.png", "img")
	_, _ = e.svc.AttachImages(ctx, n.ID, []string{src})

	backup := t.TempDir()
	if err := e.svc.ExportBackup(ctx, backup); err != nil {
		t.Fatalf("ExportBackup: %v", err)
	}
	for _, d := range []string{"notes", "meta", "images"} {
		if !exists(filepath.Join(backup, d)) {
			t.Errorf("backup lacks %s/", d)
		}
	}
	if exists(filepath.Join(backup, "versions")) {
		t.Error("versions/ is not part of a backup")
	}

	fresh := newEnv(t)
	if err := fresh.svc.ImportBackup(ctx, backup); err != nil {
		t.Fatalf("ImportBackup: %v", err)
	}
	c, err := fresh.svc.ReadNote(ctx, n.ID)
	if err != nil || c.Body != "precious" || len(c.Meta.Images) != 1 {
		t.Fatalf("imported note = %+v, %v", c, err)
	}
	if !exists(fresh.path(c.Meta.Images[0].Path)) {
		t.Error("imported attachment missing")
	}

	if err := fresh.svc.ImportBackup(ctx, filepath.Join(backup, "nope")); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing source = %v, want ErrNotFound", err)
	}
	if err := e.svc.ExportBackup(ctx, ""); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("blank target = %v, want ErrValidation", err)
	}
}

func TestEventsPublished(t *testing.T) {
	e := newEnv(t)
	n, _ := e.svc.SaveNote(ctx, "", "T", "")
	_, _ = e.svc.SaveNote(ctx, n.ID, "T", "x")
	_ = e.svc.DeleteNote(ctx, n.ID)

	want := []testutil.Change{
		{Kind: noteservice.EventNoteCreated, ID: n.ID},
		{Kind: noteservice.EventNoteUpdated, ID: n.ID},
		{Kind: noteservice.EventNoteDeleted, ID: n.ID},
	}
	got := e.rec.Changes()
	if len(got) != len(want) {
		t.Fatalf("events = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
