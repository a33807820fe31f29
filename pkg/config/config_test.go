package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Limit int    `yaml:"limit"`
}

func (s *sample) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "from-env")
	p := writeConfig(t, "name: ${SAMPLE_NAME}\nlimit: 3\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "from-env" || s.Limit != 3 {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_RunsValidator(t *testing.T) {
	p := writeConfig(t, "limit: 3\n")

	var s sample
	err := Load(p, &s)
	if err == nil || !strings.Contains(err.Error(), "name is required") {
		t.Errorf("err = %v, want validation failure", err)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	p := writeConfig(t, "name: [unterminated\n")

	var s sample
	if err := Load(p, &s); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadOrDefault_MissingFileKeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Limit: 7}
	if err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"), &s); err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if s.Name != "default" || s.Limit != 7 {
		t.Errorf("defaults changed: %+v", s)
	}

	var empty sample
	if err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"), &empty); err == nil {
		t.Error("invalid defaults should still fail validation")
	}
}

func TestLoadOrDefault_OverlaysFile(t *testing.T) {
	p := writeConfig(t, "limit: 9\n")
	s := sample{Name: "default", Limit: 7}
	if err := LoadOrDefault(p, &s); err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if s.Name != "default" || s.Limit != 9 {
		t.Errorf("got %+v", s)
	}
}
