package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/dendra/pkg/dendra/internalerr"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dendra.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
artifacts:
  tree:
    source: data/tree.json
  scores:
    source: https://example.org/scores.html
    format: html
  explanations:
    source: data/explanations.csv
threshold: 0.6
markers: [UNIDAD, UNIT]
snapshot_db: dendra.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Artifacts.Tree.Source != "data/tree.json" {
		t.Errorf("tree source = %q", cfg.Artifacts.Tree.Source)
	}
	if cfg.Artifacts.Scores.Format != FormatHTML {
		t.Errorf("scores format = %q", cfg.Artifacts.Scores.Format)
	}
	if cfg.Threshold != 0.6 {
		t.Errorf("threshold = %v", cfg.Threshold)
	}
	if len(cfg.Markers) != 2 {
		t.Errorf("markers = %v", cfg.Markers)
	}
}

func TestLoadMissingTreeSource(t *testing.T) {
	path := writeConfig(t, `
artifacts:
  scores:
    source: scores.csv
`)

	_, err := Load(path)
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadBadFormat(t *testing.T) {
	path := writeConfig(t, `
artifacts:
  tree:
    source: tree.json
  scores:
    source: scores.xlsx
    format: xlsx
`)

	_, err := Load(path)
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for bad format, got %v", err)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeConfig(t, "artifacts: [not a map")

	_, err := Load(path)
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for bad yaml, got %v", err)
	}
}
