package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lemonberrylabs/wdl-engine/pkg/task"
)

func TestLoadDefaultsWithoutFileOrEnv(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TaskTimeout != 10*time.Minute || cfg.Materialize != task.MaterializeSymlink || cfg.ListenAddr != "0.0.0.0:8787" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("task_timeout: 30s\nwork_dir_root: /tmp/runs\nmaterialize: copy\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TaskTimeout != 30*time.Second || cfg.WorkDirRoot != "/tmp/runs" || cfg.Materialize != task.MaterializeCopy {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("materialize: copy\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WDLRUN_MATERIALIZE", "symlink")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Materialize != task.MaterializeSymlink {
		t.Fatalf("expected env override to win, got %+v", cfg)
	}
}

func TestLoadRejectsUnknownMaterializeMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("materialize: teleport\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unknown materialize mode")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
