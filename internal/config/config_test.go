package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Task.Blocks != nil || cfg.Keys.Left != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[task]
blocks = 4
ssd = "250ms"
draw-latency = "16ms"

[keys]
left = ["left", "z"]

[output]
store = false
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Task.Blocks == nil || *cfg.Task.Blocks != 4 {
		t.Fatalf("unexpected blocks %v", cfg.Task.Blocks)
	}
	if cfg.Task.SSD == nil || *cfg.Task.SSD != "250ms" {
		t.Fatalf("unexpected ssd %v", cfg.Task.SSD)
	}
	if cfg.Task.Reps != nil {
		t.Fatalf("expected reps unset")
	}
	if len(cfg.Keys.Left) != 2 || cfg.Keys.Left[1] != "z" {
		t.Fatalf("unexpected left keys %v", cfg.Keys.Left)
	}
	if cfg.Output.Store == nil || *cfg.Output.Store {
		t.Fatalf("expected store disabled")
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[task]\nblokcs = 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "blokcs") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "stopit", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "stopit", "stopit.db") {
		t.Fatalf("unexpected db path %q", got)
	}
	if got := DefaultOutputDir(); got != filepath.Join("/data", "stopit", "output") {
		t.Fatalf("unexpected output dir %q", got)
	}
}
