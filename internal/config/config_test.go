package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Audio.SampleRate != 16000 || cfg.Audio.Channels != 1 {
		t.Errorf("audio defaults = %d/%d, want 16000/1", cfg.Audio.SampleRate, cfg.Audio.Channels)
	}
	if cfg.Whisper.Model != "medium" || cfg.Whisper.Task != "transcribe" {
		t.Errorf("whisper defaults = %+v", cfg.Whisper)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.SQLitePath == "" {
		t.Errorf("store defaults = %+v", cfg.Store)
	}
	if cfg.Dashboard.Port != 8080 {
		t.Errorf("dashboard port = %d, want 8080", cfg.Dashboard.Port)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
paths:
  source_dir: /data/recordings
  work_dir: /data/work
whisper:
  model: small
  language: ar
dashboard:
  port: 9090
store:
  driver: postgres
  postgres_dsn: postgres://localhost/calls
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Paths.SourceDir != "/data/recordings" || cfg.Paths.WorkDir != "/data/work" {
		t.Errorf("paths = %+v", cfg.Paths)
	}
	if cfg.Whisper.Model != "small" || cfg.Whisper.Language != "ar" {
		t.Errorf("whisper = %+v", cfg.Whisper)
	}
	if cfg.Dashboard.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Dashboard.Port)
	}
	if cfg.Store.Driver != "postgres" {
		t.Errorf("driver = %q, want postgres", cfg.Store.Driver)
	}

	// Untouched sections keep their defaults.
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want default 16000", cfg.Audio.SampleRate)
	}
	if cfg.Whisper.Task != "transcribe" {
		t.Errorf("task = %q, want default transcribe", cfg.Whisper.Task)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("paths: [not: a: mapping"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
