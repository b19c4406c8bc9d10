package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	cfg, path, exists, err := Load(missing)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatalf("expected exists=false for %s", path)
	}
	if cfg.LLM.Model != defaultLLMModel {
		t.Fatalf("default model not applied: %q", cfg.LLM.Model)
	}
	if cfg.LLM.Workers != defaultLLMWorkers {
		t.Fatalf("default workers not applied: %d", cfg.LLM.Workers)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[scan]
video_extensions = ["MKV", "mp4", ".mp4"]
subtitle_extensions = [".srt"]

[llm]
base_url = "http://127.0.0.1:11434/"
model = " llama3.1:8b "
timeout_seconds = 30
retry_attempts = 2
workers = 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if got := cfg.Scan.VideoExtensions; len(got) != 2 || got[0] != ".mkv" || got[1] != ".mp4" {
		t.Fatalf("extensions not normalized: %v", got)
	}
	if cfg.LLM.BaseURL != "http://127.0.0.1:11434" {
		t.Fatalf("base url not trimmed: %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Model != "llama3.1:8b" {
		t.Fatalf("model not trimmed: %q", cfg.LLM.Model)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[llm]
workers = 99
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "workers") {
		t.Fatalf("expected workers validation error, got %v", err)
	}
}

func TestSampleConfigParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, _, err := Load(path); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
}

func TestValidateRejectsOverlappingExtensions(t *testing.T) {
	cfg := Default()
	cfg.Scan.SubtitleExtensions = append(cfg.Scan.SubtitleExtensions, ".mkv")
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected overlap validation error")
	}
}
