package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("host = %q, want default", cfg.Server.Host)
	}
	if cfg.Pipeline.DispatchIntervalMs != 1000 {
		t.Errorf("dispatch interval = %d, want 1000", cfg.Pipeline.DispatchIntervalMs)
	}
	if cfg.ASR.StreamBin != "whisper-cli" {
		t.Errorf("stream bin = %q, want whisper-cli", cfg.ASR.StreamBin)
	}
	if cfg.Suggestions.Count != 3 {
		t.Errorf("suggestion count = %d, want 3", cfg.Suggestions.Count)
	}
	if cfg.Storage.Database == "" || cfg.Storage.TempDir == "" {
		t.Error("storage defaults not applied")
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 7070
asr:
  model_path: models/ggml-small.bin
  language: en
diarization:
  script_path: scripts/diarize.py
pipeline:
  dispatch_interval_ms: 500
suggestions:
  enabled: true
  model: mistral
tts:
  command: piper
  args: ["--output-raw"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ASR.ModelPath != "models/ggml-small.bin" {
		t.Errorf("model path = %q", cfg.ASR.ModelPath)
	}
	if cfg.Pipeline.DispatchIntervalMs != 500 {
		t.Errorf("dispatch interval = %d, want 500", cfg.Pipeline.DispatchIntervalMs)
	}
	if !cfg.Suggestions.Enabled || cfg.Suggestions.Model != "mistral" {
		t.Errorf("suggestions = %+v", cfg.Suggestions)
	}
	if cfg.TTS.Command != "piper" || len(cfg.TTS.Args) != 1 {
		t.Errorf("tts = %+v", cfg.TTS)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}
