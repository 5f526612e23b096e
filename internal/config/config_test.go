package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Capture.IntervalMS != 800 {
		t.Fatalf("expected capture interval 800, got %d", cfg.Capture.IntervalMS)
	}
	if cfg.Health.IntervalMS != 10000 {
		t.Fatalf("expected health interval 10000, got %d", cfg.Health.IntervalMS)
	}
	if cfg.Accumulator.MinConfidence != 0.7 {
		t.Fatalf("expected min confidence 0.7, got %v", cfg.Accumulator.MinConfidence)
	}
	if cfg.Accumulator.NominalConfidence != 0 {
		t.Fatalf("expected true confidence by default, got nominal %v", cfg.Accumulator.NominalConfidence)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sign.yaml")
	data := []byte(`
recognition:
  mode: mock
  mock_script: [A, B]
translation:
  mode: mock
capture:
  interval_ms: 250
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Recognition.Mode != "mock" || len(cfg.Recognition.MockScript) != 2 {
		t.Fatalf("expected mock recognition with script, got %+v", cfg.Recognition)
	}
	if cfg.Capture.IntervalMS != 250 {
		t.Fatalf("expected interval 250, got %d", cfg.Capture.IntervalMS)
	}
	if cfg.Health.Path != "/health" {
		t.Fatalf("expected default health path to survive partial file")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LOQA_SIGN_BUS_ENABLED", "true")
	t.Setenv("LOQA_SIGN_BUS_SERVERS", "nats://one:4222, nats://two:4222")
	t.Setenv("LOQA_SIGN_RECOGNITION_ENDPOINT", "http://recognizer:5000")
	t.Setenv("LOQA_SIGN_CAPTURE_AUTO_DETECT", "false")
	t.Setenv("LOQA_SIGN_ACCUMULATOR_NOMINAL_CONFIDENCE", "0.85")
	t.Setenv("LOQA_SIGN_TRANSLATION_TARGET_LANGUAGE", "Hindi")
	t.Setenv("LOQA_SIGN_EVENT_STORE_RETENTION_MODE", "persistent")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Bus.Enabled || len(cfg.Bus.Servers) != 2 {
		t.Fatalf("expected bus overrides, got %+v", cfg.Bus)
	}
	if cfg.Recognition.Endpoint != "http://recognizer:5000" {
		t.Fatalf("expected endpoint override, got %s", cfg.Recognition.Endpoint)
	}
	if cfg.Capture.AutoDetect {
		t.Fatal("expected auto detect disabled")
	}
	if cfg.Accumulator.NominalConfidence != 0.85 {
		t.Fatalf("expected nominal confidence override, got %v", cfg.Accumulator.NominalConfidence)
	}
	if cfg.Translation.TargetLanguage != "Hindi" {
		t.Fatalf("expected target language override")
	}
	if cfg.EventStore.RetentionMode != "persistent" {
		t.Fatalf("expected retention mode override")
	}
}

func TestValidateRejectsDirectModesWithoutKey(t *testing.T) {
	t.Setenv("LOQA_SIGN_TRANSLATION_MODE", "gemini")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for gemini mode without api key")
	}
}

func TestValidateRejectsExecCameraWithoutCommand(t *testing.T) {
	t.Setenv("LOQA_SIGN_CAMERA_MODE", "exec")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for exec camera without command")
	}
}
