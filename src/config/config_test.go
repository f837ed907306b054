package config

import (
	"testing"
	"time"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_STR", "hello")
	t.Setenv("X_INT", "42")
	t.Setenv("X_FLOAT", "1.5")
	t.Setenv("X_DUR", "1.2s")
	t.Setenv("X_DUR_MS", "300")
	t.Setenv("X_BAD_INT", "nope")

	if got := envOr("X_STR", "d"); got != "hello" {
		t.Errorf("envOr = %q", got)
	}
	if got := envOr("X_MISSING", "d"); got != "d" {
		t.Errorf("envOr fallback = %q", got)
	}
	if got := envIntOr("X_INT", 0); got != 42 {
		t.Errorf("envIntOr = %d", got)
	}
	if got := envIntOr("X_BAD_INT", 7); got != 7 {
		t.Errorf("envIntOr bad value = %d", got)
	}
	if got := envFloatOr("X_FLOAT", 0); got != 1.5 {
		t.Errorf("envFloatOr = %f", got)
	}
	if got := envDurationOr("X_DUR", 0); got != 1200*time.Millisecond {
		t.Errorf("envDurationOr = %s", got)
	}
	// bare integers are milliseconds
	if got := envDurationOr("X_DUR_MS", 0); got != 300*time.Millisecond {
		t.Errorf("envDurationOr ms = %s", got)
	}
	if got := envDurationOr("X_MISSING", time.Second); got != time.Second {
		t.Errorf("envDurationOr fallback = %s", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ELEVENLABS_API_KEY", "el-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.EnergyThreshold != 500 {
		t.Errorf("energy threshold %f", cfg.EnergyThreshold)
	}
	if cfg.MinUtteranceBytes != 4000 || cfg.MaxUtteranceBytes != 80000 {
		t.Errorf("utterance bounds %d/%d", cfg.MinUtteranceBytes, cfg.MaxUtteranceBytes)
	}
	if cfg.SilenceToProcess != 1200*time.Millisecond {
		t.Errorf("silence to process %s", cfg.SilenceToProcess)
	}
	if cfg.PostSpeechCooldown != 1500*time.Millisecond {
		t.Errorf("cooldown %s", cfg.PostSpeechCooldown)
	}
	if cfg.ChunkBytes != 640 || cfg.ChunkInterval != 80*time.Millisecond {
		t.Errorf("playback %d/%s", cfg.ChunkBytes, cfg.ChunkInterval)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("addr %s", cfg.Addr())
	}
}

func TestLoadRequiresKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ELEVENLABS_API_KEY", "el-test")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without OPENAI_API_KEY")
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DIALOGUE_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for gemini provider without key")
	}
}
