package config

import "testing"

func TestLoadAppliesDefaultsWhenEnvUnset(t *testing.T) {
	t.Setenv("TOKF_HOME", t.TempDir())
	t.Setenv("TOKF_DB_PATH", "")

	cfg := Load()
	if cfg.VerifyConcurrency != 4 {
		t.Fatalf("expected default verify concurrency 4, got %d", cfg.VerifyConcurrency)
	}
	if cfg.DefaultScope != "project" {
		t.Fatalf("expected default scope 'project', got %q", cfg.DefaultScope)
	}
	if cfg.HistoryRetention != 10 {
		t.Fatalf("expected default history retention 10, got %d", cfg.HistoryRetention)
	}
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	t.Setenv("TOKF_HOME", t.TempDir())
	t.Setenv("TOKF_VERIFY_CONCURRENCY", "16")

	cfg := Load()
	if cfg.VerifyConcurrency != 16 {
		t.Fatalf("expected env override 16, got %d", cfg.VerifyConcurrency)
	}
}

func TestLoadClampsOutOfRangeConcurrency(t *testing.T) {
	t.Setenv("TOKF_HOME", t.TempDir())
	t.Setenv("TOKF_VERIFY_CONCURRENCY", "9999")

	cfg := Load()
	if cfg.VerifyConcurrency != 64 {
		t.Fatalf("expected clamp to 64, got %d", cfg.VerifyConcurrency)
	}
}
