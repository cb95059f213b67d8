package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ServeAddr != DefaultServeAddr {
		t.Errorf("ServeAddr = %q, want %q", cfg.ServeAddr, DefaultServeAddr)
	}
	if cfg.Artifacts.InlineLimit != DefaultArtifacts.InlineLimit {
		t.Errorf("InlineLimit = %d, want %d", cfg.Artifacts.InlineLimit, DefaultArtifacts.InlineLimit)
	}
	if cfg.Artifacts.URLTTL != DefaultURLTTL {
		t.Errorf("URLTTL = %v, want %v", cfg.Artifacts.URLTTL, DefaultURLTTL)
	}
	if cfg.Artifacts.SigningSecret != "" {
		t.Errorf("SigningSecret should have no default, got %q", cfg.Artifacts.SigningSecret)
	}
	if cfg.Weights != DefaultWeights {
		t.Errorf("Weights = %+v, want defaults", cfg.Weights)
	}
	if cfg.Backoff.MaxAttempts != DefaultBackoff.MaxAttempts {
		t.Errorf("Backoff.MaxAttempts = %d, want %d", cfg.Backoff.MaxAttempts, DefaultBackoff.MaxAttempts)
	}
	if !cfg.Output.Color {
		t.Error("Output.Color should default to true")
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := `data_dir: /var/lib/assay
serve_addr: "0.0.0.0:9000"
artifacts:
  inline_limit: 1024
  url_ttl: 5m
weights:
  code_quality: 0.5
  problem_solving: 0.2
  ai_collaboration: 0.2
  communication: 0.1
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ServeAddr != "0.0.0.0:9000" {
		t.Errorf("ServeAddr = %q, want 0.0.0.0:9000", cfg.ServeAddr)
	}
	if cfg.Artifacts.InlineLimit != 1024 {
		t.Errorf("InlineLimit = %d, want 1024", cfg.Artifacts.InlineLimit)
	}
	if cfg.Artifacts.URLTTL != 5*time.Minute {
		t.Errorf("URLTTL = %v, want 5m", cfg.Artifacts.URLTTL)
	}
	if cfg.Weights.CodeQuality != 0.5 {
		t.Errorf("Weights.CodeQuality = %v, want 0.5", cfg.Weights.CodeQuality)
	}
	// Untouched keys keep their defaults.
	if cfg.Stream.Buffer != DefaultStream.Buffer {
		t.Errorf("Stream.Buffer = %d, want default %d", cfg.Stream.Buffer, DefaultStream.Buffer)
	}
	if cfg.DBPath() != "/var/lib/assay/assay.db" {
		t.Errorf("DBPath() = %q", cfg.DBPath())
	}
	if cfg.ArtifactRoot() != "/var/lib/assay/artifacts" {
		t.Errorf("ArtifactRoot() = %q", cfg.ArtifactRoot())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ASSAY_SERVE_ADDR", "localhost:7999")
	t.Setenv("ASSAY_ARTIFACTS_SIGNING_SECRET", "env-secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ServeAddr != "localhost:7999" {
		t.Errorf("ServeAddr = %q, want env override", cfg.ServeAddr)
	}
	if cfg.Artifacts.SigningSecret != "env-secret" {
		t.Errorf("SigningSecret = %q, want env override", cfg.Artifacts.SigningSecret)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Errorf("missing config file should not be an error, got %v", err)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := expandPath("~/x/y"); got != filepath.Join(home, "x/y") {
		t.Errorf("expandPath(~/x/y) = %q", got)
	}
	if got := expandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("expandPath(/abs/path) = %q", got)
	}
}
