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
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8090 {
		t.Errorf("expected default port 8090, got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("expected default read timeout, got %v", cfg.Server.ReadTimeout)
	}
	if !cfg.Verify.BlockOnFailure {
		t.Errorf("expected block_on_failure default true")
	}
	if cfg.Verify.HistorySize != 1000 {
		t.Errorf("expected default history size, got %d", cfg.Verify.HistorySize)
	}
	if cfg.Logger.Level != "info" || cfg.Logger.Format != "json" {
		t.Errorf("unexpected logger defaults: %+v", cfg.Logger)
	}
	if cfg.Verify.PolicyPath == "" {
		t.Errorf("expected a default policy path")
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  host: 127.0.0.1
  port: 9000
verify:
  policy_path: /etc/responseguard/guards.yaml
  block_on_failure: false
  skip_paths: [/healthz, /metrics]
logger:
  level: debug
  format: console
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr() != "127.0.0.1:9000" {
		t.Errorf("unexpected addr: %s", cfg.Server.Addr())
	}
	if cfg.Verify.BlockOnFailure {
		t.Errorf("expected block_on_failure false from file")
	}
	if len(cfg.Verify.SkipPaths) != 2 {
		t.Errorf("unexpected skip paths: %v", cfg.Verify.SkipPaths)
	}
	if cfg.Verify.PolicyPath != "/etc/responseguard/guards.yaml" {
		t.Errorf("unexpected policy path: %s", cfg.Verify.PolicyPath)
	}
	if cfg.Logger.Level != "debug" || cfg.Logger.Format != "console" {
		t.Errorf("unexpected logger config: %+v", cfg.Logger)
	}
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Errorf("expected error for explicit missing file")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("RESPONSEGUARD_SERVER_PORT", "9999")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("expected env override to 9999, got %d", cfg.Server.Port)
	}
}

func TestLoad_ValidationRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logger:
  level: loud
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Errorf("expected validation error for bad log level")
	}
}

func TestLoad_InvalidPortRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 99999\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Errorf("expected validation error for out-of-range port")
	}
}
