package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected config file: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %v", info.Mode().Perm())
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "api_base: https://buskport.example/api/v1/\nretry_attempts: 3\ndefault_view: fortnight\ncache:\n  venues: 2h\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBase != "https://buskport.example/api/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.APIBase)
	}
	if cfg.RetryAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", cfg.RetryAttempts)
	}
	if cfg.DefaultView != "month" {
		t.Fatalf("expected invalid view to fall back to month, got %q", cfg.DefaultView)
	}
	if cfg.Cache.Venues != 2*time.Hour || cfg.Cache.Performances != DefaultConfig().Cache.Performances {
		t.Fatalf("unexpected cache config: %+v", cfg.Cache)
	}
	if cfg.Timeout != DefaultConfig().Timeout {
		t.Fatalf("expected default timeout, got %s", cfg.Timeout)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_base: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Timezone = "Asia/Seoul"
	cfg.DefaultView = "week"
	cfg.LogLevel = "debug"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAPIBase, "http://10.0.0.2:9000/api/v1/")
	t.Setenv(EnvLogLevel, "DEBUG")
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	if cfg.APIBase != "http://10.0.0.2:9000/api/v1" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestDefaultPath_EnvOverride(t *testing.T) {
	t.Setenv(EnvConfig, "/tmp/custom.yaml")
	path, err := DefaultPath()
	if err != nil || path != "/tmp/custom.yaml" {
		t.Fatalf("unexpected path %q err=%v", path, err)
	}
}

func TestLocation(t *testing.T) {
	cfg := DefaultConfig()
	if loc, err := cfg.Location(); err != nil || loc != time.Local {
		t.Fatalf("expected time.Local, got %v err=%v", loc, err)
	}
	cfg.Timezone = "UTC"
	if loc, err := cfg.Location(); err != nil || loc.String() != "UTC" {
		t.Fatalf("expected UTC, got %v err=%v", loc, err)
	}
	cfg.Timezone = "Mars/Olympus"
	if _, err := cfg.Location(); err == nil {
		t.Fatal("expected error for unknown zone")
	}
}
