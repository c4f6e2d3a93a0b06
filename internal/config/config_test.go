package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeTempConfig(t, "device:\n  address: AA:BB:CC:DD:EE:FF\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Device.Address != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("Device.Address = %q", cfg.Device.Address)
	}
	if cfg.Device.Name != "ESP32-DataNode" {
		t.Errorf("Device.Name = %q, want default", cfg.Device.Name)
	}
	if cfg.Transfer.QueueSize != 1024 {
		t.Errorf("Transfer.QueueSize = %d, want default 1024", cfg.Transfer.QueueSize)
	}
	if !cfg.Transfer.SyncClock {
		t.Error("Transfer.SyncClock = false, want default true")
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeTempConfig(t, `
transfer:
  base_timeout_sec: 8
  per_record_ms: 200
  queue_size: 256
log_level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BaseTimeout() != 8*time.Second {
		t.Errorf("BaseTimeout() = %v, want 8s", cfg.BaseTimeout())
	}
	if cfg.PerRecord() != 200*time.Millisecond {
		t.Errorf("PerRecord() = %v, want 200ms", cfg.PerRecord())
	}
	if cfg.Transfer.QueueSize != 256 {
		t.Errorf("QueueSize = %d, want 256", cfg.Transfer.QueueSize)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load() error = nil for missing file")
	}
}

func TestLoadSupabaseKeyFromEnv(t *testing.T) {
	t.Setenv("SUPABASE_KEY", "env-secret")
	path := writeTempConfig(t, "supabase:\n  url: https://example.supabase.co\n  key: file-secret\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Supabase.Key != "env-secret" {
		t.Errorf("Supabase.Key = %q, want env override", cfg.Supabase.Key)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"empty device name":    func(c *Config) { c.Device.Name = "" },
		"zero scan timeout":    func(c *Config) { c.Device.ScanTimeoutSec = 0 },
		"zero base timeout":    func(c *Config) { c.Transfer.BaseTimeoutSec = 0 },
		"zero per record":      func(c *Config) { c.Transfer.PerRecordMS = 0 },
		"zero queue":           func(c *Config) { c.Transfer.QueueSize = 0 },
		"supabase url, no key": func(c *Config) { c.Supabase.URL = "https://x.supabase.co" },
		"empty listen address": func(c *Config) { c.API.Listen = "" },
		"unknown log level":    func(c *Config) { c.LogLevel = "verbose" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate() error = nil, want error", name)
		}
	}
}
