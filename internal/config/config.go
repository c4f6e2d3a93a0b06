package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Transfer TransferConfig `yaml:"transfer"`
	Supabase SupabaseConfig `yaml:"supabase"`
	API      APIConfig      `yaml:"api"`
	LogLevel string         `yaml:"log_level"`
}

// DeviceConfig identifies the sensor node and how to find it.
type DeviceConfig struct {
	Name           string `yaml:"name"`
	Address        string `yaml:"address"` // cached from a previous scan; empty forces a scan
	ScanTimeoutSec int    `yaml:"scan_timeout_sec"`
}

// TransferConfig tunes the download engine.
type TransferConfig struct {
	BaseTimeoutSec int  `yaml:"base_timeout_sec"` // deadline base
	PerRecordMS    int  `yaml:"per_record_ms"`    // deadline allowance per expected record
	QueueSize      int  `yaml:"queue_size"`       // notification queue capacity
	SyncClock      bool `yaml:"sync_clock"`       // write TIME:<epoch> before SEND
	EraseAfter     bool `yaml:"erase_after"`      // write ERASE after a finished transfer
}

// SupabaseConfig holds the upload target. Leaving URL empty disables upload.
type SupabaseConfig struct {
	URL            string `yaml:"url"`
	Key            string `yaml:"key"`
	ReadingsTable  string `yaml:"readings_table"`
	SummariesTable string `yaml:"summaries_table"`
}

// APIConfig holds the HTTP server settings for serve mode.
type APIConfig struct {
	Listen string `yaml:"listen"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "healthnode")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:           "ESP32-DataNode",
			ScanTimeoutSec: 10,
		},
		Transfer: TransferConfig{
			BaseTimeoutSec: 5,
			PerRecordMS:    150,
			QueueSize:      1024,
			SyncClock:      true,
		},
		Supabase: SupabaseConfig{
			ReadingsTable:  "health_readings",
			SummariesTable: "health_summaries",
		},
		API: APIConfig{
			Listen: "127.0.0.1:8090",
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. The Supabase key may also come from the SUPABASE_KEY
// environment variable, which overrides the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if key := os.Getenv("SUPABASE_KEY"); key != "" {
		cfg.Supabase.Key = key
	}

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Device.Name == "" {
		return fmt.Errorf("device.name must not be empty")
	}
	if c.Device.ScanTimeoutSec <= 0 {
		return fmt.Errorf("device.scan_timeout_sec must be > 0")
	}
	if c.Transfer.BaseTimeoutSec <= 0 {
		return fmt.Errorf("transfer.base_timeout_sec must be > 0")
	}
	if c.Transfer.PerRecordMS <= 0 {
		return fmt.Errorf("transfer.per_record_ms must be > 0")
	}
	if c.Transfer.QueueSize <= 0 {
		return fmt.Errorf("transfer.queue_size must be > 0")
	}
	if c.Supabase.URL != "" && c.Supabase.Key == "" {
		return fmt.Errorf("supabase.key must be set when supabase.url is configured")
	}
	if c.API.Listen == "" {
		return fmt.Errorf("api.listen must not be empty")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// ScanTimeout returns the scan timeout as a duration.
func (c *Config) ScanTimeout() time.Duration {
	return time.Duration(c.Device.ScanTimeoutSec) * time.Second
}

// BaseTimeout returns the transfer deadline base as a duration.
func (c *Config) BaseTimeout() time.Duration {
	return time.Duration(c.Transfer.BaseTimeoutSec) * time.Second
}

// PerRecord returns the per-record deadline allowance as a duration.
func (c *Config) PerRecord() time.Duration {
	return time.Duration(c.Transfer.PerRecordMS) * time.Millisecond
}
