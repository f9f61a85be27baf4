package taxledger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.TickInterval != 300*time.Second {
		t.Errorf("TickInterval = %v, want %v", cfg.TickInterval, 300*time.Second)
	}
	if cfg.AggregationWindow != 30*time.Second {
		t.Errorf("AggregationWindow = %v, want %v", cfg.AggregationWindow, 30*time.Second)
	}
	if cfg.LogCapacity != 100 {
		t.Errorf("LogCapacity = %d, want %d", cfg.LogCapacity, 100)
	}
	if cfg.DayLength != 24*time.Hour {
		t.Errorf("DayLength = %v, want %v", cfg.DayLength, 24*time.Hour)
	}
	if cfg.Store.Driver != DriverMemory {
		t.Errorf("Store.Driver = %q, want %q", cfg.Store.Driver, DriverMemory)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.HTTP.Addr, ":8080")
	}
	if cfg.HTTP.BasePath != "/api/v1" {
		t.Errorf("HTTP.BasePath = %q, want %q", cfg.HTTP.BasePath, "/api/v1")
	}
	if !cfg.HTTP.Metrics {
		t.Error("HTTP.Metrics should be enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxledger.toml")
	data := `
tick_interval = "10s"
day_length = "1h"
epoch = 2024-01-01T00:00:00Z

[store]
driver = "postgres"
dsn = "postgres://localhost/taxledger"

[http]
addr = "127.0.0.1:9090"
metrics = false
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.TickInterval != 10*time.Second {
		t.Errorf("TickInterval = %v, want %v", cfg.TickInterval, 10*time.Second)
	}
	if cfg.AggregationWindow != 30*time.Second {
		t.Errorf("AggregationWindow = %v, want default %v", cfg.AggregationWindow, 30*time.Second)
	}
	if cfg.Store.Driver != DriverPostgres {
		t.Errorf("Store.Driver = %q, want %q", cfg.Store.Driver, DriverPostgres)
	}
	if cfg.HTTP.Addr != "127.0.0.1:9090" {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.HTTP.Addr, "127.0.0.1:9090")
	}
	if cfg.HTTP.BasePath != "/api/v1" {
		t.Errorf("HTTP.BasePath = %q, want default %q", cfg.HTTP.BasePath, "/api/v1")
	}
	if cfg.HTTP.Metrics {
		t.Error("HTTP.Metrics = true, want false")
	}

	cal := cfg.Calendar()
	if got := cal.Day(time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC)); got != 5 {
		t.Errorf("Calendar().Day = %d, want 5", got)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero tick interval", func(c *Config) { c.TickInterval = 0 }, "tick_interval"},
		{"negative window", func(c *Config) { c.AggregationWindow = -time.Second }, "aggregation_window"},
		{"zero capacity", func(c *Config) { c.LogCapacity = 0 }, "log_capacity"},
		{"zero day", func(c *Config) { c.DayLength = 0 }, "day_length"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "redis" }, "store.driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Validate: got %v, want ErrInvalidInput", err)
			}
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate: %v is not a ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}
