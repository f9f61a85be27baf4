package extension

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.BasePath != "/api/v1" {
		t.Errorf("BasePath = %q, want %q", cfg.BasePath, "/api/v1")
	}
	if cfg.TickInterval != 5*time.Minute {
		t.Errorf("TickInterval = %v, want 5m", cfg.TickInterval)
	}
	if cfg.LogCapacity != 100 {
		t.Errorf("LogCapacity = %d, want 100", cfg.LogCapacity)
	}
}

func TestMergeWithDefaults(t *testing.T) {
	e := New()
	cfg := e.mergeWithDefaults(Config{TickInterval: time.Minute})
	if cfg.TickInterval != time.Minute {
		t.Errorf("TickInterval = %v, want 1m", cfg.TickInterval)
	}
	if cfg.AggregationWindow != 30*time.Second {
		t.Errorf("AggregationWindow = %v, want 30s", cfg.AggregationWindow)
	}
	if cfg.BasePath != "/api/v1" {
		t.Errorf("BasePath = %q, want %q", cfg.BasePath, "/api/v1")
	}
}

func TestMergeConfigurations(t *testing.T) {
	e := New()

	tests := []struct {
		name         string
		yaml         Config
		programmatic Config
		check        func(t *testing.T, got Config)
	}{
		{
			name:         "yaml wins for durations",
			yaml:         Config{TickInterval: time.Minute},
			programmatic: Config{TickInterval: time.Hour},
			check: func(t *testing.T, got Config) {
				if got.TickInterval != time.Minute {
					t.Errorf("TickInterval = %v, want 1m", got.TickInterval)
				}
			},
		},
		{
			name:         "programmatic fills gaps",
			yaml:         Config{},
			programmatic: Config{BasePath: "/tax", SeedFile: "bank.toml", LogCapacity: 7},
			check: func(t *testing.T, got Config) {
				if got.BasePath != "/tax" {
					t.Errorf("BasePath = %q, want %q", got.BasePath, "/tax")
				}
				if got.SeedFile != "bank.toml" {
					t.Errorf("SeedFile = %q, want %q", got.SeedFile, "bank.toml")
				}
				if got.LogCapacity != 7 {
					t.Errorf("LogCapacity = %d, want 7", got.LogCapacity)
				}
			},
		},
		{
			name:         "programmatic flags override",
			yaml:         Config{},
			programmatic: Config{DisableRoutes: true, DisableMigrate: true},
			check: func(t *testing.T, got Config) {
				if !got.DisableRoutes || !got.DisableMigrate {
					t.Errorf("flags = %v/%v, want true/true", got.DisableRoutes, got.DisableMigrate)
				}
			},
		},
		{
			name: "defaults last",
			check: func(t *testing.T, got Config) {
				if got.AggregationWindow != 30*time.Second {
					t.Errorf("AggregationWindow = %v, want 30s", got.AggregationWindow)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, e.mergeConfigurations(tt.yaml, tt.programmatic))
		})
	}
}

func TestOptions(t *testing.T) {
	e := New(
		WithBasePath("/tax"),
		WithTickInterval(time.Minute),
		WithLogCapacity(10),
		WithSeedFile("bank.toml"),
		WithDisableRoutes(),
	)
	if e.config.BasePath != "/tax" || e.config.TickInterval != time.Minute ||
		e.config.LogCapacity != 10 || e.config.SeedFile != "bank.toml" || !e.config.DisableRoutes {
		t.Errorf("options not applied: %+v", e.config)
	}
	if e.Engine() != nil {
		t.Error("Engine should be nil before Register")
	}
}

func TestResolveBank(t *testing.T) {
	e := New()
	if err := e.resolveBank(); err != nil {
		t.Fatal(err)
	}
	if e.accounts == nil || e.exec == nil {
		t.Fatal("expected simulated bank")
	}

	bad := New(WithSeedFile("does-not-exist.toml"))
	if err := bad.resolveBank(); err == nil {
		t.Error("expected error for missing seed file")
	}
}
