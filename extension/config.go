package extension

import "time"

// Config holds the taxledger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.taxledger" or "taxledger" keys).
type Config struct {
	// DisableRoutes prevents the HTTP handler from being built.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents migration and the settlement worker on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for taxledger routes (default: "/api/v1").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// TickInterval is the time between settlement passes (default: 5m).
	TickInterval time.Duration `json:"tick_interval" mapstructure:"tick_interval" yaml:"tick_interval"`

	// AggregationWindow is the span within which like record events merge
	// in the event log (default: 30s).
	AggregationWindow time.Duration `json:"aggregation_window" mapstructure:"aggregation_window" yaml:"aggregation_window"`

	// LogCapacity bounds the retained events per ledger (default: 100).
	LogCapacity int `json:"log_capacity" mapstructure:"log_capacity" yaml:"log_capacity"`

	// SeedFile is a TOML file describing simulated bank accounts. It is
	// only read when no bank was supplied with WithBank.
	SeedFile string `json:"seed_file" mapstructure:"seed_file" yaml:"seed_file"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:          "/api/v1",
		TickInterval:      5 * time.Minute,
		AggregationWindow: 30 * time.Second,
		LogCapacity:       100,
	}
}
