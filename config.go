package taxledger

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/xraph/taxledger/types"
)

// Config holds engine and host settings, usually loaded from a TOML file.
type Config struct {
	// TickInterval is how often every ledger is settled.
	TickInterval time.Duration `toml:"tick_interval" json:"tick_interval"`
	// AggregationWindow merges like record events closer together than this.
	AggregationWindow time.Duration `toml:"aggregation_window" json:"aggregation_window"`
	// LogCapacity bounds each ledger's event log.
	LogCapacity int `toml:"log_capacity" json:"log_capacity"`
	// DayLength and Epoch define the simulated calendar for day reports.
	DayLength time.Duration `toml:"day_length" json:"day_length"`
	Epoch     time.Time     `toml:"epoch"      json:"epoch"`

	Store StoreConfig `toml:"store" json:"store"`
	HTTP  HTTPConfig  `toml:"http"  json:"http"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver   string `toml:"driver"   json:"driver"`
	DSN      string `toml:"dsn"      json:"dsn"`
	Database string `toml:"database" json:"database"`
}

// HTTPConfig configures the query API.
type HTTPConfig struct {
	Addr     string `toml:"addr"      json:"addr"`
	BasePath string `toml:"base_path" json:"base_path"`
	Metrics  bool   `toml:"metrics"   json:"metrics"`
}

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	cal := types.DefaultCalendar()
	return Config{
		TickInterval:      300 * time.Second,
		AggregationWindow: 30 * time.Second,
		LogCapacity:       100,
		DayLength:         cal.DayLength,
		Epoch:             cal.Epoch,
		Store:             StoreConfig{Driver: DriverMemory},
		HTTP: HTTPConfig{
			Addr:     ":8080",
			BasePath: "/api/v1",
			Metrics:  true,
		},
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("taxledger: load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseConfig decodes TOML text on top of DefaultConfig.
func ParseConfig(data string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("taxledger: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for unusable values.
func (c Config) Validate() error {
	var errs MultiError
	if c.TickInterval <= 0 {
		errs.Add(ValidationError{Field: "tick_interval", Message: "must be positive"})
	}
	if c.AggregationWindow < 0 {
		errs.Add(ValidationError{Field: "aggregation_window", Message: "must not be negative"})
	}
	if c.LogCapacity <= 0 {
		errs.Add(ValidationError{Field: "log_capacity", Message: "must be positive"})
	}
	if c.DayLength <= 0 {
		errs.Add(ValidationError{Field: "day_length", Message: "must be positive"})
	}
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite, DriverPostgres, DriverMongo:
	default:
		errs.Add(ValidationError{Field: "store.driver", Message: fmt.Sprintf("unknown driver %q", c.Store.Driver)})
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Calendar returns the simulated calendar described by the configuration.
func (c Config) Calendar() types.Calendar {
	return types.Calendar{Epoch: c.Epoch, DayLength: c.DayLength}
}
