// Package extension provides the Forge extension adapter for taxledger.
//
// It implements the forge.Extension interface to integrate the settlement
// engine into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.taxledger" or
// "taxledger" keys.
package extension

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/taxledger"
	"github.com/xraph/taxledger/api"
	"github.com/xraph/taxledger/bank"
	bankmem "github.com/xraph/taxledger/bank/memory"
	"github.com/xraph/taxledger/store"
	"github.com/xraph/taxledger/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "taxledger"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Tax and debt settlement ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the taxledger engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *taxledger.Engine
	handler    http.Handler
	store      store.Store
	accounts   bank.AccountProvider
	exec       bank.Executor
	engineOpts []taxledger.Option
}

// New creates a new taxledger Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine.
// This is nil until Register is called.
func (e *Extension) Engine() *taxledger.Engine { return e.engine }

// Handler returns the HTTP API, or nil when routes are disabled or
// Register has not run.
func (e *Extension) Handler() http.Handler { return e.handler }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}
	if err := e.resolveBank(); err != nil {
		return err
	}

	e.engine = taxledger.New(e.store, e.accounts, e.exec, e.buildEngineOpts()...)
	if !e.config.DisableRoutes {
		e.handler = api.NewServer(e.engine, api.WithBasePath(e.config.BasePath)).Handler()
	}

	return vessel.Provide(fapp.Container(), func() (*taxledger.Engine, error) {
		return e.engine, nil
	})
}

// resolveBank falls back to a simulated bank, seeded when a seed file is
// configured.
func (e *Extension) resolveBank() error {
	if e.accounts != nil && e.exec != nil {
		return nil
	}
	if e.config.SeedFile == "" {
		b := bankmem.New()
		e.accounts, e.exec = b, b
		return nil
	}

	seed, err := bankmem.LoadSeed(e.config.SeedFile)
	if err != nil {
		return err
	}
	b, err := bankmem.FromSeed(seed)
	if err != nil {
		return fmt.Errorf("taxledger: seed bank: %w", err)
	}
	e.accounts, e.exec = b, b
	return nil
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("taxledger: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("taxledger: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs engine options from the resolved config.
func (e *Extension) buildEngineOpts() []taxledger.Option {
	opts := make([]taxledger.Option, 0, len(e.engineOpts)+3)
	opts = append(opts,
		taxledger.WithTickInterval(e.config.TickInterval),
		taxledger.WithAggregationWindow(e.config.AggregationWindow),
		taxledger.WithLogCapacity(e.config.LogCapacity),
	)

	// Pass-through options win over config.
	return append(opts, e.engineOpts...)
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("taxledger: configuration is required but not found in config files; " +
				"ensure 'extensions.taxledger' or 'taxledger' key exists in your config")
		}
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("taxledger: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("tick_interval", e.config.TickInterval),
		forge.F("aggregation_window", e.config.AggregationWindow),
		forge.F("log_capacity", e.config.LogCapacity),
		forge.F("seed_file", e.config.SeedFile),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.taxledger", "taxledger"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("taxledger: loaded config from file", forge.F("key", key))
			return cfg, true
		}
		e.Logger().Warn("taxledger: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = defaults.TickInterval
	}
	if cfg.AggregationWindow == 0 {
		cfg.AggregationWindow = defaults.AggregationWindow
	}
	if cfg.LogCapacity == 0 {
		cfg.LogCapacity = defaults.LogCapacity
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	if yamlConfig.BasePath == "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}
	if yamlConfig.SeedFile == "" {
		yamlConfig.SeedFile = programmaticConfig.SeedFile
	}
	if yamlConfig.TickInterval == 0 {
		yamlConfig.TickInterval = programmaticConfig.TickInterval
	}
	if yamlConfig.AggregationWindow == 0 {
		yamlConfig.AggregationWindow = programmaticConfig.AggregationWindow
	}
	if yamlConfig.LogCapacity == 0 {
		yamlConfig.LogCapacity = programmaticConfig.LogCapacity
	}

	return e.mergeWithDefaults(yamlConfig)
}
