package extension

import (
	"time"

	"github.com/xraph/taxledger"
	"github.com/xraph/taxledger/bank"
	"github.com/xraph/taxledger/plugin"
	"github.com/xraph/taxledger/store"
)

// Option configures the taxledger Forge extension.
type Option func(*Extension)

// WithStore sets the store for the engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithBank sets the account provider and transfer executor.
func WithBank(accounts bank.AccountProvider, exec bank.Executor) Option {
	return func(e *Extension) {
		e.accounts = accounts
		e.exec = exec
	}
}

// WithEngineOption passes a taxledger.Option through to the underlying engine.
func WithEngineOption(opt taxledger.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers an engine plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, taxledger.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents the HTTP handler from being built.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents migration and the worker on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for taxledger routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithTickInterval sets the time between settlement passes.
func WithTickInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.TickInterval = d }
}

// WithAggregationWindow sets the event log aggregation window.
func WithAggregationWindow(d time.Duration) Option {
	return func(e *Extension) { e.config.AggregationWindow = d }
}

// WithLogCapacity bounds the retained events per ledger.
func WithLogCapacity(n int) Option {
	return func(e *Extension) { e.config.LogCapacity = n }
}

// WithSeedFile sets the TOML file used to build a simulated bank.
func WithSeedFile(path string) Option {
	return func(e *Extension) { e.config.SeedFile = path }
}
