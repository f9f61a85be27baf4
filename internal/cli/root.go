// Package cli implements the taxledger command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/xraph/taxledger"
	bankmem "github.com/xraph/taxledger/bank/memory"
	"github.com/xraph/taxledger/store"
	"github.com/xraph/taxledger/store/memory"
	"github.com/xraph/taxledger/store/mongo"
	"github.com/xraph/taxledger/store/postgres"
	"github.com/xraph/taxledger/store/sqlite"
)

var (
	configPath string
	seedPath   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "taxledger",
	Short: "Tax and debt settlement ledger",
	Long: `taxledger records taxes, rebates and payments owed by each owner and
settles them against bank accounts on a fixed schedule.

Configuration is read from a TOML file (--config). Bank accounts are
simulated from a TOML seed (--seed).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().StringVarP(&seedPath, "seed", "s", "", "Path to a TOML bank seed")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads --config, falling back to defaults.
func loadConfig() (taxledger.Config, error) {
	if configPath == "" {
		return taxledger.DefaultConfig(), nil
	}
	return taxledger.LoadConfig(configPath)
}

// openStore builds the backend named by the config.
func openStore(ctx context.Context, cfg taxledger.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case taxledger.DriverMemory, "":
		return memory.New(), nil
	case taxledger.DriverSQLite:
		return sqlite.Open(cfg.DSN)
	case taxledger.DriverPostgres:
		return postgres.Open(ctx, cfg.DSN)
	case taxledger.DriverMongo:
		return mongo.Open(ctx, cfg.DSN, cfg.Database)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// openBank builds the simulated bank from --seed. Without a seed the bank
// is empty.
func openBank() (*bankmem.Bank, error) {
	if seedPath == "" {
		return bankmem.New(), nil
	}
	seed, err := bankmem.LoadSeed(seedPath)
	if err != nil {
		return nil, err
	}
	return bankmem.FromSeed(seed)
}

// startEngine wires config, store and bank into a started engine. The
// returned stop function persists state and closes the store.
func startEngine(ctx context.Context, opts ...taxledger.Option) (*taxledger.Engine, taxledger.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, nil, err
	}
	s, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, cfg, nil, fmt.Errorf("open store: %w", err)
	}
	b, err := openBank()
	if err != nil {
		_ = s.Close()
		return nil, cfg, nil, err
	}

	opts = append([]taxledger.Option{taxledger.WithConfig(cfg), taxledger.WithLogger(slog.Default())}, opts...)
	eng := taxledger.New(s, b, b, opts...)
	if err := eng.Start(ctx); err != nil {
		_ = s.Close()
		return nil, cfg, nil, err
	}

	stop := func() {
		if err := eng.Stop(); err != nil {
			slog.Error("stop engine", "error", err)
		}
	}
	return eng, cfg, stop, nil
}
