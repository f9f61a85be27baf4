// Package store defines the persistence contract for ledgers and rollups.
package store

import (
	"context"

	"github.com/xraph/taxledger/ledger"
)

// Store persists ledger and rollup snapshots. Implementations return
// taxledger.ErrLedgerNotFound or taxledger.ErrRollupNotFound for missing
// records.
type Store interface {
	// Ledger methods
	SaveLedger(ctx context.Context, st *ledger.State) error
	GetLedger(ctx context.Context, owner string) (*ledger.State, error)
	ListLedgers(ctx context.Context) ([]*ledger.State, error)
	DeleteLedger(ctx context.Context, owner string) error

	// Rollup methods
	SaveRollup(ctx context.Context, st *ledger.RollupState) error
	GetRollup(ctx context.Context, account string) (*ledger.RollupState, error)
	ListRollups(ctx context.Context) ([]*ledger.RollupState, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
