// Package postgres implements store.Store on PostgreSQL through pgx. Ledger
// and rollup snapshots are kept as JSONB documents.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xraph/taxledger"
	"github.com/xraph/taxledger/ledger"
	ledgerstore "github.com/xraph/taxledger/store"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open connects to the database at dsn.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("taxledger/postgres: connect: %w", err)
	}
	return New(pool), nil
}

// Pool returns the underlying connection pool for direct access.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Migrate applies every migration not yet recorded.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS taxledger_migrations (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return fmt.Errorf("taxledger/postgres: %w: %w", taxledger.ErrMigrationFailed, err)
	}

	for _, m := range Migrations {
		if err := s.apply(ctx, m); err != nil {
			return fmt.Errorf("taxledger/postgres: %w: %s: %w", taxledger.ErrMigrationFailed, m.Name, err)
		}
	}
	return nil
}

func (s *Store) apply(ctx context.Context, m migration) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", taxledger.ErrTransactionFailed, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var applied bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM taxledger_migrations WHERE version = $1)`, m.Version,
	).Scan(&applied); err != nil {
		return err
	}
	if applied {
		return nil
	}

	if _, err := tx.Exec(ctx, m.Up); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO taxledger_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name,
	); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %w", taxledger.ErrTransactionFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// ==================== Ledger Store ====================

func (s *Store) SaveLedger(ctx context.Context, st *ledger.State) error {
	if st == nil || st.Owner == "" {
		return taxledger.ErrNoOwner
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("taxledger/postgres: encode ledger: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
INSERT INTO taxledger_ledgers (owner, id, state, created_at, updated_at)
VALUES ($1, $2, $3::jsonb, $4, $5)
ON CONFLICT (owner) DO UPDATE SET
    id = EXCLUDED.id,
    state = EXCLUDED.state,
    updated_at = EXCLUDED.updated_at`,
		st.Owner, st.ID.String(), string(data), st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("taxledger/postgres: save ledger: %w", err)
	}
	return nil
}

func (s *Store) GetLedger(ctx context.Context, owner string) (*ledger.State, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM taxledger_ledgers WHERE owner = $1`, owner,
	).Scan(&data)
	if err != nil {
		if isNoRows(err) {
			return nil, taxledger.ErrLedgerNotFound
		}
		return nil, fmt.Errorf("taxledger/postgres: get ledger: %w", err)
	}

	var st ledger.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("taxledger/postgres: decode ledger: %w", err)
	}
	return &st, nil
}

func (s *Store) ListLedgers(ctx context.Context) ([]*ledger.State, error) {
	rows, err := s.pool.Query(ctx, `SELECT state FROM taxledger_ledgers ORDER BY owner`)
	if err != nil {
		return nil, fmt.Errorf("taxledger/postgres: list ledgers: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*ledger.State, error) {
		var data []byte
		if err := row.Scan(&data); err != nil {
			return nil, err
		}
		var st ledger.State
		if err := json.Unmarshal(data, &st); err != nil {
			return nil, err
		}
		return &st, nil
	})
	if err != nil {
		return nil, fmt.Errorf("taxledger/postgres: list ledgers: %w", err)
	}
	return out, nil
}

func (s *Store) DeleteLedger(ctx context.Context, owner string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM taxledger_ledgers WHERE owner = $1`, owner)
	if err != nil {
		return fmt.Errorf("taxledger/postgres: delete ledger: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return taxledger.ErrLedgerNotFound
	}
	return nil
}

// ==================== Rollup Store ====================

func (s *Store) SaveRollup(ctx context.Context, st *ledger.RollupState) error {
	if st == nil || st.Account == "" {
		return taxledger.ValidationError{Field: "account", Message: "is required"}
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("taxledger/postgres: encode rollup: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
INSERT INTO taxledger_rollups (account, id, state, created_at, updated_at)
VALUES ($1, $2, $3::jsonb, $4, $5)
ON CONFLICT (account) DO UPDATE SET
    id = EXCLUDED.id,
    state = EXCLUDED.state,
    updated_at = EXCLUDED.updated_at`,
		st.Account, st.ID.String(), string(data), st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("taxledger/postgres: save rollup: %w", err)
	}
	return nil
}

func (s *Store) GetRollup(ctx context.Context, account string) (*ledger.RollupState, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM taxledger_rollups WHERE account = $1`, account,
	).Scan(&data)
	if err != nil {
		if isNoRows(err) {
			return nil, taxledger.ErrRollupNotFound
		}
		return nil, fmt.Errorf("taxledger/postgres: get rollup: %w", err)
	}

	var st ledger.RollupState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("taxledger/postgres: decode rollup: %w", err)
	}
	return &st, nil
}

func (s *Store) ListRollups(ctx context.Context) ([]*ledger.RollupState, error) {
	rows, err := s.pool.Query(ctx, `SELECT state FROM taxledger_rollups ORDER BY account`)
	if err != nil {
		return nil, fmt.Errorf("taxledger/postgres: list rollups: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*ledger.RollupState, error) {
		var data []byte
		if err := row.Scan(&data); err != nil {
			return nil, err
		}
		var st ledger.RollupState
		if err := json.Unmarshal(data, &st); err != nil {
			return nil, err
		}
		return &st, nil
	})
	if err != nil {
		return nil, fmt.Errorf("taxledger/postgres: list rollups: %w", err)
	}
	return out, nil
}

// isNoRows checks for the pgx no-rows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
