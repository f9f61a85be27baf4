// Package sqlite implements store.Store on SQLite through database/sql and
// the pure-Go modernc driver. Ledger and rollup snapshots are kept as JSON
// documents, one row per owner or account.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/xraph/taxledger"
	"github.com/xraph/taxledger/ledger"
	ledgerstore "github.com/xraph/taxledger/store"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

const timeLayout = time.RFC3339Nano

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (or creates) the database at dsn. Pass ":memory:" for an
// in-memory database.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("taxledger/sqlite: open: %w", err)
	}
	// SQLite has a single writer; one connection also keeps ":memory:"
	// databases from splitting per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("taxledger/sqlite: %s: %w", p, err)
		}
	}
	return New(db), nil
}

// DB returns the underlying database for direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate applies every migration not yet recorded.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS taxledger_migrations (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TEXT NOT NULL
)`); err != nil {
		return fmt.Errorf("taxledger/sqlite: %w: %w", taxledger.ErrMigrationFailed, err)
	}

	for _, m := range Migrations {
		if err := s.apply(ctx, m); err != nil {
			return fmt.Errorf("taxledger/sqlite: %w: %s: %w", taxledger.ErrMigrationFailed, m.Name, err)
		}
	}
	return nil
}

func (s *Store) apply(ctx context.Context, m migration) error {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM taxledger_migrations WHERE version = ?`, m.Version,
	).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", taxledger.ErrTransactionFailed, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, m.Up); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO taxledger_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
		m.Version, m.Name, time.Now().UTC().Format(timeLayout),
	); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", taxledger.ErrTransactionFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Ledger Store ====================

func (s *Store) SaveLedger(ctx context.Context, st *ledger.State) error {
	if st == nil || st.Owner == "" {
		return taxledger.ErrNoOwner
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("taxledger/sqlite: encode ledger: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO taxledger_ledgers (owner, id, state, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (owner) DO UPDATE SET
    id = excluded.id,
    state = excluded.state,
    updated_at = excluded.updated_at`,
		st.Owner, st.ID.String(), string(data),
		st.CreatedAt.UTC().Format(timeLayout), st.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("taxledger/sqlite: save ledger: %w", err)
	}
	return nil
}

func (s *Store) GetLedger(ctx context.Context, owner string) (*ledger.State, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM taxledger_ledgers WHERE owner = ?`, owner,
	).Scan(&data)
	if err != nil {
		if isNoRows(err) {
			return nil, taxledger.ErrLedgerNotFound
		}
		return nil, fmt.Errorf("taxledger/sqlite: get ledger: %w", err)
	}
	return decodeLedger(data)
}

func (s *Store) ListLedgers(ctx context.Context) ([]*ledger.State, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state FROM taxledger_ledgers ORDER BY owner`)
	if err != nil {
		return nil, fmt.Errorf("taxledger/sqlite: list ledgers: %w", err)
	}
	defer rows.Close()

	var out []*ledger.State
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("taxledger/sqlite: scan ledger: %w", err)
		}
		st, err := decodeLedger(data)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) DeleteLedger(ctx context.Context, owner string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM taxledger_ledgers WHERE owner = ?`, owner)
	if err != nil {
		return fmt.Errorf("taxledger/sqlite: delete ledger: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return taxledger.ErrLedgerNotFound
	}
	return nil
}

func decodeLedger(data string) (*ledger.State, error) {
	var st ledger.State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("taxledger/sqlite: decode ledger: %w", err)
	}
	return &st, nil
}

// ==================== Rollup Store ====================

func (s *Store) SaveRollup(ctx context.Context, st *ledger.RollupState) error {
	if st == nil || st.Account == "" {
		return taxledger.ValidationError{Field: "account", Message: "is required"}
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("taxledger/sqlite: encode rollup: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO taxledger_rollups (account, id, state, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (account) DO UPDATE SET
    id = excluded.id,
    state = excluded.state,
    updated_at = excluded.updated_at`,
		st.Account, st.ID.String(), string(data),
		st.CreatedAt.UTC().Format(timeLayout), st.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("taxledger/sqlite: save rollup: %w", err)
	}
	return nil
}

func (s *Store) GetRollup(ctx context.Context, account string) (*ledger.RollupState, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM taxledger_rollups WHERE account = ?`, account,
	).Scan(&data)
	if err != nil {
		if isNoRows(err) {
			return nil, taxledger.ErrRollupNotFound
		}
		return nil, fmt.Errorf("taxledger/sqlite: get rollup: %w", err)
	}
	return decodeRollup(data)
}

func (s *Store) ListRollups(ctx context.Context) ([]*ledger.RollupState, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state FROM taxledger_rollups ORDER BY account`)
	if err != nil {
		return nil, fmt.Errorf("taxledger/sqlite: list rollups: %w", err)
	}
	defer rows.Close()

	var out []*ledger.RollupState
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("taxledger/sqlite: scan rollup: %w", err)
		}
		st, err := decodeRollup(data)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func decodeRollup(data string) (*ledger.RollupState, error) {
	var st ledger.RollupState
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("taxledger/sqlite: decode rollup: %w", err)
	}
	return &st, nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
