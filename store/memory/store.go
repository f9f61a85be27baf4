// Package memory provides an in-memory store for tests and single-process
// deployments. Records are deep-copied on the way in and out.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/xraph/taxledger"
	"github.com/xraph/taxledger/ledger"
	"github.com/xraph/taxledger/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store keeps snapshots in maps keyed by owner and account.
type Store struct {
	mu sync.RWMutex

	ledgers map[string][]byte
	rollups map[string][]byte
	closed  bool
}

// New creates an empty memory store.
func New() *Store {
	return &Store{
		ledgers: make(map[string][]byte),
		rollups: make(map[string][]byte),
	}
}

// ──────────────────────────────────────────────────
// Ledger methods
// ──────────────────────────────────────────────────

func (s *Store) SaveLedger(_ context.Context, st *ledger.State) error {
	if st == nil || st.Owner == "" {
		return taxledger.ErrNoOwner
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode ledger %s: %w", st.Owner, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return taxledger.ErrStoreClosed
	}
	s.ledgers[st.Owner] = data
	return nil
}

func (s *Store) GetLedger(_ context.Context, owner string) (*ledger.State, error) {
	s.mu.RLock()
	data, ok := s.ledgers[owner]
	s.mu.RUnlock()
	if !ok {
		return nil, taxledger.ErrLedgerNotFound
	}

	var st ledger.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode ledger %s: %w", owner, err)
	}
	return &st, nil
}

func (s *Store) ListLedgers(ctx context.Context) ([]*ledger.State, error) {
	s.mu.RLock()
	owners := make([]string, 0, len(s.ledgers))
	for owner := range s.ledgers {
		owners = append(owners, owner)
	}
	s.mu.RUnlock()
	sort.Strings(owners)

	out := make([]*ledger.State, 0, len(owners))
	for _, owner := range owners {
		st, err := s.GetLedger(ctx, owner)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *Store) DeleteLedger(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ledgers[owner]; !ok {
		return taxledger.ErrLedgerNotFound
	}
	delete(s.ledgers, owner)
	return nil
}

// ──────────────────────────────────────────────────
// Rollup methods
// ──────────────────────────────────────────────────

func (s *Store) SaveRollup(_ context.Context, st *ledger.RollupState) error {
	if st == nil || st.Account == "" {
		return taxledger.ValidationError{Field: "account", Message: "is required"}
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode rollup %s: %w", st.Account, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return taxledger.ErrStoreClosed
	}
	s.rollups[st.Account] = data
	return nil
}

func (s *Store) GetRollup(_ context.Context, account string) (*ledger.RollupState, error) {
	s.mu.RLock()
	data, ok := s.rollups[account]
	s.mu.RUnlock()
	if !ok {
		return nil, taxledger.ErrRollupNotFound
	}

	var st ledger.RollupState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode rollup %s: %w", account, err)
	}
	return &st, nil
}

func (s *Store) ListRollups(ctx context.Context) ([]*ledger.RollupState, error) {
	s.mu.RLock()
	accounts := make([]string, 0, len(s.rollups))
	for account := range s.rollups {
		accounts = append(accounts, account)
	}
	s.mu.RUnlock()
	sort.Strings(accounts)

	out := make([]*ledger.RollupState, 0, len(accounts))
	for _, account := range accounts {
		st, err := s.GetRollup(ctx, account)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// ──────────────────────────────────────────────────
// Core methods
// ──────────────────────────────────────────────────

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return taxledger.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
