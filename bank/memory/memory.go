// Package memory provides an in-process simulated bank implementing both
// bank.AccountProvider and bank.Executor. It backs the CLI and the tests.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/xraph/taxledger/bank"
	"github.com/xraph/taxledger/types"
)

// Compile-time interface checks.
var (
	_ bank.AccountProvider = (*Bank)(nil)
	_ bank.Executor        = (*Bank)(nil)
)

type account struct {
	name      string
	balances  map[string]float64
	holders   map[string]float64
	managers  []string
	aggregate bool
	closed    bool
}

// Bank is a simulated bank safe for concurrent use.
type Bank struct {
	mu       sync.RWMutex
	accounts map[string]*account
	primary  map[string]string
	executed []*bank.Batch
	failNext error
	logger   *slog.Logger
}

// Option configures a Bank.
type Option func(*Bank)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bank) { b.logger = l }
}

// New creates an empty bank.
func New(opts ...Option) *Bank {
	b := &Bank{
		accounts: make(map[string]*account),
		primary:  make(map[string]string),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open creates an account if it does not exist yet.
func (b *Bank) Open(name string, aggregate bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.accounts[name]; ok {
		return
	}
	b.accounts[name] = &account{
		name:      name,
		balances:  make(map[string]float64),
		holders:   make(map[string]float64),
		aggregate: aggregate,
	}
}

// Deposit adds amount to the account's balance in currency.
func (b *Bank) Deposit(name, currency string, amount float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, err := b.open(name)
	if err != nil {
		return err
	}
	a.balances[currency] += amount
	return nil
}

// SetHolder gives owner the ownership share of account.
func (b *Bank) SetHolder(name, owner string, ownership float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, err := b.open(name)
	if err != nil {
		return err
	}
	a.holders[owner] = ownership
	return nil
}

// AddManager grants owner manage access to account.
func (b *Bank) AddManager(name, owner string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, err := b.open(name)
	if err != nil {
		return err
	}
	if !slices.Contains(a.managers, owner) {
		a.managers = append(a.managers, owner)
	}
	return nil
}

// SetPrimary routes payouts for owner to account.
func (b *Bank) SetPrimary(owner, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.primary[owner] = name
}

// Close marks account as closed. Closed accounts no longer exist for the
// ledger.
func (b *Bank) Close(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a, ok := b.accounts[name]; ok {
		a.closed = true
	}
}

// FailNext makes the next Execute call fail with err.
func (b *Bank) FailNext(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext = err
}

// Executed returns every batch that was applied, oldest first.
func (b *Bank) Executed() []*bank.Batch {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.executed)
}

func (b *Bank) open(name string) (*account, error) {
	a, ok := b.accounts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bank.ErrAccountNotFound, name)
	}
	if a.closed {
		return nil, fmt.Errorf("%w: %s", bank.ErrAccountClosed, name)
	}
	return a, nil
}

// ──────────────────────────────────────────────────
// AccountProvider
// ──────────────────────────────────────────────────

// TaxableAccounts implements bank.AccountProvider.
func (b *Bank) TaxableAccounts(_ context.Context, owner, currency string) ([]bank.Holding, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.accounts))
	for name := range b.accounts {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []bank.Holding
	for _, name := range names {
		a := b.accounts[name]
		if a.closed || a.aggregate {
			continue
		}
		share := a.holders[owner]
		balance := a.balances[currency]
		if share <= 0 || balance <= 0 {
			continue
		}
		out = append(out, bank.Holding{
			Account:   name,
			Ownership: share,
			Balance:   balance,
			Sole:      len(a.holders) == 1,
			Manage:    slices.Contains(a.managers, owner),
		})
	}
	bank.Prioritize(out)
	return out, nil
}

// Balance implements bank.AccountProvider.
func (b *Bank) Balance(_ context.Context, name, currency string) (float64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, err := b.open(name)
	if err != nil {
		return 0, err
	}
	return a.balances[currency], nil
}

// Exists implements bank.AccountProvider.
func (b *Bank) Exists(_ context.Context, name string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, ok := b.accounts[name]
	return ok && !a.closed, nil
}

// IsAggregate implements bank.AccountProvider.
func (b *Bank) IsAggregate(_ context.Context, name string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, ok := b.accounts[name]
	return ok && a.aggregate, nil
}

// PrimaryAccount implements bank.AccountProvider. Without an explicit
// primary account the first open account owner solely holds is used.
func (b *Bank) PrimaryAccount(_ context.Context, owner string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if name, ok := b.primary[owner]; ok {
		if _, err := b.open(name); err != nil {
			return "", err
		}
		return name, nil
	}

	var candidates []string
	for name, a := range b.accounts {
		if !a.closed && !a.aggregate && len(a.holders) == 1 && a.holders[owner] > 0 {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no primary account for %s", bank.ErrAccountNotFound, owner)
	}
	sort.Strings(candidates)
	return candidates[0], nil
}

// ──────────────────────────────────────────────────
// Executor
// ──────────────────────────────────────────────────

type balanceKey struct{ account, currency string }

// Execute implements bank.Executor. Every movement is validated before any
// is applied, so a failed batch leaves balances untouched.
func (b *Bank) Execute(_ context.Context, batch *bank.Batch) (bank.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.failNext; err != nil {
		b.failNext = nil
		return bank.Receipt{}, err
	}

	debits := make(map[balanceKey]float64)
	for i, m := range batch.Movements {
		if !types.IsFinite(m.Amount) || m.Amount <= 0 {
			return bank.Receipt{}, fmt.Errorf("%w: movement %d has amount %v", bank.ErrInvalidMovement, i, m.Amount)
		}
		from, err := b.open(m.From)
		if err != nil {
			return bank.Receipt{}, fmt.Errorf("movement %d: %w", i, err)
		}
		if _, err := b.open(m.To); err != nil {
			return bank.Receipt{}, fmt.Errorf("movement %d: %w", i, err)
		}
		k := balanceKey{m.From, m.Currency}
		debits[k] += m.Amount
		if debits[k] > from.balances[m.Currency]+types.AlmostZero {
			return bank.Receipt{}, fmt.Errorf("%w: %s has %s, batch needs %s", bank.ErrInsufficientFunds,
				m.From, types.FormatCurrency(from.balances[m.Currency], m.Currency),
				types.FormatCurrency(debits[k], m.Currency))
		}
	}

	for _, m := range batch.Movements {
		b.accounts[m.From].balances[m.Currency] -= m.Amount
		b.accounts[m.To].balances[m.Currency] += m.Amount
	}
	b.executed = append(b.executed, batch)

	receipt := bank.Receipt{
		Reference: uuid.NewString(),
		Message:   fmt.Sprintf("executed %d movements", len(batch.Movements)),
	}
	b.logger.Debug("batch executed",
		"batch", batch.ID.String(),
		"owner", batch.Owner,
		"movements", len(batch.Movements),
		"reference", receipt.Reference,
	)
	return receipt, nil
}
