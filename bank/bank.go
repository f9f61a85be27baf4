// Package bank defines the collaborators the settlement engine talks to:
// an AccountProvider that exposes balances and ownership, and an Executor
// that performs batched fund movements.
package bank

import (
	"context"
	"errors"
	"sort"

	"github.com/xraph/taxledger/id"
	"github.com/xraph/taxledger/types"
)

var (
	ErrAccountNotFound   = errors.New("bank: account not found")
	ErrAccountClosed     = errors.New("bank: account closed")
	ErrInsufficientFunds = errors.New("bank: insufficient funds")
	ErrInvalidMovement   = errors.New("bank: invalid movement")
)

// Holding is one account an owner can be collected from.
type Holding struct {
	Account string `json:"account"`
	// Ownership is the owner's share of the account, in (0, 1].
	Ownership float64 `json:"ownership"`
	Balance   float64 `json:"balance"`
	// Sole is set when the owner is the only holder.
	Sole bool `json:"sole"`
	// Manage is set when the owner may manage the account.
	Manage bool `json:"manage"`
}

// Collectable is the part of the balance attributable to the owner.
func (h Holding) Collectable() float64 {
	return h.Balance * h.Ownership
}

// AccountProvider exposes accounts and balances of the host economy.
type AccountProvider interface {
	// TaxableAccounts lists accounts owner can be collected from in
	// currency. Aggregate accounts and accounts without a positive balance
	// or ownership are excluded.
	TaxableAccounts(ctx context.Context, owner, currency string) ([]Holding, error)
	Balance(ctx context.Context, account, currency string) (float64, error)
	Exists(ctx context.Context, account string) (bool, error)
	// IsAggregate reports whether account is a government or treasury
	// account that keeps its own rollup report.
	IsAggregate(ctx context.Context, account string) (bool, error)
	// PrimaryAccount is where payouts to owner land.
	PrimaryAccount(ctx context.Context, owner string) (string, error)
}

// Prioritize orders holdings for collection: sole holdings first, then
// managed accounts, then by descending balance. The sort is stable.
func Prioritize(holdings []Holding) {
	sort.SliceStable(holdings, func(i, j int) bool {
		a, b := holdings[i], holdings[j]
		if a.Sole != b.Sole {
			return a.Sole
		}
		if a.Manage != b.Manage {
			return a.Manage
		}
		return a.Balance > b.Balance
	})
}

// MovementKind distinguishes why money moves.
type MovementKind string

const (
	// MovementTax collects a debt owed to a target account.
	MovementTax MovementKind = "tax"
	// MovementTransfer collects a debt flagged as a plain transfer.
	MovementTransfer MovementKind = "transfer"
	// MovementPayout pays a payment credit to the owner.
	MovementPayout MovementKind = "payout"
)

// Movement is a single transfer inside a Batch.
type Movement struct {
	From        string       `json:"from"`
	To          string       `json:"to"`
	Currency    string       `json:"currency"`
	Amount      float64      `json:"amount"`
	Description string       `json:"description"`
	Kind        MovementKind `json:"kind"`
}

// Batch groups the movements decided during one tick.
type Batch struct {
	ID        id.BatchID `json:"id"`
	Owner     string     `json:"owner"`
	Movements []Movement `json:"movements"`
}

// NewBatch creates an empty batch for owner.
func NewBatch(owner string) *Batch {
	return &Batch{ID: id.NewBatchID(), Owner: owner}
}

// Add appends a movement.
func (b *Batch) Add(m Movement) { b.Movements = append(b.Movements, m) }

// Empty reports whether the batch has no movements.
func (b *Batch) Empty() bool { return len(b.Movements) == 0 }

// Total sums all movement amounts.
func (b *Batch) Total() float64 {
	amounts := make([]float64, len(b.Movements))
	for i, m := range b.Movements {
		amounts[i] = m.Amount
	}
	return types.SumAmounts(amounts...)
}

// Receipt confirms an executed batch.
type Receipt struct {
	Reference string `json:"reference"`
	Message   string `json:"message"`
}

// Executor performs a batch of movements as one unit of work.
type Executor interface {
	Execute(ctx context.Context, batch *Batch) (Receipt, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, batch *Batch) (Receipt, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, batch *Batch) (Receipt, error) {
	return f(ctx, batch)
}
