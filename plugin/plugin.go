// Package plugin provides an extensible plugin system for the tax ledger.
// Plugins can hook into recording and settlement events to extend
// functionality.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/taxledger/bank"
	"github.com/xraph/taxledger/entry"
	"github.com/xraph/taxledger/ledger"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Recording hooks
// ──────────────────────────────────────────────────

// OnDebtRecorded is called after a debt was recorded for owner.
type OnDebtRecorded interface {
	Plugin
	OnDebtRecorded(ctx context.Context, owner string, debt entry.Debt) error
}

// OnRebateRecorded is called after a rebate was recorded for owner.
type OnRebateRecorded interface {
	Plugin
	OnRebateRecorded(ctx context.Context, owner string, rebate entry.Rebate) error
}

// OnPaymentRecorded is called after a payment credit was recorded for owner.
type OnPaymentRecorded interface {
	Plugin
	OnPaymentRecorded(ctx context.Context, owner string, credit entry.PaymentCredit) error
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnTickCompleted is called after a ledger was settled.
type OnTickCompleted interface {
	Plugin
	OnTickCompleted(ctx context.Context, result *ledger.TickResult) error
}

// OnTickFailed is called when settling a ledger failed or panicked.
type OnTickFailed interface {
	Plugin
	OnTickFailed(ctx context.Context, owner string, err error) error
}

// OnTransferFailed is called when the executor rejected a ledger's batch.
type OnTransferFailed interface {
	Plugin
	OnTransferFailed(ctx context.Context, owner string, batch *bank.Batch, err error) error
}

// OnSettlementCompleted is called after a full pass over all ledgers.
type OnSettlementCompleted interface {
	Plugin
	OnSettlementCompleted(ctx context.Context, ledgers int, elapsed time.Duration) error
}
