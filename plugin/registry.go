package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/taxledger/bank"
	"github.com/xraph/taxledger/entry"
	"github.com/xraph/taxledger/ledger"
)

// DefaultTimeout bounds a single plugin call.
const DefaultTimeout = 5 * time.Second

// Registry holds the registered plugins, grouped by the hooks they
// implement so that dispatch never re-checks interfaces.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onDebtRecorded        []OnDebtRecorded
	onRebateRecorded      []OnRebateRecorded
	onPaymentRecorded     []OnPaymentRecorded
	onTickCompleted       []OnTickCompleted
	onTickFailed          []OnTickFailed
	onTransferFailed      []OnTransferFailed
	onSettlementCompleted []OnSettlementCompleted
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets how long a single plugin call may take.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.timeout = d
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	var hooks []string
	cache := func(ok bool, name string) bool {
		if ok {
			hooks = append(hooks, name)
		}
		return ok
	}
	if v, ok := p.(OnInit); cache(ok, "OnInit") {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); cache(ok, "OnShutdown") {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnDebtRecorded); cache(ok, "OnDebtRecorded") {
		r.onDebtRecorded = append(r.onDebtRecorded, v)
	}
	if v, ok := p.(OnRebateRecorded); cache(ok, "OnRebateRecorded") {
		r.onRebateRecorded = append(r.onRebateRecorded, v)
	}
	if v, ok := p.(OnPaymentRecorded); cache(ok, "OnPaymentRecorded") {
		r.onPaymentRecorded = append(r.onPaymentRecorded, v)
	}
	if v, ok := p.(OnTickCompleted); cache(ok, "OnTickCompleted") {
		r.onTickCompleted = append(r.onTickCompleted, v)
	}
	if v, ok := p.(OnTickFailed); cache(ok, "OnTickFailed") {
		r.onTickFailed = append(r.onTickFailed, v)
	}
	if v, ok := p.(OnTransferFailed); cache(ok, "OnTransferFailed") {
		r.onTransferFailed = append(r.onTransferFailed, v)
	}
	if v, ok := p.(OnSettlementCompleted); cache(ok, "OnSettlementCompleted") {
		r.onSettlementCompleted = append(r.onSettlementCompleted, v)
	}

	r.logger.Info("plugin registered", "name", p.Name(), "hooks", hooks)
	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// dispatch calls fn for each plugin in the snapshot taken under r.mu.
// Failures are logged and never propagate to the engine.
func dispatch[T Plugin](ctx context.Context, r *Registry, hook string, list *[]T, fn func(T) error) {
	r.mu.RLock()
	plugins := *list
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error { return fn(p) }); err != nil {
			r.logger.Warn("plugin hook failed", "plugin", p.Name(), "hook", hook, "error", err)
		}
	}
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	dispatch(ctx, r, "OnInit", &r.onInit, func(p OnInit) error {
		return p.OnInit(ctx, engine)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	dispatch(ctx, r, "OnShutdown", &r.onShutdown, func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

func (r *Registry) EmitDebtRecorded(ctx context.Context, owner string, debt entry.Debt) {
	dispatch(ctx, r, "OnDebtRecorded", &r.onDebtRecorded, func(p OnDebtRecorded) error {
		return p.OnDebtRecorded(ctx, owner, debt)
	})
}

func (r *Registry) EmitRebateRecorded(ctx context.Context, owner string, rebate entry.Rebate) {
	dispatch(ctx, r, "OnRebateRecorded", &r.onRebateRecorded, func(p OnRebateRecorded) error {
		return p.OnRebateRecorded(ctx, owner, rebate)
	})
}

func (r *Registry) EmitPaymentRecorded(ctx context.Context, owner string, credit entry.PaymentCredit) {
	dispatch(ctx, r, "OnPaymentRecorded", &r.onPaymentRecorded, func(p OnPaymentRecorded) error {
		return p.OnPaymentRecorded(ctx, owner, credit)
	})
}

func (r *Registry) EmitTickCompleted(ctx context.Context, result *ledger.TickResult) {
	dispatch(ctx, r, "OnTickCompleted", &r.onTickCompleted, func(p OnTickCompleted) error {
		return p.OnTickCompleted(ctx, result)
	})
}

func (r *Registry) EmitTickFailed(ctx context.Context, owner string, tickErr error) {
	dispatch(ctx, r, "OnTickFailed", &r.onTickFailed, func(p OnTickFailed) error {
		return p.OnTickFailed(ctx, owner, tickErr)
	})
}

// EmitTransferFailed reports a batch the executor rejected. Ledger state
// has already been updated for it.
func (r *Registry) EmitTransferFailed(ctx context.Context, owner string, batch *bank.Batch, transferErr error) {
	dispatch(ctx, r, "OnTransferFailed", &r.onTransferFailed, func(p OnTransferFailed) error {
		return p.OnTransferFailed(ctx, owner, batch, transferErr)
	})
}

func (r *Registry) EmitSettlementCompleted(ctx context.Context, ledgers int, elapsed time.Duration) {
	dispatch(ctx, r, "OnSettlementCompleted", &r.onSettlementCompleted, func(p OnSettlementCompleted) error {
		return p.OnSettlementCompleted(ctx, ledgers, elapsed)
	})
}

// callWithTimeout runs fn, giving up after r.timeout.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
