package taxledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/xraph/taxledger/bank"
	"github.com/xraph/taxledger/entry"
	"github.com/xraph/taxledger/ledger"
	"github.com/xraph/taxledger/plugin"
	"github.com/xraph/taxledger/report"
	"github.com/xraph/taxledger/store"
	"github.com/xraph/taxledger/types"
)

// Engine is the settlement engine. It owns every participant's ledger and
// every aggregate account's rollup, persists them through a Store and
// settles all ledgers on a fixed interval.
type Engine struct {
	store    store.Store
	accounts bank.AccountProvider
	exec     bank.Executor
	plugins  *plugin.Registry
	logger   *slog.Logger

	mu      sync.RWMutex
	ledgers map[string]*ledger.Ledger
	rollups map[string]*ledger.Rollup

	// Background worker
	tickMu   sync.Mutex
	stopChan chan struct{}
	stopOnce sync.Once
	trigger  chan struct{}
	wg       sync.WaitGroup
	nextMu   sync.Mutex
	nextTick time.Time

	// Configuration
	clock        types.Clock
	calendar     types.Calendar
	tickInterval time.Duration
	window       time.Duration
	logCapacity  int
}

// New creates a new Engine. accounts answers questions about real funds and
// exec moves them.
func New(s store.Store, accounts bank.AccountProvider, exec bank.Executor, opts ...Option) *Engine {
	defaults := DefaultConfig()
	e := &Engine{
		store:        s,
		accounts:     accounts,
		exec:         exec,
		plugins:      plugin.NewRegistry(),
		logger:       slog.Default(),
		ledgers:      make(map[string]*ledger.Ledger),
		rollups:      make(map[string]*ledger.Rollup),
		stopChan:     make(chan struct{}),
		trigger:      make(chan struct{}, 1),
		clock:        types.SystemClock{},
		calendar:     defaults.Calendar(),
		tickInterval: defaults.TickInterval,
		window:       defaults.AggregationWindow,
		logCapacity:  defaults.LogCapacity,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock sets the time source used for events, report days and scheduling.
func WithClock(c types.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithCalendar sets the simulated day calendar.
func WithCalendar(c types.Calendar) Option {
	return func(e *Engine) { e.calendar = c }
}

// WithTickInterval sets how often every ledger is settled.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.tickInterval = d
		}
	}
}

// WithAggregationWindow sets the event aggregation window for new ledgers.
func WithAggregationWindow(d time.Duration) Option {
	return func(e *Engine) { e.window = d }
}

// WithLogCapacity bounds the event log of new ledgers.
func WithLogCapacity(n int) Option {
	return func(e *Engine) { e.logCapacity = n }
}

// WithConfig applies the engine settings of cfg. A non-positive tick
// interval keeps the current one.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		WithTickInterval(cfg.TickInterval)(e)
		e.window = cfg.AggregationWindow
		e.logCapacity = cfg.LogCapacity
		e.calendar = cfg.Calendar()
	}
}

// Start loads persisted state and begins the settlement worker.
func (e *Engine) Start(ctx context.Context) error {
	// Migrate database
	if err := e.store.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	if err := e.load(ctx); err != nil {
		return err
	}

	// Initialize plugins
	e.plugins.EmitInit(ctx, e)

	// Start settlement worker
	e.scheduleNext()
	e.wg.Add(1)
	go e.tickWorker(ctx)

	e.logger.Info("taxledger started",
		"tick_interval", e.tickInterval,
		"aggregation_window", e.window,
		"log_capacity", e.logCapacity,
		"ledgers", len(e.ledgers),
		"rollups", len(e.rollups),
	)

	return nil
}

// Stop halts the worker, saves every ledger and closes the store.
func (e *Engine) Stop() error {
	e.stopOnce.Do(func() { close(e.stopChan) })
	e.wg.Wait()

	ctx := context.Background()
	if err := e.SaveAll(ctx); err != nil {
		e.logger.Error("failed to save ledgers on shutdown", "error", err)
	}
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

func (e *Engine) load(ctx context.Context) error {
	ledgers, err := e.store.ListLedgers(ctx)
	if err != nil {
		return fmt.Errorf("load ledgers: %w", err)
	}
	rollups, err := e.store.ListRollups(ctx)
	if err != nil {
		return fmt.Errorf("load rollups: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, st := range ledgers {
		e.ledgers[st.Owner] = ledger.Restore(st, e.ledgerOptions()...)
	}
	for _, st := range rollups {
		e.rollups[st.Account] = ledger.RestoreRollup(st, e.calendar, e.clock)
	}
	return nil
}

func (e *Engine) ledgerOptions() []ledger.Option {
	return []ledger.Option{
		ledger.WithLogger(e.logger),
		ledger.WithClock(e.clock),
		ledger.WithCalendar(e.calendar),
		ledger.WithLogCapacity(e.logCapacity),
		ledger.WithAggregationWindow(e.window),
	}
}

// ──────────────────────────────────────────────────
// Ledgers and rollups
// ──────────────────────────────────────────────────

// Ledger returns the ledger of owner, creating it if needed.
func (e *Engine) Ledger(owner string) (*ledger.Ledger, error) {
	if owner == "" {
		return nil, ErrNoOwner
	}

	e.mu.RLock()
	l, ok := e.ledgers[owner]
	e.mu.RUnlock()
	if ok {
		return l, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if l, ok := e.ledgers[owner]; ok {
		return l, nil
	}
	l = ledger.New(owner, e.ledgerOptions()...)
	e.ledgers[owner] = l
	return l, nil
}

// Lookup returns the ledger of owner without creating it.
func (e *Engine) Lookup(owner string) (*ledger.Ledger, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	l, ok := e.ledgers[owner]
	if !ok {
		return nil, ErrLedgerNotFound
	}
	return l, nil
}

// Owners returns every owner with a ledger, sorted.
func (e *Engine) Owners() []string {
	e.mu.RLock()
	owners := make([]string, 0, len(e.ledgers))
	for owner := range e.ledgers {
		owners = append(owners, owner)
	}
	e.mu.RUnlock()
	sort.Strings(owners)
	return owners
}

// Rollup returns the rollup of an aggregate account, creating it if needed.
func (e *Engine) Rollup(account string) (*ledger.Rollup, error) {
	if account == "" {
		return nil, ValidationError{Field: "account", Message: "is required"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.rollups[account]
	if !ok {
		r = ledger.NewRollup(account, e.calendar, e.clock)
		e.rollups[account] = r
	}
	return r, nil
}

// LookupRollup returns the rollup of account without creating it.
func (e *Engine) LookupRollup(account string) (*ledger.Rollup, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.rollups[account]
	if !ok {
		return nil, ErrRollupNotFound
	}
	return r, nil
}

// Calendar returns the simulated day calendar.
func (e *Engine) Calendar() types.Calendar { return e.calendar }

// Clock returns the engine's time source.
func (e *Engine) Clock() types.Clock { return e.clock }

// ──────────────────────────────────────────────────
// Recording
// ──────────────────────────────────────────────────

// RecordDebt records that owner owes d.Amount to d.Target. It reports
// whether anything was recorded; negligible amounts are ignored.
func (e *Engine) RecordDebt(ctx context.Context, owner string, d entry.Debt) (bool, error) {
	if err := validateEntry(owner, "target", d.Target, d.Currency, d.Amount); err != nil {
		return false, err
	}
	l, err := e.Ledger(owner)
	if err != nil {
		return false, err
	}
	if !l.RecordDebt(d) {
		return false, nil
	}

	if !d.IsTransfer && e.isAggregate(ctx, d.Target) {
		if r, err := e.Rollup(d.Target); err == nil {
			r.RecordTax(d.Scope, d.Currency, d.Code, d.Amount)
		}
	}

	e.plugins.EmitDebtRecorded(ctx, owner, d)
	return true, nil
}

// RecordRebate records that r.Target forgives r.Amount of owner's debt.
func (e *Engine) RecordRebate(ctx context.Context, owner string, r entry.Rebate) (bool, error) {
	if err := validateEntry(owner, "target", r.Target, r.Currency, r.Amount); err != nil {
		return false, err
	}
	l, err := e.Ledger(owner)
	if err != nil {
		return false, err
	}
	if !l.RecordRebate(r) {
		return false, nil
	}

	if e.isAggregate(ctx, r.Target) {
		if ru, err := e.Rollup(r.Target); err == nil {
			ru.RecordRebate(r.Scope, r.Currency, r.Code, r.Amount)
		}
	}

	e.plugins.EmitRebateRecorded(ctx, owner, r)
	return true, nil
}

// RecordPayment records that p.Source owes owner p.Amount.
func (e *Engine) RecordPayment(ctx context.Context, owner string, p entry.PaymentCredit) (bool, error) {
	if err := validateEntry(owner, "source", p.Source, p.Currency, p.Amount); err != nil {
		return false, err
	}
	l, err := e.Ledger(owner)
	if err != nil {
		return false, err
	}
	if !l.RecordPayment(p) {
		return false, nil
	}

	if e.isAggregate(ctx, p.Source) {
		if r, err := e.Rollup(p.Source); err == nil {
			r.RecordPayment(p.Scope, p.Currency, p.Code, p.Amount)
		}
	}

	e.plugins.EmitPaymentRecorded(ctx, owner, p)
	return true, nil
}

func validateEntry(owner, accountField, account, currency string, amount float64) error {
	if owner == "" {
		return ErrNoOwner
	}
	if account == "" {
		return ValidationError{Field: accountField, Message: "is required"}
	}
	if currency == "" {
		return ValidationError{Field: "currency", Message: "is required"}
	}
	if !types.IsFinite(amount) {
		return ValidationError{Field: "amount", Message: "must be a finite number"}
	}
	return nil
}

func (e *Engine) isAggregate(ctx context.Context, account string) bool {
	ok, err := e.accounts.IsAggregate(ctx, account)
	if err != nil {
		e.logger.Warn("failed to classify account", "account", account, "error", err)
		return false
	}
	return ok
}

// ──────────────────────────────────────────────────
// Settlement
// ──────────────────────────────────────────────────

// TickAll settles every ledger in owner order and then saves all state. A
// failing ledger is reported to plugins and does not stop the others. The
// returned error covers persistence only.
func (e *Engine) TickAll(ctx context.Context) ([]*ledger.TickResult, error) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	start := e.clock.Now()
	owners := e.Owners()
	results := make([]*ledger.TickResult, 0, len(owners))

	for _, owner := range owners {
		l, err := e.Lookup(owner)
		if err != nil {
			continue
		}

		res, err := e.tickLedger(ctx, l)
		if err != nil {
			e.logger.Error("ledger tick failed", "owner", owner, "error", err)
			e.plugins.EmitTickFailed(ctx, owner, err)
			continue
		}

		results = append(results, res)
		e.plugins.EmitTickCompleted(ctx, res)
		if res.TransferErr != nil {
			e.plugins.EmitTransferFailed(ctx, owner, res.Batch, fmt.Errorf("%w: %w", ErrTransferFailed, res.TransferErr))
		}
	}

	saveErr := e.SaveAll(ctx)
	elapsed := e.clock.Now().Sub(start)
	e.plugins.EmitSettlementCompleted(ctx, len(owners), elapsed)

	e.logger.Debug("settlement completed",
		"ledgers", len(owners),
		"ticked", len(results),
		"elapsed", elapsed,
	)

	return results, saveErr
}

func (e *Engine) tickLedger(ctx context.Context, l *ledger.Ledger) (res *ledger.TickResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: %s: panic: %v", ErrTickFailed, l.Owner(), r)
		}
	}()

	res, err = l.Tick(ctx, e.accounts, e.exec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTickFailed, err)
	}
	return res, nil
}

// SaveAll persists every ledger and rollup.
func (e *Engine) SaveAll(ctx context.Context) error {
	e.mu.RLock()
	ledgers := make([]*ledger.Ledger, 0, len(e.ledgers))
	for _, l := range e.ledgers {
		ledgers = append(ledgers, l)
	}
	rollups := make([]*ledger.Rollup, 0, len(e.rollups))
	for _, r := range e.rollups {
		rollups = append(rollups, r)
	}
	e.mu.RUnlock()

	var errs MultiError
	for _, l := range ledgers {
		if err := e.store.SaveLedger(ctx, l.Snapshot()); err != nil {
			errs.Add(fmt.Errorf("save ledger %s: %w", l.Owner(), err))
		}
	}
	for _, r := range rollups {
		if err := e.store.SaveRollup(ctx, r.Snapshot()); err != nil {
			errs.Add(fmt.Errorf("save rollup %s: %w", r.Account(), err))
		}
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// TickNow asks the worker to settle immediately. It does not wait.
func (e *Engine) TickNow() {
	select {
	case e.trigger <- struct{}{}:
	default:
	}
}

// NextTick reports how long until the next scheduled settlement.
func (e *Engine) NextTick() time.Duration {
	e.nextMu.Lock()
	defer e.nextMu.Unlock()
	if e.nextTick.IsZero() {
		return 0
	}
	if d := e.nextTick.Sub(e.clock.Now()); d > 0 {
		return d
	}
	return 0
}

func (e *Engine) scheduleNext() {
	e.nextMu.Lock()
	e.nextTick = e.clock.Now().Add(e.tickInterval)
	e.nextMu.Unlock()
}

func (e *Engine) tickWorker(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.runTick(ctx)
		case <-e.trigger:
			ticker.Reset(e.tickInterval)
			e.runTick(ctx)
		}
	}
}

func (e *Engine) runTick(ctx context.Context) {
	e.scheduleNext()
	if _, err := e.TickAll(ctx); err != nil {
		e.logger.Error("failed to save ledgers after tick", "error", err)
	}
}

// ──────────────────────────────────────────────────
// Group queries
// ──────────────────────────────────────────────────

// QueryTaxes sums taxes recorded by owners in currency. Unknown owners
// contribute nothing.
func (e *Engine) QueryTaxes(owners []string, currency string, f report.Filter) float64 {
	return e.query(owners, report.KindTaxes, currency, f)
}

// QueryPayments sums payments recorded by owners in currency.
func (e *Engine) QueryPayments(owners []string, currency string, f report.Filter) float64 {
	return e.query(owners, report.KindPayments, currency, f)
}

// QueryRebates sums rebates recorded by owners in currency.
func (e *Engine) QueryRebates(owners []string, currency string, f report.Filter) float64 {
	return e.query(owners, report.KindRebates, currency, f)
}

func (e *Engine) query(owners []string, k report.Kind, currency string, f report.Filter) float64 {
	var total float64
	for _, owner := range owners {
		l, err := e.Lookup(owner)
		if err != nil {
			continue
		}
		total += l.Report().Query(k, currency, f)
	}
	return total
}
