// Package ledger holds one participant's outstanding debts, rebates and
// payment credits together with their event log and report, and settles
// them against real funds on every tick.
package ledger

import (
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/taxledger/entry"
	"github.com/xraph/taxledger/eventlog"
	"github.com/xraph/taxledger/id"
	"github.com/xraph/taxledger/report"
	"github.com/xraph/taxledger/types"
)

// Ledger is safe for concurrent use. Recording may happen at any time,
// including while a tick is in progress; ticks of one ledger never overlap.
type Ledger struct {
	mu     sync.RWMutex
	tickMu sync.Mutex

	id      id.LedgerID
	owner   string
	debts   *entry.Table[entry.DebtKey, entry.Debt]
	rebates *entry.Table[entry.RebateKey, entry.Rebate]
	credits *entry.Table[entry.CreditKey, entry.PaymentCredit]
	log     *eventlog.Log
	report  *report.Report
	entity  types.Entity

	clock    types.Clock
	calendar types.Calendar
	capacity int
	window   time.Duration
	logger   *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(led *Ledger) { led.logger = l }
}

// WithClock sets the time source for events and report buckets.
func WithClock(c types.Clock) Option {
	return func(led *Ledger) { led.clock = c }
}

// WithCalendar sets the simulated day calendar.
func WithCalendar(c types.Calendar) Option {
	return func(led *Ledger) { led.calendar = c }
}

// WithLogCapacity bounds the event log.
func WithLogCapacity(n int) Option {
	return func(led *Ledger) { led.capacity = n }
}

// WithAggregationWindow sets how close like record events must be to merge.
func WithAggregationWindow(d time.Duration) Option {
	return func(led *Ledger) { led.window = d }
}

// New creates an empty ledger for owner.
func New(owner string, opts ...Option) *Ledger {
	l := &Ledger{
		id:       id.NewLedgerID(),
		owner:    owner,
		debts:    entry.NewDebtTable(),
		rebates:  entry.NewRebateTable(),
		credits:  entry.NewCreditTable(),
		clock:    types.SystemClock{},
		calendar: types.DefaultCalendar(),
		capacity: eventlog.DefaultCapacity,
		window:   eventlog.DefaultWindow,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.entity = types.NewEntity(l.clock.Now())
	l.log = eventlog.New(l.capacity, l.window)
	l.report = report.New(l.calendar, l.clock)
	return l
}

// ID returns the ledger identifier.
func (l *Ledger) ID() id.LedgerID { return l.id }

// Owner returns the participant the ledger belongs to.
func (l *Ledger) Owner() string { return l.owner }

// Log returns the event log.
func (l *Ledger) Log() *eventlog.Log { return l.log }

// Report returns the report store.
func (l *Ledger) Report() *report.Report { return l.report }

// UpdatedAt returns when the ledger last changed.
func (l *Ledger) UpdatedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entity.UpdatedAt
}

// ──────────────────────────────────────────────────
// Recording
// ──────────────────────────────────────────────────

// RecordDebt adds d.Amount to the debt sharing d's identity key. An active
// write activates every suspended debt owed to the same target in the same
// currency. Negligible amounts are ignored; the result reports whether
// anything was recorded.
func (l *Ledger) RecordDebt(d entry.Debt) bool {
	if types.IsNegligible(d.Amount) {
		return false
	}
	amount := d.Amount

	l.mu.Lock()
	defer l.mu.Unlock()

	if !d.Suspended {
		l.activateSuspendedDebts(d.Target, d.Currency)
	}
	l.debts.Upsert(d.Key(),
		func() entry.Debt {
			created := d
			created.Amount = 0
			created.IsTransfer = false
			return created
		},
		func(e *entry.Debt) {
			if !d.Suspended {
				e.Suspended = false
			}
			if d.IsTransfer {
				e.IsTransfer = true
			}
			e.Amount += amount
		},
	)

	now := l.clock.Now()
	if d.IsTransfer {
		l.log.Add(eventlog.NewRecord(eventlog.KindRecordTransfer, now, d.Scope, d.Target, d.Code, d.Currency, amount))
		l.report.RecordTransfer(d.Scope, d.Target, d.Currency, d.Code, amount)
	} else {
		l.log.Add(eventlog.NewRecord(eventlog.KindRecordTax, now, d.Scope, d.Target, d.Code, d.Currency, amount))
		l.report.RecordTax(d.Scope, d.Target, d.Currency, d.Code, amount)
	}
	l.entity.Touch(l.clock.Now())
	return true
}

// RecordRebate adds r.Amount to the rebate sharing r's identity key.
func (l *Ledger) RecordRebate(r entry.Rebate) bool {
	if types.IsNegligible(r.Amount) {
		return false
	}
	amount := r.Amount

	l.mu.Lock()
	defer l.mu.Unlock()

	l.rebates.Upsert(r.Key(),
		func() entry.Rebate { created := r; created.Amount = 0; return created },
		func(e *entry.Rebate) { e.Amount += amount },
	)
	l.log.Add(eventlog.NewRecord(eventlog.KindRecordRebate, l.clock.Now(), r.Scope, r.Target, r.Code, r.Currency, amount))
	l.report.RecordRebate(r.Scope, r.Target, r.Currency, r.Code, amount)
	l.entity.Touch(l.clock.Now())
	return true
}

// RecordPayment adds p.Amount to the payment credit sharing p's identity key.
func (l *Ledger) RecordPayment(p entry.PaymentCredit) bool {
	if types.IsNegligible(p.Amount) {
		return false
	}
	amount := p.Amount

	l.mu.Lock()
	defer l.mu.Unlock()

	l.credits.Upsert(p.Key(),
		func() entry.PaymentCredit { created := p; created.Amount = 0; return created },
		func(e *entry.PaymentCredit) { e.Amount += amount },
	)
	l.log.Add(eventlog.NewRecord(eventlog.KindRecordPayment, l.clock.Now(), p.Scope, p.Source, p.Code, p.Currency, amount))
	l.report.RecordPayment(p.Scope, p.Source, p.Currency, p.Code, amount)
	l.entity.Touch(l.clock.Now())
	return true
}

// ActivateSuspendedDebts clears the suspension of every debt owed to target
// in currency, whatever its code, and returns how many were activated.
func (l *Ledger) ActivateSuspendedDebts(target, currency string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.activateSuspendedDebts(target, currency)
}

func (l *Ledger) activateSuspendedDebts(target, currency string) int {
	n := 0
	l.debts.Each(func(d *entry.Debt) {
		if d.Suspended && d.Target == target && d.Currency == currency {
			d.Suspended = false
			n++
		}
	})
	return n
}

// ──────────────────────────────────────────────────
// Snapshots of outstanding entries
// ──────────────────────────────────────────────────

// Debts returns copies of the outstanding debts in recording order.
func (l *Ledger) Debts() []entry.Debt {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.debts.Values()
}

// Rebates returns copies of the outstanding rebates in recording order.
func (l *Ledger) Rebates() []entry.Rebate {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rebates.Values()
}

// Credits returns copies of the outstanding payment credits in recording
// order.
func (l *Ledger) Credits() []entry.PaymentCredit {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.credits.Values()
}
