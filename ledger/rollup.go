package ledger

import (
	"sync"

	"github.com/xraph/taxledger/id"
	"github.com/xraph/taxledger/report"
	"github.com/xraph/taxledger/types"
)

// Rollup aggregates, for one government or treasury account, everything
// recorded against it across all ledgers.
type Rollup struct {
	mu      sync.RWMutex
	id      id.RollupID
	account string
	report  *report.Report
	entity  types.Entity
	clock   types.Clock
}

// NewRollup creates an empty rollup for account.
func NewRollup(account string, calendar types.Calendar, clock types.Clock) *Rollup {
	return &Rollup{
		id:      id.NewRollupID(),
		account: account,
		report:  report.New(calendar, clock),
		entity:  types.NewEntity(clock.Now()),
		clock:   clock,
	}
}

// ID returns the rollup identifier.
func (r *Rollup) ID() id.RollupID { return r.id }

// Account returns the aggregate account the rollup reports on.
func (r *Rollup) Account() string { return r.account }

// Report returns the rollup's report store.
func (r *Rollup) Report() *report.Report { return r.report }

// RecordTax records a tax paid to the account.
func (r *Rollup) RecordTax(scope, currency, code string, amount float64) {
	if types.IsNegligible(amount) {
		return
	}
	r.report.RecordTax(scope, r.account, currency, code, amount)
	r.touch()
}

// RecordPayment records a payment made by the account.
func (r *Rollup) RecordPayment(scope, currency, code string, amount float64) {
	if types.IsNegligible(amount) {
		return
	}
	r.report.RecordPayment(scope, r.account, currency, code, amount)
	r.touch()
}

// RecordRebate records a rebate granted by the account.
func (r *Rollup) RecordRebate(scope, currency, code string, amount float64) {
	if types.IsNegligible(amount) {
		return
	}
	r.report.RecordRebate(scope, r.account, currency, code, amount)
	r.touch()
}

func (r *Rollup) touch() {
	r.mu.Lock()
	r.entity.Touch(r.clock.Now())
	r.mu.Unlock()
}

// RollupState is the persisted form of a Rollup.
type RollupState struct {
	types.Entity

	ID      id.RollupID  `json:"id"`
	Account string       `json:"account"`
	Report  report.State `json:"report"`
}

// Snapshot captures the rollup for persistence.
func (r *Rollup) Snapshot() *RollupState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &RollupState{Entity: r.entity, ID: r.id, Account: r.account, Report: r.report.Snapshot()}
}

// RestoreRollup rebuilds a rollup from its persisted form.
func RestoreRollup(st *RollupState, calendar types.Calendar, clock types.Clock) *Rollup {
	r := NewRollup(st.Account, calendar, clock)
	if !st.ID.IsNil() {
		r.id = st.ID
	}
	if !st.CreatedAt.IsZero() {
		r.entity = st.Entity
	}
	r.report.Restore(st.Report)
	return r
}
