package ledger

import (
	"github.com/xraph/taxledger/entry"
	"github.com/xraph/taxledger/eventlog"
	"github.com/xraph/taxledger/id"
	"github.com/xraph/taxledger/report"
	"github.com/xraph/taxledger/types"
)

// State is the persisted form of a Ledger.
type State struct {
	types.Entity

	ID      id.LedgerID           `json:"id"`
	Owner   string                `json:"owner"`
	Debts   []entry.Debt          `json:"debts"`
	Rebates []entry.Rebate        `json:"rebates"`
	Credits []entry.PaymentCredit `json:"credits"`
	Log     eventlog.State        `json:"log"`
	Report  report.State          `json:"report"`
}

// Snapshot captures the ledger for persistence.
func (l *Ledger) Snapshot() *State {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return &State{
		Entity:  l.entity,
		ID:      l.id,
		Owner:   l.owner,
		Debts:   l.debts.Values(),
		Rebates: l.rebates.Values(),
		Credits: l.credits.Values(),
		Log:     l.log.Snapshot(),
		Report:  l.report.Snapshot(),
	}
}

// Restore rebuilds a ledger from its persisted form.
func Restore(st *State, opts ...Option) *Ledger {
	l := New(st.Owner, opts...)
	if !st.ID.IsNil() {
		l.id = st.ID
	}
	if !st.CreatedAt.IsZero() {
		l.entity = st.Entity
	}
	for _, d := range st.Debts {
		l.debts.Insert(d)
	}
	for _, r := range st.Rebates {
		l.rebates.Insert(r)
	}
	for _, p := range st.Credits {
		l.credits.Insert(p)
	}
	l.log.Restore(st.Log)
	l.report.Restore(st.Report)
	return l
}
