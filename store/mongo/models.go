package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/taxledger/entry"
	"github.com/xraph/taxledger/eventlog"
	"github.com/xraph/taxledger/id"
	"github.com/xraph/taxledger/ledger"
	"github.com/xraph/taxledger/report"
	"github.com/xraph/taxledger/types"
)

// ==================== Ledger models ====================

type ledgerModel struct {
	ID        string                `bson:"_id"`
	Owner     string                `bson:"owner"`
	Debts     []entry.Debt          `bson:"debts"`
	Rebates   []entry.Rebate        `bson:"rebates"`
	Credits   []entry.PaymentCredit `bson:"credits"`
	Log       logModel              `bson:"log"`
	Report    report.State          `bson:"report"`
	CreatedAt time.Time             `bson:"created_at"`
	UpdatedAt time.Time             `bson:"updated_at"`
}

type logModel struct {
	Head    *eventModel  `bson:"head,omitempty"`
	History []eventModel `bson:"history"`
	Evicted int          `bson:"evicted"`
}

type eventModel struct {
	ID          string    `bson:"id"`
	Time        time.Time `bson:"time"`
	Kind        string    `bson:"kind"`
	Scope       string    `bson:"scope,omitempty"`
	Account     string    `bson:"account"`
	Code        string    `bson:"code"`
	Description string    `bson:"description"`
	Amount      float64   `bson:"amount,omitempty"`
	Currency    string    `bson:"currency,omitempty"`
	Occurrences int       `bson:"occurrences,omitempty"`
}

func toLedgerModel(st *ledger.State) *ledgerModel {
	m := &ledgerModel{
		ID:        st.ID.String(),
		Owner:     st.Owner,
		Debts:     st.Debts,
		Rebates:   st.Rebates,
		Credits:   st.Credits,
		Report:    st.Report,
		CreatedAt: st.CreatedAt,
		UpdatedAt: st.UpdatedAt,
		Log: logModel{
			History: make([]eventModel, len(st.Log.History)),
			Evicted: st.Log.Evicted,
		},
	}
	if st.Log.Head != nil {
		head := toEventModel(*st.Log.Head)
		m.Log.Head = &head
	}
	for i, e := range st.Log.History {
		m.Log.History[i] = toEventModel(e)
	}
	return m
}

func fromLedgerModel(m *ledgerModel) (*ledger.State, error) {
	ledgerID, err := id.ParseLedgerID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse ledger ID %q: %w", m.ID, err)
	}

	st := &ledger.State{
		Entity:  types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:      ledgerID,
		Owner:   m.Owner,
		Debts:   m.Debts,
		Rebates: m.Rebates,
		Credits: m.Credits,
		Report:  m.Report,
		Log: eventlog.State{
			History: make([]eventlog.Event, len(m.Log.History)),
			Evicted: m.Log.Evicted,
		},
	}
	if m.Log.Head != nil {
		head, err := fromEventModel(*m.Log.Head)
		if err != nil {
			return nil, err
		}
		st.Log.Head = &head
	}
	for i, em := range m.Log.History {
		e, err := fromEventModel(em)
		if err != nil {
			return nil, err
		}
		st.Log.History[i] = e
	}
	return st, nil
}

func toEventModel(e eventlog.Event) eventModel {
	return eventModel{
		ID:          e.ID.String(),
		Time:        e.Time,
		Kind:        string(e.Kind),
		Scope:       e.Scope,
		Account:     e.Account,
		Code:        e.Code,
		Description: e.Description,
		Amount:      e.Amount,
		Currency:    e.Currency,
		Occurrences: e.Occurrences,
	}
}

func fromEventModel(m eventModel) (eventlog.Event, error) {
	var eventID id.EventID
	if m.ID != "" {
		parsed, err := id.ParseEventID(m.ID)
		if err != nil {
			return eventlog.Event{}, fmt.Errorf("parse event ID %q: %w", m.ID, err)
		}
		eventID = parsed
	}
	return eventlog.Event{
		ID:          eventID,
		Time:        m.Time,
		Kind:        eventlog.Kind(m.Kind),
		Scope:       m.Scope,
		Account:     m.Account,
		Code:        m.Code,
		Description: m.Description,
		Amount:      m.Amount,
		Currency:    m.Currency,
		Occurrences: m.Occurrences,
	}, nil
}

// ==================== Rollup models ====================

type rollupModel struct {
	ID        string       `bson:"_id"`
	Account   string       `bson:"account"`
	Report    report.State `bson:"report"`
	CreatedAt time.Time    `bson:"created_at"`
	UpdatedAt time.Time    `bson:"updated_at"`
}

func toRollupModel(st *ledger.RollupState) *rollupModel {
	return &rollupModel{
		ID:        st.ID.String(),
		Account:   st.Account,
		Report:    st.Report,
		CreatedAt: st.CreatedAt,
		UpdatedAt: st.UpdatedAt,
	}
}

func fromRollupModel(m *rollupModel) (*ledger.RollupState, error) {
	rollupID, err := id.ParseRollupID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse rollup ID %q: %w", m.ID, err)
	}
	return &ledger.RollupState{
		Entity:  types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:      rollupID,
		Account: m.Account,
		Report:  m.Report,
	}, nil
}
