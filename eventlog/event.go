// Package eventlog keeps a bounded, self-aggregating audit trail of what
// happened to a ledger.
package eventlog

import (
	"fmt"
	"time"

	"github.com/xraph/taxledger/id"
	"github.com/xraph/taxledger/types"
)

// Kind classifies an Event.
type Kind string

const (
	KindRecordTax      Kind = "record_tax"
	KindRecordTransfer Kind = "record_transfer"
	KindRecordRebate   Kind = "record_rebate"
	KindRecordPayment  Kind = "record_payment"
	KindSettlement     Kind = "settlement"
	KindPayment        Kind = "payment"
	KindCollection     Kind = "collection"
	KindVoid           Kind = "void"
)

// IsRecord reports whether k is one of the record kinds, the only kinds that
// aggregate.
func (k Kind) IsRecord() bool {
	switch k {
	case KindRecordTax, KindRecordTransfer, KindRecordRebate, KindRecordPayment:
		return true
	default:
		return false
	}
}

func (k Kind) noun() string {
	switch k {
	case KindRecordTax:
		return "tax"
	case KindRecordTransfer:
		return "transfer"
	case KindRecordRebate:
		return "rebate"
	case KindRecordPayment:
		return "payment"
	default:
		return string(k)
	}
}

// Event describes one state transition of a ledger.
type Event struct {
	ID          id.EventID `json:"id"`
	Time        time.Time  `json:"time"`
	Kind        Kind       `json:"kind"`
	Scope       string     `json:"scope,omitempty"`
	Account     string     `json:"account"`
	Code        string     `json:"code"`
	Description string     `json:"description"`
	Amount      float64    `json:"amount,omitempty"`
	Currency    string     `json:"currency,omitempty"`
	Occurrences int        `json:"occurrences,omitempty"`
}

// NewEvent creates a settlement, payment, collection or void event with a
// precomposed description.
func NewEvent(kind Kind, at time.Time, scope, account, code, description string) Event {
	return Event{
		ID:          id.NewEventID(),
		Time:        at,
		Kind:        kind,
		Scope:       scope,
		Account:     account,
		Code:        code,
		Description: description,
	}
}

// NewRecord creates a record event for a single occurrence of amount.
func NewRecord(kind Kind, at time.Time, scope, account, code, currency string, amount float64) Event {
	e := Event{
		ID:          id.NewEventID(),
		Time:        at,
		Kind:        kind,
		Scope:       scope,
		Account:     account,
		Code:        code,
		Amount:      amount,
		Currency:    currency,
		Occurrences: 1,
	}
	e.Description = describeRecord(e)
	return e
}

func describeRecord(e Event) string {
	desc := fmt.Sprintf("Recorded %s of %s", e.Kind.noun(), types.FormatCurrency(e.Amount, e.Currency))
	if e.Occurrences > 1 {
		desc += fmt.Sprintf(" (over %d occurrences)", e.Occurrences)
	}
	return desc
}

// Aggregate merges next into head when both are record events of the same
// kind for the same account, code and currency, and next happened no later
// than window after head. The merged event carries the summed amount, the
// summed occurrence count and next's timestamp.
func Aggregate(head, next Event, window time.Duration) (Event, bool) {
	if next.Time.Sub(head.Time) > window {
		return Event{}, false
	}
	if !head.Kind.IsRecord() || head.Kind != next.Kind {
		return Event{}, false
	}
	if head.Account != next.Account || head.Code != next.Code || head.Currency != next.Currency {
		return Event{}, false
	}

	merged := head
	merged.Time = next.Time
	merged.Amount = head.Amount + next.Amount
	merged.Occurrences = max(head.Occurrences, 1) + max(next.Occurrences, 1)
	merged.Description = describeRecord(merged)
	return merged, true
}
