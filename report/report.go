// Package report aggregates recorded taxes, payments and rebates into an
// all-time total plus one bucket per simulated day.
package report

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xraph/taxledger/types"
)

// Kind selects which stream a query reads.
type Kind string

const (
	KindTaxes    Kind = "taxes"
	KindPayments Kind = "payments"
	KindRebates  Kind = "rebates"
)

// ParseKind accepts "taxes", "payments" or "rebates".
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(s)); k {
	case KindTaxes, KindPayments, KindRebates:
		return k, nil
	default:
		return "", fmt.Errorf("report: unknown kind %q", s)
	}
}

// Report is safe for concurrent use.
type Report struct {
	mu       sync.RWMutex
	calendar types.Calendar
	clock    types.Clock

	total    Bucket
	firstDay int
	days     []*Bucket
}

// New creates an empty report. A nil clock uses the system clock.
func New(calendar types.Calendar, clock types.Clock) *Report {
	if clock == nil {
		clock = types.SystemClock{}
	}
	return &Report{calendar: calendar, clock: clock}
}

// Today returns the current day index.
func (r *Report) Today() int {
	return r.calendar.Day(r.clock.Now())
}

// RecordTax adds a tax paid to account.
func (r *Report) RecordTax(scope, account, currency, code string, amount float64) {
	r.record(KindTaxes, Key{Scope: scope, Account: account, Currency: currency, Code: code}, amount)
}

// RecordTransfer adds a transfer to account. Transfers are queried as taxes.
func (r *Report) RecordTransfer(scope, account, currency, code string, amount float64) {
	r.record(KindTaxes, Key{Scope: scope, Account: account, Currency: currency, Code: code, Transfer: true}, amount)
}

// RecordPayment adds a payment received from account.
func (r *Report) RecordPayment(scope, account, currency, code string, amount float64) {
	r.record(KindPayments, Key{Scope: scope, Account: account, Currency: currency, Code: code}, amount)
}

// RecordRebate adds a rebate granted by account.
func (r *Report) RecordRebate(scope, account, currency, code string, amount float64) {
	r.record(KindRebates, Key{Scope: scope, Account: account, Currency: currency, Code: code}, amount)
}

func (r *Report) record(k Kind, key Key, amount float64) {
	day := r.Today()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.total.of(k).add(key, amount)
	r.bucket(day).of(k).add(key, amount)
}

// bucket returns the bucket for day, creating contiguous buckets as needed.
func (r *Report) bucket(day int) *Bucket {
	if len(r.days) == 0 {
		r.firstDay = day
		r.days = append(r.days, r.newBucket(day))
	}
	for day < r.firstDay {
		r.firstDay--
		r.days = append([]*Bucket{r.newBucket(r.firstDay)}, r.days...)
	}
	for r.firstDay+len(r.days) <= day {
		r.days = append(r.days, r.newBucket(r.firstDay+len(r.days)))
	}
	return r.days[day-r.firstDay]
}

func (r *Report) newBucket(day int) *Bucket {
	return &Bucket{Start: r.calendar.DayStart(day), End: r.calendar.DayStart(day + 1)}
}

// Query sums kind entries in currency matching f. Without a range it covers
// every recorded day.
func (r *Report) Query(k Kind, currency string, f Filter) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if f.Range == nil {
		return r.total.Sum(k, currency, f)
	}
	var amounts []float64
	for i, b := range r.days {
		if f.Range.Contains(r.firstDay + i) {
			amounts = append(amounts, b.Sum(k, currency, f))
		}
	}
	return types.SumAmounts(amounts...)
}

// QueryTaxes sums taxes and transfers.
func (r *Report) QueryTaxes(currency string, f Filter) float64 {
	return r.Query(KindTaxes, currency, f)
}

// QueryPayments sums payments.
func (r *Report) QueryPayments(currency string, f Filter) float64 {
	return r.Query(KindPayments, currency, f)
}

// QueryRebates sums rebates.
func (r *Report) QueryRebates(currency string, f Filter) float64 {
	return r.Query(KindRebates, currency, f)
}

// DayCount returns how many day buckets exist.
func (r *Report) DayCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.days)
}

// State is the persisted form of a Report.
type State struct {
	Total    BucketState   `json:"total"     bson:"total"`
	FirstDay int           `json:"first_day" bson:"first_day"`
	Days     []BucketState `json:"days"      bson:"days"`
}

// Snapshot returns the persisted form of the report.
func (r *Report) Snapshot() State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st := State{Total: r.total.snapshot(), FirstDay: r.firstDay, Days: make([]BucketState, 0, len(r.days))}
	for _, b := range r.days {
		st.Days = append(st.Days, b.snapshot())
	}
	return st
}

// Restore replaces the report contents with st.
func (r *Report) Restore(st State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total = *restoreBucket(st.Total)
	r.firstDay = st.FirstDay
	r.days = make([]*Bucket, 0, len(st.Days))
	for _, b := range st.Days {
		r.days = append(r.days, restoreBucket(b))
	}
}
