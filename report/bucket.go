package report

import (
	"time"

	"github.com/xraph/taxledger/types"
)

// Key identifies one running sum inside a bucket.
type Key struct {
	Scope    string `json:"scope,omitempty"    bson:"scope,omitempty"`
	Account  string `json:"account"            bson:"account"`
	Currency string `json:"currency"           bson:"currency"`
	Code     string `json:"code"               bson:"code"`
	Transfer bool   `json:"transfer,omitempty" bson:"transfer,omitempty"`
}

// Entry is a running sum for one Key.
type Entry struct {
	Key    `bson:",inline"`
	Amount float64 `json:"amount" bson:"amount"`
}

// Filter narrows a query. Empty fields match everything.
type Filter struct {
	Account string
	Code    string
	Range   *Range
}

func (f Filter) match(currency string, k Key) bool {
	if k.Currency != currency {
		return false
	}
	if f.Account != "" && k.Account != f.Account {
		return false
	}
	if f.Code != "" && k.Code != f.Code {
		return false
	}
	return true
}

// sums keeps insertion-ordered running totals, one per Key.
type sums struct {
	index   map[Key]int
	entries []Entry
}

func (s *sums) add(k Key, amount float64) {
	if s.index == nil {
		s.index = make(map[Key]int)
	}
	if i, ok := s.index[k]; ok {
		s.entries[i].Amount += amount
		return
	}
	s.index[k] = len(s.entries)
	s.entries = append(s.entries, Entry{Key: k, Amount: amount})
}

func (s *sums) sum(currency string, f Filter) float64 {
	var amounts []float64
	for _, e := range s.entries {
		if f.match(currency, e.Key) {
			amounts = append(amounts, e.Amount)
		}
	}
	return types.SumAmounts(amounts...)
}

func (s *sums) snapshot() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *sums) restore(entries []Entry) {
	s.index, s.entries = nil, nil
	for _, e := range entries {
		s.add(e.Key, e.Amount)
	}
}

// Bucket accumulates taxes, payments and rebates over one interval.
type Bucket struct {
	Start time.Time
	End   time.Time

	taxes    sums
	payments sums
	rebates  sums
}

func (b *Bucket) of(k Kind) *sums {
	switch k {
	case KindPayments:
		return &b.payments
	case KindRebates:
		return &b.rebates
	default:
		return &b.taxes
	}
}

// Sum totals the entries of kind matching currency and f. The range in f is
// ignored at bucket level.
func (b *Bucket) Sum(k Kind, currency string, f Filter) float64 {
	return b.of(k).sum(currency, f)
}

// Empty reports whether nothing was recorded in the bucket.
func (b *Bucket) Empty() bool {
	return len(b.taxes.entries) == 0 && len(b.payments.entries) == 0 && len(b.rebates.entries) == 0
}

// BucketState is the persisted form of a Bucket.
type BucketState struct {
	Start    time.Time `json:"start"    bson:"start"`
	End      time.Time `json:"end"      bson:"end"`
	Taxes    []Entry   `json:"taxes"    bson:"taxes"`
	Payments []Entry   `json:"payments" bson:"payments"`
	Rebates  []Entry   `json:"rebates"  bson:"rebates"`
}

func (b *Bucket) snapshot() BucketState {
	return BucketState{
		Start:    b.Start,
		End:      b.End,
		Taxes:    b.taxes.snapshot(),
		Payments: b.payments.snapshot(),
		Rebates:  b.rebates.snapshot(),
	}
}

func restoreBucket(st BucketState) *Bucket {
	b := &Bucket{Start: st.Start, End: st.End}
	b.taxes.restore(st.Taxes)
	b.payments.restore(st.Payments)
	b.rebates.restore(st.Rebates)
	return b
}
