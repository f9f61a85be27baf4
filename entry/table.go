package entry

import (
	"cmp"
	"slices"
)

// Table is an insertion-ordered map from identity key to record.
// It is not safe for concurrent use; the owning ledger serializes access.
type Table[K comparable, V any] struct {
	keyOf func(*V) K
	items map[K]*slot[V]
	next  uint64
}

type slot[V any] struct {
	seq uint64
	val *V
}

// NewTable creates an empty Table that derives keys with keyOf.
func NewTable[K comparable, V any](keyOf func(*V) K) *Table[K, V] {
	return &Table[K, V]{
		keyOf: keyOf,
		items: make(map[K]*slot[V]),
	}
}

// Upsert finds the record stored under key, creating it with create if absent,
// and applies fn to it. It reports whether the record was created.
func (t *Table[K, V]) Upsert(key K, create func() V, fn func(*V)) (*V, bool) {
	s, ok := t.items[key]
	if !ok {
		v := create()
		t.next++
		s = &slot[V]{seq: t.next, val: &v}
		t.items[key] = s
	}
	if fn != nil {
		fn(s.val)
	}
	return s.val, !ok
}

// Insert stores v under its key, replacing any existing record but keeping
// that record's position.
func (t *Table[K, V]) Insert(v V) {
	key := t.keyOf(&v)
	if s, ok := t.items[key]; ok {
		*s.val = v
		return
	}
	t.next++
	t.items[key] = &slot[V]{seq: t.next, val: &v}
}

// Get returns the record stored under key.
func (t *Table[K, V]) Get(key K) (*V, bool) {
	s, ok := t.items[key]
	if !ok {
		return nil, false
	}
	return s.val, true
}

// Remove deletes the record stored under key.
func (t *Table[K, V]) Remove(key K) {
	delete(t.items, key)
}

// Len returns the number of records.
func (t *Table[K, V]) Len() int {
	return len(t.items)
}

// Each calls fn for every record in insertion order.
func (t *Table[K, V]) Each(fn func(*V)) {
	for _, s := range t.slots() {
		fn(s.val)
	}
}

// Values returns copies of all records in insertion order.
func (t *Table[K, V]) Values() []V {
	slots := t.slots()
	out := make([]V, len(slots))
	for i, s := range slots {
		out[i] = *s.val
	}
	return out
}

// Ascending returns pointers to the records matching keep, ordered by amount
// ascending. Records with equal amounts keep their insertion order.
func (t *Table[K, V]) Ascending(amount func(*V) float64, keep func(*V) bool) []*V {
	slots := t.slots()
	out := make([]*V, 0, len(slots))
	for _, s := range slots {
		if keep == nil || keep(s.val) {
			out = append(out, s.val)
		}
	}
	slices.SortStableFunc(out, func(a, b *V) int {
		return cmp.Compare(amount(a), amount(b))
	})
	return out
}

// Contains reports whether v is still the live record for its key.
func (t *Table[K, V]) Contains(v *V) bool {
	s, ok := t.items[t.keyOf(v)]
	return ok && s.val == v
}

func (t *Table[K, V]) slots() []*slot[V] {
	out := make([]*slot[V], 0, len(t.items))
	for _, s := range t.items {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *slot[V]) int {
		return cmp.Compare(a.seq, b.seq)
	})
	return out
}

// NewDebtTable creates a Table keyed by DebtKey.
func NewDebtTable() *Table[DebtKey, Debt] {
	return NewTable(func(d *Debt) DebtKey { return d.Key() })
}

// NewRebateTable creates a Table keyed by RebateKey.
func NewRebateTable() *Table[RebateKey, Rebate] {
	return NewTable(func(r *Rebate) RebateKey { return r.Key() })
}

// NewCreditTable creates a Table keyed by CreditKey.
func NewCreditTable() *Table[CreditKey, PaymentCredit] {
	return NewTable(func(p *PaymentCredit) CreditKey { return p.Key() })
}
