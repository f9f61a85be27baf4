package ledger

import (
	"github.com/xraph/taxledger/entry"
	"github.com/xraph/taxledger/types"
)

// DebtSum totals outstanding debts matching pred. A nil pred matches all.
func (l *Ledger) DebtSum(pred func(entry.Debt) bool) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return sumOf(l.debts.Values(), pred, func(d entry.Debt) float64 { return d.Amount })
}

// RebateSum totals outstanding rebates matching pred.
func (l *Ledger) RebateSum(pred func(entry.Rebate) bool) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return sumOf(l.rebates.Values(), pred, func(r entry.Rebate) float64 { return r.Amount })
}

// PaymentSum totals outstanding payment credits matching pred.
func (l *Ledger) PaymentSum(pred func(entry.PaymentCredit) bool) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return sumOf(l.credits.Values(), pred, func(p entry.PaymentCredit) float64 { return p.Amount })
}

func sumOf[V any](vals []V, pred func(V) bool, amount func(V) float64) float64 {
	amounts := make([]float64, 0, len(vals))
	for _, v := range vals {
		if pred == nil || pred(v) {
			amounts = append(amounts, amount(v))
		}
	}
	return types.SumAmounts(amounts...)
}

// OwedTaxes returns what the owner owes in currency, optionally only to
// target. With considerRebates the matching rebates are subtracted, which
// can make the result negative.
func (l *Ledger) OwedTaxes(currency, target string, considerRebates bool) float64 {
	owed := l.DebtSum(func(d entry.Debt) bool {
		return d.Currency == currency && (target == "" || d.Target == target)
	})
	if !considerRebates {
		return owed
	}
	return owed - l.RebateSum(func(r entry.Rebate) bool {
		return r.Currency == currency && (target == "" || r.Target == target)
	})
}

// OwedPayments returns what is owed to the owner in currency, optionally
// only by source.
func (l *Ledger) OwedPayments(currency, source string) float64 {
	return l.PaymentSum(func(p entry.PaymentCredit) bool {
		return p.Currency == currency && (source == "" || p.Source == source)
	})
}

// Balances returns, per currency, debts minus rebates minus payment credits.
// Positive values are owed by the owner, negative values are due to them.
func (l *Ledger) Balances() map[string]float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]float64)
	for _, d := range l.debts.Values() {
		out[d.Currency] += d.Amount
	}
	for _, r := range l.rebates.Values() {
		out[r.Currency] -= r.Amount
	}
	for _, p := range l.credits.Values() {
		out[p.Currency] -= p.Amount
	}
	return out
}

// DebtSummary returns the currencies in which the owner owes money.
func (l *Ledger) DebtSummary() map[string]float64 {
	out := make(map[string]float64)
	for currency, v := range l.Balances() {
		if !types.IsNegligible(v) {
			out[currency] = v
		}
	}
	return out
}

// CreditSummary returns the currencies in which money is due to the owner.
func (l *Ledger) CreditSummary() map[string]float64 {
	out := make(map[string]float64)
	for currency, v := range l.Balances() {
		if !types.IsNegligible(-v) {
			out[currency] = -v
		}
	}
	return out
}
