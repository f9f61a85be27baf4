package ledger_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xraph/taxledger/entry"
	"github.com/xraph/taxledger/ledger"
	"github.com/xraph/taxledger/report"
	"github.com/xraph/taxledger/types"
)

var start = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newLedger(owner string) (*ledger.Ledger, *types.ManualClock) {
	clock := types.NewManualClock(start)
	return ledger.New(owner, ledger.WithClock(clock)), clock
}

func debt(target, code string, amount float64) entry.Debt {
	return entry.Debt{Target: target, Currency: "USD", Code: code, Amount: amount}
}

func TestRecordDebtAccumulates(t *testing.T) {
	l, _ := newLedger("alice")
	for _, amt := range []float64{10, 2.5, 0.00001, -3, 7.5} {
		l.RecordDebt(debt("treasury", "income", amt))
	}

	debts := l.Debts()
	if len(debts) != 1 {
		t.Fatalf("got %d debts, want 1", len(debts))
	}
	if debts[0].Amount != 20 {
		t.Errorf("Amount = %v, want 20", debts[0].Amount)
	}
}

func TestRecordNegligibleIsNoop(t *testing.T) {
	l, _ := newLedger("alice")
	if l.RecordDebt(debt("treasury", "income", 0)) {
		t.Error("RecordDebt(0) reported a recording")
	}
	if l.RecordRebate(entry.Rebate{Target: "treasury", Currency: "USD", Code: "r", Amount: types.AlmostZero / 2}) {
		t.Error("RecordRebate(tiny) reported a recording")
	}
	if l.Log().Len() != 0 {
		t.Errorf("log has %d events, want 0", l.Log().Len())
	}
}

func TestSuspensionFanOut(t *testing.T) {
	tests := []struct {
		name          string
		write         entry.Debt
		wantSuspended map[string]bool
	}{
		{
			name:  "active write activates every code for the same target and currency",
			write: debt("treasury", "sales", 1),
			wantSuspended: map[string]bool{
				"treasury/income": false, "treasury/rent": false, "treasury/sales": false,
				"other/income": true, "treasury/eur": true,
			},
		},
		{
			name: "suspended write activates nothing",
			write: entry.Debt{Target: "treasury", Currency: "USD", Code: "sales", Amount: 1, Suspended: true},
			wantSuspended: map[string]bool{
				"treasury/income": true, "treasury/rent": true, "treasury/sales": true,
				"other/income": true, "treasury/eur": true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := newLedger("alice")
			for _, d := range []entry.Debt{
				{Target: "treasury", Currency: "USD", Code: "income", Amount: 5, Suspended: true},
				{Target: "treasury", Currency: "USD", Code: "rent", Amount: 5, Suspended: true},
				{Target: "other", Currency: "USD", Code: "income", Amount: 5, Suspended: true},
				{Target: "treasury", Currency: "EUR", Code: "eur", Amount: 5, Suspended: true},
			} {
				l.RecordDebt(d)
			}
			l.RecordDebt(tt.write)

			for _, d := range l.Debts() {
				key := d.Target + "/" + d.Code
				if d.Suspended != tt.wantSuspended[key] {
					t.Errorf("%s suspended = %v, want %v", key, d.Suspended, tt.wantSuspended[key])
				}
			}
		})
	}
}

func TestActivateSuspendedDebts(t *testing.T) {
	l, _ := newLedger("alice")
	l.RecordDebt(entry.Debt{Target: "treasury", Currency: "USD", Code: "a", Amount: 1, Suspended: true})
	l.RecordDebt(entry.Debt{Target: "treasury", Currency: "USD", Code: "b", Amount: 1, Suspended: true})

	if n := l.ActivateSuspendedDebts("treasury", "USD"); n != 2 {
		t.Errorf("activated %d, want 2", n)
	}
	if n := l.ActivateSuspendedDebts("treasury", "USD"); n != 0 {
		t.Errorf("second activation = %d, want 0", n)
	}
}

func TestRecordEventsAggregate(t *testing.T) {
	l, clock := newLedger("alice")
	l.RecordDebt(debt("treasury", "income", 1))
	clock.Advance(10 * time.Second)
	l.RecordDebt(debt("treasury", "income", 2))
	clock.Advance(time.Minute)
	l.RecordDebt(debt("treasury", "income", 4))

	events := l.Log().Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[1].Description != "Recorded tax of 3.00 USD (over 2 occurrences)" {
		t.Errorf("older event = %q", events[1].Description)
	}
}

func TestQueries(t *testing.T) {
	l, _ := newLedger("alice")
	l.RecordDebt(debt("treasury", "income", 100))
	l.RecordDebt(debt("town", "income", 20))
	l.RecordRebate(entry.Rebate{Target: "treasury", Currency: "USD", Code: "relief", Amount: 130})
	l.RecordPayment(entry.PaymentCredit{Source: "treasury", Currency: "EUR", Code: "wage", Amount: 15})

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"owed to all", l.OwedTaxes("USD", "", false), 120},
		{"owed to treasury with rebates", l.OwedTaxes("USD", "treasury", true), -30},
		{"owed payments", l.OwedPayments("EUR", "treasury"), 15},
		{"debt sum predicate", l.DebtSum(func(d entry.Debt) bool { return d.Target == "town" }), 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	card := l.Card()
	if got := card.Summary(); got != "Owes nothing, due 15.00 EUR, 10.00 USD." {
		t.Errorf("Summary() = %q", got)
	}
}

func TestSnapshotRestore(t *testing.T) {
	l, clock := newLedger("alice")
	l.RecordDebt(entry.Debt{Scope: "Town", Target: "treasury", Currency: "USD", Code: "income", Amount: 12, Suspended: true})
	l.RecordRebate(entry.Rebate{Target: "treasury", Currency: "USD", Code: "relief", Amount: 3})
	l.RecordPayment(entry.PaymentCredit{Source: "treasury", Currency: "USD", Code: "wage", Amount: 4})

	restored := ledger.Restore(l.Snapshot(), ledger.WithClock(clock))

	if restored.ID().String() != l.ID().String() {
		t.Errorf("ID = %s, want %s", restored.ID(), l.ID())
	}
	if got := restored.Debts(); len(got) != 1 || !got[0].Suspended || got[0].Amount != 12 {
		t.Errorf("Debts() = %+v", got)
	}
	if restored.Log().Len() != l.Log().Len() {
		t.Errorf("log len = %d, want %d", restored.Log().Len(), l.Log().Len())
	}
	if got := restored.Report().QueryTaxes("USD", report.Filter{}); got != 12 {
		t.Errorf("report taxes = %v, want 12", got)
	}

	restored.RecordDebt(entry.Debt{Scope: "Town", Target: "treasury", Currency: "USD", Code: "income", Amount: 1})
	if got := restored.Debts(); len(got) != 1 || got[0].Amount != 13 || got[0].Suspended {
		t.Errorf("Debts() after restore = %+v", got)
	}
}

func TestMarkdown(t *testing.T) {
	l, _ := newLedger("alice")
	l.RecordDebt(debt("treasury", "income", 5))

	md := l.Markdown()
	for _, want := range []string{
		"# Tax card: alice",
		"Owes 5.00 USD, due nothing.",
		"- Debt of 5.00 USD to treasury (income)",
		"No outstanding rebates.",
		"No outstanding payments.",
		"### Total",
		"Recorded tax of 5.00 USD",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown() missing %q:\n%s", want, md)
		}
	}
}

func TestConcurrentRecording(t *testing.T) {
	l, _ := newLedger("alice")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				l.RecordDebt(debt("treasury", "income", 1))
				_ = l.Card()
			}
		}()
	}
	wg.Wait()

	if got := l.OwedTaxes("USD", "", false); got != 800 {
		t.Errorf("owed = %v, want 800", got)
	}
}
