package entry_test

import (
	"testing"

	"github.com/xraph/taxledger/entry"
)

func debtAmount(d *entry.Debt) float64 { return d.Amount }

func TestUpsertAccumulates(t *testing.T) {
	table := entry.NewDebtTable()
	key := entry.DebtKey{Target: "treasury", Currency: "usd", Code: "income"}

	amounts := []float64{10, 2.5, 7.5}
	for i, a := range amounts {
		_, created := table.Upsert(key, func() entry.Debt {
			return entry.Debt{Target: key.Target, Currency: key.Currency, Code: key.Code}
		}, func(d *entry.Debt) { d.Amount += a })
		if created != (i == 0) {
			t.Errorf("upsert %d: created got %v, want %v", i, created, i == 0)
		}
	}

	if table.Len() != 1 {
		t.Fatalf("Len: got %d, want 1", table.Len())
	}
	d, ok := table.Get(key)
	if !ok {
		t.Fatal("Get: missing entry")
	}
	if d.Amount != 20 {
		t.Errorf("Amount: got %v, want 20", d.Amount)
	}
}

func TestDistinctKeys(t *testing.T) {
	table := entry.NewDebtTable()
	table.Insert(entry.Debt{Target: "a", Currency: "usd", Code: "x", Amount: 1})
	table.Insert(entry.Debt{Target: "a", Currency: "usd", Code: "y", Amount: 1})
	table.Insert(entry.Debt{Target: "a", Currency: "eur", Code: "x", Amount: 1})
	table.Insert(entry.Debt{Target: "a", Currency: "usd", Code: "x", Scope: "north", Amount: 1})

	if table.Len() != 4 {
		t.Errorf("Len: got %d, want 4", table.Len())
	}
}

func TestAscendingStableOrder(t *testing.T) {
	table := entry.NewDebtTable()
	table.Insert(entry.Debt{Target: "a", Currency: "usd", Code: "first", Amount: 5})
	table.Insert(entry.Debt{Target: "b", Currency: "usd", Code: "second", Amount: 1})
	table.Insert(entry.Debt{Target: "c", Currency: "usd", Code: "third", Amount: 5})
	table.Insert(entry.Debt{Target: "d", Currency: "eur", Code: "fourth", Amount: 0.5})

	got := table.Ascending(debtAmount, func(d *entry.Debt) bool { return d.Currency == "usd" })
	want := []string{"second", "first", "third"}
	if len(got) != len(want) {
		t.Fatalf("len: got %d, want %d", len(got), len(want))
	}
	for i, d := range got {
		if d.Code != want[i] {
			t.Errorf("position %d: got %q, want %q", i, d.Code, want[i])
		}
	}
}

func TestRemoveAndContains(t *testing.T) {
	table := entry.NewRebateTable()
	table.Insert(entry.Rebate{Target: "a", Currency: "usd", Code: "r", Amount: 3})
	r, _ := table.Get(entry.RebateKey{Target: "a", Currency: "usd", Code: "r"})

	if !table.Contains(r) {
		t.Fatal("Contains: want true before removal")
	}
	table.Remove(r.Key())
	if table.Contains(r) {
		t.Error("Contains: want false after removal")
	}
	if table.Len() != 0 {
		t.Errorf("Len: got %d, want 0", table.Len())
	}
}

func TestInsertKeepsPosition(t *testing.T) {
	table := entry.NewCreditTable()
	table.Insert(entry.PaymentCredit{Source: "a", Currency: "usd", Code: "wage", Amount: 1})
	table.Insert(entry.PaymentCredit{Source: "b", Currency: "usd", Code: "wage", Amount: 2})
	table.Insert(entry.PaymentCredit{Source: "a", Currency: "usd", Code: "wage", Amount: 9})

	values := table.Values()
	if len(values) != 2 {
		t.Fatalf("len: got %d, want 2", len(values))
	}
	if values[0].Source != "a" || values[0].Amount != 9 {
		t.Errorf("first: got %+v, want source a with amount 9", values[0])
	}
}
