package bank_test

import (
	"testing"

	"github.com/xraph/taxledger/bank"
)

func TestPrioritize(t *testing.T) {
	holdings := []bank.Holding{
		{Account: "joint-small", Ownership: 0.5, Balance: 10},
		{Account: "managed", Ownership: 0.5, Balance: 5, Manage: true},
		{Account: "joint-big", Ownership: 0.5, Balance: 100},
		{Account: "personal", Ownership: 1, Balance: 1, Sole: true},
		{Account: "joint-big-2", Ownership: 0.5, Balance: 100},
	}
	bank.Prioritize(holdings)

	want := []string{"personal", "managed", "joint-big", "joint-big-2", "joint-small"}
	for i, h := range holdings {
		if h.Account != want[i] {
			t.Errorf("position %d: got %q, want %q", i, h.Account, want[i])
		}
	}
}

func TestBatchTotal(t *testing.T) {
	b := bank.NewBatch("alice")
	if !b.Empty() {
		t.Error("new batch should be empty")
	}
	b.Add(bank.Movement{Amount: 0.1})
	b.Add(bank.Movement{Amount: 0.2})
	if got := b.Total(); got != 0.3 {
		t.Errorf("Total() = %v, want 0.3", got)
	}
}

func TestCollectable(t *testing.T) {
	h := bank.Holding{Balance: 80, Ownership: 0.25}
	if got := h.Collectable(); got != 20 {
		t.Errorf("Collectable() = %v, want 20", got)
	}
}
