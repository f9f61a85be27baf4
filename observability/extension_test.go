package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/xraph/taxledger/bank"
	"github.com/xraph/taxledger/entry"
	"github.com/xraph/taxledger/eventlog"
	"github.com/xraph/taxledger/ledger"
	"github.com/xraph/taxledger/observability"
)

func TestPrometheusFactoryNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := observability.NewPrometheusFactory(reg, "")

	c := f.Counter("taxledger.debt.recorded")
	c.Inc()
	c.Add(2)

	// Same name returns the same collector instead of a duplicate registration.
	again := f.Counter("taxledger.debt.recorded")
	again.Inc()

	if got := testutil.ToFloat64(c.(prometheus.Counter)); got != 4 {
		t.Errorf("counter: got %v, want 4", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) != 1 {
		t.Fatalf("families: got %d, want 1", len(families))
	}
	if got := families[0].GetName(); got != "taxledger_debt_recorded" {
		t.Errorf("name: got %q, want %q", got, "taxledger_debt_recorded")
	}
}

func TestMetricsExtensionHooks(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := observability.NewMetricsExtension(observability.NewPrometheusFactory(reg, ""))

	_ = m.OnDebtRecorded(ctx, "alice", entry.Debt{Target: "treasury", Currency: "USD", Amount: 5})
	_ = m.OnDebtRecorded(ctx, "alice", entry.Debt{Target: "bob", Currency: "USD", Amount: 5, IsTransfer: true})
	_ = m.OnRebateRecorded(ctx, "alice", entry.Rebate{Target: "treasury", Currency: "USD", Amount: 1})
	_ = m.OnPaymentRecorded(ctx, "alice", entry.PaymentCredit{Source: "city", Currency: "USD", Amount: 2})

	batch := bank.NewBatch("alice")
	batch.Add(bank.Movement{From: "alice-checking", To: "treasury", Currency: "USD", Amount: 5, Kind: bank.MovementTax})
	_ = m.OnTickCompleted(ctx, &ledger.TickResult{
		Owner:       "alice",
		Duration:    3 * time.Millisecond,
		Voided:      1,
		Settlements: 2,
		Collections: 1,
		Collected:   map[string]float64{"USD": 5},
		Events:      []eventlog.Event{{Kind: eventlog.KindCollection}},
		Batch:       batch,
	})
	_ = m.OnTickCompleted(ctx, &ledger.TickResult{Owner: "bob"})
	_ = m.OnTickFailed(ctx, "carol", errors.New("boom"))
	_ = m.OnTransferFailed(ctx, "alice", batch, errors.New("offline"))
	_ = m.OnSettlementCompleted(ctx, 3, 10*time.Millisecond)

	tests := []struct {
		name    string
		counter observability.Counter
		want    float64
	}{
		{"debts", m.DebtsRecorded, 1},
		{"transfers", m.TransfersRecorded, 1},
		{"rebates", m.RebatesRecorded, 1},
		{"payments", m.PaymentsRecorded, 1},
		{"ticks completed", m.TicksCompleted, 2},
		{"ticks idle", m.TicksIdle, 1},
		{"ticks failed", m.TicksFailed, 1},
		{"voided", m.EntriesVoided, 1},
		{"settlements", m.Settlements, 2},
		{"collections", m.Collections, 1},
		{"transfers failed", m.TransfersFailed, 1},
		{"passes", m.SettlementPasses, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.counter.(prometheus.Counter)); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
