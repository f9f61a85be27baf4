package ledger_test

import (
	"testing"
	"time"

	"github.com/xraph/taxledger/ledger"
	"github.com/xraph/taxledger/report"
	"github.com/xraph/taxledger/types"
)

func TestRollupRecordsAgainstItsAccount(t *testing.T) {
	clock := types.NewManualClock(start)
	cal := types.Calendar{Epoch: start, DayLength: time.Hour}
	r := ledger.NewRollup("treasury", cal, clock)

	r.RecordTax("Town", "USD", "income", 10)
	r.RecordTax("Town", "USD", "income", 0)
	clock.Advance(time.Hour)
	r.RecordPayment("", "USD", "wage", 4)
	r.RecordRebate("", "USD", "relief", 1)

	if got := r.Report().QueryTaxes("USD", report.Filter{Account: "treasury"}); got != 10 {
		t.Errorf("taxes = %v, want 10", got)
	}
	if got := r.Report().QueryPayments("USD", report.Filter{Range: &report.Range{Start: 1, End: 2}}); got != 4 {
		t.Errorf("day 1 payments = %v, want 4", got)
	}

	restored := ledger.RestoreRollup(r.Snapshot(), cal, clock)
	if restored.Account() != "treasury" || restored.ID().String() != r.ID().String() {
		t.Errorf("restored rollup = %s %s", restored.Account(), restored.ID())
	}
	if got := restored.Report().QueryRebates("USD", report.Filter{}); got != 1 {
		t.Errorf("restored rebates = %v, want 1", got)
	}
}
