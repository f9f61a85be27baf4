// Package taxledger keeps a tax ledger for every participant of a simulated
// economy and settles it against real account balances on a fixed interval.
//
// A ledger holds three kinds of outstanding entries:
//
//   - Debts: money the owner owes to a target account (taxes and transfers)
//   - Rebates: money a target account forgives against those debts
//   - Payment credits: money a source account owes back to the owner
//
// Every settlement pass voids entries whose accounts no longer exist,
// offsets debts with rebates and payment credits, pays out what remains of
// the credits and collects the remaining active debts from the owner's
// taxable accounts. The resulting fund movements are handed to a
// bank.Executor as a single batch per ledger.
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/taxledger"
//	    "github.com/xraph/taxledger/bank/memory"
//	    storemem "github.com/xraph/taxledger/store/memory"
//	)
//
//	b := memory.New()
//	eng := taxledger.New(storemem.New(), b, b,
//	    taxledger.WithTickInterval(5*time.Minute),
//	)
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
//	eng.RecordDebt(ctx, "alice", taxledger.Debt{
//	    Target: "treasury", Currency: "USD", Code: "sales", Amount: 12.5,
//	})
//
// # Reports
//
// Each ledger keeps an append-only event log, compacted by merging like
// record events inside the aggregation window, and day-bucketed report sums
// of taxes, payments and rebates. Accounts flagged as aggregate by the
// AccountProvider additionally get a rollup that sums everything recorded
// against them across all ledgers.
//
// # TypeID
//
// Ledgers, rollups, events, batches and ticks use TypeIDs:
//
//	ldg_01h2xcejqtf2nbrexx3vqjhp41   // Ledger ID
//	tev_01h455vb4pex5vsknk084sn02q   // Event ID
//	bat_01h455vb4pex5vsknk084sn02q   // Batch ID
package taxledger
