package taxledger_test

import (
	"context"
	"log"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/xraph/taxledger"
	bankmem "github.com/xraph/taxledger/bank/memory"
	storemem "github.com/xraph/taxledger/store/memory"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from the package documentation
	t.Run("QuickStartExample", func(t *testing.T) {
		// Simulated bank: one treasury and one citizen account
		b := bankmem.New()
		b.Open("treasury", true)
		b.Open("alice-checking", false)
		if err := b.SetHolder("alice-checking", "alice", 1); err != nil {
			t.Fatal(err)
		}
		if err := b.Deposit("alice-checking", "USD", 40); err != nil {
			t.Fatal(err)
		}

		// Initialize the engine
		eng := taxledger.New(storemem.New(), b, b,
			taxledger.WithLogger(slog.Default()),
			taxledger.WithTickInterval(5*time.Minute),
		)

		ctx := context.Background()
		if err := eng.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer eng.Stop()

		// Record a sales tax
		if _, err := eng.RecordDebt(ctx, "alice", taxledger.Debt{
			Target:   "treasury",
			Currency: "USD",
			Code:     "sales",
			Amount:   12.5,
		}); err != nil {
			t.Fatal(err)
		}

		l, err := eng.Lookup("alice")
		if err != nil {
			t.Fatal(err)
		}
		card := l.Card()
		if !strings.Contains(card.Summary(), "12.50 USD") {
			t.Errorf("summary: got %q", card.Summary())
		}

		// Settle right away instead of waiting for the worker
		if _, err := eng.TickAll(ctx); err != nil {
			t.Fatal(err)
		}

		log.Printf("after settlement: %s\n", l.Card().Summary())
	})

	// Test configuration example
	t.Run("ConfigExample", func(t *testing.T) {
		cfg, err := taxledger.ParseConfig(`
tick_interval = "1m"
log_capacity = 50

[store]
driver = "sqlite"
dsn = "file:taxledger.db"
`)
		if err != nil {
			t.Fatal(err)
		}

		b := bankmem.New()
		_ = taxledger.New(storemem.New(), b, b, taxledger.WithConfig(cfg))

		_ = taxledger.FormatCurrency(12.5, "USD") // "12.50 USD"
	})
}
