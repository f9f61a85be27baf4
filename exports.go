package taxledger

import (
	"github.com/xraph/taxledger/entry"
	"github.com/xraph/taxledger/types"
)

// Re-export common types for convenience so users don't have to import the
// entry and types packages.

// Debt is re-exported from entry package.
type Debt = entry.Debt

// Rebate is re-exported from entry package.
type Rebate = entry.Rebate

// PaymentCredit is re-exported from entry package.
type PaymentCredit = entry.PaymentCredit

// Calendar is re-exported from types package.
type Calendar = types.Calendar

// Clock is re-exported from types package.
type Clock = types.Clock

// AlmostZero is the smallest amount the ledger treats as money.
const AlmostZero = types.AlmostZero

// Re-export helpers
var (
	FormatCurrency  = types.FormatCurrency
	DefaultCalendar = types.DefaultCalendar
	NewManualClock  = types.NewManualClock
)
