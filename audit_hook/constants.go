package audithook

// Action constants for audit events.
const (
	// Recording actions
	ActionDebtRecorded     = "debt.recorded"
	ActionTransferRecorded = "transfer.recorded"
	ActionRebateRecorded   = "rebate.recorded"
	ActionPaymentRecorded  = "payment.recorded"

	// Settlement actions
	ActionTickCompleted       = "tick.completed"
	ActionTickFailed          = "tick.failed"
	ActionTransferFailed      = "transfer.failed"
	ActionEntryVoided         = "entry.voided"
	ActionSettlementCompleted = "settlement.completed"
)

// Resource constants for audit events.
const (
	ResourceLedger     = "ledger"
	ResourceDebt       = "debt"
	ResourceRebate     = "rebate"
	ResourcePayment    = "payment"
	ResourceBatch      = "batch"
	ResourceSettlement = "settlement"
)

// Category constants for audit events.
const (
	CategoryTax        = "tax"
	CategorySettlement = "settlement"
	CategoryPayment    = "payment"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
