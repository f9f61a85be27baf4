// Package observability provides a metrics extension for the settlement
// engine that records recording and settlement counts via a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/taxledger/bank"
	"github.com/xraph/taxledger/entry"
	"github.com/xraph/taxledger/ledger"
	"github.com/xraph/taxledger/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnInit                = (*MetricsExtension)(nil)
	_ plugin.OnDebtRecorded        = (*MetricsExtension)(nil)
	_ plugin.OnRebateRecorded      = (*MetricsExtension)(nil)
	_ plugin.OnPaymentRecorded     = (*MetricsExtension)(nil)
	_ plugin.OnTickCompleted       = (*MetricsExtension)(nil)
	_ plugin.OnTickFailed          = (*MetricsExtension)(nil)
	_ plugin.OnTransferFailed      = (*MetricsExtension)(nil)
	_ plugin.OnSettlementCompleted = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide settlement metrics.
// Register it as an engine plugin to track tax activity.
type MetricsExtension struct {
	factory MetricFactory

	// Recording metrics
	DebtsRecorded     Counter
	TransfersRecorded Counter
	RebatesRecorded   Counter
	PaymentsRecorded  Counter
	RecordedAmount    Histogram

	// Tick metrics
	TicksCompleted Counter
	TicksFailed    Counter
	TicksIdle      Counter
	TickLatency    Histogram

	// Settlement outcome metrics
	EntriesVoided    Counter
	Settlements      Counter
	Payouts          Counter
	Collections      Counter
	CollectedAmount  Histogram
	PaidOutAmount    Histogram
	BatchMovements   Histogram
	TransfersFailed  Counter
	SettlementPasses Counter
	PassLatency      Histogram
	LedgersSettled   Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Recording metrics
		DebtsRecorded:     factory.Counter("taxledger.debt.recorded"),
		TransfersRecorded: factory.Counter("taxledger.transfer.recorded"),
		RebatesRecorded:   factory.Counter("taxledger.rebate.recorded"),
		PaymentsRecorded:  factory.Counter("taxledger.payment.recorded"),
		RecordedAmount:    factory.Histogram("taxledger.recorded.amount"),

		// Tick metrics
		TicksCompleted: factory.Counter("taxledger.tick.completed"),
		TicksFailed:    factory.Counter("taxledger.tick.failed"),
		TicksIdle:      factory.Counter("taxledger.tick.idle"),
		TickLatency:    factory.Histogram("taxledger.tick.latency_ms"),

		// Settlement outcome metrics
		EntriesVoided:    factory.Counter("taxledger.entry.voided"),
		Settlements:      factory.Counter("taxledger.settlement.offsets"),
		Payouts:          factory.Counter("taxledger.settlement.payouts"),
		Collections:      factory.Counter("taxledger.settlement.collections"),
		CollectedAmount:  factory.Histogram("taxledger.collected.amount"),
		PaidOutAmount:    factory.Histogram("taxledger.paid_out.amount"),
		BatchMovements:   factory.Histogram("taxledger.batch.movements"),
		TransfersFailed:  factory.Counter("taxledger.transfer.failed"),
		SettlementPasses: factory.Counter("taxledger.settlement.passes"),
		PassLatency:      factory.Histogram("taxledger.settlement.latency_ms"),
		LedgersSettled:   factory.Histogram("taxledger.settlement.ledgers"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Recording hooks
// ──────────────────────────────────────────────────

// OnDebtRecorded implements plugin.OnDebtRecorded.
func (m *MetricsExtension) OnDebtRecorded(_ context.Context, _ string, debt entry.Debt) error {
	if debt.IsTransfer {
		m.TransfersRecorded.Inc()
	} else {
		m.DebtsRecorded.Inc()
	}
	m.RecordedAmount.Observe(debt.Amount)
	return nil
}

// OnRebateRecorded implements plugin.OnRebateRecorded.
func (m *MetricsExtension) OnRebateRecorded(_ context.Context, _ string, rebate entry.Rebate) error {
	m.RebatesRecorded.Inc()
	m.RecordedAmount.Observe(rebate.Amount)
	return nil
}

// OnPaymentRecorded implements plugin.OnPaymentRecorded.
func (m *MetricsExtension) OnPaymentRecorded(_ context.Context, _ string, credit entry.PaymentCredit) error {
	m.PaymentsRecorded.Inc()
	m.RecordedAmount.Observe(credit.Amount)
	return nil
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnTickCompleted implements plugin.OnTickCompleted.
func (m *MetricsExtension) OnTickCompleted(_ context.Context, res *ledger.TickResult) error {
	m.TicksCompleted.Inc()
	m.TickLatency.Observe(float64(res.Duration.Milliseconds()))
	if !res.DidWork() {
		m.TicksIdle.Inc()
		return nil
	}

	m.EntriesVoided.Add(float64(res.Voided))
	m.Settlements.Add(float64(res.Settlements))
	m.Payouts.Add(float64(res.Payouts))
	m.Collections.Add(float64(res.Collections))
	for _, amount := range res.Collected {
		m.CollectedAmount.Observe(amount)
	}
	for _, amount := range res.PaidOut {
		m.PaidOutAmount.Observe(amount)
	}
	if res.Batch != nil {
		m.BatchMovements.Observe(float64(len(res.Batch.Movements)))
	}
	return nil
}

// OnTickFailed implements plugin.OnTickFailed.
func (m *MetricsExtension) OnTickFailed(_ context.Context, _ string, _ error) error {
	m.TicksFailed.Inc()
	return nil
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (m *MetricsExtension) OnTransferFailed(_ context.Context, _ string, _ *bank.Batch, _ error) error {
	m.TransfersFailed.Inc()
	return nil
}

// OnSettlementCompleted implements plugin.OnSettlementCompleted.
func (m *MetricsExtension) OnSettlementCompleted(_ context.Context, ledgers int, elapsed time.Duration) error {
	m.SettlementPasses.Inc()
	m.PassLatency.Observe(float64(elapsed.Milliseconds()))
	m.LedgersSettled.Observe(float64(ledgers))
	return nil
}
