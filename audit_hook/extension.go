// Package audithook bridges settlement engine events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// any audit backend. Callers inject a RecorderFunc adapter at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/taxledger/bank"
	"github.com/xraph/taxledger/entry"
	"github.com/xraph/taxledger/eventlog"
	"github.com/xraph/taxledger/ledger"
	"github.com/xraph/taxledger/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnDebtRecorded        = (*Extension)(nil)
	_ plugin.OnRebateRecorded      = (*Extension)(nil)
	_ plugin.OnPaymentRecorded     = (*Extension)(nil)
	_ plugin.OnTickCompleted       = (*Extension)(nil)
	_ plugin.OnTickFailed          = (*Extension)(nil)
	_ plugin.OnTransferFailed      = (*Extension)(nil)
	_ plugin.OnSettlementCompleted = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges engine events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Recording hooks
// ──────────────────────────────────────────────────

// OnDebtRecorded implements plugin.OnDebtRecorded.
func (e *Extension) OnDebtRecorded(ctx context.Context, owner string, d entry.Debt) error {
	action := ActionDebtRecorded
	if d.IsTransfer {
		action = ActionTransferRecorded
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceDebt, owner, CategoryTax, nil,
		"target", d.Target,
		"currency", d.Currency,
		"code", d.Code,
		"scope", d.Scope,
		"amount", d.Amount,
		"suspended", d.Suspended,
	)
}

// OnRebateRecorded implements plugin.OnRebateRecorded.
func (e *Extension) OnRebateRecorded(ctx context.Context, owner string, r entry.Rebate) error {
	return e.record(ctx, ActionRebateRecorded, SeverityInfo, OutcomeSuccess,
		ResourceRebate, owner, CategoryTax, nil,
		"target", r.Target,
		"currency", r.Currency,
		"code", r.Code,
		"scope", r.Scope,
		"amount", r.Amount,
	)
}

// OnPaymentRecorded implements plugin.OnPaymentRecorded.
func (e *Extension) OnPaymentRecorded(ctx context.Context, owner string, p entry.PaymentCredit) error {
	return e.record(ctx, ActionPaymentRecorded, SeverityInfo, OutcomeSuccess,
		ResourcePayment, owner, CategoryPayment, nil,
		"source", p.Source,
		"currency", p.Currency,
		"code", p.Code,
		"scope", p.Scope,
		"amount", p.Amount,
	)
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnTickCompleted implements plugin.OnTickCompleted. Idle ticks are not
// audited; every void in a tick gets its own entry.
func (e *Extension) OnTickCompleted(ctx context.Context, res *ledger.TickResult) error {
	if !res.DidWork() {
		return nil
	}

	for _, ev := range res.Events {
		if ev.Kind != eventlog.KindVoid {
			continue
		}
		_ = e.record(ctx, ActionEntryVoided, SeverityWarning, OutcomeSuccess,
			ResourceLedger, res.Owner, CategorySettlement, nil,
			"account", ev.Account,
			"code", ev.Code,
			"description", ev.Description,
		)
	}

	outcome := OutcomeSuccess
	severity := SeverityInfo
	if res.TransferErr != nil {
		outcome = OutcomePartial
		severity = SeverityWarning
	}
	return e.record(ctx, ActionTickCompleted, severity, outcome,
		ResourceLedger, res.Owner, CategorySettlement, res.TransferErr,
		"tick_id", res.ID.String(),
		"voided", res.Voided,
		"settlements", res.Settlements,
		"payouts", res.Payouts,
		"collections", res.Collections,
		"collected", res.Collected,
		"paid_out", res.PaidOut,
	)
}

// OnTickFailed implements plugin.OnTickFailed.
func (e *Extension) OnTickFailed(ctx context.Context, owner string, err error) error {
	return e.record(ctx, ActionTickFailed, SeverityError, OutcomeFailure,
		ResourceLedger, owner, CategorySettlement, err,
	)
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (e *Extension) OnTransferFailed(ctx context.Context, owner string, batch *bank.Batch, err error) error {
	kv := []any{"owner", owner}
	batchID := ""
	if batch != nil {
		batchID = batch.ID.String()
		kv = append(kv, "movements", len(batch.Movements), "total", batch.Total())
	}
	return e.record(ctx, ActionTransferFailed, SeverityError, OutcomeFailure,
		ResourceBatch, batchID, CategoryPayment, err,
		kv...,
	)
}

// OnSettlementCompleted implements plugin.OnSettlementCompleted.
func (e *Extension) OnSettlementCompleted(ctx context.Context, ledgers int, elapsed time.Duration) error {
	return e.record(ctx, ActionSettlementCompleted, SeverityInfo, OutcomeSuccess,
		ResourceSettlement, "", CategorySettlement, nil,
		"ledgers", ledgers,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
