package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/taxledger/bank"
	"github.com/xraph/taxledger/entry"
	"github.com/xraph/taxledger/eventlog"
	"github.com/xraph/taxledger/id"
	"github.com/xraph/taxledger/types"
)

// TickResult summarizes one settlement pass over a ledger.
type TickResult struct {
	ID        id.TickID     `json:"id"`
	LedgerID  id.LedgerID   `json:"ledger_id"`
	Owner     string        `json:"owner"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	Voided      int `json:"voided"`
	Settlements int `json:"settlements"`
	Payouts     int `json:"payouts"`
	Collections int `json:"collections"`

	// Collected and PaidOut are keyed by currency.
	Collected map[string]float64 `json:"collected,omitempty"`
	PaidOut   map[string]float64 `json:"paid_out,omitempty"`

	Events  []eventlog.Event `json:"events,omitempty"`
	Batch   *bank.Batch      `json:"batch,omitempty"`
	Receipt *bank.Receipt    `json:"receipt,omitempty"`

	// TransferErr is set when the executor rejected the batch. Ledger state
	// is not rolled back; outstanding amounts are reconciled by later ticks.
	TransferErr error `json:"-"`
}

// DidWork reports whether the tick changed anything.
func (r *TickResult) DidWork() bool {
	return len(r.Events) > 0
}

type balanceKey struct {
	account  string
	currency string
}

// view is what the tick knows about the outside world. It is read before
// the ledger is locked. pending holds every debit already placed in the
// batch, by account and currency, and is shared by the payout and
// collection passes so one account is never drawn twice for the same funds
// within a tick. shared tracks how much of the owner's share of each
// holding has been collected.
type view struct {
	missing  map[string]bool
	balances map[balanceKey]float64
	holdings map[string][]bank.Holding
	pending  map[balanceKey]float64
	shared   map[balanceKey]float64
	payee    string
}

// available is what account can still be debited in currency given its
// observed balance.
func (v *view) available(k balanceKey, balance float64) float64 {
	return balance - v.pending[k]
}

// Tick settles the ledger: entries referencing closed accounts are voided,
// debts are offset by rebates and payment credits, credits are paid out and
// the remaining active debts are collected. All fund movements go to exec in
// a single batch after the ledger has been updated.
//
// A failed batch is logged and reported through TickResult.TransferErr; the
// ledger keeps its updated amounts. The returned error is reserved for
// failures to read from accounts.
func (l *Ledger) Tick(ctx context.Context, accounts bank.AccountProvider, exec bank.Executor) (*TickResult, error) {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()

	start := l.clock.Now()
	res := &TickResult{
		ID:        id.NewTickID(),
		LedgerID:  l.id,
		Owner:     l.owner,
		StartedAt: start,
		Collected: make(map[string]float64),
		PaidOut:   make(map[string]float64),
	}
	defer func() { res.Duration = l.clock.Now().Sub(start) }()

	if l.owner == "" {
		return res, nil
	}

	v, err := l.observe(ctx, accounts)
	if err != nil {
		return res, fmt.Errorf("ledger %s: %w", l.owner, err)
	}

	batch := bank.NewBatch(l.owner)
	t := &ticker{l: l, v: v, res: res, batch: batch, now: start}

	l.mu.Lock()
	t.voidInvalid()
	t.settleRebates()
	t.settlePayments()
	t.collect()
	if res.DidWork() {
		l.entity.Touch(start)
	}
	l.mu.Unlock()

	if batch.Empty() {
		return res, nil
	}
	res.Batch = batch

	receipt, err := exec.Execute(ctx, batch)
	if err != nil {
		res.TransferErr = err
		l.logger.Error("tax transfers failed",
			"owner", l.owner,
			"batch", batch.ID.String(),
			"movements", len(batch.Movements),
			"total", types.FormatAmount(batch.Total()),
			"error", err,
		)
		return res, nil
	}
	res.Receipt = &receipt
	l.logger.Debug("tax transfers executed",
		"owner", l.owner,
		"batch", batch.ID.String(),
		"reference", receipt.Reference,
	)
	return res, nil
}

// observe reads account existence, balances and taxable holdings for
// everything the ledger currently references.
func (l *Ledger) observe(ctx context.Context, accounts bank.AccountProvider) (*view, error) {
	refs := make(map[string]struct{})
	sources := make(map[balanceKey]struct{})
	currencies := make(map[string]struct{})

	l.mu.RLock()
	l.debts.Each(func(d *entry.Debt) {
		refs[d.Target] = struct{}{}
		if !d.Suspended {
			currencies[d.Currency] = struct{}{}
		}
	})
	l.rebates.Each(func(r *entry.Rebate) { refs[r.Target] = struct{}{} })
	l.credits.Each(func(p *entry.PaymentCredit) {
		refs[p.Source] = struct{}{}
		sources[balanceKey{p.Source, p.Currency}] = struct{}{}
	})
	l.mu.RUnlock()

	v := &view{
		missing:  make(map[string]bool),
		balances: make(map[balanceKey]float64),
		holdings: make(map[string][]bank.Holding),
		pending:  make(map[balanceKey]float64),
		shared:   make(map[balanceKey]float64),
	}

	for account := range refs {
		ok, err := accounts.Exists(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("check account %s: %w", account, err)
		}
		if !ok {
			v.missing[account] = true
		}
	}

	for k := range sources {
		if v.missing[k.account] {
			continue
		}
		bal, err := accounts.Balance(ctx, k.account, k.currency)
		if err != nil {
			l.logger.Warn("source balance unavailable", "owner", l.owner, "account", k.account, "error", err)
			continue
		}
		v.balances[k] = bal
	}

	if len(sources) > 0 {
		payee, err := accounts.PrimaryAccount(ctx, l.owner)
		if err != nil {
			l.logger.Warn("no account to pay out to", "owner", l.owner, "error", err)
		}
		v.payee = payee
	}

	for currency := range currencies {
		hs, err := accounts.TaxableAccounts(ctx, l.owner, currency)
		if err != nil {
			return nil, fmt.Errorf("list taxable accounts in %s: %w", currency, err)
		}
		v.holdings[currency] = hs
	}
	return v, nil
}

// ticker carries the state of one settlement pass. Its methods run with
// the ledger's write lock held.
type ticker struct {
	l     *Ledger
	v     *view
	res   *TickResult
	batch *bank.Batch
	now   time.Time
}

func (t *ticker) emit(kind eventlog.Kind, scope, account, code, description string) {
	e := eventlog.NewEvent(kind, t.now, scope, account, code, description)
	t.l.log.Add(e)
	t.res.Events = append(t.res.Events, e)
}

func settleWording(partial bool) string {
	if partial {
		return "partially"
	}
	return "fully"
}

func (t *ticker) voidInvalid() {
	for _, d := range t.l.debts.Values() {
		if t.v.missing[d.Target] {
			t.l.debts.Remove(d.Key())
			t.emit(eventlog.KindVoid, d.Scope, d.Target, d.Code, d.Description()+" voided as target bank account was closed")
			t.res.Voided++
		}
	}
	for _, r := range t.l.rebates.Values() {
		if t.v.missing[r.Target] {
			t.l.rebates.Remove(r.Key())
			t.emit(eventlog.KindVoid, r.Scope, r.Target, r.Code, r.Description()+" voided as target bank account was closed")
			t.res.Voided++
		}
	}
	for _, p := range t.l.credits.Values() {
		if t.v.missing[p.Source] {
			t.l.credits.Remove(p.Key())
			t.emit(eventlog.KindVoid, p.Scope, p.Source, p.Code, p.Description()+" voided as source bank account was closed")
			t.res.Voided++
		}
	}
}

func debtAmount(d *entry.Debt) float64            { return d.Amount }
func rebateAmount(r *entry.Rebate) float64        { return r.Amount }
func creditAmount(p *entry.PaymentCredit) float64 { return p.Amount }

// settleRebates offsets each debt, smallest first, with the rebates granted
// by the same target in the same currency, smallest first.
func (t *ticker) settleRebates() {
	for _, d := range t.l.debts.Ascending(debtAmount, nil) {
		t.settleDebtRebates(d)
	}
}

func (t *ticker) settleDebtRebates(d *entry.Debt) {
	rebates := t.l.rebates.Ascending(rebateAmount, func(r *entry.Rebate) bool {
		return r.Target == d.Target && r.Currency == d.Currency
	})
	for _, r := range rebates {
		if r.Amount >= d.Amount {
			t.emit(eventlog.KindSettlement, d.Scope, d.Target, d.Code,
				fmt.Sprintf("%s used to %s settle %s", r.DescriptionNoAccount(), settleWording(false), d.DescriptionNoAccount()))
			r.Amount -= d.Amount
			d.Amount = 0
			t.l.debts.Remove(d.Key())
			if types.IsNegligible(r.Amount) {
				t.l.rebates.Remove(r.Key())
			}
			t.res.Settlements++
			return
		}
		t.emit(eventlog.KindSettlement, d.Scope, d.Target, d.Code,
			fmt.Sprintf("%s used to %s settle %s", r.DescriptionNoAccount(), settleWording(true), d.DescriptionNoAccount()))
		d.Amount -= r.Amount
		r.Amount = 0
		t.l.rebates.Remove(r.Key())
		t.res.Settlements++
	}
	if types.IsNegligible(d.Amount) {
		t.l.debts.Remove(d.Key())
	}
}

// settlePayments nets each credit, smallest first, against debts owed to
// its source and pays out what remains as far as the source can afford.
func (t *ticker) settlePayments() {
	for _, p := range t.l.credits.Ascending(creditAmount, nil) {
		t.settleCredit(p)
	}
}

func (t *ticker) settleCredit(p *entry.PaymentCredit) {
	debts := t.l.debts.Ascending(debtAmount, func(d *entry.Debt) bool {
		return d.Target == p.Source && d.Currency == p.Currency
	})
	for _, d := range debts {
		if p.Amount >= d.Amount {
			t.emit(eventlog.KindSettlement, d.Scope, d.Target, d.Code,
				fmt.Sprintf("%s used to %s settle %s", p.DescriptionNoAccount(), settleWording(false), d.DescriptionNoAccount()))
			p.Amount -= d.Amount
			d.Amount = 0
			t.l.debts.Remove(d.Key())
			t.res.Settlements++
			if types.IsNegligible(p.Amount) {
				break
			}
			continue
		}
		t.emit(eventlog.KindSettlement, d.Scope, d.Target, d.Code,
			fmt.Sprintf("%s used to %s settle %s", p.DescriptionNoAccount(), settleWording(true), d.DescriptionNoAccount()))
		d.Amount -= p.Amount
		p.Amount = 0
		t.l.credits.Remove(p.Key())
		t.res.Settlements++
		return
	}
	if types.IsNegligible(p.Amount) {
		t.l.credits.Remove(p.Key())
		return
	}
	if t.v.payee == "" {
		return
	}

	k := balanceKey{p.Source, p.Currency}
	available := t.v.available(k, t.v.balances[k])
	var amount float64
	var description string
	switch {
	case available >= p.Amount:
		amount = p.Amount
		description = "Fully paid " + p.DescriptionNoAccount()
	case available > types.AlmostZero:
		amount = available
		description = fmt.Sprintf("Paid %s for %s", types.FormatCurrency(amount, p.Currency), p.DescriptionNoAccount())
	default:
		return
	}

	t.emit(eventlog.KindPayment, p.Scope, p.Source, p.Code, description)
	t.batch.Add(bank.Movement{
		From:        p.Source,
		To:          t.v.payee,
		Currency:    p.Currency,
		Amount:      amount,
		Description: p.Code,
		Kind:        bank.MovementPayout,
	})
	t.v.pending[k] += amount
	t.res.PaidOut[p.Currency] += amount
	t.res.Payouts++

	p.Amount -= amount
	if types.IsNegligible(p.Amount) {
		t.l.credits.Remove(p.Key())
	}
}

// collect draws each active debt, smallest first, from the owner's taxable
// accounts in priority order. Only the owner's share of a joint account is
// eligible.
func (t *ticker) collect() {
	active := func(d *entry.Debt) bool { return !d.Suspended }
	for _, d := range t.l.debts.Ascending(debtAmount, active) {
		t.collectDebt(d)
	}
}

func (t *ticker) collectDebt(d *entry.Debt) {
	kind := bank.MovementTax
	if d.IsTransfer {
		kind = bank.MovementTransfer
	}

	remaining := d.Amount
	var collected float64
	for _, h := range t.v.holdings[d.Currency] {
		k := balanceKey{h.Account, d.Currency}
		available := min(h.Collectable()-t.v.shared[k], t.v.available(k, h.Balance))
		if available < types.AlmostZero {
			continue
		}
		take := min(available, remaining)
		t.batch.Add(bank.Movement{
			From:        h.Account,
			To:          d.Target,
			Currency:    d.Currency,
			Amount:      take,
			Description: d.Code,
			Kind:        kind,
		})
		t.v.pending[k] += take
		t.v.shared[k] += take
		collected += take
		remaining -= take
		if remaining <= 0 {
			break
		}
	}
	if collected <= 0 {
		return
	}

	description := "Fully collected " + d.DescriptionNoAccount()
	if remaining > 0 {
		description = fmt.Sprintf("Collected %s for %s", types.FormatCurrency(collected, d.Currency), d.DescriptionNoAccount())
	}
	t.emit(eventlog.KindCollection, d.Scope, d.Target, d.Code, description)
	t.res.Collected[d.Currency] += collected
	t.res.Collections++

	d.Amount = remaining
	if types.IsNegligible(d.Amount) {
		t.l.debts.Remove(d.Key())
	}
}
