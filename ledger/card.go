package ledger

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/xraph/taxledger/entry"
	"github.com/xraph/taxledger/eventlog"
	"github.com/xraph/taxledger/id"
	"github.com/xraph/taxledger/types"
)

// Card is a read model of a ledger for display. Entries are ordered by
// descending amount and events most recent first.
type Card struct {
	LedgerID  id.LedgerID           `json:"ledger_id"`
	Owner     string                `json:"owner"`
	Owes      map[string]float64    `json:"owes"`
	Due       map[string]float64    `json:"due"`
	Debts     []entry.Debt          `json:"debts"`
	Rebates   []entry.Rebate        `json:"rebates"`
	Credits   []entry.PaymentCredit `json:"credits"`
	Events    []eventlog.Event      `json:"events"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// Card builds the display model of the ledger.
func (l *Ledger) Card() Card {
	c := Card{
		LedgerID:  l.id,
		Owner:     l.owner,
		Owes:      l.DebtSummary(),
		Due:       l.CreditSummary(),
		Debts:     l.Debts(),
		Rebates:   l.Rebates(),
		Credits:   l.Credits(),
		Events:    l.log.Events(),
		UpdatedAt: l.UpdatedAt(),
	}
	slices.SortStableFunc(c.Debts, func(a, b entry.Debt) int { return cmp.Compare(b.Amount, a.Amount) })
	slices.SortStableFunc(c.Rebates, func(a, b entry.Rebate) int { return cmp.Compare(b.Amount, a.Amount) })
	slices.SortStableFunc(c.Credits, func(a, b entry.PaymentCredit) int { return cmp.Compare(b.Amount, a.Amount) })
	return c
}

// Summary renders the one-line "Owes X, due Y." headline.
func (c Card) Summary() string {
	return fmt.Sprintf("Owes %s, due %s.", formatTotals(c.Owes), formatTotals(c.Due))
}

func formatTotals(m map[string]float64) string {
	if len(m) == 0 {
		return "nothing"
	}
	currencies := make([]string, 0, len(m))
	for c := range m {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)
	parts := make([]string, len(currencies))
	for i, c := range currencies {
		parts[i] = types.FormatCurrency(m[c], c)
	}
	return strings.Join(parts, ", ")
}

// Markdown renders the full ledger card: outstanding entries, the report
// and the event log.
func (l *Ledger) Markdown() string {
	c := l.Card()

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Tax card: %s\n\n", c.Owner)
	sb.WriteString(c.Summary())
	sb.WriteString("\n\n## Outstanding\n\n")

	writeList(&sb, "No outstanding tax debt.", c.Debts, entry.Debt.Description)
	writeList(&sb, "No outstanding rebates.", c.Rebates, entry.Rebate.Description)
	writeList(&sb, "No outstanding payments.", c.Credits, entry.PaymentCredit.Description)

	sb.WriteString("## Report\n\n")
	sb.WriteString(l.report.Describe())
	sb.WriteString("\n## Log\n\n```text\n")
	sb.WriteString(l.log.Render())
	sb.WriteString("```\n")
	return sb.String()
}

func writeList[V any](sb *strings.Builder, empty string, items []V, describe func(V) string) {
	if len(items) == 0 {
		sb.WriteString(empty)
		sb.WriteString("\n\n")
		return
	}
	for _, v := range items {
		sb.WriteString("- ")
		sb.WriteString(describe(v))
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
}
