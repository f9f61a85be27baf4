package report

import (
	"fmt"
	"strings"

	"github.com/xraph/taxledger/types"
)

// Describe renders the report as markdown: the total first, then each
// non-empty day, most recent first.
func (r *Report) Describe() string {
	today := r.Today()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString("### Total\n\n")
	writeBucket(&sb, &r.total)

	for i := len(r.days) - 1; i >= 0; i-- {
		b := r.days[i]
		if b.Empty() {
			continue
		}
		fmt.Fprintf(&sb, "\n### %s\n\n", DayLabel(r.firstDay+i, today))
		writeBucket(&sb, b)
	}
	return sb.String()
}

// DayLabel names day relative to today. Days are shown one-based.
func DayLabel(day, today int) string {
	switch day {
	case today:
		return fmt.Sprintf("Today (day %d)", day+1)
	case today - 1:
		return fmt.Sprintf("Yesterday (day %d)", day+1)
	default:
		return fmt.Sprintf("Day %d", day+1)
	}
}

func writeBucket(sb *strings.Builder, b *Bucket) {
	if b.Empty() {
		sb.WriteString("Nothing recorded.\n")
		return
	}
	for _, e := range b.taxes.entries {
		label := "Tax"
		if e.Transfer {
			label = "Transfer"
		}
		fmt.Fprintf(sb, "- %s (%s) of %s (to %s)\n", label, e.Code,
			types.FormatCurrency(e.Amount, e.Currency), types.DescribeTarget(e.Account, e.Scope, e.Transfer))
	}
	for _, e := range b.rebates.entries {
		fmt.Fprintf(sb, "- Rebate (%s) of %s (from %s)\n", e.Code,
			types.FormatCurrency(e.Amount, e.Currency), types.DescribeTarget(e.Account, e.Scope, false))
	}
	for _, e := range b.payments.entries {
		fmt.Fprintf(sb, "- Payment (%s) of %s (from %s)\n", e.Code,
			types.FormatCurrency(e.Amount, e.Currency), types.DescribeTarget(e.Account, e.Scope, false))
	}
}
