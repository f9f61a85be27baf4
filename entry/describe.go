package entry

import (
	"fmt"

	"github.com/xraph/taxledger/types"
)

func suspendedSuffix(s bool) string {
	if s {
		return " (suspended)"
	}
	return ""
}

// Description renders d with its target, e.g.
// "Debt of 10.00 USD to Town (Treasury) (income)".
func (d Debt) Description() string {
	return fmt.Sprintf("Debt of %s to %s (%s)%s", types.FormatCurrency(d.Amount, d.Currency),
		types.DescribeTarget(d.Target, d.Scope, d.IsTransfer), d.Code, suspendedSuffix(d.Suspended))
}

// DescriptionNoAccount renders d without its target.
func (d Debt) DescriptionNoAccount() string {
	return fmt.Sprintf("Debt of %s (%s)%s", types.FormatCurrency(d.Amount, d.Currency), d.Code, suspendedSuffix(d.Suspended))
}

// Description renders r with its target.
func (r Rebate) Description() string {
	return fmt.Sprintf("Rebate of %s from %s (%s)", types.FormatCurrency(r.Amount, r.Currency),
		types.DescribeTarget(r.Target, r.Scope, false), r.Code)
}

// DescriptionNoAccount renders r without its target.
func (r Rebate) DescriptionNoAccount() string {
	return fmt.Sprintf("Rebate of %s (%s)", types.FormatCurrency(r.Amount, r.Currency), r.Code)
}

// Description renders p with its source.
func (p PaymentCredit) Description() string {
	return fmt.Sprintf("Payment of %s from %s (%s)", types.FormatCurrency(p.Amount, p.Currency),
		types.DescribeTarget(p.Source, p.Scope, false), p.Code)
}

// DescriptionNoAccount renders p without its source.
func (p PaymentCredit) DescriptionNoAccount() string {
	return fmt.Sprintf("Payment of %s (%s)", types.FormatCurrency(p.Amount, p.Currency), p.Code)
}
