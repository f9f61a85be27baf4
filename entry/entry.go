// Package entry defines the three kinds of outstanding ledger records (debts,
// rebates and payment credits) and the keyed table that merges them.
//
// Records sharing an identity key are never duplicated: recording into an
// existing key accumulates onto it.
package entry

// DebtKey identifies a Debt.
type DebtKey struct {
	Target   string
	Currency string
	Code     string
	Scope    string
}

// Debt is money the ledger owner owes to Target.
type Debt struct {
	Scope      string  `json:"scope,omitempty"  bson:"scope,omitempty"`
	Target     string  `json:"target"           bson:"target"`
	Currency   string  `json:"currency"         bson:"currency"`
	Code       string  `json:"code"             bson:"code"`
	Amount     float64 `json:"amount"           bson:"amount"`
	Suspended  bool    `json:"suspended"        bson:"suspended"`
	IsTransfer bool    `json:"is_transfer"      bson:"is_transfer"`
}

// Key returns the identity key of d.
func (d Debt) Key() DebtKey {
	return DebtKey{Target: d.Target, Currency: d.Currency, Code: d.Code, Scope: d.Scope}
}

// RebateKey identifies a Rebate.
type RebateKey struct {
	Target   string
	Currency string
	Code     string
	Scope    string
}

// Rebate is a forgiveness credit against debts owed to Target.
type Rebate struct {
	Scope    string  `json:"scope,omitempty" bson:"scope,omitempty"`
	Target   string  `json:"target"          bson:"target"`
	Currency string  `json:"currency"        bson:"currency"`
	Code     string  `json:"code"            bson:"code"`
	Amount   float64 `json:"amount"          bson:"amount"`
}

// Key returns the identity key of r.
func (r Rebate) Key() RebateKey {
	return RebateKey{Target: r.Target, Currency: r.Currency, Code: r.Code, Scope: r.Scope}
}

// CreditKey identifies a PaymentCredit.
type CreditKey struct {
	Source   string
	Currency string
	Code     string
	Scope    string
}

// PaymentCredit is money owed to the ledger owner by Source.
type PaymentCredit struct {
	Scope    string  `json:"scope,omitempty" bson:"scope,omitempty"`
	Source   string  `json:"source"          bson:"source"`
	Currency string  `json:"currency"        bson:"currency"`
	Code     string  `json:"code"            bson:"code"`
	Amount   float64 `json:"amount"          bson:"amount"`
}

// Key returns the identity key of p.
func (p PaymentCredit) Key() CreditKey {
	return CreditKey{Source: p.Source, Currency: p.Currency, Code: p.Code, Scope: p.Scope}
}
