package entry

import "testing"

func TestDescriptions(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"debt", Debt{Target: "Treasury", Currency: "USD", Code: "income", Amount: 10}.Description(),
			"Debt of 10.00 USD to Treasury (income)"},
		{"scoped debt", Debt{Scope: "Town", Target: "Treasury", Currency: "USD", Code: "income", Amount: 10}.Description(),
			"Debt of 10.00 USD to Town (Treasury) (income)"},
		{"scoped transfer", Debt{Scope: "Town", Target: "Bob", Currency: "USD", Code: "rent", Amount: 5, IsTransfer: true}.Description(),
			"Debt of 5.00 USD to Bob (Town) (rent)"},
		{"suspended debt", Debt{Target: "Treasury", Currency: "USD", Code: "income", Amount: 1, Suspended: true}.DescriptionNoAccount(),
			"Debt of 1.00 USD (income) (suspended)"},
		{"rebate", Rebate{Target: "Treasury", Currency: "USD", Code: "relief", Amount: 4}.Description(),
			"Rebate of 4.00 USD from Treasury (relief)"},
		{"payment", PaymentCredit{Source: "Treasury", Currency: "USD", Code: "wage", Amount: 2.5}.DescriptionNoAccount(),
			"Payment of 2.50 USD (wage)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
