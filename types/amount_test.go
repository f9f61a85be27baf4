package types

import (
	"math"
	"testing"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		currency string
		want     string
	}{
		{"whole", 100, "usd", "100.00 USD"},
		{"cents", 12.5, "USD", "12.50 USD"},
		{"rounds half up", 0.125, "eur", "0.13 EUR"},
		{"no currency", 3, "", "3.00"},
		{"zero", 0, "credits", "0.00 CREDITS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCurrency(tt.amount, tt.currency); got != tt.want {
				t.Errorf("FormatCurrency(%v, %q): got %q, want %q", tt.amount, tt.currency, got, tt.want)
			}
		})
	}
}

func TestIsNegligible(t *testing.T) {
	tests := []struct {
		amount float64
		want   bool
	}{
		{0, true},
		{-5, true},
		{AlmostZero / 2, true},
		{AlmostZero, false},
		{0.01, false},
	}

	for _, tt := range tests {
		if got := IsNegligible(tt.amount); got != tt.want {
			t.Errorf("IsNegligible(%v): got %v, want %v", tt.amount, got, tt.want)
		}
	}
}

func TestIsFinite(t *testing.T) {
	if !IsFinite(1.5) {
		t.Error("1.5 should be finite")
	}
	if IsFinite(math.NaN()) {
		t.Error("NaN should not be finite")
	}
	if IsFinite(math.Inf(1)) {
		t.Error("+Inf should not be finite")
	}
}

func TestSumAmounts(t *testing.T) {
	amounts := make([]float64, 10)
	for i := range amounts {
		amounts[i] = 0.1
	}
	if got := SumAmounts(amounts...); got != 1.0 {
		t.Errorf("SumAmounts: got %v, want 1", got)
	}
	if got := SumAmounts(); got != 0 {
		t.Errorf("SumAmounts(): got %v, want 0", got)
	}
}
