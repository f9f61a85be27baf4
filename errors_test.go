package taxledger

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		notFound   bool
		validation bool
		retryable  bool
	}{
		{"ledger not found", ErrLedgerNotFound, true, false, false},
		{"wrapped rollup not found", fmt.Errorf("lookup: %w", ErrRollupNotFound), true, false, false},
		{"validation", ValidationError{Field: "currency", Message: "is required"}, false, true, false},
		{"no owner", ErrNoOwner, false, true, false},
		{"transfer", fmt.Errorf("%w: bank down", ErrTransferFailed), false, false, true},
		{"transaction", fmt.Errorf("%w: busy", ErrTransactionFailed), false, false, true},
		{"store closed", ErrStoreClosed, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.notFound {
				t.Errorf("IsNotFound: got %v, want %v", got, tt.notFound)
			}
			if got := IsValidation(tt.err); got != tt.validation {
				t.Errorf("IsValidation: got %v, want %v", got, tt.validation)
			}
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable: got %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestMultiError(t *testing.T) {
	var m MultiError
	m.Add(nil)
	if m.HasErrors() {
		t.Fatal("nil error should not be collected")
	}

	m.Add(ErrStoreClosed)
	if m.Error() != ErrStoreClosed.Error() {
		t.Errorf("single: got %q", m.Error())
	}

	m.Add(ValidationError{Field: "owner", Message: "is required"})
	if m.Error() != "taxledger: 2 errors occurred" {
		t.Errorf("multiple: got %q", m.Error())
	}
	if !errors.Is(m, ErrStoreClosed) {
		t.Error("errors.Is should see collected sentinel")
	}
	var ve ValidationError
	if !errors.As(m, &ve) || ve.Field != "owner" {
		t.Errorf("errors.As: got %+v", ve)
	}
}
