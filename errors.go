package taxledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound     = errors.New("taxledger: not found")
	ErrInvalidInput = errors.New("taxledger: invalid input")

	// Ledger errors
	ErrLedgerNotFound = errors.New("taxledger: ledger not found")
	ErrRollupNotFound = errors.New("taxledger: rollup not found")
	ErrNoOwner        = errors.New("taxledger: owner is required")

	// Settlement errors
	ErrTickFailed     = errors.New("taxledger: tick failed")
	ErrTransferFailed = errors.New("taxledger: transfer failed")

	// Store errors
	ErrStoreClosed       = errors.New("taxledger: store is closed")
	ErrTransactionFailed = errors.New("taxledger: transaction failed")
	ErrMigrationFailed   = errors.New("taxledger: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("taxledger: validation failed for %s: %s", e.Field, e.Message)
}

// Is makes every ValidationError match ErrInvalidInput.
func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "taxledger: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("taxledger: %d errors occurred", len(e.Errors))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrLedgerNotFound) ||
		errors.Is(err, ErrRollupNotFound)
}

// IsValidation returns true if the error rejects malformed input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrNoOwner)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransactionFailed) ||
		errors.Is(err, ErrTransferFailed)
}
