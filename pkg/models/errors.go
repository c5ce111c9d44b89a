package models

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the ledger, registry and reporter
// wraps exactly one of these.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrStore      = errors.New("store failure")
)

var (
	ErrLoanNotFound         = fmt.Errorf("loan %w", ErrNotFound)
	ErrStudentNotFound      = fmt.Errorf("student %w", ErrNotFound)
	ErrNoPayments           = fmt.Errorf("payments %w", ErrNotFound)
	ErrAmountBelowMinimum   = fmt.Errorf("%w: amount below minimum payment", ErrValidation)
	ErrAmountExceedsBalance = fmt.Errorf("%w: amount exceeds current balance", ErrValidation)
	ErrAmountPrecision      = fmt.Errorf("%w: amount has more than two decimal places", ErrValidation)
	ErrInvalidPreference    = fmt.Errorf("%w: preference must be one of SMS, Call, Email", ErrValidation)
	ErrInvalidPrincipal     = fmt.Errorf("%w: principal must be positive", ErrValidation)
	ErrLoanPaidOff          = fmt.Errorf("%w: loan already paid off", ErrConflict)
	ErrStudyInfoExists      = fmt.Errorf("%w: loan already has study info", ErrConflict)
	ErrNoInstitutions       = fmt.Errorf("%w: no active financial institution", ErrConflict)
)

// StoreError marks err as a persistence failure unless it already carries a
// kind from this package.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict) || errors.Is(err, ErrStore) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
