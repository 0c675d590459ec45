package trust

import "errors"

// All core errors are recoverable by the caller: a rejected operation
// leaves ledger and score state untouched.
var (
	ErrInvalidAmount   = errors.New("amount must be a positive number")
	ErrInvalidKind     = errors.New("kind must be Income or Expense")
	ErrAmountRequired  = errors.New("amount required: none supplied and extraction found nothing")
	ErrUnknownCategory = errors.New("unknown category")
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
)
