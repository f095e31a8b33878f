package domain

import (
	"errors"
	"fmt"
)

// Domain errors as sentinel values
var (
	// Donation errors
	ErrDonationNotFound    = errors.New("donation not found")
	ErrInvalidAmount       = errors.New("donation amount must be positive")
	ErrEmptyCampaign       = errors.New("campaign reference cannot be empty")
	ErrEmptyAccount        = errors.New("settlement account cannot be empty")
	ErrEmptyIdempotencyKey = errors.New("idempotency key cannot be empty")

	// Settlement errors
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUnknownAccount      = errors.New("unknown settlement account")

	// Refund errors
	ErrRefundNotAllowed = errors.New("refund is only allowed for completed donations")

	// ErrInvalidTransition is the errors.Is target for InvalidTransitionError.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// InvalidTransitionError reports an attempted move absent from the
// transition table. The donation is left untouched when it is returned.
type InvalidTransitionError struct {
	From DonationStatus
	To   DonationStatus
}

// NewInvalidTransitionError creates an InvalidTransitionError.
func NewInvalidTransitionError(from, to DonationStatus) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}
