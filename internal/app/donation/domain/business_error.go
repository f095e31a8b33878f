package domain

import "errors"

// Business failure codes returned to callers as structured {code, message}.
const (
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeNotFound            = "NOT_FOUND"
	CodeRefundNotAllowed    = "REFUND_NOT_ALLOWED"
	CodeInvalidRequest      = "INVALID_REQUEST"
)

// BusinessError is a recoverable, caller-facing failure. It is an expected
// outcome (insufficient funds, refund on the wrong status), never a sign of
// infrastructure trouble.
type BusinessError struct {
	Code    string
	Message string
	cause   error
}

// NewBusinessError creates a BusinessError wrapping an optional cause.
func NewBusinessError(code, message string, cause error) *BusinessError {
	return &BusinessError{Code: code, Message: message, cause: cause}
}

func (e *BusinessError) Error() string {
	return e.Code + ": " + e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.cause
}

// AsBusiness extracts a BusinessError from an error chain.
func AsBusiness(err error) (*BusinessError, bool) {
	var be *BusinessError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
