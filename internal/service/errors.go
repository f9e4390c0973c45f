package service

import "errors"

var (
	ErrConflict  = errors.New("conflict")
	ErrForbidden = errors.New("forbidden")
)

// RuleError is a business-rule violation reported to the caller verbatim.
type RuleError struct {
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

func rule(message string) error {
	return &RuleError{Message: message}
}

// conflict wraps ErrConflict with a caller-facing message.
type conflictError struct {
	message string
}

func (e *conflictError) Error() string { return e.message }

func (e *conflictError) Unwrap() error { return ErrConflict }

func conflict(message string) error {
	return &conflictError{message: message}
}
