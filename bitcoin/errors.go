// Copyright (C) 2026 Creditor Corp. Group.
// See LICENSE for copying information.

package bitcoin

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat defines the programmer error class for operations
// requested with an address format outside the closed set.
var ErrUnsupportedFormat = errors.New("unsupported address format")

// NewUnsupportedFormatError returns ErrUnsupportedFormat clarified with the
// requested format.
func NewUnsupportedFormatError(format AddressFormat) error {
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// ValidationError is the error type for malformed caller input: PSBT text,
// addresses, signatures, mismatched array lengths, invalid input indices.
// The reason is always specific and safe to surface to the caller.
type ValidationError struct {
	Reason string
}

// NewValidationError is a constructor for ValidationError.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Error returns error description.
func (e *ValidationError) Error() string {
	return e.Reason
}

// Is implements comparator method for [errors] package.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// SigningError is the error type for cryptographic failures. It carries the
// technical cause for diagnostics and a separate message safe to show to
// the user.
type SigningError struct {
	UserMessage string
	Cause       error
}

// NewSigningError is a constructor for SigningError.
func NewSigningError(cause error, userMessage string) *SigningError {
	return &SigningError{UserMessage: userMessage, Cause: cause}
}

// Error returns error description.
func (e *SigningError) Error() string {
	if e.Cause == nil {
		return e.UserMessage
	}

	return fmt.Sprintf("%s: %v", e.UserMessage, e.Cause)
}

// Unwrap returns the technical cause.
func (e *SigningError) Unwrap() error {
	return e.Cause
}

// Is implements comparator method for [errors] package.
func (e *SigningError) Is(target error) bool {
	_, ok := target.(*SigningError)
	return ok
}
