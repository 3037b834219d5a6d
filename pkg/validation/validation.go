// Package validation defines the structured error type returned for
// malformed inputs across the SDK.
//
// The error model distinguishes two disjoint categories:
//
//  1. Malformed input (wrong byte lengths, bad hex, invalid addresses,
//     unsupported witness versions, out-of-range labels, ...) is always
//     reported as a *validation.Error carrying the offending field name.
//  2. Cryptographic non-matches (a signature that does not verify, a scan
//     that finds nothing) are ordinary return values, never errors.
//
// Callers building services on top of this SDK should surface a
// *validation.Error as a 4xx-equivalent.
package validation

import (
	"errors"
	"fmt"
)

// Error reports a malformed input. Field names the offending parameter as
// the caller passed it; Reason is a human-readable description.
type Error struct {
	Field  string // Offending parameter (e.g., "privateKey", "address")
	Reason string // Human-readable description of the violation
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Errorf constructs a validation error for the given field.
func Errorf(field, format string, args ...interface{}) *Error {
	return &Error{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err (or anything it wraps) is a
// validation error.
func IsValidationError(err error) bool {
	var verr *Error
	return errors.As(err, &verr)
}
