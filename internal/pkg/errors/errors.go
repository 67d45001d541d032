package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrValidation is a generic sentinel for caller-supplied data that
	// violates a business rule. Never silently corrected.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidSignature means a webhook authenticity check failed.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrConflict means an idempotency or uniqueness constraint fired.
	// Callers retry at the transaction boundary instead of surfacing it.
	ErrConflict = errors.New("conflict")
	// ErrDegradedDependency means a non-critical dependency failed and a
	// minimal fallback result was produced instead.
	ErrDegradedDependency = errors.New("degraded dependency")
)
