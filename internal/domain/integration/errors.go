package integration

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Sync Errors
// ---------------------------------------------------------------------------

var (
	// Identity repository errors
	ErrIdentityStoreUnavailable = errors.New("sync: identity store unavailable")
	ErrIdentityNotFound         = errors.New("sync: identity record not found")
	ErrInvalidFamily            = errors.New("sync: invalid entity family")

	// Gateway errors
	ErrGatewayUnavailable = errors.New("sync: gateway temporarily unavailable")
	ErrGatewayRejected    = errors.New("sync: gateway rejected payload")
	ErrPageLimitExceeded  = errors.New("sync: page limit exceeded")

	// Reference resolution errors (strict policy)
	ErrUnresolvedReference = errors.New("sync: unresolved entity reference")

	// Order sync errors
	ErrOrderNotFound = errors.New("sync: remote order not found")
)

// ValidationError is the aggregate failure raised once per entity family
// after the whole batch has been scanned. Individual violations are logged,
// not returned.
type ValidationError struct {
	Family EntityFamily
	Count  int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s has errors", e.Family.DisplayName())
}

// NewValidationError creates a validation error for the given family.
func NewValidationError(family EntityFamily, count int) *ValidationError {
	return &ValidationError{Family: family, Count: count}
}

// RejectionError carries the endpoint and response body of a payload the
// target system refused. It is never retried.
type RejectionError struct {
	Endpoint string
	Status   int
	Body     string
}

// Error implements the error interface.
func (e *RejectionError) Error() string {
	return fmt.Sprintf("%v: %s returned %d: %s", ErrGatewayRejected, e.Endpoint, e.Status, e.Body)
}

// Unwrap allows errors.Is(err, ErrGatewayRejected) checks.
func (e *RejectionError) Unwrap() error {
	return ErrGatewayRejected
}

// UnresolvedReferenceError reports an order line whose product reference has
// no identity record. Writing such a line would corrupt the counterpart
// system, so the owning order's sync is aborted.
type UnresolvedReferenceError struct {
	Family  EntityFamily
	LocalID string
}

// Error implements the error interface.
func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("%v: %s %q", ErrUnresolvedReference, e.Family, e.LocalID)
}

// Unwrap allows errors.Is(err, ErrUnresolvedReference) checks.
func (e *UnresolvedReferenceError) Unwrap() error {
	return ErrUnresolvedReference
}
