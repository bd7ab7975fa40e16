/*
errors.go - Centralized error types for the attendance engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Configuration errors - Policy invariants violated at load time
  2. Allowance errors - Short-leave cap and window rejections
  3. Workflow errors - Request state machine violations
  4. Store errors - Missing records, duplicate writes

  Input anomalies (missing punches, checkout before checkin) are NOT errors.
  The classifier turns them into data.

USAGE:
  if errors.Is(err, generic.ErrShortLeaveCapExceeded) {
      var capErr *generic.CapExceededError
      errors.As(err, &capErr)
  }

SEE ALSO:
  - attendance/policy.go: Produces PolicyFieldError
  - shortleave/ledger.go: Produces CapExceededError
  - api/handlers.go: Maps errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateIdempotencyKey is returned when a transaction with the same
	// idempotency key already exists. This is expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrInvalidPolicy is returned when a policy config violates its invariants.
	ErrInvalidPolicy = errors.New("invalid policy configuration")

	// ErrPolicyNotFound is returned when no policy exists for a group.
	ErrPolicyNotFound = errors.New("policy not found")

	// ErrShortLeaveCapExceeded is returned when the monthly allowance is used up.
	ErrShortLeaveCapExceeded = errors.New("short leave monthly limit reached")

	// ErrWindowRejected is returned when a short leave falls outside its window.
	ErrWindowRejected = errors.New("short leave outside allowed window")

	// ErrRequestNotFound is returned when a short-leave request doesn't exist.
	ErrRequestNotFound = errors.New("request not found")

	// ErrRequestNotPending is returned on approve/reject of a decided request.
	ErrRequestNotPending = errors.New("request is not pending")

	// ErrRequestNotApproved is returned when cancelling a request that was never approved.
	ErrRequestNotApproved = errors.New("request is not approved")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrHolidayNotFound is returned when deleting an unknown holiday.
	ErrHolidayNotFound = errors.New("holiday not found")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// PolicyFieldError names the group, field and invariant of a bad policy.
type PolicyFieldError struct {
	Group      string
	Field      string
	Constraint string
}

func (e *PolicyFieldError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Group, e.Field, e.Constraint)
}

func (e *PolicyFieldError) Unwrap() error {
	return ErrInvalidPolicy
}

// CapExceededError provides details about an exhausted monthly allowance.
type CapExceededError struct {
	EmployeeID EmployeeID
	Year       int
	Month      time.Month
	Used       int
	Max        int
}

func (e *CapExceededError) Error() string {
	return fmt.Sprintf("short leave monthly limit reached for %s in %s %d: used %d of %d",
		e.EmployeeID, e.Month, e.Year, e.Used, e.Max)
}

func (e *CapExceededError) Unwrap() error {
	return ErrShortLeaveCapExceeded
}

// WindowError carries the human-readable rejection reason.
type WindowError struct {
	Reason string
}

func (e *WindowError) Error() string {
	return e.Reason
}

func (e *WindowError) Unwrap() error {
	return ErrWindowRejected
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPolicy) ||
		errors.Is(err, ErrWindowRejected) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsConflict returns true if the error reflects current state rather than input.
func IsConflict(err error) bool {
	return errors.Is(err, ErrShortLeaveCapExceeded) ||
		errors.Is(err, ErrRequestNotPending) ||
		errors.Is(err, ErrRequestNotApproved) ||
		errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPolicyNotFound) ||
		errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrHolidayNotFound)
}
