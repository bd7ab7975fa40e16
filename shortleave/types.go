/*
Package shortleave tracks the monthly short-leave allowance.

PURPOSE:
  A short leave lets an employee arrive late or leave early inside a
  policy window without the day becoming a half day. Each group gets a
  fixed number per calendar month.

KEY CONCEPTS:
  - Ledger: monthly usage on top of the append-only generic ledger,
    serialized per (employee, year, month)
  - ValidateWindow: the requested times must sit inside the group window
  - RequestService: pending -> approved | rejected, approved -> cancelled

ACCRUAL RULE:
  Usage is written when a request is approved, dated on the short-leave
  day (not the approval day). Pending and rejected requests never count.

SEE ALSO:
  - generic/ledger.go: Underlying append-only log
  - attendance/classifier.go: Consumes UsedOn via ShortLeaveLookup
*/
package shortleave

import (
	"fmt"
	"strings"
	"time"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// Resource is the ledger resource name for short leaves.
const Resource = "short_leave"

// =============================================================================
// TYPE
// =============================================================================

type Type string

const (
	TypeMorning Type = "morning"
	TypeEvening Type = "evening"
)

func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeMorning:
		return TypeMorning, nil
	case TypeEvening:
		return TypeEvening, nil
	}
	return "", fmt.Errorf("unknown short leave type %q", s)
}

// =============================================================================
// REQUEST
// =============================================================================

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
)

// Request is one short-leave application.
type Request struct {
	ID              string
	EmployeeID      generic.EmployeeID
	Group           attendance.Group
	Date            generic.TimePoint
	Type            Type
	StartTime       generic.ClockTime
	EndTime         generic.ClockTime
	Reason          string
	Status          RequestStatus
	DecidedBy       string
	DecidedAt       *time.Time
	RejectionReason string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RequestFilter narrows ListRequests. Zero fields match everything.
type RequestFilter struct {
	EmployeeID generic.EmployeeID
	Status     RequestStatus
	From       *generic.TimePoint
	To         *generic.TimePoint
}

// =============================================================================
// USAGE
// =============================================================================

// MonthlyUsage is the allowance state of one employee-month.
type MonthlyUsage struct {
	EmployeeID generic.EmployeeID
	Year       int
	Month      time.Month
	TotalUsed  int
	Max        int
	Remaining  int
	LastUsed   *generic.TimePoint
}

// Eligibility is the answer to "may this employee take another one?".
type Eligibility struct {
	Allowed   bool
	Remaining int
}
