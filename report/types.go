/*
Package report folds per-day classifications into the attendance reports.

PURPOSE:
  Every report in the system (monthly sheet, offer attendance, monthly
  absence, late arrivals, half days, short-leave usage, daily attendance,
  daily OT) is a reduction over the same per-day results produced by
  attendance.Classify. No report re-derives status or overtime on its own,
  and stored overtime figures are never trusted: hours are always
  recomputed from the raw punches.

FLOW:
  Source (employees, punches, leaves)
    -> Evaluator (calendar + policy + classifier, one DayResult per day)
      -> reducers (pure functions in this package)
        -> report rows

CONCURRENCY:
  Service evaluates employees in parallel (errgroup). Reducers are pure
  and share nothing.

SEE ALSO:
  - attendance/classifier.go: The one classifier
  - shortleave/ledger.go: Usage figures for the short-leave report
*/
package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// INPUTS
// =============================================================================

type Employee struct {
	ID         generic.EmployeeID
	Code       string
	Name       string
	Department string
	Group      attendance.Group
	Active     bool
}

// Punch is the raw attendance record of one employee-day.
type Punch struct {
	EmployeeID generic.EmployeeID
	Date       generic.TimePoint
	CheckIn    *time.Time
	CheckOut   *time.Time
}

// LeaveInterval is an approved leave, inclusive of both ends.
type LeaveInterval struct {
	ID         string
	EmployeeID generic.EmployeeID
	Start      generic.TimePoint
	End        generic.TimePoint
	Type       string
}

func (l LeaveInterval) Period() generic.Period { return generic.Period{Start: l.Start, End: l.End} }

// EmployeeFilter narrows which employees a report covers. Zero fields match all.
type EmployeeFilter struct {
	EmployeeID generic.EmployeeID
	Group      attendance.Group
	Department string
}

// Source supplies report inputs.
type Source interface {
	ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, error)
	Punches(ctx context.Context, employeeID generic.EmployeeID, period generic.Period) ([]Punch, error)
	Leaves(ctx context.Context, employeeID generic.EmployeeID, period generic.Period) ([]LeaveInterval, error)
}

// =============================================================================
// PER-DAY RESULTS
// =============================================================================

// DayResult is the evaluated state of one employee-day.
type DayResult struct {
	Date           generic.TimePoint
	Holiday        generic.HolidayInfo
	CheckIn        *time.Time
	CheckOut       *time.Time
	Classification attendance.DayClassificationResult
	OfferHours     decimal.Decimal
	MinutesLate    int
	OnLeave        bool
}

// EmployeeDays is every DayResult of one employee over a period.
type EmployeeDays struct {
	Employee Employee
	Policy   attendance.PolicyConfig
	Period   generic.Period
	Days     []DayResult
}
