/*
Package attendance implements the policy evaluation core.

PURPOSE:
  Turns a raw check-in / check-out pair into a classified attendance day:
  status, worked hours, overtime, short-leave eligibility and notes. The
  same classifier feeds every report, so a day is never classified two
  different ways by two different screens.

KEY CONCEPTS:
  - Group: which policy regime an employee works under (A or B)
  - PolicyConfig: the thresholds of one regime (policy.go)
  - Classify: pure function from input + policy + holiday to result (classifier.go)
  - OfferHours: the separate "quarter offer" overtime figure (offer.go)

PURITY:
  Nothing in this package performs I/O. The only collaborator is the
  optional ShortLeaveLookup used by Classifier.Evaluate, and it is injected.

SEE ALSO:
  - factory/policy.go: JSON <-> PolicySet
  - report/: Folds per-day results into reports
  - shortleave/: Monthly short-leave allowance
*/
package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// GROUP
// =============================================================================

type Group string

const (
	GroupA Group = "group_a"
	GroupB Group = "group_b"
)

// Groups lists every group in display order.
var Groups = []Group{GroupA, GroupB}

// ParseGroup accepts "group_a", "A", "Group A" and the like.
func ParseGroup(s string) (Group, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	switch normalized {
	case "group_a", "a":
		return GroupA, nil
	case "group_b", "b":
		return GroupB, nil
	}
	return "", fmt.Errorf("unknown group %q", s)
}

// Label returns "Group A" / "Group B".
func (g Group) Label() string {
	switch g {
	case GroupA:
		return "Group A"
	case GroupB:
		return "Group B"
	}
	return string(g)
}

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusPresent        Status = "present"
	StatusLate           Status = "late"
	StatusHalfDay        Status = "half_day"
	StatusAbsent         Status = "absent"
	StatusEarlyDeparture Status = "early_departure" // reserved; the ladder never produces it
)

// Penalty labels
const (
	PenaltyLate    = "Late arrival"
	PenaltyHalfDay = "Half day"
)

// =============================================================================
// INPUT / RESULT
// =============================================================================

// DayAttendanceInput is one employee-day of raw punches.
type DayAttendanceInput struct {
	EmployeeID            generic.EmployeeID
	Date                  generic.TimePoint
	CheckIn               *time.Time
	CheckOut              *time.Time
	Group                 Group
	ShortLeaveUsedThisDay bool
}

// DayClassificationResult is the single source of truth for a day.
type DayClassificationResult struct {
	Status                 Status
	WorkingHours           decimal.Decimal
	OvertimeHours          decimal.Decimal
	IsShortLeaveApplicable bool
	LateArrivalPenalty     *string
	Notes                  []string
}

// Worked reports whether the day counts as attended for sheet purposes.
func (r DayClassificationResult) Worked() bool {
	return r.Status != StatusAbsent
}

func penalty(s string) *string { return &s }
