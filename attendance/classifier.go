package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
)

// Notes attached to results. Reports search for some of these verbatim.
const (
	NoteNoCheckIn         = "No check-in recorded"
	NoteWeekendWork       = "Weekend work - full OT"
	NoteHolidayWork       = "Holiday work - full OT"
	NoteIncompleteOffDay  = "Check-in without check-out on a non-working day"
	NoteLate              = "Arrived after grace period"
	NoteHalfDayShortLeave = "Half day covered by short leave"
	NoteTooLate           = "Arrival too late - marked absent"
)

// Classify evaluates one employee-day against policy. It never fails:
// anomalies such as a missing check-in become data in the result.
func Classify(input DayAttendanceInput, policy PolicyConfig, holiday generic.HolidayInfo) DayClassificationResult {
	result := DayClassificationResult{
		Status:        StatusAbsent,
		WorkingHours:  decimal.Zero,
		OvertimeHours: decimal.Zero,
	}

	if input.CheckIn == nil {
		result.Notes = append(result.Notes, NoteNoCheckIn)
		return result
	}

	checkIn := *input.CheckIn
	if input.CheckOut != nil {
		result.WorkingHours = generic.HoursBetween(checkIn, *input.CheckOut)
	}

	if holiday.NonWorking() {
		if input.CheckOut == nil {
			result.Notes = append(result.Notes, NoteIncompleteOffDay)
			return result
		}
		result.Status = StatusPresent
		result.OvertimeHours = result.WorkingHours
		if holiday.IsWeekend {
			result.Notes = append(result.Notes, NoteWeekendWork)
		} else {
			result.Notes = append(result.Notes, NoteHolidayWork)
		}
		return result
	}

	arrival := generic.ClockOf(checkIn)
	switch {
	case arrival <= policy.GraceUntil:
		result.Status = StatusPresent

	case arrival <= policy.HalfDayAfter:
		result.Status = StatusLate
		result.LateArrivalPenalty = penalty(PenaltyLate)
		result.Notes = append(result.Notes, NoteLate)

	case arrival < policy.HalfDayBefore:
		if input.ShortLeaveUsedThisDay {
			result.Status = StatusPresent
			result.IsShortLeaveApplicable = true
			result.Notes = append(result.Notes, NoteHalfDayShortLeave)
		} else {
			result.Status = StatusHalfDay
			result.LateArrivalPenalty = penalty(PenaltyHalfDay)
			result.Notes = append(result.Notes,
				fmt.Sprintf("Arrival after %s - marked as half day", policy.HalfDayAfter))
		}

	default:
		result.Status = StatusAbsent
		result.Notes = append(result.Notes, NoteTooLate)
	}

	if inShortLeaveWindow(checkIn, input.CheckOut, policy) {
		result.IsShortLeaveApplicable = true
	}

	if result.Status != StatusHalfDay {
		overtime := generic.ClampZero(result.WorkingHours.Sub(policy.RequiredHours))
		if overtime.IsPositive() {
			result.OvertimeHours = overtime
			result.Notes = append(result.Notes,
				fmt.Sprintf("Overtime: %s hours beyond %s hours", overtime.StringFixed(2), policy.RequiredHours))
		}
	}

	return result
}

func inShortLeaveWindow(checkIn time.Time, checkOut *time.Time, policy PolicyConfig) bool {
	if policy.ShortLeaveWindows.Morning.Contains(generic.ClockOf(checkIn)) {
		return true
	}
	return checkOut != nil && policy.ShortLeaveWindows.Evening.Contains(generic.ClockOf(*checkOut))
}

// InHalfDayBand reports whether checkIn lands where a short leave would
// change the outcome.
func InHalfDayBand(checkIn time.Time, policy PolicyConfig) bool {
	arrival := generic.ClockOf(checkIn)
	return arrival > policy.HalfDayAfter && arrival < policy.HalfDayBefore
}

// MinutesLate is the whole minutes between GraceUntil and checkIn on the
// check-in day, never negative.
func MinutesLate(checkIn time.Time, policy PolicyConfig) int {
	grace := generic.DateOf(checkIn).At(policy.GraceUntil, checkIn.Location())
	if !checkIn.After(grace) {
		return 0
	}
	return int(checkIn.Sub(grace) / time.Minute)
}

// =============================================================================
// CLASSIFIER - Classify with a short-leave lookup
// =============================================================================

// ShortLeaveLookup answers whether an approved short leave covers a day.
type ShortLeaveLookup interface {
	UsedOn(ctx context.Context, employeeID generic.EmployeeID, date generic.TimePoint) (bool, error)
}

// Classifier wraps Classify with an optional ShortLeaveLookup.
type Classifier struct {
	ShortLeave ShortLeaveLookup
}

func NewClassifier(lookup ShortLeaveLookup) *Classifier {
	return &Classifier{ShortLeave: lookup}
}

// Evaluate classifies input, first asking the lookup whether a short leave
// covers the day when the answer could change the status.
func (c *Classifier) Evaluate(ctx context.Context, input DayAttendanceInput, policy PolicyConfig, holiday generic.HolidayInfo) (DayClassificationResult, error) {
	if c != nil && c.ShortLeave != nil && !input.ShortLeaveUsedThisDay &&
		input.CheckIn != nil && !holiday.NonWorking() && InHalfDayBand(*input.CheckIn, policy) {
		used, err := c.ShortLeave.UsedOn(ctx, input.EmployeeID, input.Date)
		if err != nil {
			return DayClassificationResult{}, fmt.Errorf("short leave lookup for %s on %s: %w", input.EmployeeID, input.Date, err)
		}
		input.ShortLeaveUsedThisDay = used
	}
	return Classify(input, policy, holiday), nil
}
