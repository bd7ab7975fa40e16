package report

import (
	"context"
	"fmt"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// Evaluator turns raw punches into DayResults.
type Evaluator struct {
	Policies   attendance.PolicyProvider
	Calendar   generic.HolidayCalendar
	Classifier *attendance.Classifier
}

// Evaluate produces one DayResult per day of period. Days without a punch
// are classified with no check-in, so they come out absent.
func (e *Evaluator) Evaluate(ctx context.Context, emp Employee, period generic.Period, punches []Punch, leaves []LeaveInterval) (EmployeeDays, error) {
	set, err := e.Policies.Policies(ctx)
	if err != nil {
		return EmployeeDays{}, err
	}
	policy, err := set.For(emp.Group)
	if err != nil {
		return EmployeeDays{}, fmt.Errorf("employee %s: %w", emp.ID, err)
	}

	byDay := make(map[string]Punch, len(punches))
	for _, p := range punches {
		byDay[p.Date.String()] = p
	}

	days := period.Days()
	out := EmployeeDays{Employee: emp, Policy: policy, Period: period, Days: make([]DayResult, 0, len(days))}
	for _, day := range days {
		holiday, err := e.Calendar.HolidayInfo(ctx, day)
		if err != nil {
			return EmployeeDays{}, fmt.Errorf("holiday lookup %s: %w", day, err)
		}

		punch := byDay[day.String()]
		input := attendance.DayAttendanceInput{
			EmployeeID: emp.ID,
			Date:       day,
			CheckIn:    punch.CheckIn,
			CheckOut:   punch.CheckOut,
			Group:      emp.Group,
		}
		classification, err := e.Classifier.Evaluate(ctx, input, policy, holiday)
		if err != nil {
			return EmployeeDays{}, err
		}

		result := DayResult{
			Date:           day,
			Holiday:        holiday,
			CheckIn:        punch.CheckIn,
			CheckOut:       punch.CheckOut,
			Classification: classification,
			OfferHours:     attendance.OfferHours(punch.CheckIn, punch.CheckOut, policy, holiday),
			OnLeave:        onLeave(day, leaves),
		}
		if classification.Status == attendance.StatusLate || classification.Status == attendance.StatusHalfDay {
			result.MinutesLate = attendance.MinutesLate(*punch.CheckIn, policy)
		}
		out.Days = append(out.Days, result)
	}
	return out, nil
}

func onLeave(day generic.TimePoint, leaves []LeaveInterval) bool {
	for _, l := range leaves {
		if l.Period().Contains(day) {
			return true
		}
	}
	return false
}
