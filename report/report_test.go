package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/report"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var (
	empA = report.Employee{ID: "emp-a", Name: "Amal", Group: attendance.GroupA, Active: true}
	empB = report.Employee{ID: "emp-b", Name: "Bimal", Group: attendance.GroupB, Active: true}
)

func day(d int) generic.TimePoint { return generic.NewTimePoint(2025, time.March, d) }

func at(d, hour, minute int) *time.Time {
	t := time.Date(2025, time.March, d, hour, minute, 0, 0, time.UTC)
	return &t
}

func punch(emp report.Employee, d, inH, inM, outH, outM int) report.Punch {
	return report.Punch{EmployeeID: emp.ID, Date: day(d), CheckIn: at(d, inH, inM), CheckOut: at(d, outH, outM)}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

// holidays: Thursday 13 March is a mercantile holiday, 15 March is a
// Saturday that is also a special holiday.
func newEvaluator() *report.Evaluator {
	return &report.Evaluator{
		Policies: attendance.StaticPolicies(attendance.DefaultPolicySet()),
		Calendar: generic.StaticCalendar{Holidays: []generic.Holiday{
			{ID: "h1", Date: day(13), Name: "Poya", Kind: generic.HolidayMercantile},
			{ID: "h2", Date: day(15), Name: "Special", Kind: generic.HolidaySpecial},
		}},
		Classifier: attendance.NewClassifier(nil),
	}
}

func evaluate(t *testing.T, emp report.Employee, punches []report.Punch, leaves []report.LeaveInterval) report.EmployeeDays {
	t.Helper()
	ed, err := newEvaluator().Evaluate(context.Background(), emp, generic.MonthPeriod(2025, time.March), punches, leaves)
	require.NoError(t, err)
	require.Len(t, ed.Days, 31)
	return ed
}

// =============================================================================
// EVALUATOR
// =============================================================================

func TestEvaluator_OneResultPerDay(t *testing.T) {
	ed := evaluate(t, empA, []report.Punch{punch(empA, 4, 9, 20, 17, 0)}, nil)

	d := ed.Days[3]
	assert.Equal(t, "2025-03-04", d.Date.String())
	assert.Equal(t, attendance.StatusLate, d.Classification.Status)
	assert.Equal(t, 20, d.MinutesLate)
	assertDecimal(t, "0.75", d.OfferHours)

	// Unpunched weekday
	assert.Equal(t, attendance.StatusAbsent, ed.Days[4].Classification.Status)
	assert.Equal(t, 0, ed.Days[4].MinutesLate)
	assert.Equal(t, attendance.GroupA, ed.Policy.Group)
}

func TestEvaluator_UnknownGroup(t *testing.T) {
	emp := report.Employee{ID: "emp-x", Group: "group_x"}
	_, err := newEvaluator().Evaluate(context.Background(), emp, generic.DayPeriod(day(4)), nil, nil)
	assert.ErrorIs(t, err, generic.ErrPolicyNotFound)
}

type usedOnFourth struct{}

func (usedOnFourth) UsedOn(_ context.Context, _ generic.EmployeeID, date generic.TimePoint) (bool, error) {
	return date.Equal(day(4)), nil
}

func TestEvaluator_ShortLeaveTurnsHalfDayIntoPresent(t *testing.T) {
	ev := newEvaluator()
	ev.Classifier = attendance.NewClassifier(usedOnFourth{})

	punches := []report.Punch{punch(empA, 4, 10, 30, 17, 0), punch(empA, 5, 10, 30, 17, 0)}
	ed, err := ev.Evaluate(context.Background(), empA, generic.MonthPeriod(2025, time.March), punches, nil)
	require.NoError(t, err)

	assert.Equal(t, attendance.StatusPresent, ed.Days[3].Classification.Status)
	assert.True(t, ed.Days[3].Classification.IsShortLeaveApplicable)
	assert.Equal(t, attendance.StatusHalfDay, ed.Days[4].Classification.Status)
}

// =============================================================================
// MONTHLY SHEET
// =============================================================================

func TestReduceMonthlySheet(t *testing.T) {
	punches := []report.Punch{
		punch(empA, 4, 8, 30, 17, 45), // 9.25h, 1.5 OT
		punch(empA, 8, 9, 0, 13, 0),   // Saturday, 4h full OT
		punch(empA, 13, 8, 30, 12, 0), // holiday, 3.5h full OT
	}
	leaves := []report.LeaveInterval{{ID: "l1", EmployeeID: empA.ID, Start: day(10), End: day(11)}}
	row := report.ReduceMonthlySheet(evaluate(t, empA, punches, leaves))

	require.Len(t, row.Days, 31)
	assert.Equal(t, report.LetterPresent, row.Days[3].Letter)
	assert.Equal(t, "08:30", row.Days[3].InTime)
	assert.Equal(t, "17:45", row.Days[3].OutTime)
	assert.Equal(t, "9:15", row.Days[3].Worked)
	assertDecimal(t, "1.5", row.Days[3].Overtime)

	assert.Equal(t, report.LetterPresent, row.Days[7].Letter, "worked weekend shows P")
	assert.Equal(t, report.LetterPresent, row.Days[12].Letter, "worked holiday shows P")
	assert.Equal(t, report.LetterHoliday, row.Days[8].Letter, "unworked Sunday shows HL")
	assert.Equal(t, report.LetterHoliday, row.Days[14].Letter, "unworked Saturday holiday shows HL")

	assert.Equal(t, report.LetterAbsent, row.Days[9].Letter, "leave shows A")
	assert.True(t, row.Days[9].OnLeave)
	assert.Equal(t, report.LetterAbsent, row.Days[2].Letter)

	assertDecimal(t, "16.75", row.TotalHours)
	assertDecimal(t, "9", row.TotalOvertime)
	assert.Equal(t, 3, row.PresentDays)
}

func TestHoursClock(t *testing.T) {
	assert.Equal(t, "7:45", report.HoursClock(decimal.RequireFromString("7.75")))
	assert.Equal(t, "0:00", report.HoursClock(decimal.Zero))
	assert.Equal(t, "0:00", report.HoursClock(decimal.RequireFromString("-1")))
	assert.Equal(t, "1:59", report.HoursClock(decimal.RequireFromString("1.999")))
}

// =============================================================================
// OFFER ATTENDANCE
// =============================================================================

func TestReduceOfferAttendance(t *testing.T) {
	punches := []report.Punch{
		punch(empB, 4, 8, 0, 17, 0),  // Tuesday, 0.25 after 16:45
		punch(empB, 5, 8, 0, 16, 30), // before offer start, 0
		punch(empB, 13, 8, 0, 12, 0), // holiday, 4 full
		punch(empB, 15, 9, 0, 11, 0), // Saturday holiday, 2 to Saturday
	}
	row := report.ReduceOfferAttendance(evaluate(t, empB, punches, nil))

	assertDecimal(t, "6.25", row.TotalOfferHours)
	assert.Equal(t, 3, row.WorkingDays)
	assertDecimal(t, "2", row.SaturdayHours)
	assertDecimal(t, "4", row.HolidayHours)
	assertDecimal(t, "2.08", row.AveragePerDay)
	assertDecimal(t, "0.25", row.Weekly[time.Tuesday])
	assertDecimal(t, "4", row.Weekly[time.Thursday])
	assertDecimal(t, "0", row.Weekly[time.Sunday])
}

func TestReduceOfferAttendance_NoWork(t *testing.T) {
	row := report.ReduceOfferAttendance(evaluate(t, empB, nil, nil))
	assert.True(t, row.TotalOfferHours.IsZero())
	assert.True(t, row.AveragePerDay.IsZero())
	assert.Equal(t, 0, row.WorkingDays)
}

// =============================================================================
// ABSENCE
// =============================================================================

func TestReduceAbsence(t *testing.T) {
	punches := []report.Punch{
		punch(empA, 3, 8, 30, 16, 15),
		punch(empA, 4, 8, 30, 16, 15),
		punch(empA, 8, 8, 30, 12, 0), // Saturday work is not counted
	}
	leaves := []report.LeaveInterval{{ID: "l1", EmployeeID: empA.ID, Start: day(4), End: day(7)}}
	row := report.ReduceAbsence(evaluate(t, empA, punches, leaves))

	assert.Equal(t, 21, row.WorkingDays)
	assert.Equal(t, 2, row.PresentDays)
	assert.Equal(t, 4, row.LeaveDays, "the 4th counts as leave even with a check-in")
	assert.Equal(t, 15, row.AbsentDays)
	assert.Equal(t, 29, row.AttendancePercentage)
}

func TestReduceAbsence_PresentOnLeaveDaysIsCapped(t *testing.T) {
	// GIVEN: Every weekday worked, and approved leave on Monday and Tuesday
	var punches []report.Punch
	for _, d := range generic.MonthPeriod(2025, time.March).Days() {
		if !d.IsWeekend() {
			punches = append(punches, punch(empA, d.Day(), 8, 30, 16, 15))
		}
	}
	leaves := []report.LeaveInterval{{ID: "l1", EmployeeID: empA.ID, Start: day(3), End: day(4)}}

	// WHEN: Reducing the month
	row := report.ReduceAbsence(evaluate(t, empA, punches, leaves))

	// THEN: Both counts keep the overlap; absent floors at zero, percentage caps at 100
	assert.Equal(t, 21, row.PresentDays)
	assert.Equal(t, 2, row.LeaveDays)
	assert.Equal(t, 0, row.AbsentDays)
	assert.Equal(t, 100, row.AttendancePercentage)
}

func TestReduceAbsence_PercentageBounded(t *testing.T) {
	var punches []report.Punch
	for _, d := range generic.MonthPeriod(2025, time.March).Days() {
		punches = append(punches, punch(empA, d.Day(), 8, 30, 16, 15))
	}
	row := report.ReduceAbsence(evaluate(t, empA, punches, nil))

	assert.Equal(t, 21, row.PresentDays)
	assert.Equal(t, 0, row.AbsentDays)
	assert.Equal(t, 100, row.AttendancePercentage)
}

func TestAbsenteesOnly(t *testing.T) {
	rows := []report.AbsenceRow{
		{Employee: report.Employee{ID: "a"}, AbsentDays: 2},
		{Employee: report.Employee{ID: "b"}, AbsentDays: 0},
		{Employee: report.Employee{ID: "c"}, AbsentDays: 5},
		{Employee: report.Employee{ID: "d"}, AbsentDays: 2},
	}
	got := report.AbsenteesOnly(rows)

	require.Len(t, got, 3)
	assert.Equal(t, generic.EmployeeID("c"), got[0].Employee.ID)
	assert.Equal(t, generic.EmployeeID("a"), got[1].Employee.ID)
	assert.Equal(t, generic.EmployeeID("d"), got[2].Employee.ID)
}

// =============================================================================
// LATE / HALF DAY / DAILY
// =============================================================================

func TestFilterLateArrivalsAndHalfDays(t *testing.T) {
	punches := []report.Punch{
		punch(empB, 3, 8, 10, 16, 45), // present, inside grace
		punch(empB, 4, 8, 40, 16, 45), // late 25 minutes
		punch(empB, 5, 10, 0, 16, 45), // half day
		punch(empB, 6, 15, 30, 17, 0), // too late, absent
	}
	ed := evaluate(t, empB, punches, nil)

	late := report.FilterLateArrivals(ed)
	require.Len(t, late, 2)
	assert.Equal(t, 25, late[0].MinutesLate)
	assert.Equal(t, "08:40", late[0].CheckIn)
	assert.Equal(t, attendance.StatusHalfDay, late[1].Status)
	assert.Equal(t, 105, late[1].MinutesLate)

	halves := report.FilterHalfDays(ed)
	require.Len(t, halves, 1)
	assert.Equal(t, "Arrival after 09:30 - marked as half day", halves[0].Reason)
	assertDecimal(t, "6.75", halves[0].WorkingHours)
}

func TestDailyAttendanceAndOvertime(t *testing.T) {
	ed := evaluate(t, empA, []report.Punch{punch(empA, 6, 8, 30, 18, 0)}, nil)

	row := report.DailyAttendance(ed, ed.Days[5], true)
	assert.Equal(t, attendance.StatusPresent, row.Status)
	assert.True(t, row.OnShortLeave)
	assert.False(t, row.IsLate)
	assertDecimal(t, "1.75", row.OvertimeHours)

	ot := report.FilterOvertime(ed)
	require.Len(t, ot, 1)
	assert.Equal(t, "2025-03-06", ot[0].Date.String())
	assertDecimal(t, "9.5", ot[0].WorkingHours)
	assertDecimal(t, "1.75", ot[0].OfferHours)
}
