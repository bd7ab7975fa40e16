package attendance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// 2025-03-04 is a Tuesday, 2025-03-08 a Saturday.
var (
	tuesday  = generic.NewTimePoint(2025, time.March, 4)
	saturday = generic.NewTimePoint(2025, time.March, 8)
	weekday  = generic.HolidayInfo{}
)

func at(day generic.TimePoint, hour, minute int) *time.Time {
	t := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
	return &t
}

func input(day generic.TimePoint, in, out *time.Time, group attendance.Group) attendance.DayAttendanceInput {
	return attendance.DayAttendanceInput{
		EmployeeID: "emp-1",
		Date:       day,
		CheckIn:    in,
		CheckOut:   out,
		Group:      group,
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

// =============================================================================
// CLASSIFY - Worked examples
// =============================================================================

func TestClassify_GroupA_OnTimeWithOvertime(t *testing.T) {
	// GIVEN: Group A employee in at 08:45, out at 17:00 on a Tuesday
	// WHEN: Classified
	// THEN: Present, 8.25 hours worked, 0.5 hours overtime

	res := attendance.Classify(input(tuesday, at(tuesday, 8, 45), at(tuesday, 17, 0), attendance.GroupA),
		attendance.DefaultGroupA(), weekday)

	assert.Equal(t, attendance.StatusPresent, res.Status)
	assertDecimal(t, "8.25", res.WorkingHours)
	assertDecimal(t, "0.5", res.OvertimeHours)
	assert.Nil(t, res.LateArrivalPenalty)
	assert.Contains(t, res.Notes, "Overtime: 0.50 hours beyond 7.75 hours")
}

func TestClassify_GroupA_LateBand(t *testing.T) {
	// GIVEN: Group A check-in at 09:30
	// THEN: Late, with penalty
	res := attendance.Classify(input(tuesday, at(tuesday, 9, 30), at(tuesday, 16, 30), attendance.GroupA),
		attendance.DefaultGroupA(), weekday)

	assert.Equal(t, attendance.StatusLate, res.Status)
	require.NotNil(t, res.LateArrivalPenalty)
	assert.Equal(t, attendance.PenaltyLate, *res.LateArrivalPenalty)
	assert.Contains(t, res.Notes, attendance.NoteLate)
}

func TestClassify_GroupA_HalfDayWithoutShortLeave(t *testing.T) {
	// GIVEN: Group A check-in at 11:00, no short leave
	// THEN: Half day, and no overtime is ever computed for half days
	res := attendance.Classify(input(tuesday, at(tuesday, 11, 0), at(tuesday, 20, 0), attendance.GroupA),
		attendance.DefaultGroupA(), weekday)

	assert.Equal(t, attendance.StatusHalfDay, res.Status)
	require.NotNil(t, res.LateArrivalPenalty)
	assert.Equal(t, attendance.PenaltyHalfDay, *res.LateArrivalPenalty)
	assert.True(t, res.OvertimeHours.IsZero())
	assert.Contains(t, res.Notes, "Arrival after 10:00 - marked as half day")
}

func TestClassify_GroupA_HalfDayCoveredByShortLeave(t *testing.T) {
	// GIVEN: Same 11:00 arrival but a short leave was used that day
	// THEN: Present, short leave applicable
	in := input(tuesday, at(tuesday, 11, 0), at(tuesday, 17, 0), attendance.GroupA)
	in.ShortLeaveUsedThisDay = true

	res := attendance.Classify(in, attendance.DefaultGroupA(), weekday)

	assert.Equal(t, attendance.StatusPresent, res.Status)
	assert.True(t, res.IsShortLeaveApplicable)
	assert.Nil(t, res.LateArrivalPenalty)
	assert.Contains(t, res.Notes, attendance.NoteHalfDayShortLeave)
	assert.True(t, res.OvertimeHours.IsZero())
}

func TestClassify_WeekendWork_FullOvertime(t *testing.T) {
	// GIVEN: Saturday 09:00-13:00
	// THEN: Every worked hour is overtime
	res := attendance.Classify(input(saturday, at(saturday, 9, 0), at(saturday, 13, 0), attendance.GroupA),
		attendance.DefaultGroupA(), generic.HolidayInfo{IsWeekend: true})

	assert.Equal(t, attendance.StatusPresent, res.Status)
	assertDecimal(t, "4", res.WorkingHours)
	assertDecimal(t, "4", res.OvertimeHours)
	assert.Equal(t, []string{attendance.NoteWeekendWork}, res.Notes)
}

func TestClassify_HolidayWork_FullOvertime(t *testing.T) {
	res := attendance.Classify(input(tuesday, at(tuesday, 10, 0), at(tuesday, 12, 30), attendance.GroupB),
		attendance.DefaultGroupB(), generic.HolidayInfo{IsHoliday: true, IsMercantileHoliday: true})

	assert.Equal(t, attendance.StatusPresent, res.Status)
	assertDecimal(t, "2.5", res.OvertimeHours)
	assert.Equal(t, []string{attendance.NoteHolidayWork}, res.Notes)
}

func TestClassify_WeekendWithoutCheckOut_Absent(t *testing.T) {
	res := attendance.Classify(input(saturday, at(saturday, 9, 0), nil, attendance.GroupA),
		attendance.DefaultGroupA(), generic.HolidayInfo{IsWeekend: true})

	assert.Equal(t, attendance.StatusAbsent, res.Status)
	assert.True(t, res.OvertimeHours.IsZero())
}

func TestClassify_NoCheckIn_Absent(t *testing.T) {
	res := attendance.Classify(input(tuesday, nil, nil, attendance.GroupA), attendance.DefaultGroupA(), weekday)

	assert.Equal(t, attendance.StatusAbsent, res.Status)
	assert.True(t, res.WorkingHours.IsZero())
	assert.True(t, res.OvertimeHours.IsZero())
	assert.Equal(t, []string{attendance.NoteNoCheckIn}, res.Notes)
}

// =============================================================================
// CLASSIFY - Boundaries
// =============================================================================

func TestClassify_LadderBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		policy attendance.PolicyConfig
		hour   int
		minute int
		want   attendance.Status
	}{
		{"A at grace", attendance.DefaultGroupA(), 9, 0, attendance.StatusPresent},
		{"A one minute past grace", attendance.DefaultGroupA(), 9, 1, attendance.StatusLate},
		{"A at half_day_after", attendance.DefaultGroupA(), 10, 0, attendance.StatusLate},
		{"A past half_day_after", attendance.DefaultGroupA(), 10, 1, attendance.StatusHalfDay},
		{"A one minute before half_day_before", attendance.DefaultGroupA(), 14, 44, attendance.StatusHalfDay},
		{"A at half_day_before", attendance.DefaultGroupA(), 14, 45, attendance.StatusAbsent},
		{"B at grace", attendance.DefaultGroupB(), 8, 15, attendance.StatusPresent},
		{"B past grace", attendance.DefaultGroupB(), 8, 16, attendance.StatusLate},
		{"B at half_day_after", attendance.DefaultGroupB(), 9, 30, attendance.StatusLate},
		{"B past half_day_after", attendance.DefaultGroupB(), 9, 31, attendance.StatusHalfDay},
		{"B at half_day_before", attendance.DefaultGroupB(), 15, 15, attendance.StatusAbsent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input(tuesday, at(tuesday, tt.hour, tt.minute), at(tuesday, 18, 0), tt.policy.Group)
			res := attendance.Classify(in, tt.policy, weekday)
			assert.Equal(t, tt.want, res.Status)
		})
	}
}

func TestClassify_SecondsAreTruncated(t *testing.T) {
	// GIVEN: Check-in at 09:00:45
	// THEN: Compared as 09:00, so still within grace
	checkIn := time.Date(2025, time.March, 4, 9, 0, 45, 0, time.UTC)
	res := attendance.Classify(input(tuesday, &checkIn, at(tuesday, 17, 0), attendance.GroupA),
		attendance.DefaultGroupA(), weekday)

	assert.Equal(t, attendance.StatusPresent, res.Status)
}

func TestClassify_CheckOutBeforeCheckIn_ClampsToZero(t *testing.T) {
	res := attendance.Classify(input(tuesday, at(tuesday, 9, 0), at(tuesday, 8, 0), attendance.GroupA),
		attendance.DefaultGroupA(), weekday)

	assert.True(t, res.WorkingHours.IsZero())
	assert.True(t, res.OvertimeHours.IsZero())
}

func TestClassify_ShortLeaveWindowEligibility(t *testing.T) {
	policy := attendance.DefaultGroupA()

	// Morning window contains the check-in
	res := attendance.Classify(input(tuesday, at(tuesday, 8, 30), at(tuesday, 16, 15), attendance.GroupA), policy, weekday)
	assert.True(t, res.IsShortLeaveApplicable)

	// Evening window contains the check-out
	res = attendance.Classify(input(tuesday, at(tuesday, 8, 20), at(tuesday, 15, 0), attendance.GroupA), policy, weekday)
	assert.True(t, res.IsShortLeaveApplicable)

	// Neither window
	res = attendance.Classify(input(tuesday, at(tuesday, 8, 20), at(tuesday, 17, 0), attendance.GroupA), policy, weekday)
	assert.False(t, res.IsShortLeaveApplicable)
}

func TestClassify_Invariants(t *testing.T) {
	// Overtime never exceeds working hours and is zero for half days.
	policy := attendance.DefaultGroupA()
	for hour := 6; hour <= 15; hour++ {
		for _, holiday := range []generic.HolidayInfo{weekday, {IsWeekend: true}, {IsHoliday: true}} {
			res := attendance.Classify(input(tuesday, at(tuesday, hour, 10), at(tuesday, 19, 0), attendance.GroupA), policy, holiday)

			assert.False(t, res.WorkingHours.IsNegative())
			assert.False(t, res.OvertimeHours.IsNegative())
			assert.True(t, res.OvertimeHours.LessThanOrEqual(res.WorkingHours))
			if res.Status == attendance.StatusHalfDay {
				assert.True(t, res.OvertimeHours.IsZero())
			}
		}
	}
}

// =============================================================================
// MINUTES LATE
// =============================================================================

func TestMinutesLate(t *testing.T) {
	policy := attendance.DefaultGroupA()

	assert.Equal(t, 30, attendance.MinutesLate(*at(tuesday, 9, 30), policy))
	assert.Equal(t, 0, attendance.MinutesLate(*at(tuesday, 8, 50), policy))

	justPast := time.Date(2025, time.March, 4, 9, 0, 59, 0, time.UTC)
	assert.Equal(t, 0, attendance.MinutesLate(justPast, policy))

	assert.Equal(t, 75, attendance.MinutesLate(*at(tuesday, 9, 30), attendance.DefaultGroupB()))
}

// =============================================================================
// CLASSIFIER - Short-leave lookup
// =============================================================================

type stubLookup struct {
	used  bool
	err   error
	calls int
}

func (s *stubLookup) UsedOn(context.Context, generic.EmployeeID, generic.TimePoint) (bool, error) {
	s.calls++
	return s.used, s.err
}

func TestClassifier_ConsultsLookupInHalfDayBand(t *testing.T) {
	lookup := &stubLookup{used: true}
	classifier := attendance.NewClassifier(lookup)

	res, err := classifier.Evaluate(context.Background(),
		input(tuesday, at(tuesday, 11, 0), at(tuesday, 17, 0), attendance.GroupA), attendance.DefaultGroupA(), weekday)

	require.NoError(t, err)
	assert.Equal(t, 1, lookup.calls)
	assert.Equal(t, attendance.StatusPresent, res.Status)
	assert.True(t, res.IsShortLeaveApplicable)
}

func TestClassifier_SkipsLookupOutsideHalfDayBand(t *testing.T) {
	lookup := &stubLookup{used: true}
	classifier := attendance.NewClassifier(lookup)

	res, err := classifier.Evaluate(context.Background(),
		input(tuesday, at(tuesday, 9, 30), at(tuesday, 17, 0), attendance.GroupA), attendance.DefaultGroupA(), weekday)

	require.NoError(t, err)
	assert.Equal(t, 0, lookup.calls)
	assert.Equal(t, attendance.StatusLate, res.Status)
}

func TestClassifier_LookupErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	classifier := attendance.NewClassifier(&stubLookup{err: boom})

	_, err := classifier.Evaluate(context.Background(),
		input(tuesday, at(tuesday, 11, 0), at(tuesday, 17, 0), attendance.GroupA), attendance.DefaultGroupA(), weekday)

	assert.ErrorIs(t, err, boom)
}
