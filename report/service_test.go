package report_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/report"
	"github.com/warp/attendance-engine/shortleave"
)

type fakeSource struct {
	employees []report.Employee
	punches   map[generic.EmployeeID][]report.Punch
	leaves    map[generic.EmployeeID][]report.LeaveInterval
	err       error
}

func (f *fakeSource) ListEmployees(_ context.Context, filter report.EmployeeFilter) ([]report.Employee, error) {
	var out []report.Employee
	for _, e := range f.employees {
		if filter.Group != "" && e.Group != filter.Group {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeSource) Punches(_ context.Context, id generic.EmployeeID, _ generic.Period) ([]report.Punch, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.punches[id], nil
}

func (f *fakeSource) Leaves(_ context.Context, id generic.EmployeeID, _ generic.Period) ([]report.LeaveInterval, error) {
	return f.leaves[id], nil
}

type fakeUsage struct{ used map[generic.EmployeeID]int }

func (f fakeUsage) Usage(_ context.Context, id generic.EmployeeID, _ attendance.Group, year int, month time.Month) (shortleave.MonthlyUsage, error) {
	used := f.used[id]
	return shortleave.MonthlyUsage{EmployeeID: id, Year: year, Month: month, TotalUsed: used, Max: 2, Remaining: 2 - used}, nil
}

func (f fakeUsage) UsedOn(_ context.Context, id generic.EmployeeID, _ generic.TimePoint) (bool, error) {
	return f.used[id] > 0, nil
}

func newService(src *fakeSource) *report.Service {
	return report.NewService(src, newEvaluator(), fakeUsage{used: map[generic.EmployeeID]int{"emp-a": 1}})
}

func twoEmployees() *fakeSource {
	return &fakeSource{
		employees: []report.Employee{empA, empB},
		punches: map[generic.EmployeeID][]report.Punch{
			"emp-a": {punch(empA, 4, 9, 30, 17, 0)},
			"emp-b": {punch(empB, 4, 8, 0, 17, 30)},
		},
	}
}

func TestService_EvaluateKeepsSourceOrder(t *testing.T) {
	all, err := newService(twoEmployees()).Evaluate(context.Background(), report.EmployeeFilter{}, generic.MonthPeriod(2025, time.March))

	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, empA.ID, all[0].Employee.ID)
	assert.Equal(t, empB.ID, all[1].Employee.ID)
	assert.Equal(t, attendance.GroupB, all[1].Policy.Group)
}

func TestService_InvalidPeriod(t *testing.T) {
	period := generic.Period{Start: day(10), End: day(1)}
	_, err := newService(twoEmployees()).Evaluate(context.Background(), report.EmployeeFilter{}, period)
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
}

func TestService_SourceErrorSurfaces(t *testing.T) {
	src := twoEmployees()
	src.err = errors.New("db down")

	_, err := newService(src).LateArrivals(context.Background(), report.EmployeeFilter{}, generic.MonthPeriod(2025, time.March))
	assert.ErrorContains(t, err, "db down")
}

func TestService_Reports(t *testing.T) {
	ctx := context.Background()
	svc := newService(twoEmployees())
	march := generic.MonthPeriod(2025, time.March)

	late, err := svc.LateArrivals(ctx, report.EmployeeFilter{}, march)
	require.NoError(t, err)
	require.Len(t, late, 1)
	assert.Equal(t, empA.ID, late[0].Employee.ID)
	assert.Equal(t, 30, late[0].MinutesLate)

	absence, err := svc.MonthlyAbsence(ctx, report.EmployeeFilter{Group: attendance.GroupB}, march)
	require.NoError(t, err)
	require.Len(t, absence, 1)
	assert.Equal(t, 20, absence[0].AbsentDays)

	daily, err := svc.DailyAttendance(ctx, report.EmployeeFilter{}, day(4))
	require.NoError(t, err)
	require.Len(t, daily, 2)
	assert.True(t, daily[0].IsLate)
	assert.True(t, daily[0].OnShortLeave)
	assert.False(t, daily[1].OnShortLeave)

	ot, err := svc.DailyOvertime(ctx, report.EmployeeFilter{}, day(4))
	require.NoError(t, err)
	require.Len(t, ot, 1)
	assert.Equal(t, empB.ID, ot[0].Employee.ID)
	assertDecimal(t, "0.75", ot[0].OvertimeHours)
	assertDecimal(t, "0.75", ot[0].OfferHours)
}

func TestService_ShortLeaveUsage(t *testing.T) {
	rows, err := newService(twoEmployees()).ShortLeaveUsage(context.Background(), report.EmployeeFilter{}, 2025, time.March)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Used)
	assert.Equal(t, 1, rows[0].Remaining)
	assert.Equal(t, 50, rows[0].UsagePercentage)
	assert.Equal(t, 0, rows[1].Used)
	assert.Equal(t, 0, rows[1].UsagePercentage)
}
