package report

import (
	"sort"

	"github.com/warp/attendance-engine/generic"
)

// AbsenceRow is one employee line of the monthly absence report.
type AbsenceRow struct {
	Employee             Employee
	WorkingDays          int
	PresentDays          int
	LeaveDays            int
	AbsentDays           int
	AttendancePercentage int
}

// ReduceAbsence counts over the non-weekend days of the period only: a
// weekday with a check-in is present, a weekday covered by approved leave is
// a leave day whether or not the employee also came in. Absent days are what
// is left, floored at zero, and the percentage is capped at 100 for the days
// that count as both.
func ReduceAbsence(ed EmployeeDays) AbsenceRow {
	row := AbsenceRow{Employee: ed.Employee, WorkingDays: ed.Period.WorkingDays()}

	for _, d := range ed.Days {
		if d.Date.IsWeekend() {
			continue
		}
		if d.CheckIn != nil {
			row.PresentDays++
		}
		if d.OnLeave {
			row.LeaveDays++
		}
	}

	row.AbsentDays = row.WorkingDays - row.PresentDays - row.LeaveDays
	if row.AbsentDays < 0 {
		row.AbsentDays = 0
	}
	row.AttendancePercentage = generic.Percentage(row.PresentDays+row.LeaveDays, row.WorkingDays)
	if row.AttendancePercentage > 100 {
		row.AttendancePercentage = 100
	}
	return row
}

// AbsenteesOnly keeps rows with at least one absent day, most absent first.
// Ties keep their input order.
func AbsenteesOnly(rows []AbsenceRow) []AbsenceRow {
	out := make([]AbsenceRow, 0, len(rows))
	for _, r := range rows {
		if r.AbsentDays > 0 {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AbsentDays > out[j].AbsentDays })
	return out
}
