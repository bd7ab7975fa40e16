package report

import (
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// LATE ARRIVALS / HALF DAYS
// =============================================================================

type LateArrivalRow struct {
	Employee    Employee
	Date        generic.TimePoint
	CheckIn     string
	Status      attendance.Status
	MinutesLate int
}

// FilterLateArrivals keeps late and half-day results.
func FilterLateArrivals(ed EmployeeDays) []LateArrivalRow {
	var rows []LateArrivalRow
	for _, d := range ed.Days {
		s := d.Classification.Status
		if s != attendance.StatusLate && s != attendance.StatusHalfDay {
			continue
		}
		rows = append(rows, LateArrivalRow{
			Employee:    ed.Employee,
			Date:        d.Date,
			CheckIn:     clockString(d.CheckIn),
			Status:      s,
			MinutesLate: d.MinutesLate,
		})
	}
	return rows
}

type HalfDayRow struct {
	Employee     Employee
	Date         generic.TimePoint
	CheckIn      string
	CheckOut     string
	WorkingHours decimal.Decimal
	MinutesLate  int
	Reason       string
}

// FilterHalfDays keeps half-day results.
func FilterHalfDays(ed EmployeeDays) []HalfDayRow {
	var rows []HalfDayRow
	for _, d := range ed.Days {
		c := d.Classification
		if c.Status != attendance.StatusHalfDay {
			continue
		}
		reason := ""
		if len(c.Notes) > 0 {
			reason = c.Notes[0]
		}
		rows = append(rows, HalfDayRow{
			Employee:     ed.Employee,
			Date:         d.Date,
			CheckIn:      clockString(d.CheckIn),
			CheckOut:     clockString(d.CheckOut),
			WorkingHours: generic.Round2(c.WorkingHours),
			MinutesLate:  d.MinutesLate,
			Reason:       reason,
		})
	}
	return rows
}

// =============================================================================
// DAILY ATTENDANCE / DAILY OT
// =============================================================================

type DailyAttendanceRow struct {
	Employee      Employee
	Date          generic.TimePoint
	Status        attendance.Status
	CheckIn       string
	CheckOut      string
	WorkingHours  decimal.Decimal
	OvertimeHours decimal.Decimal
	IsLate        bool
	IsHalfDay     bool
	IsAbsent      bool
	OnShortLeave  bool
	OnLeave       bool
	Notes         []string
}

// DailyAttendance renders one day of ed. onShortLeave comes from the ledger,
// not from the classification flag, since the flag also marks window
// eligibility.
func DailyAttendance(ed EmployeeDays, day DayResult, onShortLeave bool) DailyAttendanceRow {
	c := day.Classification
	return DailyAttendanceRow{
		Employee:      ed.Employee,
		Date:          day.Date,
		Status:        c.Status,
		CheckIn:       clockString(day.CheckIn),
		CheckOut:      clockString(day.CheckOut),
		WorkingHours:  generic.Round2(c.WorkingHours),
		OvertimeHours: generic.Round2(c.OvertimeHours),
		IsLate:        c.Status == attendance.StatusLate,
		IsHalfDay:     c.Status == attendance.StatusHalfDay,
		IsAbsent:      c.Status == attendance.StatusAbsent,
		OnShortLeave:  onShortLeave,
		OnLeave:       day.OnLeave,
		Notes:         c.Notes,
	}
}

type DailyOvertimeRow struct {
	Employee      Employee
	Date          generic.TimePoint
	CheckIn       string
	CheckOut      string
	WorkingHours  decimal.Decimal
	OvertimeHours decimal.Decimal
	OfferHours    decimal.Decimal
}

// FilterOvertime keeps days with standard overtime.
func FilterOvertime(ed EmployeeDays) []DailyOvertimeRow {
	var rows []DailyOvertimeRow
	for _, d := range ed.Days {
		c := d.Classification
		if !c.OvertimeHours.IsPositive() {
			continue
		}
		rows = append(rows, DailyOvertimeRow{
			Employee:      ed.Employee,
			Date:          d.Date,
			CheckIn:       clockString(d.CheckIn),
			CheckOut:      clockString(d.CheckOut),
			WorkingHours:  generic.Round2(c.WorkingHours),
			OvertimeHours: generic.Round2(c.OvertimeHours),
			OfferHours:    generic.Round2(d.OfferHours),
		})
	}
	return rows
}
