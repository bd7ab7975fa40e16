package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// Sheet letters
const (
	LetterPresent = "P"
	LetterAbsent  = "A"
	LetterHoliday = "HL"
)

// SheetDay is one cell of the monthly attendance sheet.
type SheetDay struct {
	Date     generic.TimePoint
	Letter   string
	Status   attendance.Status
	InTime   string // HH:MM, empty without a punch
	OutTime  string
	Worked   string // H:MM
	Overtime decimal.Decimal
	OnLeave  bool
}

// MonthlySheetRow is one employee line of the monthly sheet.
type MonthlySheetRow struct {
	Employee      Employee
	Days          []SheetDay
	TotalHours    decimal.Decimal
	TotalOvertime decimal.Decimal
	PresentDays   int
}

// ReduceMonthlySheet builds the sheet row. Days worked show P whatever the
// calendar says; unworked holidays and weekends show HL; everything else,
// approved leave included, shows A.
func ReduceMonthlySheet(ed EmployeeDays) MonthlySheetRow {
	row := MonthlySheetRow{
		Employee:      ed.Employee,
		Days:          make([]SheetDay, 0, len(ed.Days)),
		TotalHours:    decimal.Zero,
		TotalOvertime: decimal.Zero,
	}

	for _, d := range ed.Days {
		c := d.Classification
		row.TotalHours = row.TotalHours.Add(c.WorkingHours)
		row.TotalOvertime = row.TotalOvertime.Add(c.OvertimeHours)
		if c.Status == attendance.StatusPresent {
			row.PresentDays++
		}

		row.Days = append(row.Days, SheetDay{
			Date:     d.Date,
			Letter:   sheetLetter(d),
			Status:   c.Status,
			InTime:   clockString(d.CheckIn),
			OutTime:  clockString(d.CheckOut),
			Worked:   HoursClock(c.WorkingHours),
			Overtime: generic.Round2(c.OvertimeHours),
			OnLeave:  d.OnLeave,
		})
	}

	row.TotalHours = generic.Round2(row.TotalHours)
	row.TotalOvertime = generic.Round2(row.TotalOvertime)
	return row
}

func sheetLetter(d DayResult) string {
	switch {
	case d.Classification.Worked():
		return LetterPresent
	case d.Holiday.NonWorking():
		return LetterHoliday
	default:
		return LetterAbsent
	}
}

func clockString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return generic.ClockOf(*t).String()
}

// HoursClock renders decimal hours as H:MM, truncating partial minutes.
func HoursClock(hours decimal.Decimal) string {
	minutes := hours.Mul(decimal.NewFromInt(60)).IntPart()
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}
