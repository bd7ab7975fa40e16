package report

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
)

// OfferAttendanceRow totals quarter-offer hours for one employee.
type OfferAttendanceRow struct {
	Employee        Employee
	TotalOfferHours decimal.Decimal
	WorkingDays     int
	Weekly          [7]decimal.Decimal // indexed by time.Weekday
	SaturdayHours   decimal.Decimal
	HolidayHours    decimal.Decimal
	AveragePerDay   decimal.Decimal
}

// ReduceOfferAttendance sums offer hours. A Saturday goes to SaturdayHours
// even when it is also a holiday; other holidays go to HolidayHours.
// Sunday only shows in the weekly breakdown.
func ReduceOfferAttendance(ed EmployeeDays) OfferAttendanceRow {
	row := OfferAttendanceRow{
		Employee:        ed.Employee,
		TotalOfferHours: decimal.Zero,
		SaturdayHours:   decimal.Zero,
		HolidayHours:    decimal.Zero,
		AveragePerDay:   decimal.Zero,
	}
	for i := range row.Weekly {
		row.Weekly[i] = decimal.Zero
	}

	for _, d := range ed.Days {
		if !d.OfferHours.IsPositive() {
			continue
		}
		row.WorkingDays++
		row.TotalOfferHours = row.TotalOfferHours.Add(d.OfferHours)

		wd := d.Date.Weekday()
		row.Weekly[wd] = row.Weekly[wd].Add(d.OfferHours)

		switch {
		case wd == time.Saturday:
			row.SaturdayHours = row.SaturdayHours.Add(d.OfferHours)
		case d.Holiday.IsHoliday:
			row.HolidayHours = row.HolidayHours.Add(d.OfferHours)
		}
	}

	if row.WorkingDays > 0 {
		row.AveragePerDay = generic.Round2(row.TotalOfferHours.Div(decimal.NewFromInt(int64(row.WorkingDays))))
	}
	row.TotalOfferHours = generic.Round2(row.TotalOfferHours)
	row.SaturdayHours = generic.Round2(row.SaturdayHours)
	row.HolidayHours = generic.Round2(row.HolidayHours)
	for i := range row.Weekly {
		row.Weekly[i] = generic.Round2(row.Weekly[i])
	}
	return row
}
