package generic

import "time"

// =============================================================================
// PERIOD - Inclusive date range every report is computed over
// =============================================================================

// Period is the inclusive range [Start, End].
//
// Examples:
//   - Monthly sheet for March 2025: Mar 1 - Mar 31
//   - Daily report: Start == End
type Period struct {
	Start TimePoint
	End   TimePoint
}

// NewPeriod validates that end is not before start.
func NewPeriod(start, end TimePoint) (Period, error) {
	if end.Before(start) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

// MonthPeriod returns the whole calendar month.
func MonthPeriod(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// DayPeriod returns a single-day period.
func DayPeriod(day TimePoint) Period { return Period{Start: day, End: day} }

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// WorkingDays counts the non-weekend days in the period.
func (p Period) WorkingDays() int {
	n := 0
	for _, d := range p.Days() {
		if !d.IsWeekend() {
			n++
		}
	}
	return n
}

// Clip returns the overlap of p and other, and false when they are disjoint.
func (p Period) Clip(other Period) (Period, bool) {
	start, end := p.Start, p.End
	if other.Start.After(start) {
		start = other.Start
	}
	if other.End.Before(end) {
		end = other.End
	}
	if end.Before(start) {
		return Period{}, false
	}
	return Period{Start: start, End: end}, true
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
