package generic

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// TIME POINT - A calendar day
// =============================================================================

// TimePoint is a calendar day normalized to midnight UTC. Ledger entries,
// attendance records and holidays are all keyed by TimePoint.
type TimePoint struct {
	Time time.Time
}

const DateLayout = "2006-01-02"

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return TimePoint{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func Today() TimePoint { return DateOf(time.Now()) }

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.Time.Before(other.Time) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.Time.Equal(other.Time) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.Time.After(other.Time) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }
func (tp TimePoint) IsWeekend() bool {
	wd := tp.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (tp TimePoint) String() string { return tp.Time.Format(DateLayout) }

// At returns the instant at which the wall clock reads c on this day in loc.
func (tp TimePoint) At(c ClockTime, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(tp.Year(), tp.Month(), tp.Day(), c.Hour(), c.Minute(), 0, 0, loc)
}

func StartOfMonth(year int, month time.Month) TimePoint { return NewTimePoint(year, month, 1) }
func EndOfMonth(year int, month time.Month) TimePoint {
	return DateOf(time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1))
}

// =============================================================================
// CLOCK TIME - Minutes since midnight
// =============================================================================

// ClockTime is a wall-clock time of day with minute resolution. Every
// policy threshold comparison in the engine goes through ClockTime so that
// "9:00", "09:00" and "09:00:45" all compare the same way.
type ClockTime int

// NewClockTime panics on out-of-range input; use it for constants only.
func NewClockTime(hour, minute int) ClockTime {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		panic(fmt.Sprintf("invalid clock time %d:%d", hour, minute))
	}
	return ClockTime(hour*60 + minute)
}

// ParseClock parses "H:MM", "HH:MM" or "HH:MM:SS". Seconds are truncated.
func ParseClock(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 || len(parts[0]) > 2 {
		return 0, fmt.Errorf("invalid clock time %q: bad hour", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid clock time %q: bad minute", s)
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("invalid clock time %q: bad second", s)
		}
	}
	return ClockTime(h*60 + m), nil
}

// MustParseClock is ParseClock for literals.
func MustParseClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockOf returns the wall-clock time of t in t's own location.
func ClockOf(t time.Time) ClockTime { return ClockTime(t.Hour()*60 + t.Minute()) }

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func (c ClockTime) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *ClockTime) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ClockWindow is an inclusive [Start, End] time-of-day range.
type ClockWindow struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

func (w ClockWindow) Contains(c ClockTime) bool { return c >= w.Start && c <= w.End }
func (w ClockWindow) String() string            { return w.Start.String() + "-" + w.End.String() }

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

type HolidayKind string

const (
	HolidayGovernment HolidayKind = "government"
	HolidayMercantile HolidayKind = "mercantile"
	HolidaySpecial    HolidayKind = "special"
)

func (k HolidayKind) Valid() bool {
	switch k {
	case HolidayGovernment, HolidayMercantile, HolidaySpecial:
		return true
	}
	return false
}

// Holiday is one calendar entry.
type Holiday struct {
	ID        string
	Date      TimePoint
	Name      string
	Kind      HolidayKind
	Recurring bool // same month/day every year
}

// OccursOn reports whether the holiday falls on date.
func (h Holiday) OccursOn(date TimePoint) bool {
	if h.Recurring {
		return h.Date.Month() == date.Month() && h.Date.Day() == date.Day()
	}
	return h.Date.Equal(date)
}

// HolidayInfo is what the classifier needs to know about a day.
type HolidayInfo struct {
	IsHoliday           bool   `json:"is_holiday"`
	IsWeekend           bool   `json:"is_weekend"`
	IsMercantileHoliday bool   `json:"is_mercantile_holiday"`
	IsSpecialHoliday    bool   `json:"is_special_holiday"`
	Name                string `json:"name,omitempty"`
}

// NonWorking reports whether the day is outside the normal schedule.
func (h HolidayInfo) NonWorking() bool { return h.IsHoliday || h.IsWeekend }

// ResolveHolidayInfo folds calendar entries into the HolidayInfo for date.
// Any entry on the date marks it as a holiday; kind flags are additive.
func ResolveHolidayInfo(date TimePoint, holidays []Holiday) HolidayInfo {
	info := HolidayInfo{IsWeekend: date.IsWeekend()}
	for _, h := range holidays {
		if !h.OccursOn(date) {
			continue
		}
		info.IsHoliday = true
		if info.Name == "" {
			info.Name = h.Name
		}
		switch h.Kind {
		case HolidayMercantile:
			info.IsMercantileHoliday = true
		case HolidaySpecial:
			info.IsSpecialHoliday = true
		}
	}
	return info
}

// HolidayCalendar resolves the HolidayInfo for a date.
type HolidayCalendar interface {
	HolidayInfo(ctx context.Context, date TimePoint) (HolidayInfo, error)
}

// StaticCalendar is an in-memory calendar. The zero value knows weekends only.
type StaticCalendar struct {
	Holidays []Holiday
}

func (c StaticCalendar) HolidayInfo(_ context.Context, date TimePoint) (HolidayInfo, error) {
	return ResolveHolidayInfo(date, c.Holidays), nil
}
