package attendance

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// POLICY CONFIG - Thresholds of one group
// =============================================================================

// ShortLeaveWindows are the two windows a short leave may be taken in.
type ShortLeaveWindows struct {
	Morning generic.ClockWindow
	Evening generic.ClockWindow
}

// PolicyConfig holds every threshold the classifier compares against.
//
// Lateness ladder on the check-in clock time:
//
//	<= GraceUntil              present
//	<= HalfDayAfter            late
//	<  HalfDayBefore           half day (or present with short leave)
//	>= HalfDayBefore           absent
type PolicyConfig struct {
	Group                 Group
	ShiftStart            generic.ClockTime
	ShiftEnd              generic.ClockTime
	RequiredHours         decimal.Decimal
	GraceUntil            generic.ClockTime
	HalfDayAfter          generic.ClockTime
	HalfDayBefore         generic.ClockTime
	ShortLeaveWindows     ShortLeaveWindows
	ShortLeaveMaxPerMonth int
	OfferOvertimeStart    generic.ClockTime
}

// DefaultGroupA is the Group A regime: 08:30-16:15, 7.75 required hours.
func DefaultGroupA() PolicyConfig {
	return PolicyConfig{
		Group:         GroupA,
		ShiftStart:    generic.NewClockTime(8, 30),
		ShiftEnd:      generic.NewClockTime(16, 15),
		RequiredHours: decimal.RequireFromString("7.75"),
		GraceUntil:    generic.NewClockTime(9, 0),
		HalfDayAfter:  generic.NewClockTime(10, 0),
		HalfDayBefore: generic.NewClockTime(14, 45),
		ShortLeaveWindows: ShortLeaveWindows{
			Morning: generic.ClockWindow{Start: generic.NewClockTime(8, 30), End: generic.NewClockTime(10, 0)},
			Evening: generic.ClockWindow{Start: generic.NewClockTime(14, 45), End: generic.NewClockTime(16, 15)},
		},
		ShortLeaveMaxPerMonth: 2,
		OfferOvertimeStart:    generic.NewClockTime(16, 15),
	}
}

// DefaultGroupB is the Group B regime: 08:00-16:45, 8.75 required hours.
func DefaultGroupB() PolicyConfig {
	return PolicyConfig{
		Group:         GroupB,
		ShiftStart:    generic.NewClockTime(8, 0),
		ShiftEnd:      generic.NewClockTime(16, 45),
		RequiredHours: decimal.RequireFromString("8.75"),
		GraceUntil:    generic.NewClockTime(8, 15),
		HalfDayAfter:  generic.NewClockTime(9, 30),
		HalfDayBefore: generic.NewClockTime(15, 15),
		ShortLeaveWindows: ShortLeaveWindows{
			Morning: generic.ClockWindow{Start: generic.NewClockTime(8, 0), End: generic.NewClockTime(9, 30)},
			Evening: generic.ClockWindow{Start: generic.NewClockTime(15, 15), End: generic.NewClockTime(16, 45)},
		},
		ShortLeaveMaxPerMonth: 2,
		OfferOvertimeStart:    generic.NewClockTime(16, 45),
	}
}

// Validate checks the policy invariants. The returned error wraps
// generic.ErrInvalidPolicy and names the violated field.
func (p PolicyConfig) Validate() error {
	group := string(p.Group)
	fail := func(field, constraint string, args ...any) error {
		return &generic.PolicyFieldError{Group: group, Field: field, Constraint: fmt.Sprintf(constraint, args...)}
	}

	if p.Group != GroupA && p.Group != GroupB {
		return fail("group", "must be group_a or group_b")
	}
	if p.ShiftStart >= p.ShiftEnd {
		return fail("shift_start", "(%s) must be before shift_end (%s)", p.ShiftStart, p.ShiftEnd)
	}
	if !p.RequiredHours.IsPositive() {
		return fail("required_hours", "must be positive, got %s", p.RequiredHours)
	}
	if p.GraceUntil >= p.HalfDayAfter {
		return fail("grace_until", "(%s) must be before half_day_after (%s)", p.GraceUntil, p.HalfDayAfter)
	}
	if p.HalfDayAfter >= p.HalfDayBefore {
		return fail("half_day_after", "(%s) must be before half_day_before (%s)", p.HalfDayAfter, p.HalfDayBefore)
	}
	if p.ShortLeaveMaxPerMonth < 0 {
		return fail("short_leave_max_per_month", "must not be negative, got %d", p.ShortLeaveMaxPerMonth)
	}

	lower, upper := p.windowBounds()
	windows := []struct {
		name string
		w    generic.ClockWindow
	}{
		{"short_leave_windows.morning", p.ShortLeaveWindows.Morning},
		{"short_leave_windows.evening", p.ShortLeaveWindows.Evening},
	}
	for _, nw := range windows {
		if nw.w.Start >= nw.w.End {
			return fail(nw.name, "start (%s) must be before end (%s)", nw.w.Start, nw.w.End)
		}
		if nw.w.Start < lower || nw.w.End > upper {
			return fail(nw.name, "(%s) must lie within %s-%s", nw.w, lower, upper)
		}
	}
	return nil
}

// windowBounds is the shift extended by the half-day thresholds.
func (p PolicyConfig) windowBounds() (generic.ClockTime, generic.ClockTime) {
	lower, upper := p.ShiftStart, p.ShiftEnd
	if p.HalfDayAfter < lower {
		lower = p.HalfDayAfter
	}
	if p.HalfDayBefore > upper {
		upper = p.HalfDayBefore
	}
	return lower, upper
}

// =============================================================================
// POLICY SET - Both groups together
// =============================================================================

// PolicySet is the full configuration the engine runs under.
type PolicySet struct {
	A PolicyConfig
	B PolicyConfig
}

// DefaultPolicySet returns the built-in regimes.
func DefaultPolicySet() PolicySet {
	return PolicySet{A: DefaultGroupA(), B: DefaultGroupB()}
}

// For returns the policy of g.
func (s PolicySet) For(g Group) (PolicyConfig, error) {
	switch g {
	case GroupA:
		return s.A, nil
	case GroupB:
		return s.B, nil
	}
	return PolicyConfig{}, fmt.Errorf("%w: %q", generic.ErrPolicyNotFound, g)
}

// Validate validates both groups and checks each sits in its own slot.
func (s PolicySet) Validate() error {
	if s.A.Group != GroupA {
		return &generic.PolicyFieldError{Group: string(GroupA), Field: "group", Constraint: "slot A holds " + string(s.A.Group)}
	}
	if s.B.Group != GroupB {
		return &generic.PolicyFieldError{Group: string(GroupB), Field: "group", Constraint: "slot B holds " + string(s.B.Group)}
	}
	if err := s.A.Validate(); err != nil {
		return err
	}
	return s.B.Validate()
}

// PolicyProvider hands out the current policy set. Implementations may
// reload it at runtime; callers must not cache the result across requests.
type PolicyProvider interface {
	Policies(ctx context.Context) (PolicySet, error)
}

// StaticPolicies is a fixed PolicyProvider.
type StaticPolicies PolicySet

func (s StaticPolicies) Policies(context.Context) (PolicySet, error) { return PolicySet(s), nil }
