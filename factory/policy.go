/*
Package factory provides JSON to Go policy conversion.

PURPOSE:
  Converts the group working-hours document into an attendance.PolicySet
  and back. HR edits thresholds in JSON (file, database row or the PUT
  endpoint); the factory turns them into validated Go structs so a bad
  edit fails at load time instead of misclassifying days.

JSON SCHEMA:
  {
    "group_a": {
      "start_time": "08:30",
      "end_time": "16:15",
      "required_hours": "7.75",
      "grace_until": "09:00",
      "half_day_after": "10:00",
      "half_day_before": "14:45",
      "offer_overtime_start": "16:15",
      "short_leave": {
        "max_per_month": 2,
        "morning": {"start": "08:30", "end": "10:00"},
        "evening": {"start": "14:45", "end": "16:15"}
      }
    },
    "group_b": { ... }
  }

KEY FEATURES:
  - Every time field is parsed with a field-specific error
  - The whole set is validated before it is returned
  - ToJSON round-trips what ParsePolicySet accepts

USAGE:
  f := factory.NewPolicyFactory()
  set, err := f.ParsePolicySet(jsonString)

SEE ALSO:
  - attendance/policy.go: PolicyConfig and its invariants
  - registry.go: Runtime-updatable cache of the current set
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicySetJSON is the JSON representation of both groups.
type PolicySetJSON struct {
	GroupA *GroupPolicyJSON `json:"group_a"`
	GroupB *GroupPolicyJSON `json:"group_b"`
}

// GroupPolicyJSON is the JSON representation of one group.
type GroupPolicyJSON struct {
	StartTime          string          `json:"start_time"`
	EndTime            string          `json:"end_time"`
	RequiredHours      decimal.Decimal `json:"required_hours"`
	GraceUntil         string          `json:"grace_until"`
	HalfDayAfter       string          `json:"half_day_after"`
	HalfDayBefore      string          `json:"half_day_before"`
	OfferOvertimeStart string          `json:"offer_overtime_start"`
	ShortLeave         ShortLeaveJSON  `json:"short_leave"`
}

type ShortLeaveJSON struct {
	MaxPerMonth int        `json:"max_per_month"`
	Morning     WindowJSON `json:"morning"`
	Evening     WindowJSON `json:"evening"`
}

type WindowJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// =============================================================================
// POLICY FACTORY
// =============================================================================

type PolicyFactory struct{}

func NewPolicyFactory() *PolicyFactory {
	return &PolicyFactory{}
}

// ParsePolicySet parses and validates a policy document.
func (f *PolicyFactory) ParsePolicySet(jsonStr string) (attendance.PolicySet, error) {
	var doc PolicySetJSON
	if err := json.Unmarshal([]byte(jsonStr), &doc); err != nil {
		return attendance.PolicySet{}, fmt.Errorf("failed to parse policy JSON: %w", err)
	}
	return f.FromJSON(doc)
}

// FromJSON converts and validates a decoded document.
func (f *PolicyFactory) FromJSON(doc PolicySetJSON) (attendance.PolicySet, error) {
	if doc.GroupA == nil {
		return attendance.PolicySet{}, &generic.PolicyFieldError{Group: string(attendance.GroupA), Field: "group_a", Constraint: "is required"}
	}
	if doc.GroupB == nil {
		return attendance.PolicySet{}, &generic.PolicyFieldError{Group: string(attendance.GroupB), Field: "group_b", Constraint: "is required"}
	}

	a, err := f.groupFromJSON(attendance.GroupA, *doc.GroupA)
	if err != nil {
		return attendance.PolicySet{}, err
	}
	b, err := f.groupFromJSON(attendance.GroupB, *doc.GroupB)
	if err != nil {
		return attendance.PolicySet{}, err
	}

	set := attendance.PolicySet{A: a, B: b}
	if err := set.Validate(); err != nil {
		return attendance.PolicySet{}, err
	}
	return set, nil
}

func (f *PolicyFactory) groupFromJSON(group attendance.Group, gj GroupPolicyJSON) (attendance.PolicyConfig, error) {
	p := attendance.PolicyConfig{
		Group:                 group,
		RequiredHours:         gj.RequiredHours,
		ShortLeaveMaxPerMonth: gj.ShortLeave.MaxPerMonth,
	}

	clocks := []struct {
		field string
		raw   string
		dst   *generic.ClockTime
	}{
		{"start_time", gj.StartTime, &p.ShiftStart},
		{"end_time", gj.EndTime, &p.ShiftEnd},
		{"grace_until", gj.GraceUntil, &p.GraceUntil},
		{"half_day_after", gj.HalfDayAfter, &p.HalfDayAfter},
		{"half_day_before", gj.HalfDayBefore, &p.HalfDayBefore},
		{"offer_overtime_start", gj.OfferOvertimeStart, &p.OfferOvertimeStart},
		{"short_leave.morning.start", gj.ShortLeave.Morning.Start, &p.ShortLeaveWindows.Morning.Start},
		{"short_leave.morning.end", gj.ShortLeave.Morning.End, &p.ShortLeaveWindows.Morning.End},
		{"short_leave.evening.start", gj.ShortLeave.Evening.Start, &p.ShortLeaveWindows.Evening.Start},
		{"short_leave.evening.end", gj.ShortLeave.Evening.End, &p.ShortLeaveWindows.Evening.End},
	}
	for _, c := range clocks {
		if c.raw == "" {
			return p, &generic.PolicyFieldError{Group: string(group), Field: c.field, Constraint: "is required"}
		}
		parsed, err := generic.ParseClock(c.raw)
		if err != nil {
			return p, &generic.PolicyFieldError{Group: string(group), Field: c.field, Constraint: err.Error()}
		}
		*c.dst = parsed
	}
	return p, nil
}

// ToJSON converts a policy set to its JSON document.
func (f *PolicyFactory) ToJSON(set attendance.PolicySet) PolicySetJSON {
	a := groupToJSON(set.A)
	b := groupToJSON(set.B)
	return PolicySetJSON{GroupA: &a, GroupB: &b}
}

// Marshal renders the policy set as indented JSON.
func (f *PolicyFactory) Marshal(set attendance.PolicySet) (string, error) {
	b, err := json.MarshalIndent(f.ToJSON(set), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal policy JSON: %w", err)
	}
	return string(b), nil
}

func groupToJSON(p attendance.PolicyConfig) GroupPolicyJSON {
	return GroupPolicyJSON{
		StartTime:          p.ShiftStart.String(),
		EndTime:            p.ShiftEnd.String(),
		RequiredHours:      p.RequiredHours,
		GraceUntil:         p.GraceUntil.String(),
		HalfDayAfter:       p.HalfDayAfter.String(),
		HalfDayBefore:      p.HalfDayBefore.String(),
		OfferOvertimeStart: p.OfferOvertimeStart.String(),
		ShortLeave: ShortLeaveJSON{
			MaxPerMonth: p.ShortLeaveMaxPerMonth,
			Morning:     WindowJSON{Start: p.ShortLeaveWindows.Morning.Start.String(), End: p.ShortLeaveWindows.Morning.End.String()},
			Evening:     WindowJSON{Start: p.ShortLeaveWindows.Evening.Start.String(), End: p.ShortLeaveWindows.Evening.End.String()},
		},
	}
}
