package shortleave

import (
	"fmt"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// ValidateWindow accepts the leave when [start, end] lies inside the
// group's window for t. A rejection is a *generic.WindowError whose
// message is suitable for showing to the employee.
func ValidateWindow(t Type, start, end generic.ClockTime, policy attendance.PolicyConfig) error {
	var window generic.ClockWindow
	switch t {
	case TypeMorning:
		window = policy.ShortLeaveWindows.Morning
	case TypeEvening:
		window = policy.ShortLeaveWindows.Evening
	default:
		return &generic.WindowError{Reason: fmt.Sprintf("unknown short leave type %q", t)}
	}

	if start >= end {
		return &generic.WindowError{Reason: fmt.Sprintf("short leave start (%s) must be before end (%s)", start, end)}
	}
	if !window.Contains(start) || !window.Contains(end) {
		return &generic.WindowError{Reason: fmt.Sprintf("%s %s short leave must be between %s - %s",
			policy.Group.Label(), t, window.Start, window.End)}
	}
	return nil
}
