package shortleave_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/shortleave"
)

func TestValidateWindow(t *testing.T) {
	clock := generic.MustParseClock
	groupA := attendance.DefaultGroupA()
	groupB := attendance.DefaultGroupB()

	tests := []struct {
		name    string
		policy  attendance.PolicyConfig
		typ     shortleave.Type
		start   string
		end     string
		wantErr string
	}{
		{"A morning, whole window", groupA, shortleave.TypeMorning, "08:30", "10:00", ""},
		{"A evening inside", groupA, shortleave.TypeEvening, "15:00", "16:15", ""},
		{"B morning inside", groupB, shortleave.TypeMorning, "08:00", "09:00", ""},
		{"A morning ends late", groupA, shortleave.TypeMorning, "09:00", "10:30",
			"Group A morning short leave must be between 08:30 - 10:00"},
		{"B evening starts early", groupB, shortleave.TypeEvening, "15:00", "16:00",
			"Group B evening short leave must be between 15:15 - 16:45"},
		{"inverted", groupA, shortleave.TypeMorning, "09:30", "09:00",
			"short leave start (09:30) must be before end (09:00)"},
		{"unknown type", groupA, shortleave.Type("lunch"), "12:00", "13:00",
			`unknown short leave type "lunch"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := shortleave.ValidateWindow(tt.typ, clock(tt.start), clock(tt.end), tt.policy)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
			assert.ErrorIs(t, err, generic.ErrWindowRejected)
		})
	}
}

func TestParseType(t *testing.T) {
	got, err := shortleave.ParseType(" Morning ")
	assert.NoError(t, err)
	assert.Equal(t, shortleave.TypeMorning, got)

	_, err = shortleave.ParseType("night")
	assert.Error(t, err)
}
