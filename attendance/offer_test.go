package attendance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

func TestOfferHours_GroupA_AfterOfferStart(t *testing.T) {
	// GIVEN: Group A, 08:30-17:45 on a weekday (offer start 16:15)
	// THEN: 1.5 offer hours
	got := attendance.OfferHours(at(tuesday, 8, 30), at(tuesday, 17, 45), attendance.DefaultGroupA(), weekday)
	assertDecimal(t, "1.5", got)
}

func TestOfferHours_GroupB_AfterOfferStart(t *testing.T) {
	// GIVEN: Group B, 08:00-17:00 (offer start 16:45)
	// THEN: 0.25 offer hours
	got := attendance.OfferHours(at(tuesday, 8, 0), at(tuesday, 17, 0), attendance.DefaultGroupB(), weekday)
	assertDecimal(t, "0.25", got)
}

func TestOfferHours_LeftBeforeOfferStart_Zero(t *testing.T) {
	got := attendance.OfferHours(at(tuesday, 8, 0), at(tuesday, 16, 0), attendance.DefaultGroupA(), weekday)
	assert.True(t, got.IsZero())
}

func TestOfferHours_Holiday_FullSpan(t *testing.T) {
	// GIVEN: Holiday 10:00-14:00
	// THEN: All 4 hours count
	got := attendance.OfferHours(at(tuesday, 10, 0), at(tuesday, 14, 0), attendance.DefaultGroupA(),
		generic.HolidayInfo{IsHoliday: true})
	assertDecimal(t, "4", got)
}

func TestOfferHours_Weekend_FullSpan(t *testing.T) {
	got := attendance.OfferHours(at(saturday, 9, 0), at(saturday, 13, 0), attendance.DefaultGroupB(),
		generic.HolidayInfo{IsWeekend: true})
	assertDecimal(t, "4", got)
}

func TestOfferHours_MissingPunch_Zero(t *testing.T) {
	assert.True(t, attendance.OfferHours(at(tuesday, 8, 0), nil, attendance.DefaultGroupA(), weekday).IsZero())
	assert.True(t, attendance.OfferHours(nil, at(tuesday, 18, 0), attendance.DefaultGroupA(), weekday).IsZero())
}

func TestOfferHours_NeverNegative(t *testing.T) {
	got := attendance.OfferHours(at(saturday, 14, 0), at(saturday, 9, 0), attendance.DefaultGroupA(),
		generic.HolidayInfo{IsWeekend: true})
	assert.True(t, got.IsZero())
}
