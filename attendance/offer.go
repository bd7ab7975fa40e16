package attendance

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
)

// OfferHours is the "quarter offer" overtime: time worked past the group's
// offer start on a normal day, or the whole worked span on a weekend or
// holiday. It is independent of the standard overtime in Classify.
func OfferHours(checkIn, checkOut *time.Time, policy PolicyConfig, holiday generic.HolidayInfo) decimal.Decimal {
	if checkIn == nil || checkOut == nil {
		return decimal.Zero
	}
	if holiday.NonWorking() {
		return generic.HoursBetween(*checkIn, *checkOut)
	}
	offerStart := generic.DateOf(*checkIn).At(policy.OfferOvertimeStart, checkIn.Location())
	return generic.HoursBetween(offerStart, *checkOut)
}
