/*
Package generic provides the domain-agnostic primitives of the attendance engine.

PURPOSE:
  This package contains the value types shared by every other package:
  decimal quantities, calendar days, wall-clock times, periods, holiday
  lookups and the append-only usage ledger. Nothing in here knows about
  Group A, Group B or what a "half day" is; that lives in attendance/.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., 8.25 hours, 1 occurrence)
  - Transaction: An immutable ledger entry recording allowance usage
  - Typed identifiers: EmployeeID, TransactionID

DESIGN PRINCIPLES:
  1. Precision: Hours use decimal.Decimal so 7.75 stays 7.75
  2. Immutability: Transactions are never modified, only reversed
  3. Type Safety: Strong typing for IDs prevents mixing employee/request IDs

USAGE:
  worked := generic.HoursBetween(checkIn, checkOut)
  tx := generic.Transaction{
      EmployeeID: "emp-123",
      Delta:      generic.NewAmountFromInt(1, generic.UnitOccurrences),
      Type:       generic.TxUsage,
  }

SEE ALSO:
  - time.go: TimePoint, ClockTime and holiday lookups
  - ledger.go: Transaction persistence interface
*/
package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitHours       Unit = "hours"
	UnitMinutes     Unit = "minutes"
	UnitDays        Unit = "days"
	UnitOccurrences Unit = "occurrences"
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Neg() Amount                  { return Amount{Value: a.Value.Neg(), Unit: a.Unit} }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }
func (a Amount) Max(b Amount) Amount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// =============================================================================
// HOURS - Decimal hour arithmetic
// =============================================================================

var (
	millisPerHour = decimal.NewFromInt(int64(time.Hour / time.Millisecond))
	hundred       = decimal.NewFromInt(100)
)

// HoursBetween returns the elapsed hours from start to end, clamped at zero.
// Precision is milliseconds.
func HoursBetween(start, end time.Time) decimal.Decimal {
	if !end.After(start) {
		return decimal.Zero
	}
	return decimal.NewFromInt(end.Sub(start).Milliseconds()).Div(millisPerHour)
}

// ClampZero returns d, or zero when d is negative.
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Round2 rounds to two decimal places (half away from zero).
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// Percentage returns round(100 * part / whole), or zero when whole is zero.
func Percentage(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(part)).Mul(hundred).
		Div(decimal.NewFromInt(int64(whole))).Round(0).IntPart())
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type TransactionID string

// =============================================================================
// TRANSACTION - Atomic change to a monthly allowance
// =============================================================================

type TransactionType string

const (
	TxUsage    TransactionType = "usage"    // Allowance consumed (approved request)
	TxReversal TransactionType = "reversal" // Undo a previous usage
)

// Transaction is one entry in the allowance ledger. EffectiveAt is the day the
// allowance was used on, not the day the entry was written.
type Transaction struct {
	ID             TransactionID
	EmployeeID     EmployeeID
	Resource       string // e.g. "short_leave"
	EffectiveAt    TimePoint
	Delta          Amount
	Type           TransactionType
	ReferenceID    string // request that produced this entry
	Reason         string
	IdempotencyKey string
	Metadata       map[string]string
}
