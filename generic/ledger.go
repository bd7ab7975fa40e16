/*
ledger.go - Append-only allowance log

PURPOSE:
  The Ledger is the source of truth for allowance usage (short leaves today).
  Every approved usage and every cancellation is recorded here. The monthly
  "used" figure is always computed by summing entries; there's no separate
  counter that can drift.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete.
  2. IMMUTABLE: Once written, transactions cannot be modified
  3. IDEMPOTENT: Same idempotency key = same transaction (no duplicates)

CORRECTIONS:
  A cancelled short leave is not removed. A TxReversal with the opposite
  sign is appended, and the month's net usage drops by one.

EXAMPLE FLOW:
  1. Morning short leave on Mar 4 approved:  TxUsage +1
  2. Evening short leave on Mar 12 approved: TxUsage +1   (used 2 of 2)
  3. Mar 12 cancelled:                       TxReversal -1 (used 1 of 2)

SEE ALSO:
  - store.go: Low-level persistence interface
  - shortleave/ledger.go: Monthly cap enforcement on top of this
*/
package generic

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER - Append-only transaction log
// =============================================================================

// Ledger is the source of truth for allowance usage.
type Ledger interface {
	// Append adds a transaction. Fails if idempotency key exists.
	Append(ctx context.Context, tx Transaction) error

	// TransactionsInRange returns the employee's transactions for resource
	// with EffectiveAt in [from, to], chronologically.
	TransactionsInRange(ctx context.Context, employeeID EmployeeID, resource string, from, to TimePoint) ([]Transaction, error)

	// NetUsage sums deltas in [from, to].
	NetUsage(ctx context.Context, employeeID EmployeeID, resource string, from, to TimePoint) (decimal.Decimal, error)
}

// =============================================================================
// DEFAULT LEDGER - Implementation using Store
// =============================================================================

type DefaultLedger struct {
	Store Store
}

func NewLedger(store Store) *DefaultLedger {
	return &DefaultLedger{Store: store}
}

func (l *DefaultLedger) Append(ctx context.Context, tx Transaction) error {
	if tx.IdempotencyKey != "" {
		exists, err := l.Store.Exists(ctx, tx.IdempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateIdempotencyKey
		}
	}
	return l.Store.Append(ctx, tx)
}

func (l *DefaultLedger) TransactionsInRange(ctx context.Context, employeeID EmployeeID, resource string, from, to TimePoint) ([]Transaction, error) {
	return l.Store.LoadRange(ctx, employeeID, resource, from, to)
}

func (l *DefaultLedger) NetUsage(ctx context.Context, employeeID EmployeeID, resource string, from, to TimePoint) (decimal.Decimal, error) {
	txs, err := l.Store.LoadRange(ctx, employeeID, resource, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Delta.Value)
	}
	return total, nil
}
