/*
store.go - Persistence interface for ledger transactions

PURPOSE:
  Defines the interface between the allowance logic and the database.
  The Store handles persistence while maintaining append-only semantics.

APPEND-ONLY CONTRACT:
  - Append(): Single transaction write
  - NO Update() or Delete() methods exist

IDEMPOTENCY:
  Ledger writes carry an idempotency key derived from the request ID, so
  approving the same request twice cannot double-count usage.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for testing
*/
package generic

import "context"

// Store handles persistence of transactions.
// IMPORTANT: Store is APPEND-ONLY. Corrections are made via reversal transactions.
type Store interface {
	// Append persists a transaction. Returns ErrDuplicateIdempotencyKey if the key exists.
	Append(ctx context.Context, tx Transaction) error

	// LoadRange returns transactions with EffectiveAt in [from, to], ordered by EffectiveAt.
	LoadRange(ctx context.Context, employeeID EmployeeID, resource string, from, to TimePoint) ([]Transaction, error)

	// Exists checks if idempotency key already exists.
	Exists(ctx context.Context, idempotencyKey string) (bool, error)
}
