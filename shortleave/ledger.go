/*
ledger.go - Short-leave ledger with monthly cap enforcement

PURPOSE:
  Wraps the generic ledger with the short-leave business rule: an employee
  may not use more than the group's ShortLeaveMaxPerMonth in one calendar
  month.

INVARIANT:
  0 <= used(employee, year, month) <= max, and remaining = max - used.

  The check-then-append is serialized per (employee, year, month) key, so
  two approvals racing for the last slot cannot both succeed. Different
  keys never block each other.

CAP BEHAVIOR:
  RecordUsage at the cap returns *generic.CapExceededError and writes
  nothing. Callers that only care about "did it count" may ignore it.

EXAMPLE:
  l := shortleave.NewLedger(generic.NewLedger(store), policies)
  elig, _ := l.CanApply(ctx, "emp-1", attendance.GroupA, date)
  if elig.Allowed {
      err := l.RecordUsage(ctx, "emp-1", attendance.GroupA, date, requestID)
  }

SEE ALSO:
  - generic/ledger.go: Base ledger interface
  - request.go: Approval workflow that calls RecordUsage
*/
package shortleave

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	inner    generic.Ledger
	policies attendance.PolicyProvider
	locks    *keyedLocks
}

func NewLedger(inner generic.Ledger, policies attendance.PolicyProvider) *Ledger {
	return &Ledger{
		inner:    inner,
		policies: policies,
		locks:    newKeyedLocks(),
	}
}

// Usage returns the allowance state for one employee-month.
func (l *Ledger) Usage(ctx context.Context, employeeID generic.EmployeeID, group attendance.Group, year int, month time.Month) (MonthlyUsage, error) {
	limit, err := l.monthlyMax(ctx, group)
	if err != nil {
		return MonthlyUsage{}, err
	}
	return l.usage(ctx, employeeID, limit, year, month)
}

func (l *Ledger) usage(ctx context.Context, employeeID generic.EmployeeID, limit, year int, month time.Month) (MonthlyUsage, error) {
	period := generic.MonthPeriod(year, month)
	txs, err := l.inner.TransactionsInRange(ctx, employeeID, Resource, period.Start, period.End)
	if err != nil {
		return MonthlyUsage{}, fmt.Errorf("load short leave usage: %w", err)
	}

	used := 0
	perDay := make(map[string]int)
	for _, tx := range txs {
		n := int(tx.Delta.Value.IntPart())
		used += n
		perDay[tx.EffectiveAt.String()] += n
	}
	if used < 0 {
		used = 0
	}

	// txs is chronological, so the last day still net positive wins.
	var lastUsed *generic.TimePoint
	for _, tx := range txs {
		if perDay[tx.EffectiveAt.String()] > 0 {
			d := tx.EffectiveAt
			lastUsed = &d
		}
	}

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return MonthlyUsage{
		EmployeeID: employeeID,
		Year:       year,
		Month:      month,
		TotalUsed:  used,
		Max:        limit,
		Remaining:  remaining,
		LastUsed:   lastUsed,
	}, nil
}

// CanApply reports whether the employee has allowance left in the month of date.
func (l *Ledger) CanApply(ctx context.Context, employeeID generic.EmployeeID, group attendance.Group, date generic.TimePoint) (Eligibility, error) {
	usage, err := l.Usage(ctx, employeeID, group, date.Year(), date.Month())
	if err != nil {
		return Eligibility{}, err
	}
	return Eligibility{Allowed: usage.Remaining > 0, Remaining: usage.Remaining}, nil
}

// RecordUsage consumes one short leave on date. referenceID ties the entry to
// its request and doubles as the idempotency key; an empty referenceID gets
// a generated one.
func (l *Ledger) RecordUsage(ctx context.Context, employeeID generic.EmployeeID, group attendance.Group, date generic.TimePoint, referenceID string) error {
	limit, err := l.monthlyMax(ctx, group)
	if err != nil {
		return err
	}
	if referenceID == "" {
		referenceID = uuid.NewString()
	}

	unlock := l.locks.lock(lockKey(employeeID, date))
	defer unlock()

	usage, err := l.usage(ctx, employeeID, limit, date.Year(), date.Month())
	if err != nil {
		return err
	}
	if usage.TotalUsed >= limit {
		return &generic.CapExceededError{
			EmployeeID: employeeID,
			Year:       date.Year(),
			Month:      date.Month(),
			Used:       usage.TotalUsed,
			Max:        limit,
		}
	}

	return l.inner.Append(ctx, generic.Transaction{
		ID:             generic.TransactionID(uuid.NewString()),
		EmployeeID:     employeeID,
		Resource:       Resource,
		EffectiveAt:    date,
		Delta:          generic.NewAmountFromInt(1, generic.UnitOccurrences),
		Type:           generic.TxUsage,
		ReferenceID:    referenceID,
		Reason:         "short leave approved",
		IdempotencyKey: "short-leave:" + referenceID,
		Metadata: map[string]string{
			"group": string(group),
			"cap":   strconv.Itoa(limit),
		},
	})
}

// Reverse undoes the usage recorded for referenceID on date.
func (l *Ledger) Reverse(ctx context.Context, employeeID generic.EmployeeID, date generic.TimePoint, referenceID, reason string) error {
	unlock := l.locks.lock(lockKey(employeeID, date))
	defer unlock()

	return l.inner.Append(ctx, generic.Transaction{
		ID:             generic.TransactionID(uuid.NewString()),
		EmployeeID:     employeeID,
		Resource:       Resource,
		EffectiveAt:    date,
		Delta:          generic.NewAmountFromInt(-1, generic.UnitOccurrences),
		Type:           generic.TxReversal,
		ReferenceID:    referenceID,
		Reason:         reason,
		IdempotencyKey: "short-leave-reversal:" + referenceID,
	})
}

// UsedOn reports whether an approved, uncancelled short leave falls on date.
// It satisfies attendance.ShortLeaveLookup.
func (l *Ledger) UsedOn(ctx context.Context, employeeID generic.EmployeeID, date generic.TimePoint) (bool, error) {
	net, err := l.inner.NetUsage(ctx, employeeID, Resource, date, date)
	if err != nil {
		return false, fmt.Errorf("load short leave usage: %w", err)
	}
	return net.IsPositive(), nil
}

func (l *Ledger) monthlyMax(ctx context.Context, group attendance.Group) (int, error) {
	set, err := l.policies.Policies(ctx)
	if err != nil {
		return 0, err
	}
	policy, err := set.For(group)
	if err != nil {
		return 0, err
	}
	return policy.ShortLeaveMaxPerMonth, nil
}

// =============================================================================
// KEYED LOCKS - One mutex per (employee, year, month)
// =============================================================================

type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*refMutex)}
}

func lockKey(employeeID generic.EmployeeID, date generic.TimePoint) string {
	return fmt.Sprintf("%s/%04d-%02d", employeeID, date.Year(), int(date.Month()))
}

// lock blocks until key is held and returns its release func. Entries are
// dropped once nobody holds or waits on them.
func (k *keyedLocks) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
