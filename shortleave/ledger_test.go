package shortleave_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/generic/store"
	"github.com/warp/attendance-engine/shortleave"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger(t *testing.T) *shortleave.Ledger {
	t.Helper()
	return shortleave.NewLedger(
		generic.NewLedger(store.NewMemory()),
		attendance.StaticPolicies(attendance.DefaultPolicySet()),
	)
}

func day(d int) generic.TimePoint { return generic.NewTimePoint(2025, time.March, d) }

// =============================================================================
// CAP
// =============================================================================

func TestLedger_CapIsPerMonth(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t)

	// GIVEN: Two short leaves in March (the Group A cap)
	require.NoError(t, ledger.RecordUsage(ctx, "emp-1", attendance.GroupA, day(4), "req-1"))
	require.NoError(t, ledger.RecordUsage(ctx, "emp-1", attendance.GroupA, day(12), "req-2"))

	// WHEN: A third March usage is recorded
	err := ledger.RecordUsage(ctx, "emp-1", attendance.GroupA, day(20), "req-3")

	// THEN: Rejected with the counts, and nothing written
	var capErr *generic.CapExceededError
	require.ErrorAs(t, err, &capErr)
	assert.ErrorIs(t, err, generic.ErrShortLeaveCapExceeded)
	assert.Equal(t, 2, capErr.Used)
	assert.Equal(t, 2, capErr.Max)

	usage, err := ledger.Usage(ctx, "emp-1", attendance.GroupA, 2025, time.March)
	require.NoError(t, err)
	assert.Equal(t, 2, usage.TotalUsed)
	assert.Equal(t, 0, usage.Remaining)

	// AND: April and other employees are unaffected
	assert.NoError(t, ledger.RecordUsage(ctx, "emp-1", attendance.GroupA, generic.NewTimePoint(2025, time.April, 1), "req-4"))
	assert.NoError(t, ledger.RecordUsage(ctx, "emp-2", attendance.GroupA, day(20), "req-5"))
}

func TestLedger_ReversalFreesSlot(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t)

	require.NoError(t, ledger.RecordUsage(ctx, "emp-1", attendance.GroupB, day(4), "req-1"))
	require.NoError(t, ledger.RecordUsage(ctx, "emp-1", attendance.GroupB, day(12), "req-2"))

	// WHEN: The 12th is cancelled
	require.NoError(t, ledger.Reverse(ctx, "emp-1", day(12), "req-2", "cancelled"))

	// THEN: One used, last used moves back to the 4th
	usage, err := ledger.Usage(ctx, "emp-1", attendance.GroupB, 2025, time.March)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.TotalUsed)
	assert.Equal(t, 1, usage.Remaining)
	require.NotNil(t, usage.LastUsed)
	assert.Equal(t, "2025-03-04", usage.LastUsed.String())

	used, err := ledger.UsedOn(ctx, "emp-1", day(12))
	require.NoError(t, err)
	assert.False(t, used)

	used, err = ledger.UsedOn(ctx, "emp-1", day(4))
	require.NoError(t, err)
	assert.True(t, used)

	// AND: The freed slot can be used again
	assert.NoError(t, ledger.RecordUsage(ctx, "emp-1", attendance.GroupB, day(25), "req-3"))
}

func TestLedger_SameReferenceRecordedOnce(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t)

	require.NoError(t, ledger.RecordUsage(ctx, "emp-1", attendance.GroupA, day(4), "req-1"))
	err := ledger.RecordUsage(ctx, "emp-1", attendance.GroupA, day(4), "req-1")

	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)
	usage, err := ledger.Usage(ctx, "emp-1", attendance.GroupA, 2025, time.March)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.TotalUsed)
}

func TestLedger_CanApply(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t)

	elig, err := ledger.CanApply(ctx, "emp-1", attendance.GroupA, day(4))
	require.NoError(t, err)
	assert.True(t, elig.Allowed)
	assert.Equal(t, 2, elig.Remaining)

	require.NoError(t, ledger.RecordUsage(ctx, "emp-1", attendance.GroupA, day(4), "req-1"))
	require.NoError(t, ledger.RecordUsage(ctx, "emp-1", attendance.GroupA, day(5), "req-2"))

	elig, err = ledger.CanApply(ctx, "emp-1", attendance.GroupA, day(28))
	require.NoError(t, err)
	assert.False(t, elig.Allowed)
	assert.Equal(t, 0, elig.Remaining)
}

func TestLedger_EmptyMonth(t *testing.T) {
	usage, err := newTestLedger(t).Usage(context.Background(), "emp-1", attendance.GroupA, 2025, time.March)
	require.NoError(t, err)
	assert.Equal(t, 0, usage.TotalUsed)
	assert.Equal(t, 2, usage.Max)
	assert.Nil(t, usage.LastUsed)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestLedger_ConcurrentUsageNeverExceedsCap(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t)

	// GIVEN: Twenty concurrent approvals for the same employee-month
	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = ledger.RecordUsage(ctx, "emp-1", attendance.GroupA, day(1+i%28), fmt.Sprintf("req-%d", i))
		}(i)
	}
	wg.Wait()

	// THEN: Exactly the cap succeeds, the rest are cap errors
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, generic.ErrShortLeaveCapExceeded)
	}
	assert.Equal(t, 2, succeeded)

	usage, err := ledger.Usage(ctx, "emp-1", attendance.GroupA, 2025, time.March)
	require.NoError(t, err)
	assert.Equal(t, 2, usage.TotalUsed)
}

func TestLedger_UnknownGroup(t *testing.T) {
	_, err := newTestLedger(t).Usage(context.Background(), "emp-1", attendance.Group("group_c"), 2025, time.March)
	assert.ErrorIs(t, err, generic.ErrPolicyNotFound)
}

func TestLedger_UsageEntryCarriesGroupAndCap(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	ledger := shortleave.NewLedger(generic.NewLedger(mem), attendance.StaticPolicies(attendance.DefaultPolicySet()))

	require.NoError(t, ledger.RecordUsage(ctx, "emp-1", attendance.GroupB, day(4), "req-1"))

	txs, err := generic.NewLedger(mem).TransactionsInRange(ctx, "emp-1", shortleave.Resource, day(1), day(31))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "group_b", txs[0].Metadata["group"])
	assert.Equal(t, "2", txs[0].Metadata["cap"])
}
