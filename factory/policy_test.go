package factory_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/store/sqlite"
)

// =============================================================================
// PARSING
// =============================================================================

func defaultDocument(t *testing.T) string {
	t.Helper()
	doc, err := factory.NewPolicyFactory().Marshal(attendance.DefaultPolicySet())
	require.NoError(t, err)
	return doc
}

func TestParsePolicySet_DefaultsRoundTrip(t *testing.T) {
	f := factory.NewPolicyFactory()
	doc := defaultDocument(t)

	set, err := f.ParsePolicySet(doc)

	require.NoError(t, err)
	assert.Equal(t, "09:00", set.A.GraceUntil.String())
	assert.Equal(t, "15:15", set.B.HalfDayBefore.String())
	assert.True(t, set.A.RequiredHours.Equal(attendance.DefaultGroupA().RequiredHours))
	assert.Equal(t, 2, set.B.ShortLeaveMaxPerMonth)
	assert.Equal(t, "08:30-10:00", set.A.ShortLeaveWindows.Morning.String())
	assert.Contains(t, doc, `"grace_until": "09:00"`)
}

func TestParsePolicySet_Rejects(t *testing.T) {
	doc := defaultDocument(t)

	tests := []struct {
		name      string
		doc       string
		wantField string
	}{
		{"missing group", `{"group_b": {}}`, "group_a"},
		{"missing field", strings.Replace(doc, `"grace_until": "09:00"`, `"grace_until": ""`, 1), "grace_until"},
		{"bad clock", strings.Replace(doc, `"half_day_after": "10:00"`, `"half_day_after": "25:00"`, 1), "half_day_after"},
		{"grace after half day", strings.Replace(doc, `"grace_until": "08:15"`, `"grace_until": "10:00"`, 1), "grace_until"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.NewPolicyFactory().ParsePolicySet(tt.doc)

			var fieldErr *generic.PolicyFieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Contains(t, fieldErr.Field, tt.wantField)
			assert.ErrorIs(t, err, generic.ErrInvalidPolicy)
		})
	}
}

func TestParsePolicySet_MalformedJSON(t *testing.T) {
	_, err := factory.NewPolicyFactory().ParsePolicySet(`{"group_a":`)
	assert.ErrorContains(t, err, "failed to parse policy JSON")
}

// =============================================================================
// REGISTRY
// =============================================================================

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newDocumentRegistry(t *testing.T) (*factory.Registry, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return factory.NewRegistry(factory.NewDocumentSource(store), discard()), store
}

func TestRegistry_EmptySourceYieldsDefaults(t *testing.T) {
	registry, _ := newDocumentRegistry(t)

	set, err := registry.Policies(context.Background())

	require.NoError(t, err)
	assert.Equal(t, attendance.DefaultPolicySet().A.GraceUntil, set.A.GraceUntil)
}

func TestRegistry_SeedThenUpdate(t *testing.T) {
	ctx := context.Background()
	registry, store := newDocumentRegistry(t)

	// GIVEN: Seeded defaults
	require.NoError(t, registry.Seed(ctx, attendance.DefaultPolicySet()))
	_, found, err := store.LoadPolicyDocument(ctx, factory.PolicyDocumentID)
	require.NoError(t, err)
	assert.True(t, found)

	// WHEN: Group A grace moves to 09:15
	set := attendance.DefaultPolicySet()
	set.A.GraceUntil = generic.MustParseClock("09:15")
	require.NoError(t, registry.Update(ctx, set))

	// THEN: Cache and store both carry it, and a second Seed does not overwrite
	require.NoError(t, registry.Seed(ctx, attendance.DefaultPolicySet()))
	registry.Invalidate()
	got, err := registry.Policies(ctx)
	require.NoError(t, err)
	assert.Equal(t, "09:15", got.A.GraceUntil.String())
}

func TestRegistry_InvalidUpdateKeepsCurrent(t *testing.T) {
	ctx := context.Background()
	registry, _ := newDocumentRegistry(t)
	require.NoError(t, registry.Seed(ctx, attendance.DefaultPolicySet()))

	set := attendance.DefaultPolicySet()
	set.B.GraceUntil = generic.MustParseClock("10:00")
	err := registry.Update(ctx, set)

	assert.ErrorIs(t, err, generic.ErrInvalidPolicy)
	got, err := registry.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "08:15", got.B.GraceUntil.String())
}

func TestRegistry_RefreshPicksUpExternalEdit(t *testing.T) {
	ctx := context.Background()
	registry, store := newDocumentRegistry(t)
	_, err := registry.Policies(ctx)
	require.NoError(t, err)

	// Another writer changes the stored document
	edited := strings.Replace(defaultDocument(t), `"offer_overtime_start": "16:45"`, `"offer_overtime_start": "17:00"`, 1)
	require.NoError(t, store.SavePolicyDocument(ctx, factory.PolicyDocumentID, edited))

	cached, err := registry.Policies(ctx)
	require.NoError(t, err)
	assert.Equal(t, "16:45", cached.B.OfferOvertimeStart.String())

	fresh, err := registry.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "17:00", fresh.B.OfferOvertimeStart.String())
}

// =============================================================================
// FILE SOURCE
// =============================================================================

func TestFileSource(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "policy.json")
	source := factory.NewFileSource(path)

	// Missing file is not an error
	_, found, err := source.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	set := attendance.DefaultPolicySet()
	set.A.ShortLeaveMaxPerMonth = 3
	require.NoError(t, source.Save(ctx, set))

	got, found, err := source.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, got.A.ShortLeaveMaxPerMonth)

	// A broken file is reported with its path
	require.NoError(t, os.WriteFile(path, []byte(`{"group_a": {}}`), 0o600))
	_, _, err = source.Load(ctx)
	assert.ErrorContains(t, err, path)
}
