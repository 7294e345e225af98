package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"subcal/internal/model"
)

// testEvent builds a normalized event from a wire stamp, bucketed in UTC.
func testEvent(t *testing.T, id, stamp string) Event {
	t.Helper()
	n := NewNormalizer(time.UTC)
	ev, ok := n.Normalize(model.RawEvent{ID: id, UID: id, DtStart: stamp})
	require.True(t, ok)
	return ev
}

func intPtr(n int) *int { return &n }

func TestMergeCreatesOneGroupPerDate(t *testing.T) {
	var idx Index
	idx.MergeAfter([]Event{
		testEvent(t, "a", "20250528T120000Z"),
		testEvent(t, "b", "20250528T180000Z"),
	})
	idx.Dedupe()
	idx.MergeAfter([]Event{
		testEvent(t, "c", "20250531T090000Z"),
	})
	idx.Dedupe()

	groups := idx.Groups()
	require.Len(t, groups, 2)

	SortGroups(groups)
	require.Equal(t, "2025-05-28", groups[0].Date)
	require.Equal(t, "2025-05-31", groups[1].Date)
	require.Len(t, groups[0].Items, 2)
	require.Len(t, groups[1].Items, 1)
}

func TestMergeIsIdempotent(t *testing.T) {
	batch := []Event{
		testEvent(t, "a", "20250528T120000Z"),
		testEvent(t, "b", "20250529T120000Z"),
	}

	var idx Index
	idx.MergeAfter(batch)
	idx.Dedupe()
	once := snapshotIndex(idx)

	idx.MergeAfter(batch)
	idx.Dedupe()
	twice := snapshotIndex(idx)

	require.Equal(t, once, twice)
}

func TestMergeFirstSeenIDWins(t *testing.T) {
	first := testEvent(t, "a", "20250528T120000Z")
	first.Summary = "original"
	dup := testEvent(t, "a", "20250528T120000Z")
	dup.Summary = "replacement"

	var idx Index
	idx.MergeAfter([]Event{first})
	idx.MergeAfter([]Event{dup})
	idx.Dedupe()

	groups := idx.Groups()
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Items, 1)
	require.Equal(t, "original", groups[0].Items[0].Summary)
}

func TestDedupeCollapsesBoundaryDate(t *testing.T) {
	// The same date can arrive through both the past-side and
	// future-side insertion paths of a single load.
	var idx Index
	idx.MergeBefore([]Event{testEvent(t, "a", "20250530T060000Z")})
	idx.MergeAfter([]Event{
		testEvent(t, "a", "20250530T060000Z"),
		testEvent(t, "b", "20250530T100000Z"),
	})
	idx.Dedupe()

	groups := idx.Groups()
	require.Len(t, groups, 1)
	require.Equal(t, "2025-05-30", groups[0].Date)
	require.Len(t, groups[0].Items, 2)
}

func TestMergeBeforePrependsOldestFirst(t *testing.T) {
	var idx Index
	idx.MergeAfter([]Event{testEvent(t, "c", "20250530T120000Z")})
	idx.MergeBefore([]Event{
		testEvent(t, "b", "20250529T120000Z"),
		testEvent(t, "a", "20250527T120000Z"),
	})
	idx.Dedupe()

	groups := idx.Groups()
	require.Len(t, groups, 3)
	require.Equal(t, "2025-05-27", groups[0].Date)
	require.Equal(t, "2025-05-29", groups[1].Date)
	require.Equal(t, "2025-05-30", groups[2].Date)
}

func TestGroupUniquenessInvariants(t *testing.T) {
	var idx Index
	idx.MergeAfter([]Event{
		testEvent(t, "a", "20250528T120000Z"),
		testEvent(t, "a", "20250528T130000Z"),
		testEvent(t, "b", "20250528T140000Z"),
	})
	idx.MergeBefore([]Event{testEvent(t, "b", "20250528T140000Z")})
	idx.Dedupe()

	dates := map[string]bool{}
	for _, g := range idx.Groups() {
		require.False(t, dates[g.Date], "duplicate group for %s", g.Date)
		dates[g.Date] = true

		ids := map[string]bool{}
		for _, it := range g.Items {
			require.False(t, ids[it.ID], "duplicate item %s in %s", it.ID, g.Date)
			ids[it.ID] = true
		}
	}
}

// snapshotIndex flattens an index into a comparable shape.
func snapshotIndex(idx Index) map[string][]string {
	out := make(map[string][]string)
	for _, g := range idx.Groups() {
		ids := make([]string, 0, len(g.Items))
		for _, it := range g.Items {
			ids = append(ids, it.ID)
		}
		out[g.Date] = ids
	}
	return out
}
