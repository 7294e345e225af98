package timeline

import "sort"

// SortGroups orders groups ascending by date key. The keys are
// YYYY-MM-DD, so plain string comparison is chronological.
func SortGroups(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Date < groups[j].Date
	})
}

// SortItems imposes the deterministic item order inside a group. The
// first decisive rule wins:
//
//  1. start instant ascending; items without a comparable instant last
//  2. event ID ascending
//  3. an item with an episode number before one without
//  4. episode number ascending
//  5. otherwise stable, original relative order preserved
func SortItems(items []Event) {
	sort.SliceStable(items, func(i, j int) bool {
		return itemLess(items[i], items[j])
	})
}

func itemLess(a, b Event) bool {
	az, bz := a.Start.IsZero(), b.Start.IsZero()
	if az != bz {
		return bz
	}
	if !az && !a.Start.Equal(b.Start) {
		return a.Start.Before(b.Start)
	}
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	if (a.Episode != nil) != (b.Episode != nil) {
		return a.Episode != nil
	}
	if a.Episode != nil && *a.Episode != *b.Episode {
		return *a.Episode < *b.Episode
	}
	return false
}

// Preview returns the first n distinct items of a group in sorted order,
// without disturbing the input slice. Used for the compact per-day
// preview strip.
func Preview(items []Event, n int) []Event {
	sorted := make([]Event, len(items))
	copy(sorted, items)
	SortItems(sorted)

	out := make([]Event, 0, n)
	seen := make(map[string]struct{}, n)
	for _, ev := range sorted {
		if _, ok := seen[ev.ID]; ok {
			continue
		}
		seen[ev.ID] = struct{}{}
		out = append(out, ev)
		if len(out) == n {
			break
		}
	}
	return out
}
