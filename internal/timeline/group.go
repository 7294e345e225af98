package timeline

// Group is one local calendar day of the timeline: a date key plus the
// events bucketed into it, unique by event ID.
type Group struct {
	Date  string
	Items []Event
}

// add appends ev unless an item with the same ID is already present.
// The first occurrence of an ID wins; later arrivals are dropped.
func (g *Group) add(ev Event) {
	for _, it := range g.Items {
		if it.ID == ev.ID {
			return
		}
	}
	g.Items = append(g.Items, ev)
}

// Index buckets events by local date key. At steady state it holds
// exactly one group per distinct date; Dedupe restores that invariant
// after every merge.
type Index struct {
	groups []Group
}

// Groups returns the underlying group slice. Callers that need a
// canonical order run SortGroups on a copy.
func (x *Index) Groups() []Group {
	return x.groups
}

// Len returns the number of groups.
func (x *Index) Len() int {
	return len(x.groups)
}

// MergeBefore merges events whose dates extend the past side. Groups for
// previously unseen dates are prepended, oldest first.
func (x *Index) MergeBefore(events []Event) {
	x.merge(events, true)
}

// MergeAfter merges events for the future side; new dates are appended.
func (x *Index) MergeAfter(events []Event) {
	x.merge(events, false)
}

// merge buckets the incoming events by date key, extending existing
// groups and collecting groups for unseen dates. Merging is idempotent:
// replaying an already-merged batch changes nothing, since every ID is
// already present in its group.
func (x *Index) merge(events []Event, prepend bool) {
	if len(events) == 0 {
		return
	}

	byDate := make(map[string]*Group)
	for i := range x.groups {
		byDate[x.groups[i].Date] = &x.groups[i]
	}

	var fresh []Group
	freshByDate := make(map[string]int)

	for _, ev := range events {
		if g, ok := byDate[ev.DateKey]; ok {
			g.add(ev)
			continue
		}
		if i, ok := freshByDate[ev.DateKey]; ok {
			fresh[i].add(ev)
			continue
		}
		fresh = append(fresh, Group{Date: ev.DateKey, Items: []Event{ev}})
		freshByDate[ev.DateKey] = len(fresh) - 1
	}

	if len(fresh) == 0 {
		return
	}

	// New past-side dates go in front oldest-first, future-side dates at
	// the back. Canonical ordering is the sorter's job, not the index's.
	SortGroups(fresh)
	if prepend {
		x.groups = append(fresh, x.groups...)
	} else {
		x.groups = append(x.groups, fresh...)
	}
}

// Dedupe collapses groups that share a date key into the first one,
// keeping the first occurrence of each item ID. A single load can touch
// the boundary date from both the past and future insertion paths, so
// this runs after every merge.
func (x *Index) Dedupe() {
	seen := make(map[string]int, len(x.groups))
	out := x.groups[:0]

	for _, g := range x.groups {
		if i, ok := seen[g.Date]; ok {
			kept := &out[i]
			for _, ev := range g.Items {
				kept.add(ev)
			}
			continue
		}
		out = append(out, g)
		seen[g.Date] = len(out) - 1
	}

	x.groups = out
}
