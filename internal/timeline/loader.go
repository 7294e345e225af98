package timeline

import (
	"context"
	"sort"
	"sync"
	"time"

	appLog "subcal/internal/log"
	"subcal/internal/model"
)

// Range tracks how many days around today have been loaded. Both sides
// only ever grow.
type Range struct {
	Before int `json:"before"`
	After  int `json:"after"`
}

// Batch is what a fetch yields: either a flat event list, a pre-grouped
// date-keyed mapping, or both. The engine never trusts the mapping keys;
// events are re-bucketed through its own local-date codec because the
// collaborator's notion of a day boundary may be UTC.
type Batch struct {
	Events []model.RawEvent
	ByDate map[string][]model.RawEvent
}

// Flatten returns every event in the batch as a single list. Mapping
// keys are sorted so the result is deterministic.
func (b Batch) Flatten() []model.RawEvent {
	if len(b.ByDate) == 0 {
		return b.Events
	}
	out := make([]model.RawEvent, 0, len(b.Events))
	out = append(out, b.Events...)
	keys := make([]string, 0, len(b.ByDate))
	for k := range b.ByDate {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, b.ByDate[k]...)
	}
	return out
}

// Fetcher is the single external read this engine depends on. It covers
// [-beforeDays, +afterDays] around today.
type Fetcher interface {
	FetchEvents(ctx context.Context, beforeDays, afterDays int) (Batch, error)
}

// Loader owns the grouping index and the loaded range, widening them on
// demand. The mutex serializes merges: a second widen issued while the
// first is in flight blocks, then gets discarded by the value-based
// threshold check if the first call already covered its range.
type Loader struct {
	mu      sync.Mutex
	fetcher Fetcher
	norm    *Normalizer
	now     func() time.Time

	index  Index
	loaded Range
}

func NewLoader(fetcher Fetcher, loc *time.Location) *Loader {
	return &Loader{
		fetcher: fetcher,
		norm:    NewNormalizer(loc),
		now:     time.Now,
	}
}

// RequestWindow widens the loaded window to cover beforeDays in the past
// and afterDays in the future. If neither side exceeds what is already
// loaded the call is a no-op, which makes redundant widens and stale
// responses harmless. On fetch failure no state changes; retrying the
// identical call is safe.
func (l *Loader) RequestWindow(ctx context.Context, beforeDays, afterDays int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if beforeDays <= l.loaded.Before && afterDays <= l.loaded.After {
		appLog.Debug("widen request already covered",
			"before", beforeDays, "after", afterDays,
			"loaded_before", l.loaded.Before, "loaded_after", l.loaded.After)
		return nil
	}

	batch, err := l.fetcher.FetchEvents(ctx, beforeDays, afterDays)
	if err != nil {
		appLog.Error("window fetch failed; state unchanged", err,
			"before", beforeDays, "after", afterDays)
		return err
	}

	past, future := l.split(l.norm.NormalizeAll(batch.Flatten()))

	if beforeDays > l.loaded.Before {
		l.index.MergeBefore(past)
		l.loaded.Before = beforeDays
	}
	if afterDays > l.loaded.After {
		l.index.MergeAfter(future)
		l.loaded.After = afterDays
	}
	l.index.Dedupe()

	appLog.Info("window widened",
		"before", l.loaded.Before, "after", l.loaded.After,
		"groups", l.index.Len())
	return nil
}

// Refresh re-fetches the currently loaded range and merges the result
// without moving the thresholds. First-seen items win, so existing data
// is never clobbered; new events for already-loaded dates appear.
func (l *Loader) Refresh(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded == (Range{}) {
		return nil
	}

	batch, err := l.fetcher.FetchEvents(ctx, l.loaded.Before, l.loaded.After)
	if err != nil {
		appLog.Error("refresh fetch failed; state unchanged", err)
		return err
	}

	past, future := l.split(l.norm.NormalizeAll(batch.Flatten()))
	l.index.MergeBefore(past)
	l.index.MergeAfter(future)
	l.index.Dedupe()

	appLog.Info("timeline refreshed", "groups", l.index.Len())
	return nil
}

// split partitions normalized events into past and future relative to
// the viewer's current day. The boundary date may appear on either side
// of a single load; the post-merge dedupe pass reconciles that.
func (l *Loader) split(events []Event) (past, future []Event) {
	todayKey := LocalDateKey(l.now(), l.norm.Location())
	for _, ev := range events {
		if ev.DateKey < todayKey {
			past = append(past, ev)
		} else {
			future = append(future, ev)
		}
	}
	return past, future
}

// LoadedRange returns the maximum before/after ever requested.
func (l *Loader) LoadedRange() Range {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// Snapshot returns a sorted copy of the groups plus the loaded range.
// The copy is deep enough for callers to sort items without racing the
// loader.
func (l *Loader) Snapshot() ([]Group, Range) {
	l.mu.Lock()
	defer l.mu.Unlock()

	groups := make([]Group, len(l.index.Groups()))
	for i, g := range l.index.Groups() {
		items := make([]Event, len(g.Items))
		copy(items, g.Items)
		groups[i] = Group{Date: g.Date, Items: items}
	}
	SortGroups(groups)
	return groups, l.loaded
}

// TodayKey returns the viewer-local date key for the current instant,
// re-evaluated on every call rather than cached.
func (l *Loader) TodayKey() string {
	return LocalDateKey(l.now(), l.norm.Location())
}
