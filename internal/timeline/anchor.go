package timeline

// Spans of the anchored rolling window: 2 days behind the anchor, the
// anchor day itself, 4 days ahead.
const (
	anchorPastSpan   = 2
	anchorFutureSpan = 4
)

// Viewport tracks whether the user has taken over scrolling. Created at
// widget initialization, mutated only by the scroll-detection
// collaborator, discarded at teardown.
type Viewport struct {
	UserScrolled bool `json:"userScrolled"`
	FixedAnchor  int  `json:"fixedAnchorIndex"`
}

// AnchorIndex picks the viewport center for a sorted group list: the
// group for today, else the first group on or after today, else 0.
func AnchorIndex(groups []Group, todayKey string) int {
	for i, g := range groups {
		if g.Date >= todayKey {
			return i
		}
	}
	return 0
}

// Freeze records the first user scroll, capturing the anchor index at
// that instant. Subsequent calls are no-ops; the frozen index never
// changes afterward.
func (v *Viewport) Freeze(groups []Group, todayKey string) {
	if v.UserScrolled {
		return
	}
	v.UserScrolled = true
	v.FixedAnchor = AnchorIndex(groups, todayKey)
}

// ComputeVisible selects the slice of groups the renderer should show.
// While anchored, that is the 7-wide window around today's anchor,
// clamped to bounds, recomputed from todayKey on every call. Once
// frozen, the entire group list is exposed and todayKey is ignored;
// pagination past that point belongs to the rendering layer.
func ComputeVisible(groups []Group, v Viewport, todayKey string) []Group {
	if len(groups) == 0 {
		return nil
	}
	if v.UserScrolled {
		return groups
	}

	anchor := AnchorIndex(groups, todayKey)
	lo := anchor - anchorPastSpan
	if lo < 0 {
		lo = 0
	}
	hi := anchor + anchorFutureSpan
	if hi > len(groups)-1 {
		hi = len(groups) - 1
	}
	return groups[lo : hi+1]
}
