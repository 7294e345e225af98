package timeline

import (
	"time"

	appLog "subcal/internal/log"
	"subcal/internal/model"
)

// Event is a raw event with parsed instants and the derived local-date
// key attached. Events are created once by the normalizer and superseded
// on re-fetch, never edited in place.
type Event struct {
	model.RawEvent

	// Start is the parsed dtstart instant. Always set; events whose
	// dtstart fails to parse never become Events.
	Start time.Time `json:"start"`

	// End is the parsed dtend instant, or the zero time when dtend is
	// absent or unparsable. Only Start drives grouping and ordering.
	End time.Time `json:"end,omitzero"`

	// DateKey is the viewer-local YYYY-MM-DD bucket for Start.
	DateKey string `json:"date_key"`
}

// Normalizer attaches instants and date keys to raw events.
type Normalizer struct {
	loc *time.Location
}

func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return &Normalizer{loc: loc}
}

func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Normalize parses one raw event. The second return is false when the
// event must be skipped, which happens iff dtstart is malformed. A
// malformed dtend is tolerated and leaves End at the zero time.
func (n *Normalizer) Normalize(raw model.RawEvent) (Event, bool) {
	start, err := ParseStamp(raw.DtStart)
	if err != nil {
		appLog.Error("skipping event with malformed dtstart", err, "id", raw.ID, "dtstart", raw.DtStart)
		return Event{}, false
	}

	ev := Event{
		RawEvent: raw,
		Start:    start,
		DateKey:  LocalDateKey(start, n.loc),
	}

	if raw.DtEnd != "" {
		if end, err := ParseStamp(raw.DtEnd); err == nil {
			ev.End = end
		} else {
			appLog.Debug("ignoring malformed dtend", "id", raw.ID, "dtend", raw.DtEnd)
		}
	}

	return ev, true
}

// NormalizeAll normalizes a batch, dropping skipped events.
func (n *Normalizer) NormalizeAll(raws []model.RawEvent) []Event {
	out := make([]Event, 0, len(raws))
	for _, raw := range raws {
		if ev, ok := n.Normalize(raw); ok {
			out = append(out, ev)
		}
	}
	return out
}
