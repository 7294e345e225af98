package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"subcal/internal/model"
	"subcal/internal/timeline"
)

// DecodeBatch decodes a JSON feed payload. The collaborator may deliver
// either a flat event list or a date-keyed mapping; both are accepted.
// Mapping keys are passed through as-is — the engine re-derives its own
// local date keys regardless, since the feed's day boundary may be UTC.
func DecodeBatch(body []byte) (timeline.Batch, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return timeline.Batch{}, errors.New("empty feed body")
	}

	switch trimmed[0] {
	case '[':
		var events []model.RawEvent
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return timeline.Batch{}, fmt.Errorf("decode event list: %w", err)
		}
		return timeline.Batch{Events: events}, nil
	case '{':
		var byDate map[string][]model.RawEvent
		if err := json.Unmarshal(trimmed, &byDate); err != nil {
			return timeline.Batch{}, fmt.Errorf("decode event mapping: %w", err)
		}
		return timeline.Batch{ByDate: byDate}, nil
	default:
		return timeline.Batch{}, fmt.Errorf("unexpected feed payload starting with %q", trimmed[0])
	}
}
