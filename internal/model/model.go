package model

// State is the subscription lifecycle state attached to a raw event.
type State string

const (
	StateNew        State = "New"
	StateSubscribed State = "Subscribed"
	StatePending    State = "Pending"
	StatePaused     State = "Paused"
)

// RawEvent is a calendar-style event exactly as the fetch layer delivers
// it. Timestamps are fixed-width UTC text (YYYYMMDDTHHMMSSZ); parsing is
// the timeline engine's job, not this package's. Instances are immutable
// once handed over.
type RawEvent struct {
	ID          string  `json:"id"`
	DtStart     string  `json:"dtstart"`
	DtEnd       string  `json:"dtend,omitempty"`
	Summary     string  `json:"summary"`
	Description string  `json:"description,omitempty"`
	Location    string  `json:"location,omitempty"`
	UID         string  `json:"uid"`
	Year        int     `json:"year,omitempty"`
	Type        string  `json:"type,omitempty"`
	Season      int     `json:"season,omitempty"`
	Episode     *int    `json:"episode,omitempty"`
	Poster      string  `json:"poster,omitempty"`
	Backdrop    string  `json:"backdrop,omitempty"`
	Vote        float64 `json:"vote,omitempty"`
	State       State   `json:"state,omitempty"`
}
