package feed

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	appLog "subcal/internal/log"
	"subcal/internal/model"
	"subcal/internal/timeline"
)

// Window is the inclusive time range an ICS feed is expanded into.
type Window struct {
	Start time.Time
	End   time.Time
}

// occurrenceCap bounds recurrence expansion per VEVENT so a pathological
// rule cannot flood the timeline.
const occurrenceCap = 5000

// ParseICS parses an iCalendar payload into raw events inside the given
// window. Recurring VEVENTs are expanded into one raw event per
// occurrence, honoring EXDATE; each occurrence gets an ID derived from
// the UID plus its start stamp. Events without a UID are assigned one.
// Individual malformed VEVENTs are logged and skipped.
func ParseICS(src Source, body []byte, w Window) ([]model.RawEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if w.End.Before(w.Start) {
		return nil, errors.New("ICS window end before start")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID)
		return nil, err
	}

	var out []model.RawEvent
	for _, ve := range cal.Events() {
		events, perr := expandVEvent(ve, w)
		if perr != nil {
			appLog.Error("skipping unusable vevent", perr, "id", src.ID)
			continue
		}
		out = append(out, events...)
	}

	appLog.Debug("ics feed parsed", "id", src.ID, "event_count", len(out))
	return out, nil
}

func expandVEvent(ve *ical.VEvent, w Window) ([]model.RawEvent, error) {
	uid := ""
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		uid = p.Value
	}
	if uid == "" {
		uid = uuid.NewString()
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return nil, err
	}
	end, endErr := ve.GetEndAt()

	base := model.RawEvent{
		ID:  uid,
		UID: uid,
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		base.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		base.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		base.Location = p.Value
	}

	rruleProp := ve.GetProperty(ical.ComponentPropertyRrule)
	if rruleProp == nil || rruleProp.Value == "" {
		if start.After(w.End) || start.Before(w.Start) {
			return nil, nil
		}
		base.DtStart = timeline.FormatStamp(start)
		if endErr == nil && !end.IsZero() {
			base.DtEnd = timeline.FormatStamp(end)
		}
		return []model.RawEvent{base}, nil
	}

	r, err := rrule.StrToRRule(rruleProp.Value)
	if err != nil {
		return nil, err
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exDates(ve) {
		set.ExDate(ex.In(start.Location()))
	}

	occTimes := set.Between(w.Start.In(start.Location()), w.End.In(start.Location()), true)
	if len(occTimes) > occurrenceCap {
		occTimes = occTimes[:occurrenceCap]
		appLog.Error("recurrence expansion truncated", errors.New("occurrence cap reached"), "uid", uid, "cap", occurrenceCap)
	}

	var dur time.Duration
	if endErr == nil && end.After(start) {
		dur = end.Sub(start)
	}

	out := make([]model.RawEvent, 0, len(occTimes))
	for _, occ := range occTimes {
		ev := base
		ev.DtStart = timeline.FormatStamp(occ)
		// Per-occurrence ID keeps instances of the same series distinct
		// inside a day group.
		ev.ID = uid + "/" + ev.DtStart
		if dur > 0 {
			ev.DtEnd = timeline.FormatStamp(occ.Add(dur))
		}
		out = append(out, ev)
	}
	return out, nil
}

// exDates collects EXDATE values in their basic DATE-TIME forms.
func exDates(ve *ical.VEvent) []time.Time {
	var out []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}

// parseICSTime handles the basic UTC, local date-time and date-only
// forms found in EXDATE values.
func parseICSTime(v string) (time.Time, error) {
	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, time.Local)
	default:
		return time.ParseInLocation("20060102", v, time.Local)
	}
}
