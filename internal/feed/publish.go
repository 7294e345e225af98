package feed

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"subcal/internal/timeline"
)

// BuildCalendar serializes the merged timeline back out as an iCalendar
// document so the widget's schedule can be imported into device
// calendars. The raw dtstart/dtend stamps are emitted verbatim; they are
// already in the DATE-TIME UTC form ICS expects.
func BuildCalendar(name string, groups []timeline.Group) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//subcal//subscription timeline//EN")
	cal.SetVersion("2.0")
	cal.SetCalscale("GREGORIAN")
	if name != "" {
		cal.SetXWRCalName(name)
	}

	now := time.Now().UTC()
	for _, g := range groups {
		items := make([]timeline.Event, len(g.Items))
		copy(items, g.Items)
		timeline.SortItems(items)

		for _, ev := range items {
			ve := cal.AddEvent(ev.UID)
			ve.SetDtStampTime(now)
			ve.SetProperty(ical.ComponentPropertyDtStart, ev.DtStart)
			if ev.DtEnd != "" {
				ve.SetProperty(ical.ComponentPropertyDtEnd, ev.DtEnd)
			}
			if ev.Summary != "" {
				ve.SetSummary(ev.Summary)
			}
			if ev.Description != "" {
				ve.SetDescription(ev.Description)
			}
			if ev.Location != "" {
				ve.SetLocation(ev.Location)
			}
		}
	}

	return cal.Serialize()
}
