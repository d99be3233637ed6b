package export

import (
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/shepherd-church/shepherd/internal/models"
)

// ContentTypeCalendar is the MIME type of the iCalendar feed
const ContentTypeCalendar = "text/calendar; charset=utf-8"

// defaultEventLength applies to events without an end time.
const defaultEventLength = 90 * time.Minute

// Calendar renders events as an iCalendar feed named after the church.
func Calendar(name string, events []models.Event, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Shepherd//Church Calendar//EN")
	cal.SetName(name)
	cal.SetXWRCalName(name)

	for i := range events {
		e := &events[i]
		vevent := cal.AddEvent(e.ID.String() + "@shepherd")
		vevent.SetDtStampTime(now)
		vevent.SetCreatedTime(e.CreatedAt)
		vevent.SetModifiedAt(e.UpdatedAt)
		vevent.SetStartAt(e.StartsAt)
		if e.EndsAt != nil {
			vevent.SetEndAt(*e.EndsAt)
		} else {
			vevent.SetEndAt(e.StartsAt.Add(defaultEventLength))
		}
		vevent.SetSummary(e.Title)
		if e.Description != "" {
			vevent.SetDescription(e.Description)
		}
		if e.Location != "" {
			vevent.SetLocation(e.Location)
		}
		if e.IsSpecial {
			vevent.AddProperty(ics.ComponentPropertyCategories, "SPECIAL")
		}
	}

	return cal.Serialize()
}
