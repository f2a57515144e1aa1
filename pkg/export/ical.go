package export

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/almanak/almanak/pkg/event"
)

const (
	icalDateLayout     = "20060102"
	icalDateTimeLayout = "20060102T150405"
)

// ICal renders the events as an iCalendar document for the given
// calendar timezone: one VTIMEZONE block with a STANDARD sub-block
// carrying the zone's UTC offset, then one VEVENT per event. All-day
// events use VALUE=DATE start/end; everything else is a TZID-qualified
// local date-time.
func ICal(events []event.Event, loc *time.Location) (string, error) {
	if loc == nil {
		return "", fmt.Errorf("ical export requires a timezone")
	}

	cal := ics.NewCalendar()
	cal.Components = append(cal.Components, timezoneComponent(loc))

	for _, e := range events {
		ve := cal.AddEvent(uuid.NewString() + "@almanak")
		ve.SetProperty(ics.ComponentPropertySummary, escapeText(e.Subject))
		if e.Description != "" {
			ve.SetProperty(ics.ComponentPropertyDescription, escapeText(e.Description))
		}
		if e.Location != "" {
			ve.SetProperty(ics.ComponentPropertyLocation, escapeText(e.Location))
		}
		ve.SetProperty(ics.ComponentPropertyClass, string(e.Status))

		if e.IsAllDay() {
			ve.SetProperty(ics.ComponentPropertyDtStart, e.Start.Format(icalDateLayout),
				&ics.KeyValues{Key: "VALUE", Value: []string{"DATE"}})
			ve.SetProperty(ics.ComponentPropertyDtEnd, e.End.Format(icalDateLayout),
				&ics.KeyValues{Key: "VALUE", Value: []string{"DATE"}})
		} else {
			ve.SetProperty(ics.ComponentPropertyDtStart, e.Start.Format(icalDateTimeLayout),
				&ics.KeyValues{Key: "TZID", Value: []string{loc.String()}})
			ve.SetProperty(ics.ComponentPropertyDtEnd, e.End.Format(icalDateTimeLayout),
				&ics.KeyValues{Key: "TZID", Value: []string{loc.String()}})
		}
	}

	return cal.Serialize(), nil
}

// timezoneComponent builds the VTIMEZONE block carrying the zone's
// standard UTC offset. January 1 is daylight time in the southern
// hemisphere, so both solstices are sampled and the smaller offset is
// taken as standard.
func timezoneComponent(loc *time.Location) *ics.VTimezone {
	year := time.Now().Year()
	reference := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	if july := time.Date(year, time.July, 1, 0, 0, 0, 0, loc); offsetOf(july) < offsetOf(reference) {
		reference = july
	}
	name, offsetSeconds := reference.Zone()
	offset := formatUTCOffset(offsetSeconds)

	standard := &ics.Standard{}
	standard.SetProperty(ics.ComponentProperty(ics.PropertyDtstart), "19700101T000000")
	standard.SetProperty(ics.ComponentProperty(ics.PropertyTzoffsetfrom), offset)
	standard.SetProperty(ics.ComponentProperty(ics.PropertyTzoffsetto), offset)
	standard.SetProperty(ics.ComponentProperty(ics.PropertyTzname), name)

	vtz := &ics.VTimezone{}
	vtz.SetProperty(ics.ComponentProperty(ics.PropertyTzid), loc.String())
	vtz.Components = append(vtz.Components, standard)
	return vtz
}

func offsetOf(t time.Time) int {
	_, offset := t.Zone()
	return offset
}

func formatUTCOffset(seconds int) string {
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%02d%02d", sign, seconds/3600, (seconds%3600)/60)
}

// escapeText escapes text per RFC 5545: backslash, semicolon, comma and
// newline.
func escapeText(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\n", `\n`,
	)
	return replacer.Replace(s)
}
