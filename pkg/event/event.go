package event

import (
	"fmt"
	"strings"
	"time"
)

// Status is the visibility classification of an event.
type Status string

const (
	StatusPublic  Status = "PUBLIC"
	StatusPrivate Status = "PRIVATE"
)

// ParseStatus parses a status name, case-insensitively.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToUpper(s)) {
	case StatusPublic:
		return StatusPublic, nil
	case StatusPrivate:
		return StatusPrivate, nil
	default:
		return "", fmt.Errorf("unknown event status %q", s)
	}
}

const (
	// All-day events occupy the 08:00-17:00 window of their date.
	AllDayStartHour = 8
	AllDayEndHour   = 17
)

// Event is one calendar occurrence. Start and End are wall-clock
// date-times: they carry no timezone meaning of their own and are always
// represented in time.UTC. The owning calendar supplies the zone.
type Event struct {
	Subject     string
	Start       time.Time
	End         time.Time
	Description string
	Location    string
	Status      Status
	// SeriesID ties occurrences generated from one recurrence template
	// together. Empty for standalone events.
	SeriesID string
}

// Key identifies an event within a calendar. Two events with equal keys
// are duplicates and cannot coexist in one calendar.
type Key struct {
	Subject string
	Start   time.Time
	End     time.Time
}

func (e Event) Key() Key {
	return Key{Subject: e.Subject, Start: e.Start, End: e.End}
}

// Validate checks the structural invariants of the record.
func (e Event) Validate() error {
	if e.Subject == "" {
		return fmt.Errorf("event subject must not be empty")
	}
	if !e.End.After(e.Start) {
		return fmt.Errorf("event end time %s must be after start time %s",
			e.End.Format("2006-01-02T15:04"), e.Start.Format("2006-01-02T15:04"))
	}
	switch e.Status {
	case "", StatusPublic, StatusPrivate:
	default:
		return fmt.Errorf("unknown event status %q", e.Status)
	}
	return nil
}

// Normalized returns the event with defaults applied: an unset status
// becomes PUBLIC.
func (e Event) Normalized() Event {
	if e.Status == "" {
		e.Status = StatusPublic
	}
	return e
}

// IsAllDay reports whether the event occupies exactly the 08:00-17:00
// window of a single calendar date.
func (e Event) IsAllDay() bool {
	sy, sm, sd := e.Start.Date()
	ey, em, ed := e.End.Date()
	if sy != ey || sm != em || sd != ed {
		return false
	}
	return e.Start.Hour() == AllDayStartHour && e.Start.Minute() == 0 && e.Start.Second() == 0 &&
		e.End.Hour() == AllDayEndHour && e.End.Minute() == 0 && e.End.Second() == 0
}

// Overlaps reports whether the event's [Start, End) interval intersects
// the half-open interval [from, to).
func (e Event) Overlaps(from, to time.Time) bool {
	return e.Start.Before(to) && e.End.After(from)
}

// Covers reports whether the instant falls inside [Start, End). An event
// ending exactly at the instant does not cover it.
func (e Event) Covers(at time.Time) bool {
	return !at.Before(e.Start) && at.Before(e.End)
}
