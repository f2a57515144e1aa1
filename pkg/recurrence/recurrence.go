package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/almanak/almanak/pkg/event"
)

// ErrInvalidTemplate is returned for any malformed series template.
var ErrInvalidTemplate = errors.New("invalid series template")

// Template describes a recurring series: the first occurrence's window
// plus the weekday pattern and a termination mode. Exactly one of Count
// and Until must be set.
type Template struct {
	Subject     string
	Description string
	Location    string
	Status      event.Status

	// Start is the first candidate date and the time-of-day applied to
	// every occurrence. End may be the zero time, in which case the
	// all-day convention applies (08:00-17:00 of the start date).
	Start time.Time
	End   time.Time

	Weekdays []time.Weekday

	// Count is the exact number of occurrences to generate.
	Count int
	// Until is the inclusive last candidate date; its time-of-day is
	// ignored. Must be strictly after Start's date.
	Until time.Time
}

// Validate checks the template without generating anything.
func (t Template) Validate() error {
	if t.Subject == "" {
		return fmt.Errorf("%w: subject must not be empty", ErrInvalidTemplate)
	}
	if len(t.Weekdays) == 0 {
		return fmt.Errorf("%w: weekday set must not be empty", ErrInvalidTemplate)
	}
	hasCount := t.Count != 0
	hasUntil := !t.Until.IsZero()
	if hasCount == hasUntil {
		return fmt.Errorf("%w: exactly one of repeat count and until date must be set", ErrInvalidTemplate)
	}
	if hasCount && t.Count < 0 {
		return fmt.Errorf("%w: repeat count must be positive", ErrInvalidTemplate)
	}
	if hasUntil && !dateOf(t.Until).After(dateOf(t.Start)) {
		return fmt.Errorf("%w: until date must be after the start date", ErrInvalidTemplate)
	}
	if !t.End.IsZero() && !t.End.After(t.Start) {
		return fmt.Errorf("%w: end time must be after start time", ErrInvalidTemplate)
	}
	return nil
}

// window resolves the first occurrence's start and end, applying the
// all-day convention when no end was given.
func (t Template) window() (time.Time, time.Time) {
	if t.End.IsZero() {
		d := dateOf(t.Start)
		return d.Add(event.AllDayStartHour * time.Hour), d.Add(event.AllDayEndHour * time.Hour)
	}
	return t.Start, t.End
}

// Generate expands the template into its occurrences: one event per
// matching weekday on or after the start date, in strictly increasing
// chronological order, all sharing a freshly generated series id and the
// template's time-of-day and duration.
func Generate(t Template) ([]event.Event, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	start, end := t.window()
	opt := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   start,
		Byweekday: toRRuleWeekdays(t.Weekdays),
	}
	if t.Count > 0 {
		opt.Count = t.Count
	} else {
		// rrule treats UNTIL as inclusive; pushing it to the end of the
		// day keeps a matching boundary date in the series.
		opt.Until = dateOf(t.Until).Add(24*time.Hour - time.Second)
	}
	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	seriesID := uuid.NewString()
	duration := end.Sub(start)
	status := t.Status
	if status == "" {
		status = event.StatusPublic
	}

	occurrences := rule.All()
	events := make([]event.Event, 0, len(occurrences))
	for _, occ := range occurrences {
		events = append(events, event.Event{
			Subject:     t.Subject,
			Start:       occ,
			End:         occ.Add(duration),
			Description: t.Description,
			Location:    t.Location,
			Status:      status,
			SeriesID:    seriesID,
		})
	}
	return events, nil
}

func toRRuleWeekdays(days []time.Weekday) []rrule.Weekday {
	out := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		switch d {
		case time.Monday:
			out = append(out, rrule.MO)
		case time.Tuesday:
			out = append(out, rrule.TU)
		case time.Wednesday:
			out = append(out, rrule.WE)
		case time.Thursday:
			out = append(out, rrule.TH)
		case time.Friday:
			out = append(out, rrule.FR)
		case time.Saturday:
			out = append(out, rrule.SA)
		case time.Sunday:
			out = append(out, rrule.SU)
		}
	}
	return out
}

// ParseWeekdays parses the compact weekday notation used by the command
// layer: M, T, W, R, F, S, U for Monday through Sunday.
func ParseWeekdays(s string) ([]time.Weekday, error) {
	seen := make(map[time.Weekday]bool)
	days := make([]time.Weekday, 0, 7)
	for _, r := range strings.ToUpper(s) {
		var d time.Weekday
		switch r {
		case 'M':
			d = time.Monday
		case 'T':
			d = time.Tuesday
		case 'W':
			d = time.Wednesday
		case 'R':
			d = time.Thursday
		case 'F':
			d = time.Friday
		case 'S':
			d = time.Saturday
		case 'U':
			d = time.Sunday
		case ',', ' ':
			continue
		default:
			return nil, fmt.Errorf("%w: unknown weekday letter %q", ErrInvalidTemplate, string(r))
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("%w: weekday set must not be empty", ErrInvalidTemplate)
	}
	return days, nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
