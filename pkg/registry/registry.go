package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/almanak/almanak/pkg/calendar"
	"github.com/almanak/almanak/pkg/event"
)

var (
	// ErrDuplicateCalendar is a case-sensitive calendar name collision.
	ErrDuplicateCalendar = errors.New("duplicate calendar")
	// ErrNoActiveCalendar means an operation needed a selected calendar
	// and none was.
	ErrNoActiveCalendar = errors.New("no active calendar")
)

// Registry owns the named calendars and the active-calendar selection.
// It is created once at process start; calendars are added, renamed and
// selected over its lifetime but never removed.
type Registry struct {
	mu        sync.RWMutex
	calendars map[string]*calendar.Store
	active    string
}

func New() *Registry {
	return &Registry{calendars: make(map[string]*calendar.Store)}
}

// CreateCalendar registers a new calendar under a unique name with an
// IANA timezone.
func (r *Registry) CreateCalendar(name, timezone string) (*calendar.Store, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: calendar name must not be empty", calendar.ErrInvalidInput)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil || timezone == "" {
		return nil, fmt.Errorf("%w: unknown timezone %q", calendar.ErrInvalidInput, timezone)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.calendars[name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateCalendar, name)
	}
	store := calendar.NewStore(name, loc)
	r.calendars[name] = store
	log.Infof("created calendar %q in timezone %s", name, timezone)
	return store, nil
}

// EditCalendar changes a calendar's name or timezone. The store and its
// events survive a rename, and a timezone change leaves every stored
// wall-clock value untouched.
func (r *Registry) EditCalendar(name, property, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, exists := r.calendars[name]
	if !exists {
		return fmt.Errorf("%w: calendar %q", calendar.ErrNotFound, name)
	}

	switch strings.ToLower(property) {
	case "name":
		if value == "" {
			return fmt.Errorf("%w: calendar name must not be empty", calendar.ErrInvalidInput)
		}
		if value == name {
			return nil
		}
		if _, taken := r.calendars[value]; taken {
			return fmt.Errorf("%w: %q", ErrDuplicateCalendar, value)
		}
		delete(r.calendars, name)
		r.calendars[value] = store
		store.Rename(value)
		if r.active == name {
			r.active = value
		}
	case "timezone":
		loc, err := time.LoadLocation(value)
		if err != nil || value == "" {
			return fmt.Errorf("%w: unknown timezone %q", calendar.ErrInvalidInput, value)
		}
		store.SetLocation(loc)
	default:
		return fmt.Errorf("%w: %q", calendar.ErrInvalidProperty, property)
	}
	return nil
}

// UseCalendar selects the active calendar.
func (r *Registry) UseCalendar(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.calendars[name]; !exists {
		return fmt.Errorf("%w: calendar %q", calendar.ErrNotFound, name)
	}
	r.active = name
	return nil
}

// CurrentCalendar returns the active calendar's store.
func (r *Registry) CurrentCalendar() (*calendar.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == "" {
		return nil, ErrNoActiveCalendar
	}
	return r.calendars[r.active], nil
}

// Calendar returns a calendar by name.
func (r *Registry) Calendar(name string) (*calendar.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	store, exists := r.calendars[name]
	if !exists {
		return nil, fmt.Errorf("%w: calendar %q", calendar.ErrNotFound, name)
	}
	return store, nil
}

// CalendarNames returns all calendar names in lexical order.
func (r *Registry) CalendarNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.calendars))
	for name := range r.calendars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CopyEvent copies the unique event matching (subject, sourceStart) from
// the active calendar into the target calendar at targetStart, keeping
// the duration and every other field including the series id. The target
// start is taken as-given in the target calendar's wall clock; no
// conversion applies to the explicit form. A destination duplicate fails
// with ErrDuplicateEvent.
func (r *Registry) CopyEvent(subject string, sourceStart time.Time, targetCalendar string, targetStart time.Time) (event.Event, error) {
	source, err := r.CurrentCalendar()
	if err != nil {
		return event.Event{}, err
	}
	target, err := r.Calendar(targetCalendar)
	if err != nil {
		return event.Event{}, err
	}

	e, err := source.FindEvent(subject, sourceStart)
	if err != nil {
		return event.Event{}, err
	}

	duration := e.End.Sub(e.Start)
	e.Start = targetStart
	e.End = targetStart.Add(duration)
	return target.AddEvent(e)
}

// CopyEventsOn copies every event of the active calendar overlapping
// sourceDate into the target calendar around targetDate. Each event's
// wall clock is converted from the source calendar's timezone to the
// target's, and its date is re-anchored by the sourceDate-to-targetDate
// day offset. Destination duplicates are skipped; the returned count is
// the number of events actually inserted.
func (r *Registry) CopyEventsOn(sourceDate time.Time, targetCalendar string, targetDate time.Time) (int, error) {
	source, err := r.CurrentCalendar()
	if err != nil {
		return 0, err
	}
	target, err := r.Calendar(targetCalendar)
	if err != nil {
		return 0, err
	}
	events := source.EventsOn(sourceDate)
	days := daysBetween(dateOf(sourceDate), dateOf(targetDate))
	return copyConverted(events, source, target, days), nil
}

// CopyEventsBetween copies the active calendar's events overlapping the
// half-open interval [sourceStart, sourceEnd) into the target calendar,
// re-anchored by the day offset from sourceStart to targetStart. Series
// ids are preserved, so a partially copied series still reads as part of
// its series in the target calendar.
func (r *Registry) CopyEventsBetween(sourceStart, sourceEnd time.Time, targetCalendar string, targetStart time.Time) (int, error) {
	source, err := r.CurrentCalendar()
	if err != nil {
		return 0, err
	}
	target, err := r.Calendar(targetCalendar)
	if err != nil {
		return 0, err
	}
	events := source.EventsInRange(sourceStart, sourceEnd)
	days := daysBetween(dateOf(sourceStart), dateOf(targetStart))
	return copyConverted(events, source, target, days), nil
}

// copyConverted inserts the events into the target store after timezone
// conversion and a uniform day shift, silently skipping duplicates.
func copyConverted(events []event.Event, source, target *calendar.Store, dayShift int) int {
	srcLoc, dstLoc := source.Location(), target.Location()
	copied := 0
	for _, e := range events {
		e.Start = shiftDays(convertWallClock(e.Start, srcLoc, dstLoc), dayShift)
		e.End = shiftDays(convertWallClock(e.End, srcLoc, dstLoc), dayShift)
		if _, err := target.AddEvent(e); err != nil {
			if errors.Is(err, calendar.ErrDuplicateEvent) {
				log.Debugf("skipping duplicate %q at %s in calendar %q", e.Subject, e.Start, target.Name())
				continue
			}
			log.Errorf("failed to copy event %q: %v", e.Subject, err)
			continue
		}
		copied++
	}
	return copied
}

// convertWallClock reinterprets a wall-clock time in the source zone and
// returns the equivalent wall clock in the target zone. A 14:00 New York
// time becomes 11:00 Los Angeles time, with the offset tracking DST.
func convertWallClock(t time.Time, from, to *time.Location) time.Time {
	abs := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, from)
	local := abs.In(to)
	return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), local.Second(), 0, time.UTC)
}

func shiftDays(t time.Time, days int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+days, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
