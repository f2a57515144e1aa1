package calendar

import (
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/almanak/almanak/pkg/event"
	"github.com/almanak/almanak/pkg/recurrence"
)

// Store holds one calendar's events in memory. Mutations are
// all-or-nothing: every validation happens before the first write, so a
// failed operation leaves the store unchanged.
type Store struct {
	mu     sync.RWMutex
	name   string
	loc    *time.Location
	events map[event.Key]event.Event
}

func NewStore(name string, loc *time.Location) *Store {
	return &Store{
		name:   name,
		loc:    loc,
		events: make(map[event.Key]event.Event),
	}
}

func (s *Store) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// Location is the calendar's IANA timezone. Events keep their wall-clock
// values regardless of it; the zone only matters when converting for
// cross-calendar copies or export.
func (s *Store) Location() *time.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loc
}

// Rename is called by the registry; name uniqueness is enforced there.
func (s *Store) Rename(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

// SetLocation changes the calendar's timezone. Stored wall-clock values
// are deliberately untouched.
func (s *Store) SetLocation(loc *time.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loc = loc
}

// AddEvent inserts a single event.
func (s *Store) AddEvent(e event.Event) (event.Event, error) {
	e = e.Normalized()
	if err := e.Validate(); err != nil {
		return event.Event{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[e.Key()]; exists {
		return event.Event{}, fmt.Errorf("%w: %q at %s", ErrDuplicateEvent,
			e.Subject, e.Start.Format("2006-01-02T15:04"))
	}
	s.events[e.Key()] = e
	log.Debugf("calendar %q: added event %q at %s", s.name, e.Subject, e.Start)
	return e, nil
}

// AddSeries generates the template's occurrences and inserts them all, or
// nothing if any occurrence would duplicate an existing event.
func (s *Store) AddSeries(t recurrence.Template) ([]event.Event, error) {
	events, err := recurrence.Generate(t)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range events {
		if _, exists := s.events[e.Key()]; exists {
			return nil, fmt.Errorf("%w: series occurrence %q at %s collides with an existing event",
				ErrDuplicateEvent, e.Subject, e.Start.Format("2006-01-02T15:04"))
		}
	}
	for _, e := range events {
		s.events[e.Key()] = e
	}
	log.Debugf("calendar %q: added series %q with %d occurrences", s.name, t.Subject, len(events))
	return events, nil
}

// RemoveEvent deletes the exact event if present. Removing an absent
// event is not an error.
func (s *Store) RemoveEvent(e event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, e.Key())
}

// RemoveFromSeries deletes the event and every later occurrence of its
// series, keeping earlier occurrences. Without a series id it behaves
// like RemoveEvent.
func (s *Store) RemoveFromSeries(e event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.SeriesID == "" {
		delete(s.events, e.Key())
		return
	}
	for k, stored := range s.events {
		if stored.SeriesID == e.SeriesID && !stored.Start.Before(e.Start) {
			delete(s.events, k)
		}
	}
}

// RemoveAllInSeries deletes every occurrence of the event's series,
// regardless of date. Without a series id it behaves like RemoveEvent.
func (s *Store) RemoveAllInSeries(e event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.SeriesID == "" {
		delete(s.events, e.Key())
		return
	}
	for k, stored := range s.events {
		if stored.SeriesID == e.SeriesID {
			delete(s.events, k)
		}
	}
}

// EditSingle mutates one property of the event identified by the full
// (subject, start, end) key. Editing either date-time property detaches
// the occurrence from its series: it no longer aligns to the generating
// pattern, so series-wide edits must not reach it anymore.
func (s *Store) EditSingle(subject string, start, end time.Time, p Property, v Value) (event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := event.Key{Subject: subject, Start: start, End: end}
	e, ok := s.events[key]
	if !ok {
		return event.Event{}, fmt.Errorf("%w: no event %q at %s", ErrNotFound,
			subject, start.Format("2006-01-02T15:04"))
	}

	edited, err := applyChange(e, p, v)
	if err != nil {
		return event.Event{}, err
	}
	if p == PropertyStart || p == PropertyEnd {
		edited.SeriesID = ""
	}
	if err := s.commit([]event.Key{key}, []event.Event{edited}); err != nil {
		return event.Event{}, err
	}
	return edited, nil
}

// EditFrom mutates the anchor event and every occurrence of its series
// starting on or after the anchor. Date-time values are re-derived
// relative to each occurrence's own date, so a new time-of-day or
// duration applies across the tail of the series while each event keeps
// its date.
func (s *Store) EditFrom(subject string, start time.Time, p Property, v Value) ([]event.Event, error) {
	return s.editSeries(subject, start, p, v, false)
}

// EditAll is EditFrom extended to the whole series, including
// occurrences earlier than the anchor.
func (s *Store) EditAll(subject string, start time.Time, p Property, v Value) ([]event.Event, error) {
	return s.editSeries(subject, start, p, v, true)
}

func (s *Store) editSeries(subject string, start time.Time, p Property, v Value, wholeSeries bool) ([]event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	anchor, err := s.findAnchor(subject, start)
	if err != nil {
		return nil, err
	}

	targets := []event.Event{anchor}
	if anchor.SeriesID != "" {
		for _, e := range s.events {
			if e.SeriesID != anchor.SeriesID || e.Key() == anchor.Key() {
				continue
			}
			if wholeSeries || !e.Start.Before(anchor.Start) {
				targets = append(targets, e)
			}
		}
	}

	oldKeys := make([]event.Key, 0, len(targets))
	edited := make([]event.Event, 0, len(targets))
	for _, e := range targets {
		ne, err := applySeriesChange(e, anchor, p, v)
		if err != nil {
			return nil, err
		}
		oldKeys = append(oldKeys, e.Key())
		edited = append(edited, ne)
	}
	if err := s.commit(oldKeys, edited); err != nil {
		return nil, err
	}
	sortEvents(edited)
	return edited, nil
}

// findAnchor locates the unique event with the given subject and start.
// Distinct end times are the only permitted difference between matches,
// and more than one match fails rather than guessing.
func (s *Store) findAnchor(subject string, start time.Time) (event.Event, error) {
	var found []event.Event
	for _, e := range s.events {
		if e.Subject == subject && e.Start.Equal(start) {
			found = append(found, e)
		}
	}
	switch len(found) {
	case 0:
		return event.Event{}, fmt.Errorf("%w: no event %q at %s", ErrNotFound,
			subject, start.Format("2006-01-02T15:04"))
	case 1:
		return found[0], nil
	default:
		return event.Event{}, fmt.Errorf("%w: %d events named %q start at %s", ErrAmbiguousMatch,
			len(found), subject, start.Format("2006-01-02T15:04"))
	}
}

// FindEvent resolves (subject, start) to the unique matching event, with
// the same disambiguation rule as the edit operations. Used by the
// registry's copy operation.
func (s *Store) FindEvent(subject string, start time.Time) (event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findAnchor(subject, start)
}

// commit atomically replaces the events behind oldKeys with the edited
// ones. It validates every record and rejects key collisions before the
// first write. Callers hold the write lock.
func (s *Store) commit(oldKeys []event.Key, edited []event.Event) error {
	removed := make(map[event.Key]bool, len(oldKeys))
	for _, k := range oldKeys {
		removed[k] = true
	}
	newKeys := make(map[event.Key]bool, len(edited))
	for _, e := range edited {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		k := e.Key()
		if newKeys[k] {
			return fmt.Errorf("%w: edit would produce two events %q at %s", ErrDuplicateEvent,
				e.Subject, e.Start.Format("2006-01-02T15:04"))
		}
		if _, exists := s.events[k]; exists && !removed[k] {
			return fmt.Errorf("%w: edit would collide with existing event %q at %s", ErrDuplicateEvent,
				e.Subject, e.Start.Format("2006-01-02T15:04"))
		}
		newKeys[k] = true
	}
	for _, k := range oldKeys {
		delete(s.events, k)
	}
	for _, e := range edited {
		s.events[e.Key()] = e
	}
	return nil
}

// applyChange mutates one property on a single occurrence.
func applyChange(e event.Event, p Property, v Value) (event.Event, error) {
	switch p {
	case PropertySubject:
		if v.Text == "" {
			return event.Event{}, fmt.Errorf("%w: subject must not be empty", ErrInvalidInput)
		}
		e.Subject = v.Text
	case PropertyDescription:
		e.Description = v.Text
	case PropertyLocation:
		e.Location = v.Text
	case PropertyStatus:
		switch v.Status {
		case event.StatusPublic, event.StatusPrivate:
			e.Status = v.Status
		default:
			return event.Event{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, v.Status)
		}
	case PropertyStart:
		e.Start = v.Time
	case PropertyEnd:
		e.End = v.Time
	default:
		return event.Event{}, fmt.Errorf("%w: unknown property", ErrInvalidProperty)
	}
	return e, nil
}

// applySeriesChange mutates one property on a series occurrence. The
// date-time properties are applied relative to the occurrence's own
// date: the value's offset from the anchor's date carries the new
// time-of-day (and possible day spill) to every target.
func applySeriesChange(e, anchor event.Event, p Property, v Value) (event.Event, error) {
	switch p {
	case PropertyStart:
		offset := v.Time.Sub(dateOf(anchor.Start))
		e.Start = dateOf(e.Start).Add(offset)
		return e, nil
	case PropertyEnd:
		offset := v.Time.Sub(dateOf(anchor.Start))
		e.End = dateOf(e.Start).Add(offset)
		return e, nil
	default:
		return applyChange(e, p, v)
	}
}

// EventsOn returns the events overlapping the given calendar day, sorted
// by start time.
func (s *Store) EventsOn(date time.Time) []event.Event {
	day := dateOf(date)
	return s.EventsInRange(day, day.Add(24*time.Hour))
}

// EventsInRange returns the events overlapping the half-open interval
// [from, to), sorted by start time.
func (s *Store) EventsInRange(from, to time.Time) []event.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]event.Event, 0)
	for _, e := range s.events {
		if e.Overlaps(from, to) {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out
}

// Events returns every event in the calendar, sorted by start time.
func (s *Store) Events() []event.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]event.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	sortEvents(out)
	return out
}

// IsBusy reports whether some event's [start, end) interval contains the
// instant. An event ending exactly then does not count.
func (s *Store) IsBusy(at time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events {
		if e.Covers(at) {
			return true
		}
	}
	return false
}

func sortEvents(events []event.Event) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		if !events[i].End.Equal(events[j].End) {
			return events[i].End.Before(events[j].End)
		}
		return events[i].Subject < events[j].Subject
	})
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
