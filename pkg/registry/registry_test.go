package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almanak/almanak/pkg/calendar"
	"github.com/almanak/almanak/pkg/event"
	"github.com/almanak/almanak/pkg/recurrence"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New()
	_, err := r.CreateCalendar("work", "America/New_York")
	require.NoError(t, err)
	_, err = r.CreateCalendar("home", "America/Los_Angeles")
	require.NoError(t, err)
	require.NoError(t, r.UseCalendar("work"))
	return r
}

func utc(month, day, hour, minute int) time.Time {
	return time.Date(2025, time.Month(month), day, hour, minute, 0, 0, time.UTC)
}

func mustAdd(t *testing.T, s *calendar.Store, e event.Event) event.Event {
	t.Helper()
	added, err := s.AddEvent(e)
	require.NoError(t, err)
	return added
}

func TestRegistry_CreateCalendar(t *testing.T) {
	r := New()
	_, err := r.CreateCalendar("work", "America/New_York")
	require.NoError(t, err)

	_, err = r.CreateCalendar("work", "Europe/Paris")
	assert.ErrorIs(t, err, ErrDuplicateCalendar)

	_, err = r.CreateCalendar("", "America/New_York")
	assert.ErrorIs(t, err, calendar.ErrInvalidInput)

	_, err = r.CreateCalendar("bad", "Mars/Olympus")
	assert.ErrorIs(t, err, calendar.ErrInvalidInput)

	assert.Equal(t, []string{"work"}, r.CalendarNames())
}

func TestRegistry_ActiveCalendar(t *testing.T) {
	r := New()
	_, err := r.CurrentCalendar()
	assert.ErrorIs(t, err, ErrNoActiveCalendar)

	_, err = r.CreateCalendar("work", "America/New_York")
	require.NoError(t, err)

	assert.ErrorIs(t, r.UseCalendar("missing"), calendar.ErrNotFound)

	require.NoError(t, r.UseCalendar("work"))
	current, err := r.CurrentCalendar()
	require.NoError(t, err)
	assert.Equal(t, "work", current.Name())
}

func TestRegistry_EditCalendar_Rename(t *testing.T) {
	r := newTestRegistry(t)
	work, err := r.Calendar("work")
	require.NoError(t, err)
	mustAdd(t, work, event.Event{Subject: "Standup", Start: utc(5, 5, 9, 0), End: utc(5, 5, 9, 30)})

	require.NoError(t, r.EditCalendar("work", "name", "office"))

	// The store and its events survive the rename, and the active
	// selection follows the new name.
	assert.Equal(t, []string{"home", "office"}, r.CalendarNames())
	renamed, err := r.Calendar("office")
	require.NoError(t, err)
	assert.Len(t, renamed.Events(), 1)
	current, err := r.CurrentCalendar()
	require.NoError(t, err)
	assert.Equal(t, "office", current.Name())

	_, err = r.Calendar("work")
	assert.ErrorIs(t, err, calendar.ErrNotFound)
}

func TestRegistry_EditCalendar_RenameCollision(t *testing.T) {
	r := newTestRegistry(t)
	err := r.EditCalendar("work", "name", "home")
	assert.ErrorIs(t, err, ErrDuplicateCalendar)
	assert.Equal(t, []string{"home", "work"}, r.CalendarNames())
}

func TestRegistry_EditCalendar_Timezone(t *testing.T) {
	r := newTestRegistry(t)
	work, err := r.Calendar("work")
	require.NoError(t, err)
	e := mustAdd(t, work, event.Event{Subject: "Standup", Start: utc(5, 5, 9, 0), End: utc(5, 5, 9, 30)})

	require.NoError(t, r.EditCalendar("work", "timezone", "Europe/Paris"))

	// Changing the timezone never rewrites stored wall-clock values.
	assert.Equal(t, "Europe/Paris", work.Location().String())
	events := work.Events()
	require.Len(t, events, 1)
	assert.Equal(t, e.Start, events[0].Start)

	assert.ErrorIs(t, r.EditCalendar("work", "timezone", "Nowhere/None"), calendar.ErrInvalidInput)
	assert.ErrorIs(t, r.EditCalendar("work", "color", "blue"), calendar.ErrInvalidProperty)
	assert.ErrorIs(t, r.EditCalendar("missing", "timezone", "UTC"), calendar.ErrNotFound)
}

func TestRegistry_CopyEvent_Explicit(t *testing.T) {
	r := newTestRegistry(t)
	work, err := r.Calendar("work")
	require.NoError(t, err)
	mustAdd(t, work, event.Event{
		Subject: "Design review", Start: utc(5, 5, 14, 0), End: utc(5, 5, 15, 30),
		Description: "v2 mockups", Location: "Room 4", Status: event.StatusPrivate,
	})

	copied, err := r.CopyEvent("Design review", utc(5, 5, 14, 0), "home", utc(5, 12, 9, 0))
	require.NoError(t, err)

	// Explicit copies take the target start as-given: no timezone math.
	assert.Equal(t, utc(5, 12, 9, 0), copied.Start)
	assert.Equal(t, utc(5, 12, 10, 30), copied.End, "duration must be preserved")
	assert.Equal(t, "v2 mockups", copied.Description)
	assert.Equal(t, "Room 4", copied.Location)
	assert.Equal(t, event.StatusPrivate, copied.Status)

	// The source event stays where it was.
	assert.Len(t, work.Events(), 1)

	// A second identical copy collides at the destination.
	_, err = r.CopyEvent("Design review", utc(5, 5, 14, 0), "home", utc(5, 12, 9, 0))
	assert.ErrorIs(t, err, calendar.ErrDuplicateEvent)
}

func TestRegistry_CopyEvent_Errors(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.CopyEvent("Ghost", utc(5, 5, 14, 0), "home", utc(5, 5, 14, 0))
	assert.ErrorIs(t, err, calendar.ErrNotFound)

	work, findErr := r.Calendar("work")
	require.NoError(t, findErr)
	mustAdd(t, work, event.Event{Subject: "Real", Start: utc(5, 5, 14, 0), End: utc(5, 5, 15, 0)})
	_, err = r.CopyEvent("Real", utc(5, 5, 14, 0), "missing", utc(5, 5, 14, 0))
	assert.ErrorIs(t, err, calendar.ErrNotFound)
}

func TestRegistry_CopyEventsOn_ConvertsWallClock(t *testing.T) {
	r := newTestRegistry(t)
	work, err := r.Calendar("work")
	require.NoError(t, err)
	mustAdd(t, work, event.Event{Subject: "Sync", Start: utc(5, 5, 14, 0), End: utc(5, 5, 15, 0)})

	copied, err := r.CopyEventsOn(utc(5, 5, 0, 0), "home", utc(5, 5, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, copied)

	// 14:00 in New York is 11:00 in Los Angeles.
	home, err := r.Calendar("home")
	require.NoError(t, err)
	events := home.Events()
	require.Len(t, events, 1)
	assert.Equal(t, utc(5, 5, 11, 0), events[0].Start)
	assert.Equal(t, utc(5, 5, 12, 0), events[0].End)
}

func TestRegistry_CopyEventsOn_DSTOffsets(t *testing.T) {
	r := New()
	_, err := r.CreateCalendar("ny", "America/New_York")
	require.NoError(t, err)
	_, err = r.CreateCalendar("zulu", "UTC")
	require.NoError(t, err)
	require.NoError(t, r.UseCalendar("ny"))

	ny, err := r.Calendar("ny")
	require.NoError(t, err)
	// Same wall clock in winter and in summer.
	mustAdd(t, ny, event.Event{Subject: "Call", Start: utc(1, 15, 14, 0), End: utc(1, 15, 15, 0)})
	mustAdd(t, ny, event.Event{Subject: "Call", Start: utc(7, 15, 14, 0), End: utc(7, 15, 15, 0)})

	_, err = r.CopyEventsOn(utc(1, 15, 0, 0), "zulu", utc(1, 15, 0, 0))
	require.NoError(t, err)
	_, err = r.CopyEventsOn(utc(7, 15, 0, 0), "zulu", utc(7, 15, 0, 0))
	require.NoError(t, err)

	zulu, err := r.Calendar("zulu")
	require.NoError(t, err)
	events := zulu.Events()
	require.Len(t, events, 2)
	// EST is UTC-5, EDT is UTC-4.
	assert.Equal(t, utc(1, 15, 19, 0), events[0].Start)
	assert.Equal(t, utc(7, 15, 18, 0), events[1].Start)
}

func TestRegistry_CopyEventsOn_ReanchorsAndSkipsDuplicates(t *testing.T) {
	r := newTestRegistry(t)
	work, err := r.Calendar("work")
	require.NoError(t, err)
	mustAdd(t, work, event.Event{Subject: "One", Start: utc(5, 5, 9, 0), End: utc(5, 5, 10, 0)})
	mustAdd(t, work, event.Event{Subject: "Two", Start: utc(5, 5, 14, 0), End: utc(5, 5, 15, 0)})

	// One converted copy already sits in the destination.
	home, err := r.Calendar("home")
	require.NoError(t, err)
	mustAdd(t, home, event.Event{Subject: "Two", Start: utc(5, 12, 11, 0), End: utc(5, 12, 12, 0)})

	copied, err := r.CopyEventsOn(utc(5, 5, 0, 0), "home", utc(5, 12, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, copied, "the duplicate is skipped and not counted")

	events := home.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "One", events[0].Subject)
	assert.Equal(t, utc(5, 12, 6, 0), events[0].Start, "copied a week later, NY 09:00 becomes LA 06:00")
}

func TestRegistry_CopyEventsBetween_PreservesSeriesID(t *testing.T) {
	r := newTestRegistry(t)
	work, err := r.Calendar("work")
	require.NoError(t, err)
	series, err := work.AddSeries(recurrence.Template{
		Subject:  "Standup",
		Start:    utc(5, 5, 9, 0),
		End:      utc(5, 5, 9, 30),
		Weekdays: []time.Weekday{time.Monday, time.Wednesday},
		Count:    4, // 05, 07, 12, 14
	})
	require.NoError(t, err)

	// Copy the first week only, re-anchored one week later.
	copied, err := r.CopyEventsBetween(utc(5, 5, 0, 0), utc(5, 12, 0, 0), "home", utc(5, 12, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, copied)

	home, err := r.Calendar("home")
	require.NoError(t, err)
	events := home.Events()
	require.Len(t, events, 2)
	assert.Equal(t, utc(5, 12, 6, 0), events[0].Start)
	assert.Equal(t, utc(5, 14, 6, 0), events[1].Start)
	for _, e := range events {
		assert.Equal(t, series[0].SeriesID, e.SeriesID, "copies stay members of their series")
	}
}

func TestRegistry_CopyEventsBetween_HalfOpenInterval(t *testing.T) {
	r := newTestRegistry(t)
	work, err := r.Calendar("work")
	require.NoError(t, err)
	mustAdd(t, work, event.Event{Subject: "In", Start: utc(5, 5, 9, 0), End: utc(5, 5, 10, 0)})
	mustAdd(t, work, event.Event{Subject: "Out", Start: utc(5, 7, 0, 0), End: utc(5, 7, 1, 0)})

	copied, err := r.CopyEventsBetween(utc(5, 5, 0, 0), utc(5, 7, 0, 0), "home", utc(5, 5, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, copied, "an event starting at the interval end is excluded")
}

func TestConvertWallClock(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	got := convertWallClock(utc(5, 5, 14, 0), ny, la)
	assert.Equal(t, utc(5, 5, 11, 0), got)

	// Early-morning conversions can cross a date boundary.
	got = convertWallClock(utc(5, 5, 1, 0), ny, la)
	assert.Equal(t, utc(5, 4, 22, 0), got)
}
