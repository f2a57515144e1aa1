package registry

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/almanak/almanak/internal/rest"
	"github.com/almanak/almanak/internal/utils"
	"github.com/almanak/almanak/pkg/calendar"
	"github.com/almanak/almanak/pkg/event"
	"github.com/almanak/almanak/pkg/export"
	"github.com/almanak/almanak/pkg/recurrence"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04"
)

// EventHandler serves the event endpoints of the active calendar.
type EventHandler struct {
	registry *Registry
	clock    utils.Clock
}

func NewEventHandler(r *Registry, clock utils.Clock) *EventHandler {
	return &EventHandler{registry: r, clock: clock}
}

type EventDTO struct {
	Subject     string `json:"subject"`
	Start       string `json:"start"`
	End         string `json:"end,omitempty"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Status      string `json:"status,omitempty"`
	SeriesID    string `json:"seriesId,omitempty"`
	AllDay      bool   `json:"allDay,omitempty"`
}

type SeriesDTO struct {
	Subject     string `json:"subject"`
	Start       string `json:"start"`
	End         string `json:"end,omitempty"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Status      string `json:"status,omitempty"`
	Weekdays    string `json:"weekdays"`
	Count       int    `json:"count,omitempty"`
	Until       string `json:"until,omitempty"`
}

type editEventDTO struct {
	Scope    string `json:"scope"`
	Subject  string `json:"subject"`
	Start    string `json:"start"`
	End      string `json:"end,omitempty"`
	Property string `json:"property"`
	Value    string `json:"value"`
}

type copyEventDTO struct {
	Subject        string `json:"subject"`
	SourceStart    string `json:"sourceStart"`
	TargetCalendar string `json:"targetCalendar"`
	TargetStart    string `json:"targetStart"`
}

type copyDayDTO struct {
	SourceDate     string `json:"sourceDate"`
	TargetCalendar string `json:"targetCalendar"`
	TargetDate     string `json:"targetDate"`
}

type copyRangeDTO struct {
	SourceStart    string `json:"sourceStart"`
	SourceEnd      string `json:"sourceEnd"`
	TargetCalendar string `json:"targetCalendar"`
	TargetStart    string `json:"targetStart"`
}

func eventToDTO(e event.Event) EventDTO {
	return EventDTO{
		Subject:     e.Subject,
		Start:       e.Start.Format(dateTimeLayout),
		End:         e.End.Format(dateTimeLayout),
		Description: e.Description,
		Location:    e.Location,
		Status:      string(e.Status),
		SeriesID:    e.SeriesID,
		AllDay:      e.IsAllDay(),
	}
}

func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var dto EventDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	store, err := h.registry.CurrentCalendar()
	if err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}

	start, err := parseDateTime(dto.Start)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid start date-time", err.Error())
		return
	}
	var end time.Time
	if dto.End == "" {
		// All-day convention: no end means the 08:00-17:00 window.
		day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
		start = day.Add(event.AllDayStartHour * time.Hour)
		end = day.Add(event.AllDayEndHour * time.Hour)
	} else {
		end, err = parseDateTime(dto.End)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid end date-time", err.Error())
			return
		}
	}

	status := event.StatusPublic
	if dto.Status != "" {
		status, err = event.ParseStatus(dto.Status)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid status", err.Error())
			return
		}
	}

	added, err := store.AddEvent(event.Event{
		Subject:     dto.Subject,
		Start:       start,
		End:         end,
		Description: dto.Description,
		Location:    dto.Location,
		Status:      status,
	})
	if err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}
	rest.WriteJSON(w, http.StatusCreated, eventToDTO(added))
}

func (h *EventHandler) CreateSeries(w http.ResponseWriter, r *http.Request) {
	var dto SeriesDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	store, err := h.registry.CurrentCalendar()
	if err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}

	tpl, err := seriesTemplate(dto)
	if err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}

	added, err := store.AddSeries(tpl)
	if err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}
	dtos := make([]EventDTO, 0, len(added))
	for _, e := range added {
		dtos = append(dtos, eventToDTO(e))
	}
	rest.WriteJSON(w, http.StatusCreated, dtos)
}

func seriesTemplate(dto SeriesDTO) (recurrence.Template, error) {
	start, err := parseDateTime(dto.Start)
	if err != nil {
		return recurrence.Template{}, fmt.Errorf("%w: invalid start: %v", recurrence.ErrInvalidTemplate, err)
	}
	tpl := recurrence.Template{
		Subject:     dto.Subject,
		Description: dto.Description,
		Location:    dto.Location,
		Start:       start,
		Count:       dto.Count,
	}
	if dto.End != "" {
		tpl.End, err = parseDateTime(dto.End)
		if err != nil {
			return recurrence.Template{}, fmt.Errorf("%w: invalid end: %v", recurrence.ErrInvalidTemplate, err)
		}
	}
	if dto.Status != "" {
		status, err := event.ParseStatus(dto.Status)
		if err != nil {
			return recurrence.Template{}, fmt.Errorf("%w: %v", recurrence.ErrInvalidTemplate, err)
		}
		tpl.Status = status
	}
	if dto.Weekdays != "" {
		tpl.Weekdays, err = recurrence.ParseWeekdays(dto.Weekdays)
		if err != nil {
			return recurrence.Template{}, err
		}
	}
	if dto.Until != "" {
		tpl.Until, err = parseDate(dto.Until)
		if err != nil {
			return recurrence.Template{}, fmt.Errorf("%w: invalid until date: %v", recurrence.ErrInvalidTemplate, err)
		}
	}
	return tpl, nil
}

func (h *EventHandler) RemoveEvent(w http.ResponseWriter, r *http.Request) {
	store, err := h.registry.CurrentCalendar()
	if err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}

	scope, err := calendar.ParseRemoveScope(r.URL.Query().Get("scope"))
	if err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}
	subject := r.URL.Query().Get("subject")
	start, err := parseDateTime(r.URL.Query().Get("start"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid start date-time", err.Error())
		return
	}

	target, err := store.FindEvent(subject, start)
	if err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}

	switch scope {
	case calendar.RemoveThis:
		store.RemoveEvent(target)
	case calendar.RemoveThisAndFuture:
		store.RemoveFromSeries(target)
	case calendar.RemoveAll:
		store.RemoveAllInSeries(target)
	}
	log.Debugf("removed %q at %s (scope %s)", subject, start.Format(dateTimeLayout), r.URL.Query().Get("scope"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *EventHandler) EditEvent(w http.ResponseWriter, r *http.Request) {
	var dto editEventDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	store, err := h.registry.CurrentCalendar()
	if err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}

	scope, err := calendar.ParseEditScope(dto.Scope)
	if err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}
	prop, err := calendar.ParseProperty(dto.Property)
	if err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}
	value, err := propertyValue(prop, dto.Value)
	if err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}
	start, err := parseDateTime(dto.Start)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid start date-time", err.Error())
		return
	}

	var edited []event.Event
	switch scope {
	case calendar.EditSingleScope:
		end, err := parseDateTime(dto.End)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid end date-time", err.Error())
			return
		}
		e, err := store.EditSingle(dto.Subject, start, end, prop, value)
		if err != nil {
			rest.WriteError(w, statusFor(err), err.Error(), "")
			return
		}
		edited = []event.Event{e}
	case calendar.EditFromScope:
		edited, err = store.EditFrom(dto.Subject, start, prop, value)
		if err != nil {
			rest.WriteError(w, statusFor(err), err.Error(), "")
			return
		}
	case calendar.EditAllScope:
		edited, err = store.EditAll(dto.Subject, start, prop, value)
		if err != nil {
			rest.WriteError(w, statusFor(err), err.Error(), "")
			return
		}
	}

	dtos := make([]EventDTO, 0, len(edited))
	for _, e := range edited {
		dtos = append(dtos, eventToDTO(e))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// propertyValue parses the raw command-layer value into the typed form
// the store expects for the property.
func propertyValue(prop calendar.Property, raw string) (calendar.Value, error) {
	switch prop {
	case calendar.PropertyStart, calendar.PropertyEnd:
		t, err := parseDateTime(raw)
		if err != nil {
			return calendar.Value{}, fmt.Errorf("%w: invalid date-time %q", calendar.ErrInvalidInput, raw)
		}
		return calendar.Value{Time: t}, nil
	case calendar.PropertyStatus:
		status, err := event.ParseStatus(raw)
		if err != nil {
			return calendar.Value{}, fmt.Errorf("%w: %v", calendar.ErrInvalidInput, err)
		}
		return calendar.Value{Status: status}, nil
	default:
		return calendar.Value{Text: raw}, nil
	}
}

func (h *EventHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	store, err := h.registry.CurrentCalendar()
	if err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}

	var events []event.Event
	query := r.URL.Query()
	switch {
	case query.Get("date") != "":
		date, err := parseDate(query.Get("date"))
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid date", "'date' must be YYYY-MM-DD")
			return
		}
		events = store.EventsOn(date)
	case query.Get("from") != "" && query.Get("to") != "":
		from, err := parseDateTime(query.Get("from"))
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid from date-time", err.Error())
			return
		}
		to, err := parseDateTime(query.Get("to"))
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid to date-time", err.Error())
			return
		}
		events = store.EventsInRange(from, to)
	default:
		events = store.Events()
	}

	dtos := make([]EventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, eventToDTO(e))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *EventHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	store, err := h.registry.CurrentCalendar()
	if err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}

	// Stored events are wall-clock values in the calendar's zone, so the
	// default instant must be rendered in that zone too.
	at := wallClockAt(h.clock.Now(), store.Location())
	if raw := r.URL.Query().Get("at"); raw != "" {
		at, err = parseDateTime(raw)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid instant", err.Error())
			return
		}
	}

	rest.WriteJSON(w, http.StatusOK, map[string]any{
		"at":   at.Format(dateTimeLayout),
		"busy": store.IsBusy(at),
	})
}

func (h *EventHandler) CopyEvent(w http.ResponseWriter, r *http.Request) {
	var dto copyEventDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	sourceStart, err := parseDateTime(dto.SourceStart)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid source start", err.Error())
		return
	}
	targetStart, err := parseDateTime(dto.TargetStart)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid target start", err.Error())
		return
	}

	copied, err := h.registry.CopyEvent(dto.Subject, sourceStart, dto.TargetCalendar, targetStart)
	if err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}
	rest.WriteJSON(w, http.StatusCreated, eventToDTO(copied))
}

func (h *EventHandler) CopyDay(w http.ResponseWriter, r *http.Request) {
	var dto copyDayDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	sourceDate, err := parseDate(dto.SourceDate)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid source date", err.Error())
		return
	}
	targetDate, err := parseDate(dto.TargetDate)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid target date", err.Error())
		return
	}

	copied, err := h.registry.CopyEventsOn(sourceDate, dto.TargetCalendar, targetDate)
	if err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}
	rest.WriteJSON(w, http.StatusOK, map[string]int{"copied": copied})
}

func (h *EventHandler) CopyRange(w http.ResponseWriter, r *http.Request) {
	var dto copyRangeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	sourceStart, err := parseDate(dto.SourceStart)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid source start date", err.Error())
		return
	}
	sourceEnd, err := parseDate(dto.SourceEnd)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid source end date", err.Error())
		return
	}
	targetStart, err := parseDate(dto.TargetStart)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid target start date", err.Error())
		return
	}

	copied, err := h.registry.CopyEventsBetween(sourceStart, sourceEnd, dto.TargetCalendar, targetStart)
	if err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}
	rest.WriteJSON(w, http.StatusOK, map[string]int{"copied": copied})
}

func (h *EventHandler) Export(w http.ResponseWriter, r *http.Request) {
	store, err := h.registry.CurrentCalendar()
	if err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}

	events := store.Events()
	switch format := r.URL.Query().Get("format"); format {
	case "csv":
		body, err := export.CSV(events)
		if err != nil {
			rest.WriteError(w, http.StatusInternalServerError, "CSV export failed", err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(body))
	case "ical", "ics":
		body, err := export.ICal(events, store.Location())
		if err != nil {
			rest.WriteError(w, http.StatusInternalServerError, "iCalendar export failed", err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(body))
	default:
		rest.WriteError(w, http.StatusBadRequest, "Unknown export format", "'format' must be csv or ical")
	}
}

// wallClockAt renders an absolute instant as the given zone's local wall
// clock, minute precision, in the UTC-flagged representation events use.
func wallClockAt(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), 0, 0, time.UTC)
}

func parseDateTime(s string) (time.Time, error) {
	return time.Parse(dateTimeLayout, s)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
