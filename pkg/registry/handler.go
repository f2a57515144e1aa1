package registry

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/almanak/almanak/internal/rest"
	"github.com/almanak/almanak/pkg/calendar"
	"github.com/almanak/almanak/pkg/recurrence"
)

// Handler serves the calendar-management endpoints.
type Handler struct {
	registry *Registry
}

func NewHandler(r *Registry) *Handler {
	return &Handler{registry: r}
}

type CalendarDTO struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
	Active   bool   `json:"active,omitempty"`
}

type editCalendarDTO struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

func (h *Handler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	var dto CalendarDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	store, err := h.registry.CreateCalendar(dto.Name, dto.Timezone)
	if err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}
	rest.WriteJSON(w, http.StatusCreated, CalendarDTO{
		Name:     store.Name(),
		Timezone: store.Location().String(),
	})
}

func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	current, _ := h.registry.CurrentCalendar()
	dtos := make([]CalendarDTO, 0)
	for _, name := range h.registry.CalendarNames() {
		store, err := h.registry.Calendar(name)
		if err != nil {
			continue
		}
		dtos = append(dtos, CalendarDTO{
			Name:     store.Name(),
			Timezone: store.Location().String(),
			Active:   current == store,
		})
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) EditCalendar(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var dto editCalendarDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.registry.EditCalendar(name, dto.Property, dto.Value); err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}
	log.Infof("calendar %q: %s changed to %q", name, dto.Property, dto.Value)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UseCalendar(w http.ResponseWriter, r *http.Request) {
	var dto CalendarDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.registry.UseCalendar(dto.Name); err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetCurrentCalendar(w http.ResponseWriter, r *http.Request) {
	store, err := h.registry.CurrentCalendar()
	if err != nil {
		rest.WriteError(w, statusFor(err), err.Error(), "")
		return
	}
	rest.WriteJSON(w, http.StatusOK, CalendarDTO{
		Name:     store.Name(),
		Timezone: store.Location().String(),
		Active:   true,
	})
}

// statusFor maps the core error kinds to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, calendar.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, calendar.ErrDuplicateEvent),
		errors.Is(err, calendar.ErrAmbiguousMatch),
		errors.Is(err, ErrDuplicateCalendar),
		errors.Is(err, ErrNoActiveCalendar):
		return http.StatusConflict
	case errors.Is(err, calendar.ErrInvalidInput),
		errors.Is(err, calendar.ErrInvalidProperty),
		errors.Is(err, recurrence.ErrInvalidTemplate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
