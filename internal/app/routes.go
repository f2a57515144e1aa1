package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Calendar management
	r.HandleFunc("/api/calendar", deps.CalendarHandler.ListCalendars).Methods("GET")
	r.HandleFunc("/api/calendar", deps.CalendarHandler.CreateCalendar).Methods("POST")
	r.HandleFunc("/api/calendar/current", deps.CalendarHandler.GetCurrentCalendar).Methods("GET")
	r.HandleFunc("/api/calendar/current", deps.CalendarHandler.UseCalendar).Methods("PUT")
	r.HandleFunc("/api/calendar/{name}", deps.CalendarHandler.EditCalendar).Methods("PUT")

	// Events on the active calendar
	r.HandleFunc("/api/calendar/current/event", deps.EventHandler.GetEvents).Methods("GET")
	r.HandleFunc("/api/calendar/current/event", deps.EventHandler.CreateEvent).Methods("POST")
	r.HandleFunc("/api/calendar/current/event", deps.EventHandler.EditEvent).Methods("PATCH")
	r.HandleFunc("/api/calendar/current/event", deps.EventHandler.RemoveEvent).Methods("DELETE")
	r.HandleFunc("/api/calendar/current/series", deps.EventHandler.CreateSeries).Methods("POST")
	r.HandleFunc("/api/calendar/current/status", deps.EventHandler.GetStatus).Methods("GET")

	// Cross-calendar copy
	r.HandleFunc("/api/calendar/current/copy/event", deps.EventHandler.CopyEvent).Methods("POST")
	r.HandleFunc("/api/calendar/current/copy/day", deps.EventHandler.CopyDay).Methods("POST")
	r.HandleFunc("/api/calendar/current/copy/range", deps.EventHandler.CopyRange).Methods("POST")

	// Export
	r.HandleFunc("/api/calendar/current/export", deps.EventHandler.Export).Methods("GET").Queries("format", "{format}")
}
