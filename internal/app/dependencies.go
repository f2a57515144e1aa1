package app

import (
	"github.com/almanak/almanak/internal/config"
	"github.com/almanak/almanak/internal/utils"
	"github.com/almanak/almanak/pkg/registry"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Registry        *registry.Registry
	CalendarHandler *registry.Handler
	EventHandler    *registry.EventHandler

	Clock utils.Clock
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Registry = registry.New()
	if cfg.Calendar.Name != "" {
		if _, err := deps.Registry.CreateCalendar(cfg.Calendar.Name, cfg.Calendar.Timezone); err != nil {
			log.Errorf("failed to create default calendar %q: %v", cfg.Calendar.Name, err)
		} else if err := deps.Registry.UseCalendar(cfg.Calendar.Name); err != nil {
			log.Errorf("failed to select default calendar %q: %v", cfg.Calendar.Name, err)
		}
	}

	deps.Clock = &utils.SystemClock{}
	deps.CalendarHandler = registry.NewHandler(deps.Registry)
	deps.EventHandler = registry.NewEventHandler(deps.Registry, deps.Clock)

	return deps
}
