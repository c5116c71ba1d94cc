package gamification

import "github.com/goliatone/go-gamification/service"

// Re-export the service package entry point so consumers can do
// `gamification.New(...)` without importing the wiring package.
type (
	Engine   = service.Engine
	Config   = service.Config
	Commands = service.Commands
	Queries  = service.Queries
	Handlers = service.Handlers
)

// New constructs the engine using the provided configuration.
func New(cfg Config) (*Engine, error) {
	return service.New(cfg)
}
