package audit

import "github.com/goliatone/go-audit/service"

// Re-export the service package entry point so consumers can do `audit.New(...)`
// without importing internal wiring helpers.
type (
	Service  = service.Service
	Config   = service.Config
	Commands = service.Commands
	Queries  = service.Queries
)

// New constructs the go-audit runtime using the provided configuration.
func New(cfg Config) *Service {
	return service.New(cfg)
}
