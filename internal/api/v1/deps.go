package v1

import (
	"errors"

	"github.com/vmunix/fixturesync/internal/events"
	"github.com/vmunix/fixturesync/internal/messages"
)

// ErrMissingDependency is returned when a required dependency is nil.
var ErrMissingDependency = errors.New("missing required dependency")

// ServerDeps contains all dependencies for the API server.
// Required dependencies must be non-nil; optional dependencies may be nil.
type ServerDeps struct {
	// Required dependencies
	Dispatcher *messages.Dispatcher

	// Optional dependencies (nil if not configured)
	Bus      *events.Bus      // completion stream
	EventLog *events.EventLog // event history
}

// Validate checks that all required dependencies are provided.
func (d ServerDeps) Validate() error {
	if d.Dispatcher == nil {
		return errors.New("message dispatcher is required")
	}
	return nil
}
