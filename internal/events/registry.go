package events

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownEvent is returned for logged events of an unregistered type.
var ErrUnknownEvent = errors.New("unknown event type")

// Registry turns logged rows back into concrete events.
type Registry struct {
	ctors map[string]func() Event
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]func() Event)}
}

// Register maps eventType to a constructor of its zero value.
func (r *Registry) Register(eventType string, ctor func() Event) {
	r.ctors[eventType] = ctor
}

// Unmarshal decodes raw into the event type it was logged as.
func (r *Registry) Unmarshal(raw RawEvent) (Event, error) {
	ctor, ok := r.ctors[raw.EventType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, raw.EventType)
	}
	e := ctor()
	if err := json.Unmarshal([]byte(raw.Payload), e); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", raw.EventType, err)
	}
	return e, nil
}

// DefaultRegistry knows every job lifecycle event.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(EventJobStarted, func() Event { return &JobStarted{} })
	r.Register(EventJobResumed, func() Event { return &JobResumed{} })
	r.Register(EventJobSuspended, func() Event { return &JobSuspended{} })
	r.Register(EventRowCompleted, func() Event { return &RowCompleted{} })
	r.Register(EventJobFinished, func() Event { return &JobFinished{} })
	r.Register(EventJobFailed, func() Event { return &JobFailed{} })
	r.Register(EventJobValidated, func() Event { return &JobValidated{} })
	return r
}
