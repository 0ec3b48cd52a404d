// internal/api/v1/types.go
package v1

import (
	"encoding/json"

	"github.com/vmunix/fixturesync/internal/messages"
)

// importRequest is the body of POST /import.
type importRequest struct {
	CSV     string                 `json:"csv"`
	Options messages.ImportOptions `json:"options"`
}

// EventResponse is the API representation of a stored event.
type EventResponse struct {
	ID         int64           `json:"id"`
	EventType  string          `json:"event_type"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt string          `json:"occurred_at"`
}

// listEventsResponse is the response for GET /events.
type listEventsResponse struct {
	Items  []EventResponse `json:"items"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}
