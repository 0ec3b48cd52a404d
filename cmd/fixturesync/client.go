package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/vmunix/fixturesync/internal/messages"
	"github.com/vmunix/fixturesync/internal/progress"
)

// Client wraps HTTP calls to the fixturesync daemon.
type Client struct {
	http *resty.Client
}

// NewClient creates a new daemon API client.
func NewClient(serverURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(serverURL).
			SetTimeout(30 * time.Second).
			SetHeader("Accept", "application/json"),
	}
}

// apiError is the daemon's error body.
type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func responseError(resp *resty.Response) error {
	if e, ok := resp.Error().(*apiError); ok && e.Error != "" {
		return fmt.Errorf("server error %d (%s): %s", resp.StatusCode(), e.Code, e.Error)
	}
	return fmt.Errorf("server error %d: %s", resp.StatusCode(), resp.String())
}

// Import sends a start request. A refused request (409) is returned as a
// reply with OK unset, not as an error.
func (c *Client) Import(csv string, opts messages.ImportOptions) (*messages.StartReply, error) {
	var reply messages.StartReply
	resp, err := c.http.R().
		SetBody(map[string]any{"csv": csv, "options": opts}).
		SetResult(&reply).
		SetError(&apiError{}).
		Post("/api/v1/import")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusAccepted:
		return &reply, nil
	case http.StatusConflict:
		if err := json.Unmarshal(resp.Body(), &reply); err != nil {
			return nil, responseError(resp)
		}
		return &reply, nil
	default:
		return nil, responseError(resp)
	}
}

// Status returns the daemon's current progress snapshot.
func (c *Client) Status() (*progress.Snapshot, error) {
	var snap progress.Snapshot
	resp, err := c.http.R().SetResult(&snap).SetError(&apiError{}).Get("/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return nil, responseError(resp)
	}
	return &snap, nil
}

// EventResponse mirrors the daemon's event listing item.
type EventResponse struct {
	ID         int64           `json:"id"`
	EventType  string          `json:"event_type"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt string          `json:"occurred_at"`
}

// EventsResponse mirrors GET /api/v1/events.
type EventsResponse struct {
	Items  []EventResponse `json:"items"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// Events lists recent persisted events.
func (c *Client) Events(limit int) (*EventsResponse, error) {
	var out EventsResponse
	resp, err := c.http.R().
		SetQueryParam("limit", fmt.Sprint(limit)).
		SetResult(&out).
		SetError(&apiError{}).
		Get("/api/v1/events")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return nil, responseError(resp)
	}
	return &out, nil
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
