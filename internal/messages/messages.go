// Package messages defines the start, status and completion messages of the
// import job and dispatches them to the session that owns the page.
package messages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vmunix/fixturesync/internal/events"
	"github.com/vmunix/fixturesync/internal/progress"
	"github.com/vmunix/fixturesync/pkg/fixture"
)

// Message types.
const (
	TypeImport   = "TEAM_BULK_IMPORT"
	TypeStatus   = "TEAM_BULK_STATUS"
	TypeFinished = "TEAM_BULK_FINISHED"
)

var (
	// ErrUnknownType is returned for envelopes of a type nobody handles.
	ErrUnknownType = errors.New("unknown message type")
	// ErrBadPayload is returned when a payload cannot be decoded or validated.
	ErrBadPayload = errors.New("bad message payload")
)

// Envelope is the wire form of every message.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ImportOptions is the options object of an import request.
type ImportOptions struct {
	Mode         string `json:"mode,omitempty"`
	ValidateOnly bool   `json:"validateOnly,omitempty"`
	Dedupe       bool   `json:"dedupe,omitempty"`
}

// Options converts to run options, defaulting the mode to full.
func (o ImportOptions) Options() (fixture.Options, error) {
	mode, err := fixture.ParseMode(o.Mode)
	if err != nil {
		return fixture.Options{}, err
	}
	return fixture.Options{Mode: mode, ValidateOnly: o.ValidateOnly, Dedupe: o.Dedupe}, nil
}

// ImportPayload is the payload of TEAM_BULK_IMPORT.
type ImportPayload struct {
	CSV     string        `json:"csv"`
	Options ImportOptions `json:"options"`
}

// StartReply answers TEAM_BULK_IMPORT. Processing continues asynchronously.
type StartReply struct {
	OK      bool   `json:"ok"`
	Started bool   `json:"started"`
	Error   string `json:"error,omitempty"`
}

// FinishedPayload is the payload of TEAM_BULK_FINISHED.
type FinishedPayload struct {
	Finished bool `json:"finished"`
	Total    int  `json:"total"`
}

// Request is a decoded start request.
type Request struct {
	CSV     string
	Options fixture.Options
}

// Starter accepts start requests. The session loop implements it.
type Starter interface {
	Submit(ctx context.Context, req Request) error
}

// StatusSource reports the current job status.
type StatusSource interface {
	Snapshot() progress.Snapshot
}

// NewImport builds a TEAM_BULK_IMPORT envelope.
func NewImport(csv string, opts ImportOptions) (Envelope, error) {
	return wrap(TypeImport, ImportPayload{CSV: csv, Options: opts})
}

// NewStatus builds a TEAM_BULK_STATUS envelope.
func NewStatus() Envelope {
	return Envelope{Type: TypeStatus}
}

// NewFinished builds the completion push.
func NewFinished(total int) Envelope {
	env, _ := wrap(TypeFinished, FinishedPayload{Finished: true, Total: total})
	return env
}

// FromEvent maps a job event to the push it produces, if any.
func FromEvent(e events.Event) (Envelope, bool) {
	if fin, ok := e.(*events.JobFinished); ok {
		return NewFinished(fin.Total), true
	}
	return Envelope{}, false
}

func wrap(typ string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return Envelope{Type: typ, Payload: data}, nil
}

// Dispatcher routes envelopes to the starter and status source.
type Dispatcher struct {
	starter Starter
	status  StatusSource
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(starter Starter, status StatusSource, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{starter: starter, status: status, logger: logger.With("component", "messages")}
}

// Handle answers one envelope. Import replies come back as soon as the
// request is queued.
func (d *Dispatcher) Handle(ctx context.Context, env Envelope) (any, error) {
	switch env.Type {
	case TypeImport:
		return d.handleImport(ctx, env.Payload)
	case TypeStatus:
		return d.status.Snapshot(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

// HandleJSON decodes an envelope, handles it and encodes the reply.
func (d *Dispatcher) HandleJSON(ctx context.Context, data []byte) ([]byte, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	reply, err := d.Handle(ctx, env)
	if err != nil {
		return nil, err
	}
	return json.Marshal(reply)
}

func (d *Dispatcher) handleImport(ctx context.Context, raw json.RawMessage) (StartReply, error) {
	var p ImportPayload
	if len(raw) == 0 {
		return StartReply{}, fmt.Errorf("%w: missing payload", ErrBadPayload)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return StartReply{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	opts, err := p.Options.Options()
	if err != nil {
		return StartReply{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if err := d.starter.Submit(ctx, Request{CSV: p.CSV, Options: opts}); err != nil {
		d.logger.Warn("import not queued", "error", err)
		return StartReply{OK: false, Error: err.Error()}, nil
	}
	d.logger.Info("import queued", "mode", opts.Mode, "validate_only", opts.ValidateOnly)
	return StartReply{OK: true, Started: true}, nil
}
