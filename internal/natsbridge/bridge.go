// Package natsbridge serves the import messages over NATS core subjects.
//
// Subjects, under a configurable prefix:
//
//	<prefix>.import    request/reply, TEAM_BULK_IMPORT envelopes
//	<prefix>.status    request/reply, TEAM_BULK_STATUS envelopes (empty body allowed)
//	<prefix>.finished  TEAM_BULK_FINISHED, published once per drained job
package natsbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/vmunix/fixturesync/internal/events"
	"github.com/vmunix/fixturesync/internal/messages"
)

// DefaultPrefix is the subject prefix when none is configured.
const DefaultPrefix = "fixturesync"

// Conn is the part of *nats.Conn the bridge uses.
type Conn interface {
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
	Publish(subject string, data []byte) error
}

// Connect dials a NATS server with reconnects enabled.
func Connect(url, name string) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return nc, nil
}

// Bridge answers requests through the dispatcher and forwards completion
// events from the bus.
type Bridge struct {
	conn       Conn
	prefix     string
	dispatcher *messages.Dispatcher
	bus        *events.Bus
	logger     *slog.Logger
}

// New creates a bridge. bus may be nil to disable finished pushes.
func New(conn Conn, prefix string, dispatcher *messages.Dispatcher, bus *events.Bus, logger *slog.Logger) *Bridge {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		conn:       conn,
		prefix:     prefix,
		dispatcher: dispatcher,
		bus:        bus,
		logger:     logger.With("component", "natsbridge"),
	}
}

// Subject returns the full subject for a suffix.
func (b *Bridge) Subject(suffix string) string {
	return b.prefix + "." + suffix
}

// Run serves until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	var finished <-chan events.Event
	if b.bus != nil {
		finished = b.bus.Subscribe(events.EventJobFinished, 8)
		defer b.bus.Unsubscribe(finished)
	}

	var subs []*nats.Subscription
	defer func() {
		for _, s := range subs {
			_ = s.Drain()
		}
	}()
	for _, suffix := range []string{"import", "status"} {
		sub, err := b.conn.Subscribe(b.Subject(suffix), b.handle)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", b.Subject(suffix), err)
		}
		subs = append(subs, sub)
	}
	b.logger.Info("nats bridge started", "prefix", b.prefix)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("nats bridge stopped")
			return nil
		case e, ok := <-finished:
			if !ok {
				finished = nil
				continue
			}
			b.forward(e)
		}
	}
}

func (b *Bridge) forward(e events.Event) {
	env, ok := messages.FromEvent(e)
	if !ok {
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		b.logger.Warn("encode finished push failed", "error", err)
		return
	}
	if err := b.conn.Publish(b.Subject("finished"), data); err != nil {
		b.logger.Warn("publish finished failed", "error", err)
		return
	}
	b.logger.Debug("finished pushed", "job_id", e.EntityID())
}

type errorReply struct {
	Error string `json:"error"`
}

func (b *Bridge) handle(msg *nats.Msg) {
	data := msg.Data
	if len(data) == 0 && msg.Subject == b.Subject("status") {
		data, _ = json.Marshal(messages.NewStatus())
	}

	reply, err := b.dispatcher.HandleJSON(context.Background(), data)
	if err != nil {
		b.logger.Warn("message rejected", "subject", msg.Subject, "error", err)
		reply, _ = json.Marshal(errorReply{Error: err.Error()})
	}
	if msg.Reply == "" {
		return
	}
	if err := b.conn.Publish(msg.Reply, reply); err != nil {
		b.logger.Warn("reply failed", "subject", msg.Subject, "error", err)
	}
}
