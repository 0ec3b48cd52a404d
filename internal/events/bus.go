package events

import (
	"context"
	"log/slog"
	"sync"
)

// subscription is one listener. A nil match receives everything.
type subscription struct {
	ch    chan Event
	match func(Event) bool
}

// Bus fans job events out to listeners and, when a log is attached, records
// them. Delivery never blocks the publisher.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	log    *EventLog
	logger *slog.Logger
	closed bool
}

// NewBus creates a bus. log may be nil to disable persistence.
func NewBus(log *EventLog, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{log: log, logger: logger.With("component", "events")}
}

// Publish records e and hands it to every matching listener. Full listeners
// miss the event.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil
	}
	targets := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.match == nil || s.match(e) {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	if b.log != nil {
		if _, err := b.log.Append(ctx, e); err != nil {
			b.logger.Error("persist event failed", "type", e.EventType(), "error", err)
		}
	}

	for _, s := range targets {
		select {
		case s.ch <- e:
		default:
			b.logger.Warn("listener full, event dropped",
				"type", e.EventType(),
				"entity_id", e.EntityID())
		}
	}
	return nil
}

func (b *Bus) add(size int, match func(Event) bool) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, size)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, &subscription{ch: ch, match: match})
	return ch
}

// Subscribe returns a channel receiving events of one type.
func (b *Bus) Subscribe(eventType string, size int) <-chan Event {
	return b.add(size, func(e Event) bool { return e.EventType() == eventType })
}

// SubscribeAll returns a channel receiving every event.
func (b *Bus) SubscribeAll(size int) <-chan Event {
	return b.add(size, nil)
}

// SubscribeEntity returns a channel receiving the events of one job.
func (b *Bus) SubscribeEntity(entityType, entityID string, size int) <-chan Event {
	return b.add(size, func(e Event) bool {
		return e.EntityType() == entityType && e.EntityID() == entityID
	})
}

// Unsubscribe detaches and closes ch.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.ch == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(s.ch)
			return
		}
	}
}

// Close closes every listener. Later publishes are dropped.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
	return nil
}
