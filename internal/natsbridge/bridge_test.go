package natsbridge

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/fixturesync/internal/events"
	"github.com/vmunix/fixturesync/internal/messages"
	"github.com/vmunix/fixturesync/internal/mocks"
	"github.com/vmunix/fixturesync/internal/progress"
)

type published struct {
	subject string
	data    []byte
}

// fakeConn records subscriptions and publishes in place of a server.
type fakeConn struct {
	mu       sync.Mutex
	handlers map[string]nats.MsgHandler
	out      []published
}

func newFakeConn() *fakeConn {
	return &fakeConn{handlers: map[string]nats.MsgHandler{}}
}

func (c *fakeConn) Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[subject] = cb
	return &nats.Subscription{Subject: subject}, nil
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, published{subject: subject, data: data})
	return nil
}

func (c *fakeConn) handler(subject string) nats.MsgHandler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handlers[subject]
}

func (c *fakeConn) sent(subject string) []published {
	c.mu.Lock()
	defer c.mu.Unlock()
	var got []published
	for _, p := range c.out {
		if p.subject == subject {
			got = append(got, p)
		}
	}
	return got
}

type harness struct {
	conn    *fakeConn
	bus     *events.Bus
	starter *mocks.MockStarter
	status  *mocks.MockStatusSource
}

func start(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	h := &harness{
		conn:    newFakeConn(),
		bus:     events.NewBus(nil, nil),
		starter: mocks.NewMockStarter(ctrl),
		status:  mocks.NewMockStatusSource(ctrl),
	}
	bridge := New(h.conn, "fs", messages.NewDispatcher(h.starter, h.status, nil), h.bus, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bridge.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Error("bridge did not stop")
		}
		_ = h.bus.Close()
	})

	require.Eventually(t, func() bool {
		return h.conn.handler("fs.import") != nil && h.conn.handler("fs.status") != nil
	}, time.Second, 5*time.Millisecond)
	return h
}

func TestBridge_Subject(t *testing.T) {
	b := New(newFakeConn(), "", nil, nil, nil)
	assert.Equal(t, "fixturesync.finished", b.Subject("finished"))
}

func TestBridge_ImportRequestReply(t *testing.T) {
	h := start(t)
	h.starter.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil)

	env, err := messages.NewImport("date,opponent\n2025-09-20,Rovers\n", messages.ImportOptions{})
	require.NoError(t, err)
	data, err := json.Marshal(env)
	require.NoError(t, err)

	h.conn.handler("fs.import")(&nats.Msg{Subject: "fs.import", Reply: "_INBOX.1", Data: data})

	replies := h.conn.sent("_INBOX.1")
	require.Len(t, replies, 1)
	var reply messages.StartReply
	require.NoError(t, json.Unmarshal(replies[0].data, &reply))
	assert.True(t, reply.OK)
	assert.True(t, reply.Started)
}

func TestBridge_StatusWithEmptyBody(t *testing.T) {
	h := start(t)
	h.status.EXPECT().Snapshot().Return(progress.Snapshot{Navigating: true, Target: "2025-10-04"})

	h.conn.handler("fs.status")(&nats.Msg{Subject: "fs.status", Reply: "_INBOX.2"})

	replies := h.conn.sent("_INBOX.2")
	require.Len(t, replies, 1)
	var snap progress.Snapshot
	require.NoError(t, json.Unmarshal(replies[0].data, &snap))
	assert.True(t, snap.Navigating)
	assert.Equal(t, "2025-10-04", snap.Target)
}

func TestBridge_BadRequestRepliesWithError(t *testing.T) {
	h := start(t)

	h.conn.handler("fs.import")(&nats.Msg{Subject: "fs.import", Reply: "_INBOX.3", Data: []byte(`{"type":"NOPE"}`)})

	replies := h.conn.sent("_INBOX.3")
	require.Len(t, replies, 1)
	var reply errorReply
	require.NoError(t, json.Unmarshal(replies[0].data, &reply))
	assert.Contains(t, reply.Error, "unknown message type")
}

func TestBridge_ForwardsFinished(t *testing.T) {
	h := start(t)
	ctx := context.Background()

	require.NoError(t, h.bus.Publish(ctx, &events.JobStarted{
		BaseEvent: events.NewBaseEvent(events.EventJobStarted, events.EntityJob, "job-1"),
		Total:     3,
	}))
	require.NoError(t, h.bus.Publish(ctx, &events.JobFinished{
		BaseEvent: events.NewBaseEvent(events.EventJobFinished, events.EntityJob, "job-1"),
		Total:     3,
	}))

	require.Eventually(t, func() bool { return len(h.conn.sent("fs.finished")) == 1 }, time.Second, 5*time.Millisecond)
	var env messages.Envelope
	require.NoError(t, json.Unmarshal(h.conn.sent("fs.finished")[0].data, &env))
	assert.Equal(t, messages.TypeFinished, env.Type)
	var fin messages.FinishedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &fin))
	assert.Equal(t, 3, fin.Total)
}
