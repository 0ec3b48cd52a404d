package events

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vmunix/fixturesync/internal/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Apply(db))
	return db
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return nil
	}
}

func TestNewBaseEvent(t *testing.T) {
	e := NewBaseEvent(EventJobStarted, EntityJob, "job-1")
	assert.Equal(t, EventJobStarted, e.EventType())
	assert.Equal(t, EntityJob, e.EntityType())
	assert.Equal(t, "job-1", e.EntityID())
	assert.False(t, e.OccurredAt().IsZero())
}

func TestBus_SubscribeByType(t *testing.T) {
	bus := NewBus(NewEventLog(setupTestDB(t)), nil)
	defer bus.Close()

	finished := bus.Subscribe(EventJobFinished, 4)
	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, &RowCompleted{BaseEvent: NewBaseEvent(EventRowCompleted, EntityJob, "a"), Index: 0, Total: 1}))
	require.NoError(t, bus.Publish(ctx, &JobFinished{BaseEvent: NewBaseEvent(EventJobFinished, EntityJob, "a"), Total: 1}))

	got := receive(t, finished)
	fin, ok := got.(*JobFinished)
	require.True(t, ok)
	assert.Equal(t, 1, fin.Total)
	assert.Empty(t, finished)
}

func TestBus_SubscribeEntity(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.SubscribeEntity(EntityJob, "b", 4)
	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, &JobStarted{BaseEvent: NewBaseEvent(EventJobStarted, EntityJob, "a")}))
	require.NoError(t, bus.Publish(ctx, &JobStarted{BaseEvent: NewBaseEvent(EventJobStarted, EntityJob, "b"), Total: 3}))

	got := receive(t, ch)
	assert.Equal(t, "b", got.EntityID())
	assert.Empty(t, ch)
}

func TestBus_FullListenerDoesNotBlock(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.SubscribeAll(1)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(ctx, &RowCompleted{BaseEvent: NewBaseEvent(EventRowCompleted, EntityJob, "a"), Index: i}))
	}
	got := receive(t, ch).(*RowCompleted)
	assert.Equal(t, 0, got.Index)
}

func TestBus_UnsubscribeAndClose(t *testing.T) {
	bus := NewBus(nil, nil)
	ch := bus.SubscribeAll(1)
	bus.Unsubscribe(ch)
	_, open := <-ch
	assert.False(t, open)

	other := bus.Subscribe(EventJobFailed, 1)
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())
	_, open = <-other
	assert.False(t, open)

	// publishing after close is a no-op
	assert.NoError(t, bus.Publish(context.Background(), &JobFailed{BaseEvent: NewBaseEvent(EventJobFailed, EntityJob, "a")}))
}

func TestEventLog_QueriesAndPrune(t *testing.T) {
	log := NewEventLog(setupTestDB(t))
	ctx := context.Background()

	old := &JobStarted{BaseEvent: NewBaseEvent(EventJobStarted, EntityJob, "old")}
	old.Timestamp = time.Now().Add(-48 * time.Hour)
	_, err := log.Append(ctx, old)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := log.Append(ctx, &RowCompleted{BaseEvent: NewBaseEvent(EventRowCompleted, EntityJob, "new"), Index: i, Total: 3})
		require.NoError(t, err)
	}

	forNew, err := log.ForEntity(ctx, EntityJob, "new")
	require.NoError(t, err)
	assert.Len(t, forNew, 3)

	since, err := log.Since(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, since, 3)

	recent, err := log.Recent(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Greater(t, recent[0].ID, recent[1].ID)

	pruned, err := log.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)
}

func TestRegistry_RoundTripsLoggedEvents(t *testing.T) {
	log := NewEventLog(setupTestDB(t))
	ctx := context.Background()
	_, err := log.Append(ctx, &JobSuspended{BaseEvent: NewBaseEvent(EventJobSuspended, EntityJob, "j"), Index: 2, NextISO: "2025-10-04"})
	require.NoError(t, err)
	_, err = log.Append(ctx, &JobValidated{BaseEvent: NewBaseEvent(EventJobValidated, EntityJob, "j"), Checks: []Check{{Field: "title", OK: true}}})
	require.NoError(t, err)

	raws, err := log.ForEntity(ctx, EntityJob, "j")
	require.NoError(t, err)
	require.Len(t, raws, 2)

	reg := DefaultRegistry()
	e, err := reg.Unmarshal(raws[0])
	require.NoError(t, err)
	sus, ok := e.(*JobSuspended)
	require.True(t, ok)
	assert.Equal(t, "2025-10-04", sus.NextISO)
	assert.Equal(t, "j", sus.EntityID())

	e, err = reg.Unmarshal(raws[1])
	require.NoError(t, err)
	assert.Equal(t, []Check{{Field: "title", OK: true}}, e.(*JobValidated).Checks)

	_, err = reg.Unmarshal(RawEvent{EventType: "nope"})
	assert.ErrorIs(t, err, ErrUnknownEvent)
}
