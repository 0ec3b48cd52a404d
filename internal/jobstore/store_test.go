package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vmunix/fixturesync/internal/dom/domtest"
	"github.com/vmunix/fixturesync/internal/migrations"
	"github.com/vmunix/fixturesync/pkg/fixture"
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

func backends(t *testing.T) map[string]Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]Store{
		"page":   NewPage(domtest.NewStorage()),
		"memory": NewMemory(),
		"sqlite": NewSQLite(setupTestDB(t)),
		"redis":  NewRedis(client, "fixturesync:", 0),
	}
}

func sampleJob() *Job {
	job := NewJob([]fixture.Row{
		{Date: "2025-09-20", Opponent: "Rovers", HomeAway: "AWAY", KickoffTime: "10:30", Duration: "90"},
		{Date: "2025-09-27", Title: "Cup tie", Notes: "Line one\nline \"two\""},
	}, fixture.Options{Mode: fixture.ModeType, Dedupe: true})
	job.Index = 1
	job.ResumeAfterNav = true
	job.NextISO = "2025-09-27"
	return job
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			in := sampleJob()
			require.NoError(t, store.Save(ctx, in))

			out, err := store.Load(ctx)
			require.NoError(t, err)
			if diff := cmp.Diff(in, out); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_EmptyJobRoundTrip(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			in := NewJob(nil, fixture.Options{})
			require.NoError(t, store.Save(ctx, in))
			out, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(in, out))
		})
	}
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := store.Load(ctx)
			assert.ErrorIs(t, err, ErrNoJob)

			require.NoError(t, store.Save(ctx, sampleJob()))
			require.NoError(t, store.Clear(ctx))
			require.NoError(t, store.Clear(ctx))

			_, err = store.Load(ctx)
			assert.ErrorIs(t, err, ErrNoJob)
		})
	}
}

func TestStore_LastWriterWins(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	first := sampleJob()
	second := NewJob([]fixture.Row{{Date: "2026-01-01"}}, fixture.Options{})

	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.Len(t, got.Rows, 1)
}

func TestStore_Prefix(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p, err := store.Prefix(ctx)
			require.NoError(t, err)
			assert.Empty(t, p)

			require.NoError(t, store.SetPrefix(ctx, "/organization/30050/group/50101"))
			require.NoError(t, store.SetPrefix(ctx, ""))
			p, err = store.Prefix(ctx)
			require.NoError(t, err)
			assert.Equal(t, "/organization/30050/group/50101", p)
		})
	}
}

func TestPageStore_UsesFixedKeys(t *testing.T) {
	storage := domtest.NewStorage()
	store := NewPage(storage)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleJob()))
	require.NoError(t, store.SetPrefix(ctx, "/organization/1"))

	raw, ok, err := storage.Get(JobKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, `"resumeAfterNav":true`)
	assert.Contains(t, raw, `"nextIso":"2025-09-27"`)

	prefix, _, _ := storage.Get(PrefixKey)
	assert.Equal(t, "/organization/1", prefix)
}

func TestPageStore_UnavailableStorage(t *testing.T) {
	storage := domtest.NewStorage()
	storage.Fail = true
	store := NewPage(storage)
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, sampleJob()))
	_, err := store.Load(ctx)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoJob))
}

func TestStore_CorruptRecord(t *testing.T) {
	storage := domtest.NewStorage()
	require.NoError(t, storage.Set(JobKey, "{not json"))
	store := NewPage(storage)
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoJob, "corrupt record is discarded")
	assert.Zero(t, storage.Len())
}

func TestStore_RecordWithoutID(t *testing.T) {
	storage := domtest.NewStorage()
	require.NoError(t, storage.Set(JobKey,
		`{"rows":[{"date":"2025-09-20","opponent":"Rovers"}],"options":{"mode":"full"},"index":0,"resumeAfterNav":true,"nextIso":"2025-09-20"}`))

	job, err := NewPage(storage).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, job.ID)
	assert.True(t, job.ResumeAfterNav)
	assert.Equal(t, "2025-09-20", job.NextISO)
	require.Len(t, job.Rows, 1)
	assert.Equal(t, "Rovers", job.Rows[0].Opponent)
}

func TestJob_Cursor(t *testing.T) {
	job := sampleJob()
	assert.Equal(t, 2, job.Total())
	row, ok := job.Current()
	require.True(t, ok)
	assert.Equal(t, "Cup tie", row.Title)

	job.Index = 2
	assert.True(t, job.Done())
	_, ok = job.Current()
	assert.False(t, ok)
}
