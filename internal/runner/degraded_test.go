package runner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/fixturesync/internal/dom/domtest"
	"github.com/vmunix/fixturesync/internal/events"
	"github.com/vmunix/fixturesync/internal/jobstore"
	"github.com/vmunix/fixturesync/internal/mocks"
	"github.com/vmunix/fixturesync/internal/runner"
	"github.com/vmunix/fixturesync/pkg/fixture"
)

var errDisk = errors.New("disk full")

func TestStart_StoreAndPublisherFailuresOnlyWarn(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	pub := mocks.NewMockPublisher(ctrl)

	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errDisk).AnyTimes()
	store.EXPECT().Clear(gomock.Any()).Return(errDisk).AnyTimes()
	store.EXPECT().Prefix(gomock.Any()).Return("", errDisk).AnyTimes()
	store.EXPECT().SetPrefix(gomock.Any(), gomock.Any()).Return(errDisk).AnyTimes()

	var published []string
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e events.Event) error {
			published = append(published, e.EventType())
			return errDisk
		}).AnyTimes()

	page := domtest.MustParse(t, `<div id="app"></div>`,
		domtest.WithURL("https://app.example.test/organization/1/group/2/calendar/month/2025-09"))
	r := runner.New(runner.Config{Page: page, Store: store, Events: pub, Location: time.UTC})

	state, err := r.Start(context.Background(), "date,title\n", fixture.Options{})
	require.NoError(t, err)
	assert.Equal(t, runner.Finished, state)
	assert.Equal(t, []string{events.EventJobStarted, events.EventJobFinished}, published)
	assert.True(t, r.Reporter().Snapshot().Finished)
}

func TestResume_LoadErrorIsIdle(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Load(gomock.Any()).Return(nil, errDisk)

	page := domtest.MustParse(t, `<div id="app"></div>`)
	r := runner.New(runner.Config{Page: page, Store: store})

	state, err := r.Resume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runner.Idle, state)
}

func TestRequireJob_NoResumeMarker(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Load(gomock.Any()).Return(&jobstore.Job{ID: "j", Index: 1}, nil)

	page := domtest.MustParse(t, `<div id="app"></div>`)
	r := runner.New(runner.Config{Page: page, Store: store})

	assert.ErrorIs(t, r.RequireJob(context.Background()), runner.ErrNoJob)
}
