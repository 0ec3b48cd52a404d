package session_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/fixturesync/internal/messages"
	"github.com/vmunix/fixturesync/internal/mocks"
	"github.com/vmunix/fixturesync/internal/runner"
	"github.com/vmunix/fixturesync/internal/session"
	"github.com/vmunix/fixturesync/pkg/fixture"
)

func runLoop(t *testing.T, s *session.Session) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, done
}

func wait(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestRun_ResumesOnAttachAndEveryLoad(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRunner(ctrl)
	loads := make(chan struct{}, 1)
	resumed := make(chan struct{}, 2)

	r.EXPECT().Resume(gomock.Any()).Times(2).DoAndReturn(func(context.Context) (runner.State, error) {
		resumed <- struct{}{}
		return runner.Idle, nil
	})

	s := session.New(r, loads, session.Config{})
	cancel, done := runLoop(t, s)

	wait(t, resumed)
	loads <- struct{}{}
	wait(t, resumed)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, runner.Idle, s.State())
}

func TestRun_SubmitStartsJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRunner(ctrl)
	started := make(chan struct{})

	r.EXPECT().Resume(gomock.Any()).Return(runner.Idle, nil)
	r.EXPECT().
		Start(gomock.Any(), "date\n2025-09-20\n", fixture.Options{Mode: fixture.ModeType}).
		DoAndReturn(func(context.Context, string, fixture.Options) (runner.State, error) {
			close(started)
			return runner.Suspended, nil
		})

	s := session.New(r, make(chan struct{}), session.Config{})
	_, _ = runLoop(t, s)

	require.NoError(t, s.Submit(context.Background(), messages.Request{
		CSV:     "date\n2025-09-20\n",
		Options: fixture.Options{Mode: fixture.ModeType},
	}))
	wait(t, started)
	assert.Eventually(t, func() bool { return s.State() == runner.Suspended }, time.Second, 5*time.Millisecond)
}

func TestSubmit_ReplacesPendingRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRunner(ctrl)
	started := make(chan struct{})

	s := session.New(r, make(chan struct{}), session.Config{})
	ctx := context.Background()
	require.NoError(t, s.Submit(ctx, messages.Request{CSV: "first"}))
	require.NoError(t, s.Submit(ctx, messages.Request{CSV: "second"}))

	r.EXPECT().Resume(gomock.Any()).Return(runner.Idle, nil)
	r.EXPECT().Start(gomock.Any(), "second", gomock.Any()).
		DoAndReturn(func(context.Context, string, fixture.Options) (runner.State, error) {
			close(started)
			return runner.Finished, nil
		})

	_, _ = runLoop(t, s)
	wait(t, started)
}

func TestSubmit_AfterExit(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRunner(ctrl)
	r.EXPECT().Resume(gomock.Any()).Return(runner.Idle, nil)

	loads := make(chan struct{})
	s := session.New(r, loads, session.Config{})
	close(loads)

	err := s.Run(context.Background())
	assert.ErrorIs(t, err, session.ErrPageClosed)
	assert.ErrorIs(t, s.Submit(context.Background(), messages.Request{}), session.ErrClosed)
}

func TestDrive_ResumesUntilDone(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRunner(ctrl)
	loads := make(chan struct{}, 1)
	loads <- struct{}{} // stale load from before the job

	gomock.InOrder(
		r.EXPECT().Resume(gomock.Any()).Return(runner.Suspended, nil),
		r.EXPECT().Resume(gomock.Any()).Return(runner.Finished, nil),
	)

	s := session.New(r, loads, session.Config{LoadTimeout: 5 * time.Millisecond})
	st, err := s.Drive(context.Background(), func(context.Context) (runner.State, error) {
		assert.Empty(t, loads, "stale load dropped before the first call")
		return runner.Suspended, nil
	})
	require.NoError(t, err)
	assert.Equal(t, runner.Finished, st)
	assert.Equal(t, runner.Finished, s.State())
}

// landAfterDrain sends a page load once the load buffered during the runner
// call has been dropped, and flags that it did.
func landAfterDrain(t *testing.T, loads chan struct{}, called <-chan struct{}, landed *atomic.Bool) {
	t.Helper()
	go func() {
		<-called
		if !assert.Eventually(t, func() bool { return len(loads) == 0 }, time.Second, time.Millisecond) {
			return
		}
		landed.Store(true)
		loads <- struct{}{}
	}()
}

func TestDrive_IgnoresLoadsDuringSuspendingCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRunner(ctrl)
	loads := make(chan struct{}, 1)
	called := make(chan struct{})
	var landed atomic.Bool

	r.EXPECT().Resume(gomock.Any()).DoAndReturn(func(context.Context) (runner.State, error) {
		assert.True(t, landed.Load(), "resumed before the navigation landed")
		return runner.Finished, nil
	})
	landAfterDrain(t, loads, called, &landed)

	s := session.New(r, loads, session.Config{LoadTimeout: time.Minute})
	st, err := s.Drive(context.Background(), func(context.Context) (runner.State, error) {
		loads <- struct{}{} // the app reloading while the row runs
		close(called)
		return runner.Suspended, nil
	})
	require.NoError(t, err)
	assert.Equal(t, runner.Finished, st)
}

func TestRun_IgnoresLoadsDuringSuspendingStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRunner(ctrl)
	loads := make(chan struct{}, 1)
	called := make(chan struct{})
	resumed := make(chan struct{})
	var landed atomic.Bool

	gomock.InOrder(
		r.EXPECT().Resume(gomock.Any()).Return(runner.Idle, nil),
		r.EXPECT().Start(gomock.Any(), "csv", gomock.Any()).
			DoAndReturn(func(context.Context, string, fixture.Options) (runner.State, error) {
				loads <- struct{}{}
				close(called)
				return runner.Suspended, nil
			}),
		r.EXPECT().Resume(gomock.Any()).DoAndReturn(func(context.Context) (runner.State, error) {
			assert.True(t, landed.Load(), "resumed before the navigation landed")
			close(resumed)
			return runner.Finished, nil
		}),
	)
	landAfterDrain(t, loads, called, &landed)

	s := session.New(r, loads, session.Config{LoadTimeout: time.Minute})
	_, _ = runLoop(t, s)
	require.NoError(t, s.Submit(context.Background(), messages.Request{CSV: "csv"}))
	wait(t, resumed)
}

func TestRun_ResumesAfterLoadTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRunner(ctrl)
	resumed := make(chan struct{})

	gomock.InOrder(
		r.EXPECT().Resume(gomock.Any()).Return(runner.Suspended, nil),
		r.EXPECT().Resume(gomock.Any()).DoAndReturn(func(context.Context) (runner.State, error) {
			close(resumed)
			return runner.Finished, nil
		}),
	)

	s := session.New(r, make(chan struct{}), session.Config{LoadTimeout: 5 * time.Millisecond})
	_, _ = runLoop(t, s)
	wait(t, resumed)
}

func TestDrive_ResumesWithoutLoadAfterTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRunner(ctrl)
	r.EXPECT().Resume(gomock.Any()).Return(runner.Finished, nil)

	s := session.New(r, make(chan struct{}), session.Config{LoadTimeout: 10 * time.Millisecond})
	st, err := s.Drive(context.Background(), func(context.Context) (runner.State, error) {
		return runner.Suspended, nil
	})
	require.NoError(t, err)
	assert.Equal(t, runner.Finished, st)
}

func TestDrive_StopsOnFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRunner(ctrl)
	boom := errors.New("parse csv: boom")

	s := session.New(r, make(chan struct{}), session.Config{})
	st, err := s.Drive(context.Background(), func(context.Context) (runner.State, error) {
		return runner.Failed, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, runner.Failed, st)
}

func TestDrive_CancelWhileWaiting(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRunner(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	s := session.New(r, make(chan struct{}), session.Config{LoadTimeout: time.Minute})
	st, err := s.Drive(ctx, func(context.Context) (runner.State, error) {
		cancel()
		return runner.Suspended, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, runner.Suspended, st)
}
