// Package session owns the automated tab: it feeds start requests and page
// loads to the runner one at a time.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vmunix/fixturesync/internal/messages"
	"github.com/vmunix/fixturesync/internal/runner"
	"github.com/vmunix/fixturesync/pkg/fixture"
)

var (
	// ErrClosed is returned by Submit once the session loop has exited.
	ErrClosed = errors.New("session closed")
	// ErrPageClosed is returned when the load stream ends.
	ErrPageClosed = errors.New("page closed")
)

// Runner is the job runner the session drives.
type Runner interface {
	Start(ctx context.Context, csv string, opts fixture.Options) (runner.State, error)
	Resume(ctx context.Context) (runner.State, error)
}

// Config configures a Session.
type Config struct {
	// LoadTimeout bounds the wait for a page load after a suspension;
	// the runner is resumed anyway when it passes.
	LoadTimeout time.Duration
	Logger      *slog.Logger
}

// Session serialises every runner call on one goroutine.
type Session struct {
	runner      Runner
	loads       <-chan struct{}
	requests    chan messages.Request
	closed      chan struct{}
	closeOnce   sync.Once
	loadTimeout time.Duration
	logger      *slog.Logger

	mu    sync.Mutex
	state runner.State
}

var _ messages.Starter = (*Session)(nil)

// New creates a session. loads delivers one value per completed page load.
func New(r Runner, loads <-chan struct{}, cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.LoadTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Session{
		runner:      r,
		loads:       loads,
		requests:    make(chan messages.Request, 1),
		closed:      make(chan struct{}),
		loadTimeout: timeout,
		logger:      logger.With("component", "session"),
	}
}

// Submit queues a start request for the next suspension point. A request
// still waiting is replaced.
func (s *Session) Submit(ctx context.Context, req messages.Request) error {
	for {
		select {
		case <-s.closed:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		select {
		case s.requests <- req:
			return nil
		default:
		}
		select {
		case old := <-s.requests:
			s.logger.Info("pending import replaced", "csv_bytes", len(old.CSV))
		default:
		}
	}
}

// State returns the outcome of the last runner call.
func (s *Session) State() runner.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) record(st runner.State, err error) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("runner stopped with error", "state", st, "error", err)
		return
	}
	s.logger.Debug("runner returned", "state", st)
}

// Run serves requests and page loads until ctx is cancelled or the page
// closes. A job left in the store is resumed first. After a suspension the
// runner is resumed on the next page load, or once LoadTimeout passes
// without one.
func (s *Session) Run(ctx context.Context) error {
	defer s.closeOnce.Do(func() { close(s.closed) })

	st, _ := s.call(ctx, s.runner.Resume)
	for {
		var wake <-chan time.Time
		var timer *time.Timer
		if st == runner.Suspended {
			timer = time.NewTimer(s.loadTimeout)
			wake = timer.C
		}
		select {
		case <-ctx.Done():
			stopTimer(timer)
			return nil
		case req := <-s.requests:
			stopTimer(timer)
			s.logger.Info("starting import", "mode", req.Options.Mode, "validate_only", req.Options.ValidateOnly)
			s.drain()
			st, _ = s.call(ctx, func(ctx context.Context) (runner.State, error) {
				return s.runner.Start(ctx, req.CSV, req.Options)
			})
		case _, ok := <-s.loads:
			stopTimer(timer)
			if !ok {
				return ErrPageClosed
			}
			st, _ = s.call(ctx, s.runner.Resume)
		case <-wake:
			s.logger.Warn("no page load seen, resuming anyway", "timeout", s.loadTimeout)
			st, _ = s.call(ctx, s.runner.Resume)
		}
	}
}

// Drive runs first and keeps resuming after every page load until the job
// leaves the Suspended state. It is the single-job path of the CLI.
func (s *Session) Drive(ctx context.Context, first func(context.Context) (runner.State, error)) (runner.State, error) {
	defer s.closeOnce.Do(func() { close(s.closed) })

	s.drain()
	st, err := s.call(ctx, first)
	for err == nil && st == runner.Suspended {
		if err := s.awaitLoad(ctx); err != nil {
			return st, err
		}
		st, err = s.call(ctx, s.runner.Resume)
	}
	return st, err
}

// call runs fn and records its outcome. When fn suspended, loads seen while
// it ran are dropped: they belong to documents from before the navigation it
// just issued.
func (s *Session) call(ctx context.Context, fn func(context.Context) (runner.State, error)) (runner.State, error) {
	st, err := fn(ctx)
	s.record(st, err)
	if st == runner.Suspended {
		s.drain()
	}
	return st, err
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

// drain drops loads that happened before the next runner call.
func (s *Session) drain() {
	for {
		select {
		case _, ok := <-s.loads:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (s *Session) awaitLoad(ctx context.Context) error {
	timer := time.NewTimer(s.loadTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case _, ok := <-s.loads:
		if !ok {
			return ErrPageClosed
		}
	case <-timer.C:
		s.logger.Warn("no page load seen, resuming anyway", "timeout", s.loadTimeout)
	}
	return nil
}
