// Package server runs the daemon's long-lived components under one lifecycle.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/fixturesync/internal/events"
)

// Loop is a component that runs until its context ends.
// *session.Session and *natsbridge.Bridge implement it.
type Loop interface {
	Run(ctx context.Context) error
}

// Config for the daemon runner.
type Config struct {
	Addr string
	// PruneInterval is how often old events are removed. Zero disables pruning.
	PruneInterval  time.Duration
	EventRetention time.Duration
	ShutdownGrace  time.Duration
}

// Runner manages the daemon components.
type Runner struct {
	config   Config
	handler  http.Handler
	loops    map[string]Loop
	eventLog *events.EventLog
	logger   *slog.Logger
}

// NewRunner creates a new runner. Nil loops are skipped.
func NewRunner(cfg Config, handler http.Handler, eventLog *events.EventLog, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 5 * time.Second
	}
	if cfg.EventRetention <= 0 {
		cfg.EventRetention = 30 * 24 * time.Hour
	}
	return &Runner{
		config:   cfg,
		handler:  handler,
		loops:    map[string]Loop{},
		eventLog: eventLog,
		logger:   logger,
	}
}

// Add registers a named loop.
func (r *Runner) Add(name string, l Loop) {
	if l != nil {
		r.loops[name] = l
	}
}

// Run starts all components and blocks until the context is canceled or
// one of them fails. Cancellation is a clean shutdown and returns nil.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if r.handler != nil {
		ln, err := net.Listen("tcp", r.config.Addr)
		if err != nil {
			return err
		}
		srv := &http.Server{Handler: r.handler, ReadHeaderTimeout: 10 * time.Second}
		r.logger.Info("http listening", "addr", ln.Addr().String())

		g.Go(func() error {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), r.config.ShutdownGrace)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	for name, l := range r.loops {
		g.Go(func() error {
			r.logger.Debug("component starting", "component", name)
			err := l.Run(ctx)
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			if err != nil {
				r.logger.Error("component stopped", "component", name, "error", err)
			}
			return err
		})
	}

	if r.eventLog != nil && r.config.PruneInterval > 0 {
		g.Go(func() error {
			r.pruneLoop(ctx)
			return nil
		})
	}

	return g.Wait()
}

func (r *Runner) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(r.config.PruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.eventLog.Prune(ctx, r.config.EventRetention)
			if err != nil {
				r.logger.Warn("prune events failed", "error", err)
				continue
			}
			if n > 0 {
				r.logger.Info("pruned events", "count", n)
			}
		}
	}
}
