package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/vmunix/fixturesync/internal/browser"
	"github.com/vmunix/fixturesync/internal/config"
	"github.com/vmunix/fixturesync/internal/dom"
	"github.com/vmunix/fixturesync/internal/events"
	"github.com/vmunix/fixturesync/internal/jobstore"
	"github.com/vmunix/fixturesync/internal/migrations"
	"github.com/vmunix/fixturesync/internal/runner"
	"github.com/vmunix/fixturesync/internal/session"
)

// OpenDatabase opens the SQLite file at path, creating its directory, and
// applies the schema.
func OpenDatabase(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := migrations.Apply(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenStore selects the job store named by cfg.Driver. The returned close
// function releases any client the store owns.
func OpenStore(ctx context.Context, cfg config.StoreConfig, db *sql.DB, storage dom.Storage) (jobstore.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Driver {
	case config.DriverPage, "":
		if storage == nil {
			return nil, nil, errors.New("page store needs a browser page")
		}
		return jobstore.NewPage(storage), noop, nil
	case config.DriverMemory:
		return jobstore.NewMemory(), noop, nil
	case config.DriverSQLite:
		if db == nil {
			return nil, nil, errors.New("sqlite store needs a database")
		}
		return jobstore.NewSQLite(db), noop, nil
	case config.DriverRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return jobstore.NewRedis(client, cfg.KeyPrefix, cfg.TTL), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Stack is the browser-side half shared by the daemon and the CLI: one
// browser tab, its job store, the runner and the session loop around it.
type Stack struct {
	Browser  *browser.Browser
	DB       *sql.DB
	EventLog *events.EventLog
	Bus      *events.Bus
	Store    jobstore.Store
	Runner   *runner.Runner
	Session  *session.Session

	closers []func() error
}

// Open launches the browser and wires every component from cfg. The tab is
// pointed at the configured start URL when one is set.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stack, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Stack{}

	db, err := OpenDatabase(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	s.DB = db
	s.closers = append(s.closers, db.Close)

	s.EventLog = events.NewEventLog(db)
	s.Bus = events.NewBus(s.EventLog, logger)
	s.closers = append(s.closers, s.Bus.Close)

	b, err := browser.Launch(cfg.BrowserOptions(logger))
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.Browser = b
	s.closers = append(s.closers, b.Close)
	page := b.Page()

	store, closeStore, err := OpenStore(ctx, cfg.Store, db, page.Storage())
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.Store = store
	s.closers = append(s.closers, closeStore)

	s.Runner = runner.New(runner.Config{
		Page:         page,
		Store:        store,
		Events:       s.Bus,
		ManualPrefix: cfg.Site.GroupPrefix,
		Location:     cfg.Location(),
		Timing:       cfg.RunnerTiming(),
		Logger:       logger,
	})
	s.closers = append(s.closers, func() error {
		s.Runner.Close()
		return nil
	})
	page.Mirror(s.Runner.Reporter())

	s.Session = session.New(s.Runner, page.Loads(), session.Config{
		LoadTimeout: cfg.Timing.LoadTimeout,
		Logger:      logger,
	})

	if u := cfg.StartURL(); u != "" {
		if err := page.Goto(u); err != nil {
			logger.Warn("open start page failed", "url", u, "error", err)
		}
	}
	return s, nil
}

// Close releases everything Open acquired, newest first.
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
