package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "github.com/vmunix/fixturesync/internal/api/v1"
	"github.com/vmunix/fixturesync/internal/browser"
	"github.com/vmunix/fixturesync/internal/config"
	"github.com/vmunix/fixturesync/internal/messages"
	"github.com/vmunix/fixturesync/internal/natsbridge"
	"github.com/vmunix/fixturesync/internal/server"
)

func installBrowsers() error {
	return browser.Install()
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		found, err := config.Discover()
		if err != nil {
			return nil, err
		}
		path = found
	}
	if err := config.LoadDotenv(path); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return config.Load(path)
}

func runServer(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === Browser session, stores, runner ===
	stack, err := server.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = stack.Close() }()

	dispatcher := messages.NewDispatcher(stack.Session, stack.Runner.Reporter(), logger)

	// === HTTP ===
	mux := http.NewServeMux()
	api, err := v1.New(v1.ServerDeps{
		Dispatcher: dispatcher,
		Bus:        stack.Bus,
		EventLog:   stack.EventLog,
	})
	if err != nil {
		return err
	}
	api.RegisterRoutes(mux)

	runner := server.NewRunner(server.Config{
		Addr:          cfg.Addr(),
		PruneInterval: time.Hour,
	}, v1.LogRequests(mux, logger.With("component", "http")), stack.EventLog, logger)
	runner.Add("session", stack.Session)

	// === NATS (optional) ===
	if cfg.NATS.Enabled {
		conn, err := natsbridge.Connect(cfg.NATS.URL, "fixturesyncd")
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer conn.Close()
		runner.Add("nats", natsbridge.New(conn, cfg.NATS.SubjectPrefix, dispatcher, stack.Bus, logger))
	}

	logger.Info("server starting",
		"addr", cfg.Addr(),
		"store", cfg.Store.Driver,
		"database", cfg.Store.Path,
		"nats", cfg.NATS.Enabled,
		"start_url", cfg.StartURL(),
		"log_level", cfg.Server.LogLevel,
	)

	err = runner.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info("server stopped")
	return err
}
