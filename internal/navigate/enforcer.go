package navigate

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/vmunix/fixturesync/internal/dom"
)

// Enforcer re-issues a month navigation until the page settles on it or the
// timeout elapses. Client-side routing in the calendar application sometimes
// reverts a location change before the document reloads.
type Enforcer struct {
	cancel context.CancelFunc
	done   chan struct{}
	target string
}

func startEnforcer(parent context.Context, page dom.Page, target string, interval, timeout time.Duration, assign bool, logger *slog.Logger) *Enforcer {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), timeout)
	e := &Enforcer{cancel: cancel, done: make(chan struct{}), target: target}
	base := withoutQuery(target)
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}

	go func() {
		defer close(e.done)
		defer cancel()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			cur := page.URL()
			if OnMonthView(cur) && strings.HasPrefix(cur, base) {
				return
			}
			if !assign {
				continue
			}
			logger.Debug("re-asserting month navigation", "from", cur, "to", target)
			if err := page.Navigate(target); err != nil {
				logger.Warn("enforcer navigation failed", "error", err)
			}
		}
	}()
	return e
}

// Target returns the URL being enforced.
func (e *Enforcer) Target() string { return e.target }

// Stop halts the enforcer and waits for it to exit.
func (e *Enforcer) Stop() {
	e.cancel()
	<-e.done
}

// Done is closed once the enforcer exits.
func (e *Enforcer) Done() <-chan struct{} { return e.done }
