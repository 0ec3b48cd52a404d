package navigate

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/vmunix/fixturesync/internal/dom"
	"github.com/vmunix/fixturesync/internal/locate"
	"github.com/vmunix/fixturesync/pkg/fixture"
)

// Outcome is the result of bringing a month or day on screen.
type Outcome int

const (
	// NotReady means the target could not be shown; callers proceed degraded.
	NotReady Outcome = iota
	// Ready means the month (or day) is on screen.
	Ready
	// Navigating means a page navigation was issued; the caller must suspend.
	Navigating
)

func (o Outcome) String() string {
	switch o {
	case Ready:
		return "ready"
	case Navigating:
		return "navigating"
	default:
		return "not_ready"
	}
}

// Search bounds for the day cell once the grid is up.
const (
	alignSteps    = 4
	forwardTries  = 6
	backwardTries = 12
	maxSteps      = 24
)

// Timing holds the navigator's waits.
type Timing struct {
	GridWait        time.Duration
	GridPoll        time.Duration
	EnforceInterval time.Duration
	EnforceTimeout  time.Duration
	Step            time.Duration // between month stepper clicks
	RetryStep       time.Duration // between day-cell search clicks
	Settle          time.Duration // after aligning the month
	ClickSettle     time.Duration // after clicking the day
}

// DefaultTiming returns the waits used against the live application.
func DefaultTiming() Timing {
	return Timing{
		GridWait:        12 * time.Second,
		GridPoll:        120 * time.Millisecond,
		EnforceInterval: 250 * time.Millisecond,
		EnforceTimeout:  4 * time.Second,
		Step:            80 * time.Millisecond,
		RetryStep:       140 * time.Millisecond,
		Settle:          150 * time.Millisecond,
		ClickSettle:     180 * time.Millisecond,
	}
}

// PrefixStore caches the group prefix across page loads.
type PrefixStore interface {
	Prefix(ctx context.Context) (string, error)
	SetPrefix(ctx context.Context, prefix string) error
}

// Config configures a Navigator.
type Config struct {
	Page     dom.Page
	Prefixes PrefixStore
	// ManualPrefix overrides discovery when set.
	ManualPrefix string
	Location     *time.Location
	Mode         fixture.Mode
	Timing       Timing
	Logger       *slog.Logger
}

// Navigator drives month navigation for one page.
type Navigator struct {
	page     dom.Page
	prefixes PrefixStore
	manual   string
	loc      *time.Location
	mode     fixture.Mode
	timing   Timing
	logger   *slog.Logger

	mu       sync.Mutex
	enforcer *Enforcer
}

// New creates a Navigator.
func New(cfg Config) *Navigator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Navigator{
		page:     cfg.Page,
		prefixes: cfg.Prefixes,
		manual:   strings.TrimSuffix(cfg.ManualPrefix, "/"),
		loc:      loc,
		mode:     cfg.Mode,
		timing:   cfg.Timing,
		logger:   logger.With("component", "navigate"),
	}
}

// SetMode switches the run mode; a resumed job may carry a different one.
func (n *Navigator) SetMode(mode fixture.Mode) {
	n.mu.Lock()
	n.mode = mode
	n.mu.Unlock()
}

func (n *Navigator) mutates() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.mode.Mutates()
}

// Location returns the zone used for local midnight.
func (n *Navigator) Location() *time.Location { return n.loc }

func (n *Navigator) storedPrefix(ctx context.Context) string {
	if n.prefixes == nil {
		return ""
	}
	p, err := n.prefixes.Prefix(ctx)
	if err != nil {
		n.logger.Warn("read group prefix", "error", err)
		return ""
	}
	return p
}

func (n *Navigator) storePrefix(ctx context.Context, p string) {
	if n.prefixes == nil || p == "" {
		return
	}
	if err := n.prefixes.SetPrefix(ctx, p); err != nil {
		n.logger.Warn("store group prefix", "error", err)
	}
}

func (n *Navigator) prefixFromLocation() (string, bool) {
	u, err := url.Parse(n.page.URL())
	if err != nil {
		return "", false
	}
	return DerivePrefix(u.Path)
}

func (n *Navigator) prefixFromAnchors() (string, bool) {
	base, err := url.Parse(n.page.URL())
	if err != nil {
		return "", false
	}
	for _, a := range n.page.QueryAll(locate.MonthLinkSelector) {
		ref, err := url.Parse(dom.AttrOr(a, "href"))
		if err != nil {
			continue
		}
		if p, ok := DerivePrefix(base.ResolveReference(ref).Path); ok {
			return p, true
		}
	}
	return "", false
}

// RefreshPrefix re-derives the group prefix for the current page and caches
// it: the manual override, else the current path, else an in-page month link,
// else whatever was cached before.
func (n *Navigator) RefreshPrefix(ctx context.Context) string {
	if n.manual != "" {
		n.storePrefix(ctx, n.manual)
		return n.manual
	}
	if p, ok := n.prefixFromLocation(); ok {
		n.storePrefix(ctx, p)
		return p
	}
	if p, ok := n.prefixFromAnchors(); ok {
		n.storePrefix(ctx, p)
		return p
	}
	return n.storedPrefix(ctx)
}

// Prefix resolves the prefix used for month URLs, falling back to the root.
func (n *Navigator) Prefix(ctx context.Context) string {
	if n.manual != "" {
		return n.manual
	}
	if p := n.storedPrefix(ctx); p != "" {
		return p
	}
	if p, ok := n.prefixFromLocation(); ok {
		n.storePrefix(ctx, p)
		return p
	}
	if p, ok := n.prefixFromAnchors(); ok {
		return p
	}
	return ""
}

// MonthURL returns the month view URL for iso on the current site.
func (n *Navigator) MonthURL(ctx context.Context, iso string) (string, error) {
	return BuildMonthURL(Origin(n.page.URL()), n.Prefix(ctx), iso, n.loc)
}

// Go assigns target unless the mode forbids navigation, and starts the
// enforcer for iso.
func (n *Navigator) Go(ctx context.Context, iso, target string, replace bool) error {
	if n.mutates() {
		var err error
		if replace {
			err = n.page.Replace(target)
		} else {
			err = n.page.Navigate(target)
		}
		if err != nil {
			return err
		}
	}
	n.Enforce(ctx, iso)
	return nil
}

// EnsureMonthVisible brings the month containing iso on screen. When the
// page is elsewhere it calls checkpoint, navigates and returns Navigating;
// the checkpoint must persist whatever is needed to resume. In highlight
// mode it never navigates and works with the page as shown. Otherwise it
// waits for a grid or the create control.
func (n *Navigator) EnsureMonthVisible(ctx context.Context, iso string, checkpoint func() error) (Outcome, error) {
	target, err := n.MonthURL(ctx, iso)
	if err != nil {
		return NotReady, err
	}
	if target != n.page.URL() && n.mutates() {
		if checkpoint != nil {
			if err := checkpoint(); err != nil {
				n.logger.Warn("checkpoint before navigation", "error", err)
			}
		}
		if err := n.Go(ctx, iso, target, false); err != nil {
			return NotReady, err
		}
		n.logger.Info("navigating to month", "date", iso, "url", target)
		return Navigating, nil
	}
	ready := dom.WaitElement(ctx, n.timing.GridWait, n.timing.GridPoll, func() dom.Element {
		if grids := locate.MonthGrids(n.page); len(grids) > 0 {
			return grids[0]
		}
		return locate.NewEventButton(n.page)
	})
	if ready == nil {
		return NotReady, nil
	}
	return Ready, nil
}

// ClickMonthNavTowards steps the displayed month towards target, at most
// maxSteps clicks.
func (n *Navigator) ClickMonthNavTowards(ctx context.Context, target locate.YearMonth, steps int) {
	cur, ok := locate.CurrentMonth(n.page)
	if !ok {
		return
	}
	diff := cur.Diff(target)
	btn := locate.MonthStepper(n.page, diff > 0)
	if btn == nil {
		return
	}
	if diff < 0 {
		diff = -diff
	}
	diff = min(max(diff, 1), steps)
	for i := 0; i < diff; i++ {
		if n.mutates() {
			if err := btn.Click(); err != nil {
				n.logger.Debug("month stepper click", "error", err)
			}
		}
		if dom.Sleep(ctx, n.timing.Step) != nil {
			return
		}
	}
}

// GoToDate shows the month for iso and clicks its day cell. Returns
// Navigating when a page navigation was issued, NotReady when the grid or the
// cell could not be found.
func (n *Navigator) GoToDate(ctx context.Context, iso string, checkpoint func() error) (Outcome, error) {
	vis, err := n.EnsureMonthVisible(ctx, iso, checkpoint)
	if err != nil || vis != Ready {
		if vis == NotReady && err == nil {
			n.logger.Warn("month grid not found on page", "date", iso)
		}
		return vis, err
	}
	day, err := fixture.ParseDate(iso, n.loc)
	if err != nil {
		return NotReady, err
	}
	if cur, ok := locate.CurrentMonth(n.page); ok && cur != locate.Of(day) {
		n.ClickMonthNavTowards(ctx, locate.Of(day), alignSteps)
		if err := dom.Sleep(ctx, n.timing.Settle); err != nil {
			return NotReady, err
		}
	}

	cell := locate.DayCell(n.page, day)
	for _, dir := range []struct {
		forward bool
		tries   int
	}{{true, forwardTries}, {false, backwardTries}} {
		for i := 0; i < dir.tries && cell == nil; i++ {
			btn := locate.MonthStepper(n.page, dir.forward)
			if btn == nil {
				break
			}
			if n.mutates() {
				_ = btn.Click()
			}
			if err := dom.Sleep(ctx, n.timing.RetryStep); err != nil {
				return NotReady, err
			}
			cell = locate.DayCell(n.page, day)
		}
	}
	if cell == nil {
		n.logger.Warn("could not find day cell", "date", iso)
		return NotReady, nil
	}
	if err := cell.Mark(); err != nil {
		n.logger.Debug("mark day cell", "error", err)
	}
	if n.mutates() {
		if err := cell.PointerClick(); err != nil {
			n.logger.Warn("click day cell", "date", iso, "error", err)
		}
	}
	if err := dom.Sleep(ctx, n.timing.ClickSettle); err != nil {
		return NotReady, err
	}
	return Ready, nil
}

// Enforce starts the enforcer for iso, replacing any running one.
func (n *Navigator) Enforce(ctx context.Context, iso string) *Enforcer {
	target, err := n.MonthURL(ctx, iso)
	if err != nil {
		n.logger.Warn("enforcer target", "date", iso, "error", err)
		return nil
	}
	e := startEnforcer(ctx, n.page, target, n.timing.EnforceInterval, n.timing.EnforceTimeout, n.mutates(), n.logger)
	n.mu.Lock()
	if n.enforcer != nil {
		n.enforcer.Stop()
	}
	n.enforcer = e
	n.mu.Unlock()
	return e
}

// Stop halts the running enforcer, if any.
func (n *Navigator) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.enforcer != nil {
		n.enforcer.Stop()
		n.enforcer = nil
	}
}
