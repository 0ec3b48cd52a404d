// Package runner drives an import job through the calendar application one
// row at a time. A run ends in one of three ways: every row is done, a page
// navigation was issued and the job waits in the store for the next page
// load, or setup failed. The runner keeps no job state between calls; every
// entry point starts from the store.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vmunix/fixturesync/internal/dom"
	"github.com/vmunix/fixturesync/internal/events"
	"github.com/vmunix/fixturesync/internal/fill"
	"github.com/vmunix/fixturesync/internal/jobstore"
	"github.com/vmunix/fixturesync/internal/navigate"
	"github.com/vmunix/fixturesync/internal/progress"
	"github.com/vmunix/fixturesync/pkg/fixture"
)

// State is where a job stands when a runner call returns.
type State int

const (
	// Idle means there was nothing to do.
	Idle State = iota
	// Running is reported while rows are being processed.
	Running
	// Suspended means a navigation was issued; call Resume on the next page load.
	Suspended
	// Finished means every row was processed and the job was cleared.
	Finished
	// Validated means a validate-only job completed and was cleared.
	Validated
	// Failed means setup failed and the job was cleared.
	Failed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Finished:
		return "finished"
	case Validated:
		return "validated"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// ErrNoJob is returned by Resume when the store holds no resumable job.
var ErrNoJob = errors.New("no resumable job")

// Publisher receives job lifecycle events. *events.Bus implements it.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// Timing holds the runner's own waits plus those of the navigator and filler.
type Timing struct {
	Poll         time.Duration
	FieldWait    time.Duration // title, location
	NotesWait    time.Duration
	MeetWait     time.Duration
	GameWait     time.Duration // kickoff, duration
	RecommitWait time.Duration // kickoff and duration re-assertions
	MenuWait     time.Duration // game entry of the create menu
	RouteWait    time.Duration // full-page form route change
	DialogWait   time.Duration
	FormWait     time.Duration
	OpenSettle   time.Duration
	SideLead     time.Duration // before picking home/away
	SideSettle   time.Duration
	FieldSettle  time.Duration
	SaveSettle   time.Duration
	FinishSettle time.Duration
	ReturnWait   time.Duration
	ReturnSettle time.Duration

	Fill     fill.Timing
	Navigate navigate.Timing
}

// DefaultTiming returns the waits used against the live application.
func DefaultTiming() Timing {
	return Timing{
		Poll:         120 * time.Millisecond,
		FieldWait:    12 * time.Second,
		NotesWait:    8 * time.Second,
		MeetWait:     6 * time.Second,
		GameWait:     8 * time.Second,
		RecommitWait: 3 * time.Second,
		MenuWait:     3 * time.Second,
		RouteWait:    6 * time.Second,
		DialogWait:   1500 * time.Millisecond,
		FormWait:     12 * time.Second,
		OpenSettle:   250 * time.Millisecond,
		SideLead:     50 * time.Millisecond,
		SideSettle:   150 * time.Millisecond,
		FieldSettle:  120 * time.Millisecond,
		SaveSettle:   300 * time.Millisecond,
		FinishSettle: 600 * time.Millisecond,
		ReturnWait:   1500 * time.Millisecond,
		ReturnSettle: 250 * time.Millisecond,
		Fill:         fill.DefaultTiming(),
		Navigate:     navigate.DefaultTiming(),
	}
}

// Config configures a Runner.
type Config struct {
	Page  dom.Page
	Store jobstore.Store
	// Reporter receives status updates. Optional.
	Reporter *progress.Reporter
	// Events receives lifecycle events. Optional.
	Events Publisher
	// ManualPrefix overrides group prefix discovery.
	ManualPrefix string
	Location     *time.Location
	Timing       Timing
	Logger       *slog.Logger
	// Now is the clock used for the "today" resume fallback.
	Now func() time.Time
}

// Runner executes import jobs against one page.
type Runner struct {
	page     dom.Page
	store    jobstore.Store
	reporter *progress.Reporter
	events   Publisher
	nav      *navigate.Navigator
	loc      *time.Location
	timing   Timing
	logger   *slog.Logger
	base     *slog.Logger // untagged, for per-job helpers
	now      func() time.Time
}

// New creates a Runner.
func New(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = progress.NewReporter()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		page:     cfg.Page,
		store:    cfg.Store,
		reporter: reporter,
		events:   cfg.Events,
		nav: navigate.New(navigate.Config{
			Page:         cfg.Page,
			Prefixes:     cfg.Store,
			ManualPrefix: cfg.ManualPrefix,
			Location:     loc,
			Mode:         fixture.ModeFull,
			Timing:       cfg.Timing.Navigate,
			Logger:       logger,
		}),
		loc:    loc,
		timing: cfg.Timing,
		logger: logger.With("component", "runner"),
		base:   logger,
		now:    now,
	}
}

// Reporter returns the status reporter.
func (r *Runner) Reporter() *progress.Reporter { return r.reporter }

// Navigator returns the runner's navigator.
func (r *Runner) Navigator() *navigate.Navigator { return r.nav }

// Close stops the month enforcer left running by the last saved row. Call it
// before the page goes away.
func (r *Runner) Close() { r.nav.Stop() }

// Start parses csv into a new job, replacing any stored one, and runs it
// until it finishes or suspends.
func (r *Runner) Start(ctx context.Context, csv string, opts fixture.Options) (State, error) {
	rows, err := fixture.ParseCSVString(csv)
	if err != nil {
		return r.fail(ctx, "", fmt.Errorf("parse csv: %w", err))
	}
	for i := range rows {
		if rows[i].Date == "" {
			continue
		}
		iso, ok := fixture.NormalizeDate(rows[i].Date)
		if !ok {
			r.logger.Warn("unparsable date, row will use the portal default", "row", i, "date", rows[i].Date)
		}
		rows[i].Date = iso
	}

	job := jobstore.NewJob(rows, opts)
	if job.Options.Dedupe {
		r.logger.Debug("dedupe requested; not enforced")
	}
	r.save(ctx, job)
	r.nav.SetMode(job.Options.Mode)
	r.nav.RefreshPrefix(ctx)
	r.banner(job.Options.Mode.Banner())

	r.reporter.Reset(progress.Snapshot{Started: true, Index: progress.Int(0), Total: progress.Int(job.Total())})
	r.reporter.Progress(0, job.Total(), "Starting…")
	r.publish(ctx, &events.JobStarted{
		BaseEvent:    events.JobEvent(events.EventJobStarted, job.ID),
		Total:        job.Total(),
		Mode:         string(job.Options.Mode),
		ValidateOnly: job.Options.ValidateOnly,
	})
	r.logger.Info("job started", "job", job.ID, "rows", job.Total(), "mode", job.Options.Mode)

	if job.Options.ValidateOnly {
		return r.validate(ctx, job), nil
	}
	return r.run(ctx, job)
}

// Resume is the page-load entry point. A job waiting for a navigation is
// re-entered at its cursor, after re-navigating to the month view when the
// page landed elsewhere. It returns Idle when no job is waiting.
func (r *Runner) Resume(ctx context.Context) (State, error) {
	job, err := r.store.Load(ctx)
	if err != nil {
		switch {
		case errors.Is(err, jobstore.ErrCorrupt):
			r.logger.Warn("discarded unreadable job record", "error", err)
		case !errors.Is(err, jobstore.ErrNoJob):
			r.logger.Warn("load job", "error", err)
		}
		return Idle, nil
	}
	if !job.ResumeAfterNav {
		return Idle, nil
	}
	r.logger.Info("resuming job after navigation", "job", job.ID, "index", job.Index)
	r.nav.SetMode(job.Options.Mode)
	r.nav.RefreshPrefix(ctx)

	iso := r.resumeTarget(job.NextISO, job)
	r.reporter.Update(func(s *progress.Snapshot) {
		s.Resumed = true
		s.Navigating = false
	})
	r.publish(ctx, &events.JobResumed{
		BaseEvent: events.JobEvent(events.EventJobResumed, job.ID),
		Index:     job.Index,
		NextISO:   job.NextISO,
	})

	if !navigate.OnMonthView(r.page.URL()) && job.Options.Mode.Mutates() {
		target, err := r.nav.MonthURL(ctx, iso)
		if err != nil {
			r.logger.Warn("month url for resume", "date", iso, "error", err)
		} else if err := r.nav.Go(ctx, iso, target, true); err != nil {
			r.logger.Warn("navigate for resume", "url", target, "error", err)
		} else {
			r.navigating(job, target)
			return Suspended, nil
		}
	}

	job.ResumeAfterNav = false
	job.NextISO = ""
	r.save(ctx, job)
	return r.run(ctx, job)
}

// RequireJob reports ErrNoJob when nothing resumable is stored.
func (r *Runner) RequireJob(ctx context.Context) error {
	job, err := r.store.Load(ctx)
	if err != nil || !job.ResumeAfterNav {
		return ErrNoJob
	}
	return nil
}

// run processes rows from the cursor until the job drains or suspends.
func (r *Runner) run(ctx context.Context, job *jobstore.Job) (State, error) {
	filler := fill.New(job.Options.Mode, r.timing.Fill, r.base)
	total := job.Total()

	for !job.Done() {
		r.save(ctx, job)
		r.reporter.Update(func(s *progress.Snapshot) {
			s.Started = true
			s.Index = progress.Int(job.Index)
			s.Total = progress.Int(total)
			s.Navigating = false
			s.Error = ""
		})
		r.reporter.Progress(job.Index, total, "Working…")

		row, _ := job.Current()
		outcome, err := r.processRow(ctx, job, row, filler)
		if err != nil {
			return r.interrupt(ctx, job, row, err)
		}
		if outcome == rowSuspended {
			r.logger.Info("navigating, will resume", "job", job.ID, "index", job.Index)
			r.publishSuspended(ctx, job)
			return Suspended, nil
		}
		notStarted := outcome == rowNotStarted
		if notStarted {
			r.reporter.Update(func(s *progress.Snapshot) { s.NotStarted++ })
		}
		r.publish(ctx, &events.RowCompleted{
			BaseEvent:  events.JobEvent(events.EventRowCompleted, job.ID),
			Index:      job.Index,
			Total:      total,
			Date:       row.Date,
			Saved:      !notStarted && job.Options.Mode.Saves(),
			NotStarted: notStarted,
		})

		if job.Index >= total-1 {
			job.Index++
			break
		}

		next := job.Rows[job.Index+1].Date
		if next == "" {
			next = row.Date
		}
		target := r.resumeTarget(next, nil)
		job.Index++
		job.ResumeAfterNav = true
		job.NextISO = target
		r.save(ctx, job)

		if !job.Options.Mode.Mutates() {
			// highlight mode stays on the page it has
			job.ResumeAfterNav = false
			job.NextISO = ""
			continue
		}
		url, err := r.nav.MonthURL(ctx, target)
		if err != nil {
			r.logger.Warn("month url for next row", "date", target, "error", err)
			continue
		}
		r.navigating(job, url)
		if err := r.nav.Go(ctx, target, url, false); err != nil {
			r.logger.Warn("navigate to next row", "url", url, "error", err)
			continue
		}
		r.publishSuspended(ctx, job)
		return Suspended, nil
	}
	return r.finish(ctx, job), nil
}

// interrupt leaves the job resumable at the current row when ctx ends.
func (r *Runner) interrupt(ctx context.Context, job *jobstore.Job, row fixture.Row, err error) (State, error) {
	job.ResumeAfterNav = true
	job.NextISO = r.resumeTarget(row.Date, nil)
	r.save(context.WithoutCancel(ctx), job)
	r.logger.Warn("run interrupted", "job", job.ID, "index", job.Index, "error", err)
	return Suspended, err
}

func (r *Runner) finish(ctx context.Context, job *jobstore.Job) State {
	total := job.Total()
	r.logger.Info("all rows done", "job", job.ID, "total", total)
	r.banner("Done.")
	r.reporter.Update(func(s *progress.Snapshot) {
		s.Finished = true
		s.Navigating = false
		s.Message = progress.FinalText(total, s.NotStarted)
	})
	r.clear(ctx)
	r.publish(ctx, &events.JobFinished{
		BaseEvent: events.JobEvent(events.EventJobFinished, job.ID),
		Total:     total,
	})
	return Finished
}

func (r *Runner) fail(ctx context.Context, jobID string, err error) (State, error) {
	r.logger.Error("job failed", "job", jobID, "error", err)
	r.reporter.Update(func(s *progress.Snapshot) {
		s.Finished = true
		s.Navigating = false
		s.Error = err.Error()
		s.Message = "Failed — check the page"
	})
	r.banner("Failed.")
	r.clear(ctx)
	r.publish(ctx, &events.JobFailed{
		BaseEvent: events.JobEvent(events.EventJobFailed, jobID),
		Reason:    err.Error(),
	})
	return Failed, err
}

func (r *Runner) navigating(job *jobstore.Job, target string) {
	r.reporter.Update(func(s *progress.Snapshot) {
		s.Navigating = true
		s.Target = target
	})
	r.reporter.Progress(job.Index, job.Total(), "Navigating…")
}

func (r *Runner) publishSuspended(ctx context.Context, job *jobstore.Job) {
	r.publish(ctx, &events.JobSuspended{
		BaseEvent: events.JobEvent(events.EventJobSuspended, job.ID),
		Index:     job.Index,
		NextISO:   job.NextISO,
		Target:    r.reporter.Snapshot().Target,
	})
}

// resumeTarget picks the date to show: iso, else the current row's date
// (when job is given), else today.
func (r *Runner) resumeTarget(iso string, job *jobstore.Job) string {
	if v, ok := fixture.NormalizeDate(iso); ok {
		return v
	}
	if job != nil {
		if row, ok := job.Current(); ok {
			if v, ok := fixture.NormalizeDate(row.Date); ok {
				return v
			}
		}
	}
	return r.now().In(r.loc).Format(fixture.DateLayout)
}

func (r *Runner) save(ctx context.Context, job *jobstore.Job) {
	if err := r.store.Save(ctx, job); err != nil {
		r.logger.Warn("save job", "job", job.ID, "error", err)
	}
}

func (r *Runner) clear(ctx context.Context) {
	if err := r.store.Clear(ctx); err != nil {
		r.logger.Warn("clear job", "error", err)
	}
}

func (r *Runner) banner(text string) {
	if err := r.page.Banner(text); err != nil {
		r.logger.Debug("banner", "error", err)
	}
}

func (r *Runner) publish(ctx context.Context, e events.Event) {
	if r.events == nil {
		return
	}
	if err := r.events.Publish(ctx, e); err != nil {
		r.logger.Warn("publish event", "type", e.EventType(), "error", err)
	}
}
