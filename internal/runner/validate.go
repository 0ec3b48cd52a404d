package runner

import (
	"context"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vmunix/fixturesync/internal/dom"
	"github.com/vmunix/fixturesync/internal/events"
	"github.com/vmunix/fixturesync/internal/jobstore"
	"github.com/vmunix/fixturesync/internal/locate"
	"github.com/vmunix/fixturesync/internal/progress"
)

// Validate checks that the controls a run depends on can be found on page.
func Validate(page dom.Page) []events.Check {
	return []events.Check{
		{Field: "Month grid visible (heuristic or role)", OK: len(locate.MonthGrids(page)) > 0},
		{Field: "New event button", OK: locate.NewEventButton(page) != nil},
		{Field: `Game menu (eventtype="match")`, OK: page.Query(locate.GameMenuMarker) != nil},
	}
}

// WriteChecks renders a validation report as a table.
func WriteChecks(w io.Writer, checks []events.Check) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Check", "OK"})
	for _, c := range checks {
		ok := "no"
		if c.OK {
			ok = "yes"
		}
		t.AppendRow(table.Row{c.Field, ok})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func (r *Runner) validate(ctx context.Context, job *jobstore.Job) State {
	checks := Validate(r.page)
	for _, c := range checks {
		r.logger.Info("validate", "check", c.Field, "ok", c.OK)
	}
	r.banner("Validation complete")
	r.reporter.Update(func(s *progress.Snapshot) {
		s.Finished = true
		s.Navigating = false
		s.Message = "Validation complete"
	})
	r.clear(ctx)
	r.publish(ctx, &events.JobValidated{
		BaseEvent: events.JobEvent(events.EventJobValidated, job.ID),
		Checks:    checks,
	})
	return Validated
}
