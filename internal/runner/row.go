package runner

import (
	"context"
	"time"

	"github.com/vmunix/fixturesync/internal/dom"
	"github.com/vmunix/fixturesync/internal/fill"
	"github.com/vmunix/fixturesync/internal/jobstore"
	"github.com/vmunix/fixturesync/internal/locate"
	"github.com/vmunix/fixturesync/internal/navigate"
	"github.com/vmunix/fixturesync/internal/progress"
	"github.com/vmunix/fixturesync/pkg/fixture"
)

// rowOutcome is what processRow did with a row.
type rowOutcome int

const (
	rowDone rowOutcome = iota
	// rowSuspended means the day could only be reached through a page
	// navigation; the job has been saved with its resume marker.
	rowSuspended
	// rowNotStarted means neither a month grid nor a create button exists, so
	// nothing was filled.
	rowNotStarted
)

// processRow creates one calendar event. The only error is the context's.
func (r *Runner) processRow(ctx context.Context, job *jobstore.Job, row fixture.Row, f *fill.Filler) (rowOutcome, error) {
	iso := row.Date
	if iso != "" {
		checkpoint := func() error {
			job.ResumeAfterNav = true
			job.NextISO = iso
			return r.store.Save(ctx, job)
		}
		out, err := r.nav.GoToDate(ctx, iso, checkpoint)
		if ctx.Err() != nil {
			return rowDone, ctx.Err()
		}
		switch {
		case err != nil:
			r.logger.Warn("go to date", "date", iso, "error", err)
		case out == navigate.Navigating:
			if target, err := r.nav.MonthURL(ctx, iso); err == nil {
				r.navigating(job, target)
			}
			return rowSuspended, nil
		case out == navigate.NotReady:
			r.logger.Warn("proceeding without pre-selecting day; form may default to today", "date", iso)
		}
	} else {
		r.logger.Warn("row has no usable date; using portal default", "index", job.Index)
	}

	if !r.canCreate(ctx) {
		if ctx.Err() != nil {
			return rowDone, ctx.Err()
		}
		r.logger.Warn("no month grid and no create button; row not started", "index", job.Index, "date", iso)
		r.reporter.Progress(job.Index, job.Total(), "Not started")
		return rowNotStarted, nil
	}

	scope := r.openForm(ctx, f)
	if err := r.pause(ctx, r.timing.OpenSettle); err != nil {
		return rowDone, err
	}

	row.Title = row.DefaultTitle()
	r.fillCommon(ctx, scope, row, f)
	r.fillGame(ctx, scope, row, f)

	// the form may re-render on focus or scroll; commit the fragile fields again
	r.commitOpponent(ctx, scope, row.Opponent, f)
	r.commitGameTimes(ctx, scope, row, f)

	if !job.Options.Mode.Saves() {
		if job.Options.Mode == fixture.ModeType {
			r.banner("Type-only: Save skipped")
		} else {
			r.banner("Highlight-only: Save skipped")
		}
		r.reporter.Progress(job.Index+1, job.Total(), "Filled (not saved)")
		return rowDone, ctx.Err()
	}

	r.saveForm(ctx, scope, row, f)
	if ctx.Err() != nil {
		return rowDone, ctx.Err()
	}

	done := job.Index + 1
	r.reporter.Progress(done, job.Total(), "Saved")
	r.reporter.Update(func(s *progress.Snapshot) {
		s.Saved = true
		s.IndexDone = progress.Int(done)
		s.Total = progress.Int(job.Total())
		s.Navigating = false
	})

	// settle back on the month view for the same day
	before := r.page.URL()
	if err := r.pause(ctx, r.timing.ReturnSettle); err != nil {
		return rowDone, err
	}
	dom.Poll(ctx, r.timing.ReturnWait, r.timing.Poll, func() (struct{}, bool) {
		return struct{}{}, r.page.URL() != before
	})
	if iso != "" {
		r.nav.Enforce(ctx, iso)
	}
	return rowDone, ctx.Err()
}

// canCreate reports whether the page shows a month grid or a create button,
// waiting a bounded time for the button.
func (r *Runner) canCreate(ctx context.Context) bool {
	if len(locate.MonthGrids(r.page)) > 0 {
		return true
	}
	return dom.WaitElement(ctx, r.timing.MenuWait, r.timing.Poll, func() dom.Element {
		return locate.NewEventButton(r.page)
	}) != nil
}

// openForm opens the create menu, picks the game entry and returns the scope
// holding the form: the dialog when one opened, else the page.
func (r *Runner) openForm(ctx context.Context, f *fill.Filler) dom.Root {
	mutates := f.Mode().Mutates()
	before := r.page.URL()

	if btn := locate.NewEventButton(r.page); btn != nil {
		f.Mark(btn)
		if mutates {
			if err := btn.Click(); err != nil {
				r.logger.Warn("click new event", "error", err)
			}
		}
	} else {
		r.logger.Warn("new event button not found")
	}
	r.nav.RefreshPrefix(ctx)

	item := dom.WaitElement(ctx, r.timing.MenuWait, r.timing.Poll, func() dom.Element {
		return locate.GameMenuItem(r.page)
	})
	if item == nil {
		item = locate.GameMenuItemByText(r.page)
	}
	if item != nil {
		f.Mark(item)
		if mutates {
			if err := item.Click(); err != nil {
				r.logger.Warn("click game entry", "error", err)
			}
		}
	} else {
		r.logger.Warn("create menu: could not find game entry")
	}

	// a full-page form changes the route; a modal shows a dialog
	dom.Poll(ctx, r.timing.RouteWait, r.timing.Poll, func() (struct{}, bool) {
		return struct{}{}, r.page.URL() != before || locate.Dialog(r.page) != nil
	})
	if dlg := dom.WaitElement(ctx, r.timing.DialogWait, r.timing.Poll, func() dom.Element {
		return locate.Dialog(r.page)
	}); dlg != nil {
		r.logger.Debug("dialog detected; scoping to dialog")
		return dlg
	}
	if dom.WaitElement(ctx, r.timing.FormWait, r.timing.Poll, func() dom.Element {
		return locate.FormReady(r.page)
	}) == nil {
		r.logger.Warn("form did not appear; using page scope anyway")
	}
	return r.page
}

func (r *Runner) fillText(ctx context.Context, scope dom.Root, field string, candidates []string, value string, f *fill.Filler) {
	if value == "" {
		return
	}
	wait := r.timing.FieldWait
	switch field {
	case "notes":
		wait = r.timing.NotesWait
	case "meet_before":
		wait = r.timing.MeetWait
	case "duration":
		wait = r.timing.GameWait
	}
	el := dom.WaitAny(ctx, scope, candidates, wait, r.timing.Poll)
	if el == nil {
		r.logger.Warn("missing field after wait", "field", field)
		return
	}
	if !f.Fill(ctx, el, value) {
		r.logger.Warn("field value not reliably set", "field", field)
	}
}

func (r *Runner) fillCommon(ctx context.Context, scope dom.Root, row fixture.Row, f *fill.Filler) {
	r.fillText(ctx, scope, "title", locate.TitleField, row.Title, f)
	r.fillText(ctx, scope, "location", locate.LocationField, row.Location, f)
	r.fillText(ctx, scope, "notes", locate.NotesField, row.Notes, f)

	start, end := locate.TimeInputs(scope)
	if row.StartTime != "" && start != nil {
		f.Text(ctx, start, row.StartTime)
	}
	if row.EndTime != "" && end != nil {
		f.Text(ctx, end, row.EndTime)
	}

	r.fillText(ctx, scope, "meet_before", locate.MeetBeforeField, row.MeetBefore, f)

	if row.Visibility != "" {
		sel := locate.SelectByLabel(scope, locate.VisibilityLabel)
		if sel == nil {
			r.logger.Warn("visibility select not found")
		} else {
			f.Select(ctx, sel, row.Visibility)
		}
	}
}

// fillGame fills the match fields. Home/away goes first because flipping it
// re-renders the opponent input.
func (r *Runner) fillGame(ctx context.Context, scope dom.Root, row fixture.Row, f *fill.Filler) {
	if row.HomeAway != "" {
		if err := r.pause(ctx, r.timing.SideLead); err != nil {
			return
		}
		opt, ok := locate.PickSide(locate.HomeAwayOptions(scope), fixture.NormalizeHomeAway(row.HomeAway))
		if ok {
			f.Radio(ctx, opt)
		} else {
			r.logger.Warn("home/away not set", "value", row.HomeAway)
		}
		if err := r.pause(ctx, r.timing.SideSettle); err != nil {
			return
		}
	}

	r.commitOpponent(ctx, scope, row.Opponent, f)

	if row.KickoffTime != "" {
		r.commitKickoff(ctx, scope, row.KickoffTime, r.timing.GameWait, f)
	}
	if row.Duration != "" {
		r.fillText(ctx, scope, "duration", locate.DurationField, row.Duration, f)
		_ = r.pause(ctx, r.timing.FieldSettle)
	}

	for _, toggle := range []struct{ label, value string }{
		{locate.AdminsLabel, row.AddAdmins},
		{locate.PlayersLabel, row.AddPlayers},
	} {
		want, set := fixture.ParseFlag(toggle.value)
		if !set {
			continue
		}
		input, label := locate.Checkbox(scope, toggle.label)
		if !f.Checkbox(ctx, input, label, want) {
			r.logger.Warn("toggle not found", "label", toggle.label)
		}
	}
}

func (r *Runner) commitOpponent(ctx context.Context, scope dom.Root, value string, f *fill.Filler) {
	if value == "" {
		return
	}
	el := locate.OpponentInput(scope)
	if el == nil {
		r.logger.Warn("opponent input not found")
		return
	}
	if !f.Typed(ctx, el, value) {
		r.logger.Warn("opponent not typed; input has no layout box")
	}
	_ = r.pause(ctx, r.timing.FieldSettle)
}

// commitKickoff sets the kickoff time, looking the input up again on each
// attempt since the form may have replaced it.
func (r *Runner) commitKickoff(ctx context.Context, scope dom.Root, value string, wait time.Duration, f *fill.Filler) bool {
	tries := max(r.timing.Fill.Tries, 1)
	for i := 0; i < tries; i++ {
		el := dom.WaitAny(ctx, scope, locate.KickoffField, wait, r.timing.Poll)
		if el != nil && f.Text(ctx, el, value) {
			return true
		}
		if err := r.pause(ctx, r.timing.Fill.Retry); err != nil {
			return false
		}
	}
	r.logger.Warn("kickoff time not reliably set after retries", "value", value)
	return false
}

// commitGameTimes re-asserts kickoff and duration with the short wait.
func (r *Runner) commitGameTimes(ctx context.Context, scope dom.Root, row fixture.Row, f *fill.Filler) {
	if row.KickoffTime != "" {
		r.commitKickoff(ctx, scope, row.KickoffTime, r.timing.RecommitWait, f)
	}
	if row.Duration != "" {
		if el := dom.WaitAny(ctx, scope, locate.DurationField, r.timing.RecommitWait, r.timing.Poll); el != nil {
			f.Text(ctx, el, row.Duration)
		}
	}
}

// saveForm clicks save, then the finish step when one appears, re-asserting
// kickoff and duration after each click.
func (r *Runner) saveForm(ctx context.Context, scope dom.Root, row fixture.Row, f *fill.Filler) {
	if save := locate.SaveControl(scope); save != nil {
		f.Mark(save)
		target := locate.ClickTarget(save)
		if err := target.ScrollIntoView(); err != nil {
			r.logger.Debug("scroll save into view", "error", err)
		}
		if err := r.pause(ctx, r.timing.Navigate.Step); err != nil {
			return
		}
		if err := target.PointerClick(); err != nil {
			r.logger.Warn("click save", "error", err)
		}
		if err := r.pause(ctx, r.timing.SaveSettle); err != nil {
			return
		}
	} else {
		r.logger.Warn("save control not found or not clickable; trying finish")
	}

	r.commitGameTimes(ctx, scope, row, f)
	if err := r.pause(ctx, r.timing.FinishSettle); err != nil {
		return
	}

	finish := locate.FinishControl(r.page)
	if finish == nil || !locate.Clickable(finish) {
		return
	}
	f.Mark(finish)
	if err := finish.PointerClick(); err != nil {
		r.logger.Warn("click finish", "error", err)
	}
	r.commitGameTimes(ctx, r.page, row, f)
	_ = r.pause(ctx, r.timing.FinishSettle)
}

func (r *Runner) pause(ctx context.Context, d time.Duration) error {
	return dom.Sleep(ctx, d)
}
