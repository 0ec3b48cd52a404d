// Package fill commits values into the calendar application's form controls
// by replaying the events a user's input would produce. Each control family
// has its own Committer; the filler picks one by inspecting the control.
package fill

import (
	"context"
	"log/slog"
	"time"

	"github.com/vmunix/fixturesync/internal/dom"
	"github.com/vmunix/fixturesync/internal/locate"
	"github.com/vmunix/fixturesync/pkg/fixture"
)

// Timing holds the filler's waits.
type Timing struct {
	Settle    time.Duration // after a commit, before reading the value back
	Retry     time.Duration // between failed attempts
	TypeDelay time.Duration // between typed characters
	Tries     int
}

// DefaultTiming returns the waits used against the live application.
func DefaultTiming() Timing {
	return Timing{
		Settle:    120 * time.Millisecond,
		Retry:     200 * time.Millisecond,
		TypeDelay: 5 * time.Millisecond,
		Tries:     3,
	}
}

// Committer writes a value into one control.
type Committer interface {
	Commit(ctx context.Context, el dom.Element, value string) bool
}

// CommitterFunc adapts a function to Committer.
type CommitterFunc func(ctx context.Context, el dom.Element, value string) bool

// Commit implements Committer.
func (f CommitterFunc) Commit(ctx context.Context, el dom.Element, value string) bool {
	return f(ctx, el, value)
}

// Filler commits values according to the run mode. Every commit marks its
// target; in highlight mode marking is all it does.
type Filler struct {
	mode   fixture.Mode
	timing Timing
	logger *slog.Logger
}

// New creates a Filler.
func New(mode fixture.Mode, timing Timing, logger *slog.Logger) *Filler {
	if logger == nil {
		logger = slog.Default()
	}
	if timing.Tries <= 0 {
		timing.Tries = 1
	}
	return &Filler{mode: mode, timing: timing, logger: logger.With("component", "fill")}
}

// Mode returns the run mode.
func (f *Filler) Mode() fixture.Mode { return f.mode }

// For returns the committer for el's control family.
func (f *Filler) For(el dom.Element) Committer {
	typ := dom.AttrOr(el, "type")
	switch {
	case dom.AttrOr(el, "contenteditable") == "true":
		return CommitterFunc(f.RichText)
	case el.Tag() == "select":
		return CommitterFunc(f.Select)
	case el.Tag() == "input" && typ == "checkbox":
		return CommitterFunc(func(ctx context.Context, el dom.Element, value string) bool {
			want, _ := fixture.ParseFlag(value)
			return f.Checkbox(ctx, el, nil, want)
		})
	default:
		return CommitterFunc(f.Text)
	}
}

// Fill commits value into el with the committer for its kind.
func (f *Filler) Fill(ctx context.Context, el dom.Element, value string) bool {
	if el == nil {
		return false
	}
	return f.For(el).Commit(ctx, el, value)
}

// Mark highlights el, ignoring failures.
func (f *Filler) Mark(el dom.Element) {
	if el == nil {
		return
	}
	if err := el.Mark(); err != nil {
		f.logger.Debug("mark failed", "error", err)
	}
}

// mutating marks el and reports whether the mode allows changing it.
func (f *Filler) mutating(el dom.Element) bool {
	f.Mark(el)
	return f.mode.Mutates()
}

func (f *Filler) pause(ctx context.Context, d time.Duration) bool {
	return dom.Sleep(ctx, d) == nil
}

// Text sets a plain input or textarea through the native value setter,
// clearing first, and retries until the value reads back.
func (f *Filler) Text(ctx context.Context, el dom.Element, value string) bool {
	if !f.mutating(el) {
		return true
	}
	for i := 0; i < f.timing.Tries; i++ {
		if err := setText(el, value); err != nil {
			f.logger.Debug("text commit failed", "attempt", i+1, "error", err)
		}
		if !f.pause(ctx, f.timing.Settle) {
			return false
		}
		if el.Value() == value {
			return true
		}
		if !f.pause(ctx, f.timing.Retry) {
			return false
		}
	}
	f.logger.Warn("field value not reliably set after retries", "field", describe(el), "want", value)
	return false
}

func setText(el dom.Element, value string) error {
	steps := []func() error{
		el.Focus,
		func() error { return el.SetNativeValue("") },
		func() error { return el.Dispatch(dom.InputEvent) },
		func() error { return el.SetNativeValue(value) },
		func() error { return el.Dispatch(dom.InputEvent) },
		func() error { return el.Dispatch(dom.ChangeEvent) },
		el.Blur,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// RichText replaces a content-editable block through the editing command path.
func (f *Filler) RichText(_ context.Context, el dom.Element, value string) bool {
	if !f.mutating(el) {
		return true
	}
	err := el.Focus()
	if err == nil {
		err = el.InsertText(value)
	}
	if err == nil {
		err = el.Dispatch(dom.InputEvent)
	}
	if err == nil {
		err = el.Dispatch(dom.ChangeEvent)
	}
	if err != nil {
		f.logger.Warn("rich text commit failed", "field", describe(el), "error", err)
		return false
	}
	return true
}

// Typed echoes value one character at a time for autocomplete-style inputs,
// then presses Enter and fires change and blur. Controls without a layout box
// are skipped.
func (f *Filler) Typed(ctx context.Context, el dom.Element, value string) bool {
	if !f.mutating(el) {
		return true
	}
	if el.Box().Empty() {
		f.logger.Warn("typed field has no layout box", "field", describe(el))
		return false
	}
	fail := func(err error) bool {
		f.logger.Warn("typed commit failed", "field", describe(el), "error", err)
		return false
	}
	if err := el.Focus(); err != nil {
		return fail(err)
	}
	if err := el.Dispatch(dom.Event{Type: "input", InputType: "deleteContentBackward"}); err != nil {
		return fail(err)
	}
	if err := el.SetNativeValue(""); err != nil {
		return fail(err)
	}
	if err := el.Dispatch(dom.InputEvent); err != nil {
		return fail(err)
	}

	typed := make([]rune, 0, len(value))
	for _, ch := range value {
		typed = append(typed, ch)
		key := string(ch)
		for _, step := range []func() error{
			func() error { return el.Dispatch(dom.KeyDown(key)) },
			func() error { return el.SetNativeValue(string(typed)) },
			func() error { return el.Dispatch(dom.InsertTextEvent(key)) },
			func() error { return el.Dispatch(dom.KeyUp(key)) },
		} {
			if err := step(); err != nil {
				return fail(err)
			}
		}
		if !f.pause(ctx, f.timing.TypeDelay) {
			return false
		}
	}

	for _, ev := range []dom.Event{dom.KeyDown("Enter"), dom.ChangeEvent, dom.BlurEvent} {
		if err := el.Dispatch(ev); err != nil {
			return fail(err)
		}
	}
	return true
}

// Select sets a native select to the option best matching value.
func (f *Filler) Select(_ context.Context, el dom.Element, value string) bool {
	if !f.mutating(el) {
		return true
	}
	v, ok := locate.MatchOption(locate.Options(el), value)
	if !ok {
		f.logger.Warn("could not match option", "field", describe(el), "want", value)
		return false
	}
	for _, step := range []func() error{
		func() error { return el.SetNativeValue(v) },
		func() error { return el.Dispatch(dom.InputEvent) },
		func() error { return el.Dispatch(dom.ChangeEvent) },
	} {
		if err := step(); err != nil {
			f.logger.Warn("select commit failed", "field", describe(el), "error", err)
			return false
		}
	}
	return true
}

// Radio activates a radio option through the most user-like path available:
// the input itself when laid out, else its icon, else its label. The checked
// state is forced afterwards in every case.
func (f *Filler) Radio(_ context.Context, opt locate.RadioOption) bool {
	f.Mark(opt.Wrap)
	f.Mark(opt.Icon)
	if !f.mutating(opt.Label) {
		return true
	}
	var err error
	switch {
	case !opt.Input.Box().Empty():
		err = opt.Input.Click()
	case opt.Icon != nil:
		err = opt.Icon.PointerClick()
	case opt.Label != nil:
		err = opt.Label.Click()
	}
	if err != nil {
		f.logger.Debug("radio click failed", "error", err)
	}
	return forceChecked(opt.Input) == nil
}

func forceChecked(el dom.Element) error {
	if err := el.SetChecked(true); err != nil {
		return err
	}
	if err := el.Dispatch(dom.InputEvent); err != nil {
		return err
	}
	return el.Dispatch(dom.ChangeEvent)
}

// Checkbox drives a toggle to want, clicking only when the state differs.
// With no input it clicks label instead.
func (f *Filler) Checkbox(_ context.Context, input, label dom.Element, want bool) bool {
	if input == nil {
		if label == nil {
			return false
		}
		if f.mutating(label) {
			if err := label.Click(); err != nil {
				f.logger.Warn("toggle label click failed", "error", err)
				return false
			}
		}
		return true
	}
	if !f.mutating(input) || input.Checked() == want {
		return true
	}
	for _, step := range []func() error{
		input.Click,
		func() error { return input.Dispatch(dom.InputEvent) },
		func() error { return input.Dispatch(dom.ChangeEvent) },
	} {
		if err := step(); err != nil {
			f.logger.Warn("toggle commit failed", "field", describe(input), "error", err)
			return false
		}
	}
	return true
}

func describe(el dom.Element) string {
	for _, name := range []string{"data-testid", "name", "id", "placeholder"} {
		if v := dom.AttrOr(el, name); v != "" {
			return name + "=" + v
		}
	}
	return el.Tag()
}
