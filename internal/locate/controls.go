package locate

import (
	"regexp"
	"strings"

	"github.com/vmunix/fixturesync/internal/dom"
	"github.com/vmunix/fixturesync/pkg/fixture"
)

var (
	saveVocabulary = regexp.MustCompile(`(?i)^(save|create|publish|next|add|done|continue)$`)
	gameExact      = regexp.MustCompile(`(?i)^(game|match)$`)
	gameLoose      = regexp.MustCompile(`(?i)game|match`)
)

const (
	saveScan      = `button, [role="button"], [type="submit"], [data-testid]`
	saveAttrScan  = `button[data-testid*="save"], [data-testid*="save"], [data-testid*="Save"], button[type="submit"]`
	menuItemScan  = `a[data-testid="context_menu.item"], [role="menuitem"], a, button`
	finishButtons = `button, [role="button"]`
)

// Clickable reports whether el is enabled and rendered.
func Clickable(el dom.Element) bool {
	return el != nil && !dom.Disabled(el) && el.Visible()
}

// SaveControl finds a clickable control whose text (or accessible label when
// it has none) is one of the save-like words, falling back to controls whose
// test marker mentions save and to submit buttons.
func SaveControl(scope dom.Root) dom.Element {
	for _, el := range scope.QueryAll(saveScan) {
		text := el.Text()
		if text == "" {
			text = strings.TrimSpace(dom.AttrOr(el, "aria-label"))
		}
		if text != "" && saveVocabulary.MatchString(text) && Clickable(el) {
			return el
		}
	}
	for _, el := range scope.QueryAll(saveAttrScan) {
		if Clickable(el) {
			return el
		}
	}
	return nil
}

// FinishControl finds the confirm step shown after saving.
func FinishControl(scope dom.Root) dom.Element {
	return dom.First(scope,
		dom.Selector(ConfirmSelector),
		dom.Filter(finishButtons, func(el dom.Element) bool {
			return strings.EqualFold(el.Text(), "finish")
		}),
	)
}

// GameMenuItem resolves the "game" entry of the creation menu by its event
// type marker. The returned element is the menu anchor.
func GameMenuItem(scope dom.Root) dom.Element {
	marker := scope.Query(GameMenuMarker)
	if marker == nil {
		return nil
	}
	if a := marker.Closest(GameMenuItemSelector); a != nil {
		return a
	}
	return marker
}

// GameMenuItemByText is the text fallback for GameMenuItem: an exact
// "game"/"match" item first, then any item mentioning either.
func GameMenuItemByText(scope dom.Root) dom.Element {
	items := scope.QueryAll(menuItemScan)
	for _, el := range items {
		if gameExact.MatchString(el.Text()) {
			return el
		}
	}
	for _, el := range items {
		if gameLoose.MatchString(el.Text()) {
			return el
		}
	}
	return nil
}

// NewEventButton finds the calendar's create control.
func NewEventButton(scope dom.Root) dom.Element {
	return scope.Query(NewEventSelector)
}

// Dialog finds an open modal form.
func Dialog(scope dom.Root) dom.Element {
	return scope.Query(DialogSelector)
}

// RadioOption is one choice of a radio group with its visual parts.
type RadioOption struct {
	Wrap  dom.Element
	Input dom.Element
	Label dom.Element
	Icon  dom.Element
	Text  string
}

// HomeAwayOptions finds the fieldset whose own labels include both "Home"
// and "Away" and pairs each radio with its label and icon. It returns nil
// when no such fieldset exists.
func HomeAwayOptions(scope dom.Root) []RadioOption {
	var fs dom.Element
	for _, f := range scope.QueryAll("fieldset") {
		home, away := false, false
		for _, l := range f.QueryAll("label") {
			switch dom.Fold(l.Text()) {
			case "home":
				home = true
			case "away":
				away = true
			}
		}
		if home && away {
			fs = f
			break
		}
	}
	if fs == nil {
		return nil
	}
	var out []RadioOption
	for _, in := range fs.QueryAll(`input[type="radio"]`) {
		wrap := enclosing(in, "[class]")
		if wrap == nil {
			wrap = in.Parent()
		}
		if wrap == nil {
			wrap = fs
		}
		label := wrap.Query("label")
		if label == nil {
			continue
		}
		opt := RadioOption{Wrap: wrap, Input: in, Label: label, Text: dom.Fold(label.Text())}
		if svg := wrap.Query("svg"); svg != nil {
			opt.Icon = svg.Closest(`div,span,button,[role="button"],[role="radio"]`)
		}
		out = append(out, opt)
	}
	return out
}

// PickSide selects the option for side: exact label match, then substring.
func PickSide(options []RadioOption, side fixture.Side) (RadioOption, bool) {
	want := string(side)
	if want == "" {
		return RadioOption{}, false
	}
	for _, o := range options {
		if o.Text == want {
			return o, true
		}
	}
	for _, o := range options {
		if strings.Contains(o.Text, want) {
			return o, true
		}
	}
	return RadioOption{}, false
}
