// Package locate resolves targets on the calendar application's pages: the
// month grid, a day cell, form fields, option values and the save/finish
// controls. Every function is a read; waiting is the caller's concern.
package locate

import (
	"strings"

	"github.com/vmunix/fixturesync/internal/dom"
)

// Calendar chrome.
const (
	MonthGridSelector   = `[role="grid"], [role="table"]`
	MonthHeaderSelector = `[role="heading"], [aria-live], h1, h2, h3`
	MonthPrevSelector   = `button[aria-label*="Prev"], button[aria-label*="prev"], [data-testid*="prev"]`
	MonthNextSelector   = `button[aria-label*="Next"], button[aria-label*="next"], [data-testid*="next"]`
	MonthLinkSelector   = `a[href*="/calendar/month"]`

	NewEventSelector     = `button[data-testid="calendar.create_new_button"]`
	GameMenuItemSelector = `a[data-testid="context_menu.item"]`
	GameMenuMarker       = `a[data-testid="context_menu.item"] [eventtype="match"]`
	DialogSelector       = `[role="dialog"], .modal, [data-testid*="dialog"]`
	ConfirmSelector      = `button[data-testid="dialog.confirm"]`

	// Elements scanned by the heuristic grid search and day-cell text match.
	dayCellScan      = `button,[role="gridcell"],[role="button"],div,span`
	gridContainerSel = `div, section, main, article, [role], [class]`
)

// Form fields, each an ordered candidate list.
var (
	TitleField = []string{
		`input[data-testid="events.form.title"]`,
		`input[name="title"]`,
		`input[placeholder="Event title"]`,
		`[contenteditable="true"][role="textbox"]`,
	}
	LocationField = []string{
		`input[data-testid="events.form.location"]`,
		`input[name="location"]`,
		`input[placeholder="Location"]`,
	}
	NotesField = []string{
		`textarea`,
		`[contenteditable="true"][role="textbox"]`,
	}
	MeetBeforeField = []string{`input[name="meetBeforeMinutes"][type="number"]`}
	KickoffField    = []string{
		`input[data-testid="events.form.match.kickoff"][type="time"]`,
		`input[name="time"][type="time"]`,
	}
	DurationField = []string{`input[name="duration"][type="number"]`}

	opponentMarkers = `input[data-testid="events.form.match.opponent"], input[name="opponentName"]`
)

// Checkbox labels for the invite toggles.
const (
	AdminsLabel  = "Add new admins/staff as organizers to this event"
	PlayersLabel = "Add new players as participants to this event"
)

var checkboxNames = map[string]string{
	AdminsLabel:  "autoInviteAdminAndStaff",
	PlayersLabel: "autoInviteUsers",
}

// VisibilityLabel is the label of the visibility select.
const VisibilityLabel = "Visibility"

// FormReady reports whether any core form field has mounted in scope.
func FormReady(scope dom.Root) dom.Element {
	return dom.First(scope,
		dom.Selector(strings.Join(TitleField[:3], ", ")),
		dom.Selector(strings.Join(LocationField, ", ")),
		dom.Selector(`input[type="time"]`),
	)
}

// TimeInputs returns the first two time inputs in scope: start and end.
func TimeInputs(scope dom.Root) (start, end dom.Element) {
	all := scope.QueryAll(`input[type="time"]`)
	if len(all) > 0 {
		start = all[0]
	}
	if len(all) > 1 {
		end = all[1]
	}
	return start, end
}

// byID resolves an element id without assuming it is a valid CSS identifier.
func byID(scope dom.Root, id string) dom.Element {
	if id == "" {
		return nil
	}
	return scope.Query(`[id="` + strings.ReplaceAll(id, `"`, `\"`) + `"]`)
}

// enclosing is Closest starting from the parent, so the element itself never
// counts as its own container.
func enclosing(el dom.Element, selector string) dom.Element {
	p := el.Parent()
	if p == nil {
		return nil
	}
	return p.Closest(selector)
}

// ClickTarget returns the nearest button-like ancestor of el, or el.
func ClickTarget(el dom.Element) dom.Element {
	if t := el.Closest(`button,[role="button"]`); t != nil {
		return t
	}
	return el
}
