package locate

import (
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/vmunix/fixturesync/internal/dom"
	"github.com/vmunix/fixturesync/pkg/fixture"
)

// fuzzyThreshold is the minimum Jaro-Winkler similarity for an option label
// to match when neither exact nor substring comparison does.
const fuzzyThreshold = 0.88

// LabelByText returns the first label whose text starts with text, compared
// case- and accent-insensitively.
func LabelByText(scope dom.Root, text string) dom.Element {
	want := dom.Fold(text)
	for _, l := range scope.QueryAll("label") {
		if strings.HasPrefix(dom.Fold(l.Text()), want) {
			return l
		}
	}
	return nil
}

// SelectByLabel resolves the native select paired with a label: through the
// label's for attribute, then the nearest enclosing container, then a select
// carrying the label as its accessible name.
func SelectByLabel(scope dom.Root, labelText string) dom.Element {
	if label := LabelByText(scope, labelText); label != nil {
		if target := byID(scope, dom.AttrOr(label, "for")); target != nil && target.Tag() == "select" {
			return target
		}
		if container := enclosing(label, `[class],[role],div,section,fieldset`); container != nil {
			if sel := container.Query("select"); sel != nil {
				return sel
			}
		}
	}
	return scope.Query(`select[aria-label="` + strings.ReplaceAll(labelText, `"`, `\"`) + `"]`)
}

// Option is a select option as value and visible label.
type Option struct {
	Value string
	Label string
}

// Options lists the options of a select.
func Options(sel dom.Element) []Option {
	var out []Option
	for _, o := range sel.QueryAll("option") {
		label := o.Text()
		value, ok := o.Attr("value")
		if !ok {
			value = label
		}
		out = append(out, Option{Value: value, Label: label})
	}
	return out
}

// MatchOption picks the option value for desired: the normalised visibility
// keyword when an option carries it, then an exact label match, then a
// substring match, then the closest label by Jaro-Winkler similarity.
func MatchOption(options []Option, desired string) (string, bool) {
	if strings.TrimSpace(desired) == "" {
		return "", false
	}
	if norm := fixture.NormalizeVisibility(desired); norm != "" {
		for _, o := range options {
			if o.Value == norm {
				return o.Value, true
			}
		}
	}
	want := dom.Fold(desired)
	for _, o := range options {
		if dom.Fold(o.Label) == want {
			return o.Value, true
		}
	}
	for _, o := range options {
		if strings.Contains(dom.Fold(o.Label), want) {
			return o.Value, true
		}
	}
	best, bestScore := "", float32(0)
	for _, o := range options {
		if score := edlib.JaroWinklerSimilarity(dom.Fold(o.Label), want); score > bestScore {
			best, bestScore = o.Value, score
		}
	}
	if bestScore >= fuzzyThreshold {
		return best, true
	}
	return "", false
}

// Checkbox resolves an invite toggle: by its known input name, then through
// the label (for attribute, nested input, sibling input). When only the label
// is found, input is nil and label is returned for a click fallback.
func Checkbox(scope dom.Root, labelText string) (input, label dom.Element) {
	if name, ok := checkboxNames[labelText]; ok {
		if in := scope.Query(`input[type="checkbox"][name="` + name + `"]`); in != nil {
			return in, nil
		}
	}
	label = LabelByText(scope, labelText)
	if label == nil {
		return nil, nil
	}
	if in := byID(scope, dom.AttrOr(label, "for")); in != nil {
		return in, label
	}
	if in := label.Query(`input[type="checkbox"]`); in != nil {
		return in, label
	}
	if p := label.Parent(); p != nil {
		if in := p.Query(`input[type="checkbox"]`); in != nil {
			return in, label
		}
	}
	return nil, label
}

// OpponentInput finds the opponent name input: a visible input carrying the
// form's marker, then the first visible input of a fieldset mentioning the
// opponent, then the input next to an "opponent" label.
func OpponentInput(scope dom.Root) dom.Element {
	for _, el := range scope.QueryAll(opponentMarkers) {
		if shown(el) {
			return el
		}
	}
	for _, fs := range scope.QueryAll("fieldset") {
		if !strings.Contains(dom.Fold(fs.Text()), "opponent") {
			continue
		}
		for _, in := range fs.QueryAll("input") {
			if shown(in) {
				return in
			}
		}
		break
	}
	for _, l := range scope.QueryAll("label") {
		if !strings.Contains(dom.Fold(l.Text()), "opponent") {
			continue
		}
		container := enclosing(l, `fieldset,[class],section,div`)
		if container == nil {
			container = l.Parent()
		}
		if container != nil {
			return container.Query("input")
		}
		return nil
	}
	return nil
}
