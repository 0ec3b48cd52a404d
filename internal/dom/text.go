package dom

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CleanText replaces non-breaking spaces, collapses whitespace and trims.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Fold normalises text for comparisons: cleaned, lower-cased and stripped of
// accents, so "Équipe" and "equipe" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, CleanText(s))
	if err != nil {
		folded = CleanText(s)
	}
	return strings.ToLower(folded)
}

// Disabled reports whether an element is disabled natively or via ARIA.
func Disabled(el Element) bool {
	if _, ok := el.Attr("disabled"); ok {
		return true
	}
	v, _ := el.Attr("aria-disabled")
	return v == "true"
}

// HasClassMatching reports whether any class token contains one of the
// given lower-case fragments.
func HasClassMatching(el Element, fragments ...string) bool {
	cls, _ := el.Attr("class")
	cls = strings.ToLower(cls)
	for _, f := range fragments {
		if strings.Contains(cls, f) {
			return true
		}
	}
	return false
}

// AttrOr returns the attribute value or "".
func AttrOr(el Element, name string) string {
	v, _ := el.Attr(name)
	return v
}
