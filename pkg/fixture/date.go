package fixture

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical calendar-date form carried by rows.
const DateLayout = "2006-01-02"

var (
	isoDateRegex   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	slashDateRegex = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

// looseLayouts are tried in order when neither the ISO nor the day/month/year
// pattern matches.
var looseLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"Mon 2 Jan 2006 15:04",
	"Mon 2 January 2006 15:04",
	"Mon 2 Jan 2006",
	"Mon, 2 Jan 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"Mon Jan 2 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// NormalizeDate converts date text to YYYY-MM-DD.
// Accepts ISO (YYYY-M-D), day/month/year with slashes (UK order) and a set of
// common long forms ("Sat 20 Sep 2025", "Sep 20, 2025"). The boolean is false
// when the text is not a real calendar date.
func NormalizeDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	if m := isoDateRegex.FindStringSubmatch(s); m != nil {
		return canonicalDate(m[1], m[2], m[3])
	}
	if m := slashDateRegex.FindStringSubmatch(s); m != nil {
		return canonicalDate(m[3], m[2], m[1])
	}

	for _, layout := range looseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout), true
		}
	}
	return "", false
}

func canonicalDate(year, month, day string) (string, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return "", false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// Reject overflowed dates such as 31/02.
	if t.Day() != d || int(t.Month()) != m {
		return "", false
	}
	return t.Format(DateLayout), true
}

// ParseDate parses a canonical YYYY-MM-DD date as local midnight in loc.
func ParseDate(iso string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, iso, loc)
}
