// Package navigate moves the calendar application to the month containing a
// date and keeps it there.
package navigate

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vmunix/fixturesync/pkg/fixture"
)

// MonthPath is the month view route below the group prefix.
const MonthPath = "/calendar/month"

var (
	groupPath = regexp.MustCompile(`^(/organization/\d+/group/\d+)`)
	orgPath   = regexp.MustCompile(`^(/organization/\d+)`)
	slashes   = regexp.MustCompile(`/{2,}`)
)

// DerivePrefix extracts the group prefix from a path: everything before
// "/calendar/", else an organization/group path, else an organization path.
// An empty prefix is reported as not found.
func DerivePrefix(path string) (string, bool) {
	if i := strings.Index(path, "/calendar/"); i != -1 {
		p := strings.TrimSuffix(path[:i], "/")
		return p, p != ""
	}
	if m := groupPath.FindStringSubmatch(path); m != nil {
		return m[1], true
	}
	if m := orgPath.FindStringSubmatch(path); m != nil {
		return m[1], true
	}
	return "", false
}

// BuildMonthURL returns the month view URL for the day iso within prefix.
// The timestamp is local midnight of that day in loc, as Unix seconds.
func BuildMonthURL(origin, prefix, iso string, loc *time.Location) (string, error) {
	day, err := fixture.ParseDate(iso, loc)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("parse origin %q: %w", origin, err)
	}
	u.Path = slashes.ReplaceAllString(strings.TrimSuffix(prefix, "/")+MonthPath, "/")
	u.RawQuery = url.Values{"timestamp": {strconv.FormatInt(day.Unix(), 10)}}.Encode()
	u.Fragment = ""
	return u.String(), nil
}

// Origin returns scheme://host of a page URL.
func Origin(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// OnMonthView reports whether a page URL is the month view.
func OnMonthView(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	return strings.Contains(u.Path, MonthPath)
}

// withoutQuery strips the query and fragment.
func withoutQuery(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i != -1 {
		return raw[:i]
	}
	return raw
}
