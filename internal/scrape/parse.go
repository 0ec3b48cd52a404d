// Package scrape turns a published fixtures page into importable rows.
//
// Two layouts are understood: the fixtures table (one tr per match, date and
// time in the second cell) and the embeddable widget (div#lrep* containers
// where a date header row is followed by a match row).
package scrape

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vmunix/fixturesync/internal/dom"
)

// ErrNoFixtures is returned when neither layout yields a match.
var ErrNoFixtures = errors.New("no fixtures found")

// Match is one scraped fixture before team inference.
type Match struct {
	Date     string // YYYY-MM-DD
	Kickoff  string // HH:MM
	Home     string
	Away     string
	Location string
}

var (
	headerDate = regexp.MustCompile(`^(?:Mon|Tue|Wed|Thu|Fri|Sat|Sun)\s+(\d{1,2})\s+([A-Za-z]{3,})\s+(\d{4})\s+(\d{1,2}):(\d{2})\b`)
	shortDate  = regexp.MustCompile(`(\d{2})/(\d{2})/(\d{2})`)
	clockTime  = regexp.MustCompile(`^(\d{1,2}):(\d{2})`)
	xvx        = regexp.MustCompile(`(?i)^X\s*v\s*X$`)
	separator  = regexp.MustCompile(`(?i)^(X|v\.?|vs\.?|-|–|—|\|)$`)
	footerLink = regexp.MustCompile(`(?i)^(league|\|?|table)$`)
)

var months = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// ParseHeaderDate reads a widget header such as "Sat 20 Sep 2025 10:30".
func ParseHeaderDate(text string) (date, kickoff string, ok bool) {
	m := headerDate.FindStringSubmatch(dom.CleanText(text))
	if m == nil {
		return "", "", false
	}
	mon, known := months[strings.ToLower(m[2][:3])]
	if !known {
		mon = 1
	}
	day, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[4])
	return fmt.Sprintf("%s-%02d-%02d", m[3], mon, day), fmt.Sprintf("%02d:%s", h, m[5]), true
}

// Parse reads an HTML document and returns its fixtures in page order.
func Parse(r io.Reader) ([]Match, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return ParseDocument(doc)
}

// ParseDocument is Parse over an already parsed document. The table layout
// wins when both are present.
func ParseDocument(doc *goquery.Document) ([]Match, error) {
	matches := tableMatches(doc)
	if len(matches) == 0 {
		matches = widgetMatches(doc)
	}
	if len(matches) == 0 {
		return nil, ErrNoFixtures
	}
	return matches, nil
}

func text(s *goquery.Selection) string { return dom.CleanText(s.Text()) }

func tableMatches(doc *goquery.Document) []Match {
	var out []Match
	doc.Find(".fixtures-table table").First().Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		tds := tr.Find("td")
		if tds.Length() < 8 {
			return
		}
		dateCell := tds.Eq(1)
		var dateStr, timeStr string
		if spans := dateCell.Find("span"); spans.Length() >= 2 {
			dateStr, timeStr = text(spans.Eq(0)), text(spans.Eq(1))
		} else {
			parts := strings.Fields(text(dateCell))
			if len(parts) > 0 {
				dateStr = parts[0]
			}
			if len(parts) > 1 {
				timeStr = parts[1]
			}
		}
		date, kickoff, ok := tableDate(dateStr, timeStr)
		if !ok {
			return
		}
		m := Match{
			Date:     date,
			Kickoff:  kickoff,
			Home:     text(tds.Eq(2)),
			Away:     text(tds.Eq(6)),
			Location: text(tds.Eq(7)),
		}
		if m.Home != "" && m.Away != "" {
			out = append(out, m)
		}
	})
	return out
}

// tableDate reads "DD/MM/YY" and "HH:MM".
func tableDate(dateStr, timeStr string) (string, string, bool) {
	d := shortDate.FindStringSubmatch(dateStr)
	t := clockTime.FindStringSubmatch(timeStr)
	if d == nil || t == nil {
		return "", "", false
	}
	day, _ := strconv.Atoi(d[1])
	mon, _ := strconv.Atoi(d[2])
	h, _ := strconv.Atoi(t[1])
	mi, _ := strconv.Atoi(t[2])
	if day < 1 || day > 31 || mon < 1 || mon > 12 || h > 23 || mi > 59 {
		return "", "", false
	}
	return fmt.Sprintf("20%s-%02d-%02d", d[3], mon, day), fmt.Sprintf("%02d:%02d", h, mi), true
}

func cellTexts(tr *goquery.Selection) (cells int, texts []string) {
	sel := tr.Find("th, td")
	sel.Each(func(_ int, c *goquery.Selection) {
		if t := text(c); t != "" {
			texts = append(texts, t)
		}
	})
	return sel.Length(), texts
}

func isFooter(texts []string, tr *goquery.Selection) bool {
	onlyTokens, league, table := true, false, false
	for _, t := range texts {
		switch strings.ToLower(t) {
		case "league":
			league = true
		case "table":
			table = true
		case "|":
		default:
			onlyTokens = false
		}
	}
	if onlyTokens && league && table {
		return true
	}
	if strings.ToLower(dom.CleanText(strings.Join(texts, " "))) == "league | table" {
		return true
	}
	links := tr.Find("a")
	if links.Length() == 0 {
		return false
	}
	all := true
	links.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		all = footerLink.MatchString(text(a))
		return all
	})
	return all
}

func widgetMatches(doc *goquery.Document) []Match {
	var out []Match
	doc.Find(`div[id^="lrep"]`).Each(func(_ int, container *goquery.Selection) {
		out = append(out, containerMatches(container)...)
	})
	return out
}

func containerMatches(container *goquery.Selection) []Match {
	rows := container.Find("tr")
	var (
		out       []Match
		date      string
		kickoff   string
		expecting bool
	)
	for i := 0; i < rows.Length(); i++ {
		tr := rows.Eq(i)
		cells, texts := cellTexts(tr)
		if cells == 0 {
			continue
		}
		if d, k, ok := ParseHeaderDate(strings.Join(texts, " ")); ok {
			date, kickoff, expecting = d, k, true
			continue
		}
		if !expecting {
			continue
		}
		if isFooter(texts, tr) {
			expecting = false
			continue
		}

		var data []string
		for _, t := range texts {
			if !xvx.MatchString(t) && !separator.MatchString(t) {
				data = append(data, t)
			}
		}
		expecting = false
		if len(data) < 2 {
			continue
		}
		m := Match{Date: date, Kickoff: kickoff, Home: data[0], Away: data[1]}
		if len(data) > 2 {
			m.Location = strings.Join(data[2:], " ")
		}
		if m.Location == "" && i+1 < rows.Length() {
			next := rows.Eq(i + 1)
			nextCells, nextTexts := cellTexts(next)
			if nextCells == 1 && len(nextTexts) == 1 && !isHeader(nextTexts[0]) && !isFooter(nextTexts, next) {
				m.Location = nextTexts[0]
				i++
			}
		}
		out = append(out, m)
	}
	return out
}

func isHeader(t string) bool {
	_, _, ok := ParseHeaderDate(t)
	return ok
}
