package locate

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vmunix/fixturesync/internal/dom"
)

// MinDayCells is the number of bare day numbers a container needs before it
// is considered a month grid.
const MinDayCells = 20

// GridScanner is implemented by pages that can run the heuristic grid scan
// natively instead of walking every container from Go.
type GridScanner interface {
	ScanDayGrids(containerSelector, cellSelector string, minCells int) []dom.Element
}

var dayNumber = regexp.MustCompile(`^\d{1,2}$`)

// IsDayNumber reports whether text is a bare 1-31 integer.
func IsDayNumber(text string) bool {
	t := strings.TrimSpace(text)
	if !dayNumber.MatchString(t) {
		return false
	}
	n, _ := strconv.Atoi(t)
	return n >= 1 && n <= 31
}

func shown(el dom.Element) bool {
	return el.Visible() && !el.Box().Empty()
}

// MonthGrids returns visible month grids: role-based grids first, then
// heuristic containers ranked by descending day-cell count, deduplicated.
func MonthGrids(page dom.Root) []dom.Element {
	var out []dom.Element
	for _, g := range page.QueryAll(MonthGridSelector) {
		if shown(g) {
			out = append(out, g)
		}
	}
	return dom.Dedupe(append(out, heuristicGrids(page)...))
}

func heuristicGrids(page dom.Root) []dom.Element {
	if s, ok := page.(GridScanner); ok {
		return s.ScanDayGrids(gridContainerSel, dayCellScan, MinDayCells)
	}
	type scored struct {
		el    dom.Element
		count int
	}
	var found []scored
	for _, c := range page.QueryAll(gridContainerSel) {
		if !shown(c) {
			continue
		}
		n := 0
		for _, cell := range c.QueryAll(dayCellScan) {
			if IsDayNumber(cell.Text()) {
				n++
			}
		}
		if n >= MinDayCells {
			found = append(found, scored{c, n})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].count > found[j].count })
	out := make([]dom.Element, len(found))
	for i, s := range found {
		out[i] = s.el
	}
	return out
}

// YearMonth identifies a displayed calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// Of returns the month containing t.
func Of(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Diff returns the number of months from ym to other.
func (ym YearMonth) Diff(other YearMonth) int {
	return (other.Year-ym.Year)*12 + int(other.Month-ym.Month)
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%s %d", ym.Month, ym.Year)
}

var monthYear = regexp.MustCompile(`(?i)(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+(\d{4})`)

var monthAbbr = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

// ParseMonthYear finds the first "<Month> <YYYY>" in text.
func ParseMonthYear(text string) (YearMonth, bool) {
	m := monthYear.FindStringSubmatch(text)
	if m == nil {
		return YearMonth{}, false
	}
	y, _ := strconv.Atoi(m[2])
	abbr := strings.ToLower(m[1])
	for i, a := range monthAbbr {
		if a == abbr {
			return YearMonth{Year: y, Month: time.Month(i + 1)}, true
		}
	}
	return YearMonth{}, false
}

// CurrentMonth reads the displayed month from the header nearest a grid,
// falling back to the first month/year mention in the page text.
func CurrentMonth(page dom.Page) (YearMonth, bool) {
	for _, g := range MonthGrids(page) {
		var header dom.Element
		if container := g.Closest("[class]"); container != nil {
			header = container.Query(MonthHeaderSelector)
		} else {
			header = page.Query(MonthHeaderSelector)
		}
		if header == nil {
			continue
		}
		if ym, ok := ParseMonthYear(header.Text()); ok {
			return ym, true
		}
	}
	return ParseMonthYear(page.BodyText())
}

// DayCell finds the cell for date in any visible month grid: by accessible
// label, then by a data attribute carrying the ISO date, then by day-number
// text preferring enabled, visible, in-month cells.
func DayCell(page dom.Root, date time.Time) dom.Element {
	iso := date.Format("2006-01-02")
	label := fmt.Sprintf("%s %d, %d", date.Format("Jan"), date.Day(), date.Year())
	dayText := strconv.Itoa(date.Day())

	for _, grid := range MonthGrids(page) {
		if el := grid.Query(`[aria-label*="` + label + `"]`); el != nil {
			if cell := el.Closest(`[role="gridcell"],[role="button"],button`); cell != nil {
				return cell
			}
			return el
		}
		if el := grid.Query(fmt.Sprintf(`[data-date="%[1]s"], [data-day="%[1]s"], [data-value="%[1]s"]`, iso)); el != nil {
			return el
		}
		var candidates []dom.Element
		for _, c := range grid.QueryAll(dayCellScan) {
			if strings.TrimSpace(c.Text()) == dayText {
				candidates = append(candidates, c)
			}
		}
		for _, c := range candidates {
			if dom.AttrOr(c, "aria-disabled") != "true" && shown(c) && !dom.HasClassMatching(c, "outside", "other-month") {
				return c
			}
		}
		if len(candidates) > 0 {
			return candidates[0]
		}
	}
	return nil
}

// MonthStepper returns the next or previous month control.
func MonthStepper(page dom.Root, forward bool) dom.Element {
	if forward {
		return page.Query(MonthNextSelector)
	}
	return page.Query(MonthPrevSelector)
}
