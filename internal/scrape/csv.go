package scrape

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vmunix/fixturesync/internal/dom"
)

// Columns is the header of a scraped CSV, in order.
var Columns = []string{
	"date", "start_time", "kickoff_time", "end_time", "duration",
	"home", "away", "home_away", "opponent",
	"title", "type", "notes", "visibility", "meet_before",
	"add_admins", "add_players", "location",
}

func (f Fixture) cell(column string) string {
	switch column {
	case "home":
		return f.Home
	case "away":
		return f.Away
	default:
		return f.Get(column)
	}
}

// WriteCSV writes the header and one record per fixture. Cells are
// whitespace-collapsed; quoting follows encoding/csv.
func WriteCSV(w io.Writer, fixtures []Fixture) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, f := range fixtures {
		record := make([]string, len(Columns))
		for i, c := range Columns {
			record[i] = dom.CleanText(f.cell(c))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePreview renders the fixtures as a table for a terminal.
func WritePreview(w io.Writer, team string, fixtures []Fixture) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(team)
	t.AppendHeader(table.Row{"Date", "Kickoff", "Side", "Opponent", "Location"})
	for _, f := range fixtures {
		t.AppendRow(table.Row{f.Date, f.KickoffTime, f.HomeAway, f.Opponent, f.Location})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(fixtures)})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
