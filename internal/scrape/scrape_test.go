package scrape

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/fixturesync/pkg/fixture"
)

const tablePage = `<html><body><div class="fixtures-table"><table>
<thead><tr><th>Type</th><th>Date</th><th>Home</th><th></th><th></th><th></th><th>Away</th><th>Venue</th></tr></thead>
<tbody>
<tr><td>L</td><td><span>20/09/25</span><span>10:30</span></td><td>Hawks U11</td><td></td><td>v</td><td></td><td>Rovers U11</td><td>Main&nbsp;Park</td></tr>
<tr><td>L</td><td>27/09/25 11:00</td><td>City U11</td><td></td><td>v</td><td></td><td>Hawks U11</td><td>City Ground, Pitch 2</td></tr>
<tr><td>L</td><td>TBC</td><td>Hawks U11</td><td></td><td>v</td><td></td><td>United U11</td><td>Main Park</td></tr>
<tr><td>short</td><td>row</td></tr>
</tbody></table></div></body></html>`

const widgetPage = `<html><body><div id="lrep123"><table>
<tr><td>Sat 20 Sep 2025 10:30</td></tr>
<tr><td>Hawks U11</td><td>X v X</td><td>Rovers U11</td></tr>
<tr><td>Main Park</td></tr>
<tr><td>Sun 5 Oct 2025 9:15</td></tr>
<tr><td>Albion U11</td><td>vs</td><td>Hawks U11</td><td>Albion Rec</td></tr>
<tr><td><a href="/l">League</a></td><td>|</td><td><a href="/t">Table</a></td></tr>
<tr><td>Orphan</td><td>Row</td></tr>
</table></div></body></html>`

func TestParseHeaderDate(t *testing.T) {
	tests := []struct {
		in            string
		date, kickoff string
		ok            bool
	}{
		{"Sat 20 Sep 2025 10:30", "2025-09-20", "10:30", true},
		{"Sun  5 October 2025 9:05", "2025-10-05", "09:05", true},
		{"Mon 1 Dec 2025 18:00 (KO)", "2025-12-01", "18:00", true},
		{"20 Sep 2025 10:30", "", "", false},
		{"Sat 20 Sep 2025", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			date, kickoff, ok := ParseHeaderDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.date, date)
			assert.Equal(t, tt.kickoff, kickoff)
		})
	}
}

func TestParse_TableLayout(t *testing.T) {
	got, err := Parse(strings.NewReader(tablePage))
	require.NoError(t, err)

	want := []Match{
		{Date: "2025-09-20", Kickoff: "10:30", Home: "Hawks U11", Away: "Rovers U11", Location: "Main Park"},
		{Date: "2025-09-27", Kickoff: "11:00", Home: "City U11", Away: "Hawks U11", Location: "City Ground, Pitch 2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("matches mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_WidgetLayout(t *testing.T) {
	got, err := Parse(strings.NewReader(widgetPage))
	require.NoError(t, err)

	want := []Match{
		{Date: "2025-09-20", Kickoff: "10:30", Home: "Hawks U11", Away: "Rovers U11", Location: "Main Park"},
		{Date: "2025-10-05", Kickoff: "09:15", Home: "Albion U11", Away: "Hawks U11", Location: "Albion Rec"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("matches mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_NoFixtures(t *testing.T) {
	_, err := Parse(strings.NewReader(`<html><body><p>Nothing scheduled</p></body></html>`))
	assert.ErrorIs(t, err, ErrNoFixtures)
}

func TestInferTeam(t *testing.T) {
	matches := []Match{
		{Home: "Hawks U11", Away: "Rovers U11"},
		{Home: "City U11", Away: "Hawks U11"},
	}

	tests := []struct {
		name     string
		matches  []Match
		supplied string
		want     string
		wantErr  bool
	}{
		{"plays every fixture", matches, "", "Hawks U11", false},
		{"supplied exact", matches, "City U11", "City U11", false},
		{"supplied loosely", matches, "hawks u11 ", "Hawks U11", false},
		{"supplied unknown", matches, "Zebras", "", true},
		{"single fixture is ambiguous", matches[:1], "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InferTeam(tt.matches, tt.supplied)
			if tt.wantErr {
				var te *TeamError
				require.ErrorAs(t, err, &te)
				assert.Contains(t, te.Seen, "Hawks U11")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddMinutes(t *testing.T) {
	tests := []struct {
		in   string
		mins int
		want string
	}{
		{"10:30", 90, "12:00"},
		{"23:30", 60, "00:30"},
		{"00:10", -20, "23:50"},
		{"9:05", 0, "09:05"},
	}
	for _, tt := range tests {
		got, err := AddMinutes(tt.in, tt.mins)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := AddMinutes("noon", 10)
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	matches, err := Parse(strings.NewReader(tablePage))
	require.NoError(t, err)

	fixtures, team, err := Build(matches, Params{
		Duration:    60,
		TitlePrefix: "U11 vs ",
		Visibility:  "Public",
		MeetBefore:  30,
		AddPlayers:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hawks U11", team)
	require.Len(t, fixtures, 2)

	want := fixture.Row{
		Date:        "2025-09-20",
		StartTime:   "10:30",
		KickoffTime: "10:30",
		EndTime:     "11:30",
		Duration:    "60",
		HomeAway:    "HOME",
		Opponent:    "Rovers U11",
		Title:       "U11 vs Rovers U11",
		Type:        "game",
		Visibility:  "public",
		MeetBefore:  "30",
		AddAdmins:   "FALSE",
		AddPlayers:  "TRUE",
		Location:    "Main Park",
	}
	if diff := cmp.Diff(want, fixtures[0].Row); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "AWAY", fixtures[1].HomeAway)
	assert.Equal(t, "City U11", fixtures[1].Opponent)
}

func TestBuild_DefaultsVisibility(t *testing.T) {
	fixtures, _, err := Build([]Match{{Date: "2025-09-20", Kickoff: "10:00", Home: "A", Away: "B"}}, Params{Team: "A", Duration: 90})
	require.NoError(t, err)
	assert.Equal(t, "private", fixtures[0].Visibility)
}

func TestWriteCSV_RoundTripsThroughImporter(t *testing.T) {
	matches, err := Parse(strings.NewReader(tablePage))
	require.NoError(t, err)
	fixtures, _, err := Build(matches, DefaultParams())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, fixtures))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(Columns, ","), lines[0])
	assert.Contains(t, lines[2], `"City Ground, Pitch 2"`)

	rows, err := fixture.ParseCSVString(buf.String())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, fixtures[1].Row, rows[1])
}

func TestWritePreview(t *testing.T) {
	var buf bytes.Buffer
	WritePreview(&buf, "Hawks U11", []Fixture{{Row: fixture.Row{Date: "2025-09-20", Opponent: "Rovers U11"}}})
	out := buf.String()
	assert.Contains(t, out, "Hawks U11")
	assert.Contains(t, out, "Rovers U11")
}

func TestFetcher_Load(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(widgetPage))
	}))
	defer srv.Close()

	f := NewFetcher()
	ctx := context.Background()

	matches, err := f.Scrape(ctx, srv.URL+"/fixtures")
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	_, err = f.Load(ctx, srv.URL+"/missing")
	assert.ErrorContains(t, err, "404")

	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(tablePage), 0o600))
	matches, err = f.Scrape(ctx, path)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}
