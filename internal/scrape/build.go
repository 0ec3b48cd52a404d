package scrape

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/vmunix/fixturesync/internal/dom"
	"github.com/vmunix/fixturesync/pkg/fixture"
)

// teamMatchThreshold is the Jaro-Winkler similarity a supplied team name
// needs to be taken as one of the scraped names.
const teamMatchThreshold = 0.85

// TeamError reports that the team could not be determined.
type TeamError struct {
	Supplied string
	Seen     []string
}

func (e *TeamError) Error() string {
	if e.Supplied != "" {
		return fmt.Sprintf("team %q not found; teams seen: %s", e.Supplied, strings.Join(e.Seen, ", "))
	}
	return "could not infer team; pass one of: " + strings.Join(e.Seen, ", ")
}

// Params shapes the rows built from matches.
type Params struct {
	// Team is the club the calendar belongs to. Inferred when empty.
	Team        string
	Duration    int // minutes
	TitlePrefix string
	Visibility  string
	MeetBefore  int // minutes
	AddAdmins   bool
	AddPlayers  bool
}

// DefaultParams mirrors a typical youth fixture.
func DefaultParams() Params {
	return Params{Duration: 90, Visibility: "private"}
}

// Fixture is a built row plus the two sides it was derived from.
type Fixture struct {
	fixture.Row
	Home string
	Away string
}

// seenTeams lists every side in first-seen order.
func seenTeams(matches []Match) []string {
	var seen []string
	idx := map[string]bool{}
	for _, m := range matches {
		for _, t := range []string{m.Home, m.Away} {
			if !idx[t] {
				idx[t] = true
				seen = append(seen, t)
			}
		}
	}
	return seen
}

// InferTeam picks the club the fixtures belong to. A supplied name wins and
// is matched loosely against the scraped names; otherwise the one team that
// plays in every fixture is taken.
func InferTeam(matches []Match, supplied string) (string, error) {
	seen := seenTeams(matches)
	if supplied = dom.CleanText(supplied); supplied != "" {
		want := dom.Fold(supplied)
		best, bestScore := "", float32(0)
		for _, t := range seen {
			if score := edlib.JaroWinklerSimilarity(dom.Fold(t), want); score > bestScore {
				best, bestScore = t, score
			}
		}
		if bestScore >= teamMatchThreshold {
			return best, nil
		}
		return "", &TeamError{Supplied: supplied, Seen: seen}
	}

	counts := map[string]int{}
	for _, m := range matches {
		counts[m.Home]++
		if m.Away != m.Home {
			counts[m.Away]++
		}
	}
	var every []string
	for t, n := range counts {
		if n == len(matches) {
			every = append(every, t)
		}
	}
	if len(every) == 1 {
		return every[0], nil
	}
	return "", &TeamError{Seen: seen}
}

// AddMinutes adds minutes to an HH:MM clock time, wrapping past midnight.
func AddMinutes(hhmm string, minutes int) (string, error) {
	h, m, ok := strings.Cut(hhmm, ":")
	if !ok {
		return "", fmt.Errorf("bad time %q", hhmm)
	}
	hi, err := strconv.Atoi(h)
	if err != nil {
		return "", fmt.Errorf("bad time %q: %w", hhmm, err)
	}
	mi, err := strconv.Atoi(m)
	if err != nil {
		return "", fmt.Errorf("bad time %q: %w", hhmm, err)
	}
	total := ((hi*60+mi+minutes)%1440 + 1440) % 1440
	return fmt.Sprintf("%02d:%02d", total/60, total%60), nil
}

func boolCell(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

// Build infers the team and turns matches into import rows. It returns the
// team it settled on.
func Build(matches []Match, p Params) ([]Fixture, string, error) {
	if len(matches) == 0 {
		return nil, "", ErrNoFixtures
	}
	team, err := InferTeam(matches, p.Team)
	if err != nil {
		return nil, "", err
	}
	visibility := fixture.NormalizeVisibility(p.Visibility)
	if visibility == "" {
		visibility = fixture.VisibilityPrivate
	}

	out := make([]Fixture, 0, len(matches))
	for _, m := range matches {
		end, err := AddMinutes(m.Kickoff, p.Duration)
		if err != nil {
			continue
		}
		var side, opponent string
		switch team {
		case m.Home:
			side, opponent = "HOME", m.Away
		case m.Away:
			side, opponent = "AWAY", m.Home
		}
		out = append(out, Fixture{
			Home: m.Home,
			Away: m.Away,
			Row: fixture.Row{
				Date:        m.Date,
				StartTime:   m.Kickoff,
				KickoffTime: m.Kickoff,
				EndTime:     end,
				Duration:    strconv.Itoa(p.Duration),
				HomeAway:    side,
				Opponent:    opponent,
				Title:       p.TitlePrefix + opponent,
				Type:        "game",
				Visibility:  visibility,
				MeetBefore:  strconv.Itoa(p.MeetBefore),
				AddAdmins:   boolCell(p.AddAdmins),
				AddPlayers:  boolCell(p.AddPlayers),
				Location:    m.Location,
			},
		})
	}
	return out, team, nil
}
