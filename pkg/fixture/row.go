// Package fixture provides the fixture row model, date normalisation and the
// CSV codec shared by the scraper and the import runner.
package fixture

import (
	"strings"
)

// Row is one fixture to be imported as a calendar event.
// All fields are optional. Date, when present, is always YYYY-MM-DD.
type Row struct {
	Date        string `json:"date,omitempty"`
	Title       string `json:"title,omitempty"`
	Location    string `json:"location,omitempty"`
	Notes       string `json:"notes,omitempty"`
	StartTime   string `json:"start_time,omitempty"`
	KickoffTime string `json:"kickoff_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
	Duration    string `json:"duration,omitempty"`    // minutes
	MeetBefore  string `json:"meet_before,omitempty"` // minutes
	Visibility  string `json:"visibility,omitempty"`
	HomeAway    string `json:"home_away,omitempty"`
	Opponent    string `json:"opponent,omitempty"`
	AddAdmins   string `json:"add_admins,omitempty"`
	AddPlayers  string `json:"add_players,omitempty"`
	Type        string `json:"type,omitempty"`
}

// Columns lists the recognised CSV columns in canonical order.
var Columns = []string{
	"date", "title", "location", "notes",
	"start_time", "kickoff_time", "end_time", "duration", "meet_before",
	"visibility", "home_away", "opponent", "add_admins", "add_players", "type",
}

// field returns a pointer to the Row field backing a CSV column, or nil for
// unknown columns.
func (r *Row) field(column string) *string {
	switch column {
	case "date":
		return &r.Date
	case "title":
		return &r.Title
	case "location":
		return &r.Location
	case "notes":
		return &r.Notes
	case "start_time":
		return &r.StartTime
	case "kickoff_time":
		return &r.KickoffTime
	case "end_time":
		return &r.EndTime
	case "duration":
		return &r.Duration
	case "meet_before":
		return &r.MeetBefore
	case "visibility":
		return &r.Visibility
	case "home_away":
		return &r.HomeAway
	case "opponent":
		return &r.Opponent
	case "add_admins":
		return &r.AddAdmins
	case "add_players":
		return &r.AddPlayers
	case "type":
		return &r.Type
	default:
		return nil
	}
}

// Get returns the value of a CSV column ("" for unknown columns).
func (r Row) Get(column string) string {
	if p := r.field(column); p != nil {
		return *p
	}
	return ""
}

// Set assigns a CSV column. Unknown columns are ignored and reported false.
func (r *Row) Set(column, value string) bool {
	p := r.field(column)
	if p == nil {
		return false
	}
	*p = value
	return true
}

// DefaultTitle returns the title used when the row carries none:
// "Match vs <opponent>", else the row type, else "Game".
func (r Row) DefaultTitle() string {
	if r.Title != "" {
		return r.Title
	}
	if r.Opponent != "" {
		return "Match vs " + r.Opponent
	}
	if r.Type != "" {
		return r.Type
	}
	return "Game"
}

// Side is the normalised home/away choice.
type Side string

const (
	SideNone Side = ""
	SideHome Side = "home"
	SideAway Side = "away"
)

// NormalizeHomeAway maps free text ("HOME", "a", "Away game") to a Side.
func NormalizeHomeAway(val string) Side {
	s := strings.ToLower(strings.TrimSpace(val))
	switch {
	case s == "":
		return SideNone
	case strings.HasPrefix(s, "h"):
		return SideHome
	case strings.HasPrefix(s, "a"):
		return SideAway
	case strings.Contains(s, "home"):
		return SideHome
	case strings.Contains(s, "away"):
		return SideAway
	default:
		return SideNone
	}
}

// Visibility values understood by the calendar form.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

var (
	publicSynonyms  = []string{"public", "everyone", "all", "team", "visible to everyone", "open"}
	privateSynonyms = []string{"private", "participants", "only participants", "invite", "hidden"}
)

// NormalizeVisibility maps visibility synonyms to "public" or "private".
// Returns "" when the text matches neither vocabulary.
func NormalizeVisibility(val string) string {
	v := strings.ToLower(strings.TrimSpace(val))
	if v == "" {
		return ""
	}
	for _, s := range publicSynonyms {
		if strings.Contains(v, s) {
			return VisibilityPublic
		}
	}
	for _, s := range privateSynonyms {
		if strings.Contains(v, s) {
			return VisibilityPrivate
		}
	}
	return ""
}

// ParseFlag reports whether boolean-as-text is true. The second result is
// false when the text is empty, meaning "leave the control alone".
func ParseFlag(val string) (value, set bool) {
	s := strings.ToLower(strings.TrimSpace(val))
	if s == "" {
		return false, false
	}
	switch s {
	case "true", "t", "yes", "y", "1":
		return true, true
	default:
		return false, true
	}
}
