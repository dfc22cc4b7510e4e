/* models.go
 * This file contain the types that are shared between the sub packages: draw types, roster keys, player entries,
 * ranking rows and change events
 */

package shared

import (
	"strconv"
	"strings"
	"time"
)

// DrawType identifies which singles list of a tournament a roster belongs to
type DrawType string

const (
	DrawMain       DrawType = "MAIN"
	DrawQualifying DrawType = "QUALIFYING"
)

// Label returns the human readable name of the draw used in messages
func (d DrawType) Label() string {
	switch d {
	case DrawMain:
		return "Main Draw"
	case DrawQualifying:
		return "Qualifying"
	default:
		return string(d)
	}
}

// UnrankedSortKey sorts unranked players after every real rank
const UnrankedSortKey = 9999

// UnknownCountry is shown when neither the identity lookup nor the ranking list knows a player's country
const UnknownCountry = "—"

// UnrankedDisplay is the rank column placeholder for unranked players
const UnrankedDisplay = "-"

// DateLayout is the calendar date format used by the ranking api, the stores and every message
const DateLayout = "2006-01-02"

// TournamentID converts a tournament label into its identifier, e.g. "WTA 125 OEIRAS 1" -> "WTA_125_OEIRAS_1"
func TournamentID(label string) string {
	id := strings.TrimSpace(label)
	id = strings.ReplaceAll(id, " ", "_")
	id = strings.ReplaceAll(id, ".", "")
	return id
}

// RosterKey returns the normalised key used for persisted roster state and change tracking.
// Case and separators are normalised so "wta 125-oeiras" and "WTA_125_OEIRAS" share state.
func RosterKey(tournamentID string, draw DrawType) string {
	id := strings.ToUpper(strings.TrimSpace(tournamentID))
	id = strings.NewReplacer(" ", "_", "-", "_", ".", "").Replace(id)
	return id + "_" + string(draw)
}

// PlayerEntry is a player found on an entry list. Identity based listings carry an ID, name based listings
// only carry the inline display name
type PlayerEntry struct {
	ID   string
	Name string
}

// Key returns the value used to deduplicate entries within a draw list
func (p PlayerEntry) Key() string {
	if p.ID != "" {
		return "id:" + p.ID
	}
	return "name:" + strings.ToUpper(strings.TrimSpace(p.Name))
}

// PlayerRecord is the canonical name and country for a player identity
type PlayerRecord struct {
	Name    string `json:"name" bson:"name"`
	Country string `json:"country,omitempty" bson:"country,omitempty"`
}

// RankingEntry is one row of a ranking snapshot. Rank is 0 when the source did not provide a numeric rank
type RankingEntry struct {
	Rank    int
	Player  string
	Country string
}

// PlayerInput is a player handed to the roster processor, with the country from the identity lookup if there was one
type PlayerInput struct {
	Name    string
	Country string
}

// RankedEntry is one processed row of an entry list
type RankedEntry struct {
	Position  int    `json:"position" bson:"position"`
	Player    string `json:"player" bson:"player"`
	Country   string `json:"country" bson:"country"`
	Rank      int    `json:"rank,omitempty" bson:"rank,omitempty"` // 0 when unranked
	SortKey   int    `json:"-" bson:"-"`
	Highlight bool   `json:"highlight,omitempty" bson:"highlight,omitempty"`
}

// Ranked reports whether the entry has a real rank
func (r RankedEntry) Ranked() bool {
	return r.Rank > 0
}

// Row returns the display columns: position, player, country, rank
func (r RankedEntry) Row() []string {
	rank := UnrankedDisplay
	if r.Ranked() {
		rank = strconv.Itoa(r.Rank)
	}
	return []string{strconv.Itoa(r.Position), r.Player, r.Country, rank}
}

// ChangeEvent is one roster change recorded in the change log. Date is the run date, not the date the change
// happened on the source
type ChangeEvent struct {
	Date        string   `json:"date" bson:"date"`
	Description string   `json:"description" bson:"description"`
	Draw        DrawType `json:"draw" bson:"draw"`
}

// ParseDate parses a date in DateLayout
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}
