/* models.go
 * This file contain the structs that relate to stored objects: persisted roster state, change logs, the last
 * generated tournament report and the player identity cache
 */

package store

import (
	"time"

	"entrylist-tracker/api/shared"
)

// DrawReport is the processed table for one draw of a tournament
type DrawReport struct {
	Draw         shared.DrawType      `json:"draw" bson:"draw"`
	SnapshotDate string               `json:"snapshot_date" bson:"snapshot_date"`
	Entries      []shared.RankedEntry `json:"entries" bson:"entries"`
	// ExpectedOn is set when the list is empty and has never been seen, with the date it should be published
	ExpectedOn string `json:"expected_on,omitempty" bson:"expected_on,omitempty"`
	// Substituted is set when the entries were taken from stored state because the page listed nobody
	Substituted bool `json:"substituted,omitempty" bson:"substituted,omitempty"`
}

// TournamentReport is everything the presentation layer needs for one tournament. The last fresh report of
// each tournament is stored so it can be shown again when a later fetch fails
type TournamentReport struct {
	TournamentID string               `json:"tournament_id" bson:"tournament_id"`
	Group        string               `json:"group" bson:"group"`
	Label        string               `json:"label" bson:"label"`
	DisplayName  string               `json:"display_name" bson:"display_name"`
	URL          string               `json:"url" bson:"url"`
	StartDate    string               `json:"start_date" bson:"start_date"`
	Main         DrawReport           `json:"main" bson:"main"`
	Qualifying   DrawReport           `json:"qualifying" bson:"qualifying"`
	ChangeLog    []shared.ChangeEvent `json:"change_log" bson:"-"`
	GeneratedOn  string               `json:"generated_on" bson:"generated_on"`
	Stale        bool                 `json:"stale,omitempty" bson:"-"`
}

// Draw returns the report for a draw type
func (r *TournamentReport) Draw(draw shared.DrawType) *DrawReport {
	if draw == shared.DrawQualifying {
		return &r.Qualifying
	}
	return &r.Main
}

// RosterDoc is the Mongo document holding the last seen names for one roster key
type RosterDoc struct {
	Key     string    `bson:"key"`
	Names   []string  `bson:"names"`
	Updated time.Time `bson:"updated"`
}

// ChangeLogDoc is the Mongo document holding the change log of one tournament, most recent first
type ChangeLogDoc struct {
	TournamentID string               `bson:"tournament_id"`
	Events       []shared.ChangeEvent `bson:"events"`
}

// PlayerDoc is the Mongo document caching a resolved player identity
type PlayerDoc struct {
	ID      string `bson:"id"`
	Name    string `bson:"name"`
	Country string `bson:"country,omitempty"`
}

// ReportDoc wraps a stored report with its key
type ReportDoc struct {
	TournamentID string           `bson:"tournament_id"`
	Report       TournamentReport `bson:"report"`
}
