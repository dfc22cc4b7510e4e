/* dates.go
 * Contains the logic for working out which historical ranking list a tournament's entry lists were built from.
 * Entry lists use the rankings published a fixed number of weeks before the Monday of the tournament week, one
 * week later when the tournament itself starts on a weekend
 */

package logic

import (
	"strings"
	"time"

	"entrylist-tracker/api/shared"
)

// Lag, in weeks before the tournament Monday, of the ranking list used for each draw
const (
	mainDrawLagWeeks   = 4
	qualifyingLagWeeks = 3
	availabilityOffset = 4 // days from the ranking Monday to the Friday the list is expected
)

// RankingDates holds the two snapshot dates of a tournament and the dates their lists are expected to be published
type RankingDates struct {
	TournamentMonday    time.Time
	WeekendStart        bool
	MainSnapshot        time.Time
	QualifyingSnapshot  time.Time
	MainAvailable       time.Time
	QualifyingAvailable time.Time
}

// Snapshot returns the snapshot date for a draw
func (r RankingDates) Snapshot(draw shared.DrawType) time.Time {
	if draw == shared.DrawQualifying {
		return r.QualifyingSnapshot
	}
	return r.MainSnapshot
}

// Available returns the expected availability date for a draw
func (r RankingDates) Available(draw shared.DrawType) time.Time {
	if draw == shared.DrawQualifying {
		return r.QualifyingAvailable
	}
	return r.MainAvailable
}

// ResolveRankingDates computes the ranking snapshot dates for a tournament
// Preconditions: Receives the tournament start date. Only the calendar date is used
// Postconditions: Returns the tournament Monday, whether it is a weekend start, both snapshot dates and both
// availability dates
func ResolveRankingDates(start time.Time) RankingDates {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	// Monday = 0 ... Sunday = 6
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	weekend := day.Weekday() == time.Saturday || day.Weekday() == time.Sunday

	mainLag, qualLag := mainDrawLagWeeks, qualifyingLagWeeks
	if weekend {
		mainLag--
		qualLag--
	}

	mainSnapshot := monday.AddDate(0, 0, -7*mainLag)
	qualSnapshot := monday.AddDate(0, 0, -7*qualLag)

	return RankingDates{
		TournamentMonday:    monday,
		WeekendStart:        weekend,
		MainSnapshot:        mainSnapshot,
		QualifyingSnapshot:  qualSnapshot,
		MainAvailable:       mainSnapshot.AddDate(0, 0, availabilityOffset),
		QualifyingAvailable: qualSnapshot.AddDate(0, 0, availabilityOffset),
	}
}

var startDateLayouts = []string{
	shared.DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseStartDate parses the start date found on a tournament page, returning fallback when it is missing or
// not in a recognised format
func ParseStartDate(raw string, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	for _, layout := range startDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return fallback
}
