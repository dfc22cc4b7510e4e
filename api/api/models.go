/* models.go
 * This file contain the structs that are used by api consumers: the tournaments to process and the result of a run
 */

package api

import (
	"entrylist-tracker/api/store"
)

// Tournament is one entry list page to process
type Tournament struct {
	Group string
	Label string
	URL   string
	// DisplayName replaces the name read from the page when set
	DisplayName string
}

// RunResult is everything a run produced, in tournament order
type RunResult struct {
	RunID   string
	RunDate string
	Reports []store.TournamentReport
	// Notifications are in the order they were produced
	Notifications []string
	Fresh         int
	Stale         int
	Omitted       []string
}

// ReportGroup is a group of tournaments in report.json
type ReportGroup struct {
	Name        string                   `json:"name"`
	Tournaments []store.TournamentReport `json:"tournaments"`
}

// ReportFile is the layout of report.json
type ReportFile struct {
	RunID   string        `json:"run_id"`
	RunDate string        `json:"run_date"`
	Groups  []ReportGroup `json:"groups"`
	Omitted []string      `json:"omitted,omitempty"`
}

// Groups returns the reports grouped by tournament group, groups ordered by first appearance
func (r RunResult) Groups() []ReportGroup {
	groups := []ReportGroup{}
	index := map[string]int{}
	for _, report := range r.Reports {
		i, ok := index[report.Group]
		if !ok {
			i = len(groups)
			index[report.Group] = i
			groups = append(groups, ReportGroup{Name: report.Group})
		}
		groups[i].Tournaments = append(groups[i].Tournaments, report)
	}
	return groups
}
