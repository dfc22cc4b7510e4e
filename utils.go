/* utils.go
 * Utility functions used by main: flag parsing and tournament selection
 */

package main

import (
	"fmt"
	"strings"

	api "entrylist-tracker/api/api"
	"entrylist-tracker/config"

	"github.com/cockroachdb/errors"
	"github.com/go-andiamo/splitter"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// convertStrToBool converts a string of true or false into a boolean for comparisons
// Preconditions: Receives string containing either true or false (case insensitive)
// Postconditions: Returns boolean value or an error if the string is not true or false
func convertStrToBool(str string) (bool, error) {
	str = strings.TrimSpace(str)
	str = strings.ToLower(str)

	if str == "true" {
		return true, nil
	} else if str == "false" {
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean string")
}

// parseLabelFilter splits the -only flag into labels. Labels may be quoted so they can contain commas
// Preconditions: Receives the raw flag value
// Postconditions: Returns the trimmed, non empty labels, or an error if a quote is left open
func parseLabelFilter(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	commaSplitter, err := splitter.NewSplitter(',', splitter.DoubleQuotes, splitter.LeftRightDoubleDoubleQuotes)
	if err != nil {
		return nil, err
	}
	parts, err := commaSplitter.Split(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parsing -only")
	}

	var labels []string
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), "\"“”")
		p = strings.TrimSpace(p)
		if p != "" {
			labels = append(labels, p)
		}
	}
	return labels, nil
}

// selectTournaments keeps the configured tournaments whose label matches one of the filters. A filter matches when
// its characters appear in order in the label, ignoring case, so "doha" selects "WTA 1000 DOHA"
// Preconditions: Receives the configured tournaments and the filters. No filters selects everything
// Postconditions: Returns the selected tournaments in configured order
func selectTournaments(all []config.Tournament, filters []string) []api.Tournament {
	out := make([]api.Tournament, 0, len(all))
	for _, t := range all {
		if len(filters) > 0 && !matchesAny(t.Label, filters) {
			continue
		}
		out = append(out, api.Tournament{
			Group:       t.Group,
			Label:       t.Label,
			URL:         t.URL,
			DisplayName: t.DisplayName,
		})
	}
	return out
}

func matchesAny(label string, filters []string) bool {
	for _, f := range filters {
		if fuzzy.MatchFold(f, label) {
			return true
		}
	}
	return false
}
