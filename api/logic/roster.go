/* roster.go
 * Contains the logic for turning a raw entry list into the ranked table shown to users: name normalisation,
 * country and rank lookup against a ranking snapshot, manual overrides and the final ordering
 */

package logic

import (
	"sort"
	"strings"
	"unicode"

	"entrylist-tracker/api/shared"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ProcessOptions holds the configured adjustments applied to every roster
type ProcessOptions struct {
	// Overrides maps an uppercased canonical name to a country code. Overrides always win
	Overrides map[string]string
	// Highlight is the set of uppercased country codes whose rows are flagged
	Highlight map[string]bool
}

// NewProcessOptions builds ProcessOptions from the raw configured values
func NewProcessOptions(overrides map[string]string, highlight []string) ProcessOptions {
	opts := ProcessOptions{
		Overrides: make(map[string]string, len(overrides)),
		Highlight: make(map[string]bool, len(highlight)),
	}
	for name, country := range overrides {
		opts.Overrides[strings.ToUpper(strings.TrimSpace(name))] = strings.TrimSpace(country)
	}
	for _, code := range highlight {
		opts.Highlight[strings.ToUpper(strings.TrimSpace(code))] = true
	}
	return opts
}

// NormalizeName trims a name and title-cases each word, e.g. "  SWIATEK, iga " -> "Swiatek, Iga". The letter after
// an apostrophe is capitalised too, so "O'BRIEN" -> "O'Brien"
func NormalizeName(name string) string {
	titled := []rune(cases.Title(language.Und).String(strings.TrimSpace(name)))
	for i := 1; i < len(titled); i++ {
		if titled[i-1] == '\'' || titled[i-1] == '’' {
			titled[i] = unicode.ToUpper(titled[i])
		}
	}
	return string(titled)
}

// ProcessPlayers merges an entry list with a ranking snapshot and orders it by rank
// Preconditions: Receives the players in entry list order and the ranking snapshot for the draw (may be empty)
// Postconditions: Returns one RankedEntry per player sorted by rank ascending, unranked players last in their
// original order, with 1-based positions. Empty input returns an empty slice
func ProcessPlayers(players []shared.PlayerInput, rankings []shared.RankingEntry, opts ProcessOptions) []shared.RankedEntry {
	entries := make([]shared.RankedEntry, 0, len(players))
	if len(players) == 0 {
		return entries
	}

	// First occurrence of a name wins, matching the fetcher's own dedupe
	byName := make(map[string]shared.RankingEntry, len(rankings))
	for _, r := range rankings {
		key := strings.ToUpper(strings.TrimSpace(r.Player))
		if key == "" {
			continue
		}
		if _, ok := byName[key]; !ok {
			byName[key] = r
		}
	}

	for _, p := range players {
		name := NormalizeName(p.Name)
		upper := strings.ToUpper(name)
		ranking, ranked := byName[upper]

		country := strings.TrimSpace(p.Country)
		if country == "" && ranked {
			country = strings.TrimSpace(ranking.Country)
		}
		if country == "" {
			country = shared.UnknownCountry
		}
		if override, ok := opts.Overrides[upper]; ok && override != "" {
			country = override
		}

		rank, sortKey := 0, shared.UnrankedSortKey
		if ranked && ranking.Rank > 0 {
			rank, sortKey = ranking.Rank, ranking.Rank
		}

		entries = append(entries, shared.RankedEntry{
			Player:    name,
			Country:   country,
			Rank:      rank,
			SortKey:   sortKey,
			Highlight: opts.Highlight[strings.ToUpper(country)],
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SortKey < entries[j].SortKey
	})
	for i := range entries {
		entries[i].Position = i + 1
	}
	return entries
}

// Names returns the display names of a processed roster in table order
func Names(entries []shared.RankedEntry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Player)
	}
	return names
}
