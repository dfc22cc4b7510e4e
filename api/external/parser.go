/* parser.go
 * Contains the entry list extractor. A player list page shows main draw singles, then qualifying singles, then
 * doubles, with only tab markers between them, so sections are inferred from the order markers appear in
 */

package external

import (
	"regexp"
	"strings"

	"entrylist-tracker/api/shared"

	"github.com/PuerkitoBio/goquery"
)

const (
	tabAttr        = "data-ui-tab"
	playerNameAttr = "data-tracking-player-name"
)

// chromeSelector matches the page furniture around the entry lists, where player links are navigation or
// promotion rather than entries
const chromeSelector = "header, nav, footer, aside"

var playerLinkRegex = regexp.MustCompile(`/players/(\d+)(?:/|$|\?)`)

// section is the part of the page the scan is currently in
type section int

const (
	sectionMain section = iota
	sectionQualifying
	sectionStopped
)

// next returns the section after seeing the tab marker value, if any. Stopped is terminal
func (s section) next(tab string) section {
	if s == sectionStopped {
		return s
	}
	switch {
	case strings.EqualFold(tab, "Qualifying"):
		return sectionQualifying
	case strings.EqualFold(tab, "Doubles"):
		return sectionStopped
	default:
		return s
	}
}

// ExtractEntries walks the document and collects the singles entry lists
// Preconditions: Receives a parsed player list page
// Postconditions: Returns the main draw and qualifying entries in order of first appearance, each deduplicated.
// Entries after the doubles marker are ignored. Both slices are non-nil
func ExtractEntries(doc *goquery.Document) ([]shared.PlayerEntry, []shared.PlayerEntry) {
	main := []shared.PlayerEntry{}
	qual := []shared.PlayerEntry{}
	seen := map[section]map[string]struct{}{
		sectionMain:       {},
		sectionQualifying: {},
	}

	current := sectionMain
	doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if tab, ok := s.Attr(tabAttr); ok {
			current = current.next(strings.TrimSpace(tab))
		}
		if current == sectionStopped {
			return false
		}

		entry, ok := playerEntry(s)
		if !ok {
			return true
		}

		key := entry.Key()
		if _, dup := seen[current][key]; dup {
			return true
		}
		seen[current][key] = struct{}{}

		if current == sectionMain {
			main = append(main, entry)
		} else {
			qual = append(qual, entry)
		}
		return true
	})

	return main, qual
}

// playerEntry reads the player carried by an element, by inline name attribute or by profile link. A bare profile
// link in the page chrome is not an entry
func playerEntry(s *goquery.Selection) (shared.PlayerEntry, bool) {
	var entry shared.PlayerEntry
	if name, ok := s.Attr(playerNameAttr); ok {
		entry.Name = strings.TrimSpace(name)
	}
	if goquery.NodeName(s) == "a" {
		if entry.Name == "" && s.Closest(chromeSelector).Length() > 0 {
			return entry, false
		}
		entry.ID = playerID(s)
	} else if entry.Name != "" {
		// A named row wrapping a profile link is the same player as the link
		s.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			entry.ID = playerID(a)
			return entry.ID == ""
		})
	}
	return entry, entry.ID != "" || entry.Name != ""
}

func playerID(a *goquery.Selection) string {
	href, ok := a.Attr("href")
	if !ok {
		return ""
	}
	if m := playerLinkRegex.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return ""
}

// NameBased reports whether a list was built from inline names only
func NameBased(entries []shared.PlayerEntry) bool {
	for _, e := range entries {
		if e.ID != "" {
			return false
		}
	}
	return true
}
