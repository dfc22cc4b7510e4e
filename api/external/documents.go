/* documents.go
 * Contains the tournament page fetcher and the reader for the page's structured event metadata
 */

package external

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
)

// DocumentFetcher returns the parsed page at a url
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, url string) (*goquery.Document, error)
}

type HTTPDocumentFetcher struct {
	UserAgent string
	HTTP      *http.Client
}

var _ DocumentFetcher = (*HTTPDocumentFetcher)(nil)

func NewDocumentFetcher(timeout time.Duration, userAgent string) *HTTPDocumentFetcher {
	return &HTTPDocumentFetcher{UserAgent: userAgent, HTTP: NewHTTPClient(timeout)}
}

// FetchDocument downloads and parses a tournament page
func (f *HTTPDocumentFetcher) FetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := fetchBody(ctx, f.HTTP, url, f.UserAgent)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", url)
	}
	return doc, nil
}

var tournamentWordRegex = regexp.MustCompile(`(?i)\bTournament\b`)

// CleanTournamentWord removes the word "Tournament" from an event name and tidies the spacing left behind
func CleanTournamentWord(text string) string {
	return strings.Join(strings.Fields(tournamentWordRegex.ReplaceAllString(text, "")), " ")
}

type ldEvent struct {
	Type        interface{} `json:"@type"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	StartDate   string      `json:"startDate"`
	Graph       []ldEvent   `json:"@graph"`
}

func (e ldEvent) isSportsEvent() bool {
	switch t := e.Type.(type) {
	case string:
		return t == "SportsEvent"
	case []interface{}:
		for _, v := range t {
			if s, ok := v.(string); ok && s == "SportsEvent" {
				return true
			}
		}
	}
	return false
}

// ParseTournamentMeta reads the first SportsEvent from the page's ld+json blocks. Blocks that do not decode are
// skipped. Returns an empty TournamentMeta when there is no event
func ParseTournamentMeta(doc *goquery.Document) TournamentMeta {
	var meta TournamentMeta
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		event, ok := findSportsEvent([]byte(s.Text()))
		if !ok {
			return true
		}

		name := event.Description
		if strings.TrimSpace(name) == "" {
			name = event.Name
		}
		meta.Name = CleanTournamentWord(name)
		meta.StartDate = strings.TrimSpace(event.StartDate)
		return false
	})
	return meta
}

// findSportsEvent accepts a single object, an array of objects or an object with an @graph list
func findSportsEvent(data []byte) (ldEvent, bool) {
	data = bytes.TrimSpace(data)
	var candidates []ldEvent
	if bytes.HasPrefix(data, []byte("[")) {
		if err := json.Unmarshal(data, &candidates); err != nil {
			return ldEvent{}, false
		}
	} else {
		var single ldEvent
		if err := json.Unmarshal(data, &single); err != nil {
			return ldEvent{}, false
		}
		candidates = append([]ldEvent{single}, single.Graph...)
	}

	for _, c := range candidates {
		if c.isSportsEvent() {
			return c, true
		}
	}
	return ldEvent{}, false
}
