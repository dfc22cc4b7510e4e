/* test_mocks.go
 * Contains mock collaborators for testing the API package: a document source serving fixed pages, a ranking
 * source keyed by date and a player resolver backed by a map
 */

package api

import (
	"context"
	"strings"
	"time"

	"entrylist-tracker/api/external"
	"entrylist-tracker/api/shared"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
)

// MockDocuments serves HTML by url. Urls in Errors fail
type MockDocuments struct {
	Pages  map[string]string
	Errors map[string]error
	Calls  map[string]int
}

func NewMockDocuments() *MockDocuments {
	return &MockDocuments{Pages: map[string]string{}, Errors: map[string]error{}, Calls: map[string]int{}}
}

func (m *MockDocuments) FetchDocument(_ context.Context, url string) (*goquery.Document, error) {
	m.Calls[url]++
	if err, ok := m.Errors[url]; ok {
		return nil, err
	}
	page, ok := m.Pages[url]
	if !ok {
		return nil, errors.Newf("no page for %s", url)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(page))
}

// MockRankings returns a fixed snapshot per date and counts fetches
type MockRankings struct {
	ByDate map[string][]shared.RankingEntry
	Calls  map[string]int
}

func NewMockRankings() *MockRankings {
	return &MockRankings{ByDate: map[string][]shared.RankingEntry{}, Calls: map[string]int{}}
}

func (m *MockRankings) FetchRankings(_ context.Context, date time.Time) []shared.RankingEntry {
	key := date.Format(shared.DateLayout)
	m.Calls[key]++
	return m.ByDate[key]
}

// MockPlayers resolves ids from a map and records loads and flushes
type MockPlayers struct {
	Records map[string]shared.PlayerRecord
	Calls   map[string]int
	Loaded  bool
	Flushed bool
}

func NewMockPlayers() *MockPlayers {
	return &MockPlayers{Records: map[string]shared.PlayerRecord{}, Calls: map[string]int{}}
}

func (m *MockPlayers) Resolve(_ context.Context, id string) (shared.PlayerRecord, bool) {
	m.Calls[id]++
	p, ok := m.Records[id]
	return p, ok
}

func (m *MockPlayers) Load(context.Context, external.PlayerCache) {
	m.Loaded = true
}

func (m *MockPlayers) Flush(context.Context, external.PlayerCache) error {
	m.Flushed = true
	return nil
}
