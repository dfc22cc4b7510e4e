/* api_test.go
 * Contains unit tests for api.go, running whole tournaments against mock pages, rankings and players
 */

package api

import (
	"context"
	"strings"
	"testing"
	"time"

	"entrylist-tracker/api/shared"
	"entrylist-tracker/api/store"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testURL   = "https://example.test/tournaments/1/test-open/2026/player-list"
	testLabel = "WTA 125 TEST"
	testTID   = "WTA_125_TEST"
)

// namePage builds a name based player list page
func namePage(startDate string, main []string, qual []string) string {
	var b strings.Builder
	b.WriteString(`<html><head>`)
	if startDate != "" {
		b.WriteString(`<script type="application/ld+json">{"@type":"SportsEvent","description":"Test Open Tournament","startDate":"` + startDate + `"}</script>`)
	}
	b.WriteString(`</head><body>`)
	for _, n := range main {
		b.WriteString(`<div data-tracking-player-name="` + n + `"></div>`)
	}
	b.WriteString(`<button data-ui-tab="Qualifying">Qualifying</button>`)
	for _, n := range qual {
		b.WriteString(`<div data-tracking-player-name="` + n + `"></div>`)
	}
	b.WriteString(`<button data-ui-tab="Doubles">Doubles</button><div data-tracking-player-name="Doubles Player"></div>`)
	b.WriteString(`</body></html>`)
	return b.String()
}

type fixture struct {
	store    *store.MemoryStore
	docs     *MockDocuments
	rankings *MockRankings
	players  *MockPlayers
	api      *API
}

func newFixture(t *testing.T, runDate string) *fixture {
	t.Helper()
	f := &fixture{
		store:    store.NewMemoryStore(),
		docs:     NewMockDocuments(),
		rankings: NewMockRankings(),
		players:  NewMockPlayers(),
	}
	f.rankings.ByDate["2026-01-19"] = []shared.RankingEntry{
		{Rank: 2, Player: "Iga Swiatek", Country: "POL"},
		{Rank: 4, Player: "Coco Gauff", Country: "USA"},
		{Rank: 40, Player: "Camila Osorio", Country: "COL"},
	}
	f.rankings.ByDate["2026-01-26"] = []shared.RankingEntry{
		{Rank: 120, Player: "Julia Riera", Country: "ARG"},
	}
	f.api = f.newAPI(t, runDate)
	return f
}

func (f *fixture) newAPI(t *testing.T, runDate string) *API {
	t.Helper()
	fallback, err := shared.ParseDate("2026-02-09")
	require.NoError(t, err)

	a, err := NewAPI(f.store, f.docs, f.rankings, f.players, Options{
		RunDate:       runDate,
		FallbackStart: fallback,
		Overrides:     map[string]string{"julia riera": "ARG"},
		Highlight:     []string{"ARG", "COL"},
	}, nil, nil)
	require.NoError(t, err)
	return a
}

func testTournament() Tournament {
	return Tournament{Group: "Week of Feb 16", Label: testLabel, URL: testURL}
}

// TestProcessTournament_FirstRun tests a page seen for the first time
func TestProcessTournament_FirstRun(t *testing.T) {
	f := newFixture(t, "2026-01-24")
	f.docs.Pages[testURL] = namePage("2026-02-18", []string{"Unknown Player", "camila osorio", "IGA SWIATEK"}, []string{"Julia Riera"})

	report, notes, err := f.api.ProcessTournament(context.Background(), testTournament())

	require.NoError(t, err)
	assert.Equal(t, []string{
		"Test Open: Main Draw entry list is now available (3 players)",
		"Test Open: Qualifying entry list is now available (1 players)",
	}, notes)

	assert.Equal(t, testTID, report.TournamentID)
	assert.Equal(t, "Test Open", report.DisplayName)
	assert.Equal(t, "2026-02-18", report.StartDate)
	assert.Equal(t, "2026-01-24", report.GeneratedOn)
	assert.Equal(t, "2026-01-19", report.Main.SnapshotDate)
	assert.Equal(t, "2026-01-26", report.Qualifying.SnapshotDate)
	assert.Empty(t, report.Main.ExpectedOn)

	require.Len(t, report.Main.Entries, 3)
	assert.Equal(t, []string{"1", "Iga Swiatek", "POL", "2"}, report.Main.Entries[0].Row())
	assert.Equal(t, []string{"2", "Camila Osorio", "COL", "40"}, report.Main.Entries[1].Row())
	assert.True(t, report.Main.Entries[1].Highlight)
	assert.Equal(t, []string{"3", "Unknown Player", shared.UnknownCountry, "-"}, report.Main.Entries[2].Row())

	require.Len(t, report.Qualifying.Entries, 1)
	assert.Equal(t, "ARG", report.Qualifying.Entries[0].Country)
	assert.Equal(t, 120, report.Qualifying.Entries[0].Rank)

	assert.Equal(t, []string{"Iga Swiatek", "Camila Osorio", "Unknown Player"}, f.store.Rosters[testTID+"_MAIN"])
	assert.Equal(t, []string{"Julia Riera"}, f.store.Rosters[testTID+"_QUALIFYING"])
	assert.Contains(t, f.store.Reports, testTID)
	assert.Empty(t, report.ChangeLog)
}

// TestProcessTournament_Changes tests a second run where the main draw changed
func TestProcessTournament_Changes(t *testing.T) {
	f := newFixture(t, "2026-01-24")
	f.docs.Pages[testURL] = namePage("2026-02-18", []string{"Iga Swiatek", "Unknown Player"}, []string{"Julia Riera"})
	_, _, err := f.api.ProcessTournament(context.Background(), testTournament())
	require.NoError(t, err)

	f.docs.Pages[testURL] = namePage("2026-02-18", []string{"Iga Swiatek", "Coco Gauff"}, []string{"Julia Riera"})
	next := f.newAPI(t, "2026-01-27")
	report, notes, err := next.ProcessTournament(context.Background(), testTournament())

	require.NoError(t, err)
	assert.Equal(t, []string{
		"Test Open: - Unknown Player removed (Main Draw)",
		"Test Open: + Coco Gauff added (Main Draw)",
	}, notes)
	require.Len(t, report.ChangeLog, 2)
	assert.Equal(t, "2026-01-27", report.ChangeLog[0].Date)
	assert.Equal(t, []string{"Iga Swiatek", "Coco Gauff"}, f.store.Rosters[testTID+"_MAIN"])

	// Same page again, nothing new
	_, notes, err = next.ProcessTournament(context.Background(), testTournament())
	require.NoError(t, err)
	assert.Empty(t, notes)
}

// TestProcessTournament_ConfiguredName tests that a configured display name wins over the page
func TestProcessTournament_ConfiguredName(t *testing.T) {
	f := newFixture(t, "2026-01-24")
	f.docs.Pages[testURL] = namePage("2026-02-18", []string{"Iga Swiatek"}, nil)
	tour := testTournament()
	tour.DisplayName = "WTA 1000 - Qatar TotalEnergies Open 2026"

	report, notes, err := f.api.ProcessTournament(context.Background(), tour)

	require.NoError(t, err)
	assert.Equal(t, tour.DisplayName, report.DisplayName)
	assert.Equal(t, []string{"WTA 1000 - Qatar TotalEnergies Open 2026: Main Draw entry list is now available (1 players)"}, notes)
}

// TestProcessTournament_NoMetadata tests the label and fallback start date when the page has no event data
func TestProcessTournament_NoMetadata(t *testing.T) {
	f := newFixture(t, "2026-01-24")
	f.docs.Pages[testURL] = namePage("", []string{"Iga Swiatek"}, nil)

	report, _, err := f.api.ProcessTournament(context.Background(), testTournament())

	require.NoError(t, err)
	assert.Equal(t, testLabel, report.DisplayName)
	assert.Equal(t, "2026-02-09", report.StartDate)
	assert.Equal(t, "2026-01-12", report.Main.SnapshotDate)
	assert.Equal(t, 1, f.rankings.Calls["2026-01-12"])
}

// TestProcessTournament_ExpectedOn tests the expected dates for lists that have never been seen
func TestProcessTournament_ExpectedOn(t *testing.T) {
	f := newFixture(t, "2026-01-10")
	f.docs.Pages[testURL] = namePage("2026-02-18", nil, nil)

	report, notes, err := f.api.ProcessTournament(context.Background(), testTournament())

	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.Empty(t, report.Main.Entries)
	assert.NotNil(t, report.Main.Entries)
	assert.Equal(t, "2026-01-23", report.Main.ExpectedOn)
	assert.Equal(t, "2026-01-30", report.Qualifying.ExpectedOn)
	// Nothing to rank, so no snapshot is fetched
	assert.Empty(t, f.rankings.Calls)

	// Once a list has been seen, an empty page is not "expected" any more
	f.store.Rosters[testTID+"_MAIN"] = []string{"Iga Swiatek"}
	f.docs.Pages[testURL] = namePage("2026-02-18", nil, nil)
	report, _, err = f.api.ProcessTournament(context.Background(), testTournament())
	require.NoError(t, err)
	assert.Empty(t, report.Main.ExpectedOn)
	assert.Equal(t, []string{"Iga Swiatek"}, f.store.Rosters[testTID+"_MAIN"])
}

// TestProcessTournament_SubstitutesMainDraw tests the stored main draw being shown when a name based page only
// lists qualifying
func TestProcessTournament_SubstitutesMainDraw(t *testing.T) {
	f := newFixture(t, "2026-01-28")
	f.store.Rosters[testTID+"_MAIN"] = []string{"Camila Osorio", "Iga Swiatek"}
	f.store.Rosters[testTID+"_QUALIFYING"] = []string{}
	f.docs.Pages[testURL] = namePage("2026-02-18", nil, []string{"Julia Riera"})

	report, notes, err := f.api.ProcessTournament(context.Background(), testTournament())

	require.NoError(t, err)
	assert.True(t, report.Main.Substituted)
	assert.Equal(t, []string{"Iga Swiatek", "Camila Osorio"}, []string{report.Main.Entries[0].Player, report.Main.Entries[1].Player})
	assert.Equal(t, []string{"Test Open: Qualifying entry list is now available (1 players)"}, notes)
	assert.Empty(t, f.store.ChangeLogs[testTID])
}

// TestProcessTournament_IdentityPage tests resolution of profile links
func TestProcessTournament_IdentityPage(t *testing.T) {
	f := newFixture(t, "2026-01-24")
	f.players.Records["320760"] = shared.PlayerRecord{Name: "Iga Swiatek", Country: "POL"}
	f.players.Records["318322"] = shared.PlayerRecord{Name: "Camila Osorio"}
	f.docs.Pages[testURL] = `<html><head><script type="application/ld+json">{"@type":"SportsEvent","description":"Test Open","startDate":"2026-02-18"}</script></head><body>
		<a href="/players/318322/camila-osorio">Camila Osorio</a>
		<a href="/players/999/unknown">Nobody</a>
		<div data-tracking-player-name="Coco Gauff"><a href="/players/555/coco-gauff">Coco Gauff</a></div>
		<span data-ui-tab="Qualifying"></span>
		<a href="/players/320760/iga-swiatek">Iga Swiatek</a>
		<a href="/players/318322/camila-osorio">Camila Osorio</a>
	</body></html>`

	report, _, err := f.api.ProcessTournament(context.Background(), testTournament())

	require.NoError(t, err)
	// 999 cannot be resolved and has no inline name, 555 falls back to its row's name
	require.Len(t, report.Main.Entries, 2)
	assert.Equal(t, "Coco Gauff", report.Main.Entries[0].Player)
	assert.Equal(t, "Camila Osorio", report.Main.Entries[1].Player)
	assert.Equal(t, "COL", report.Main.Entries[1].Country)

	require.Len(t, report.Qualifying.Entries, 2)
	assert.Equal(t, 1, f.players.Calls["999"])
}

// TestProcessTournament_SameNameTwice tests that two identities resolving to one name are listed once, the same
// way change tracking counts them
func TestProcessTournament_SameNameTwice(t *testing.T) {
	f := newFixture(t, "2026-01-24")
	f.players.Records["320760"] = shared.PlayerRecord{Name: "Iga Swiatek", Country: "POL"}
	f.players.Records["777"] = shared.PlayerRecord{Name: "IGA SWIATEK"}
	f.players.Records["555"] = shared.PlayerRecord{Name: "Coco Gauff", Country: "USA"}
	f.docs.Pages[testURL] = `<html><head><script type="application/ld+json">{"@type":"SportsEvent","description":"Test Open","startDate":"2026-02-18"}</script></head><body>
		<a href="/players/320760/iga-swiatek">Iga Swiatek</a>
		<a href="/players/777/iga-swiatek">Iga Swiatek</a>
		<a href="/players/555/coco-gauff">Coco Gauff</a>
	</body></html>`

	report, notes, err := f.api.ProcessTournament(context.Background(), testTournament())

	require.NoError(t, err)
	require.Len(t, report.Main.Entries, 2)
	assert.Equal(t, "Iga Swiatek", report.Main.Entries[0].Player)
	assert.Equal(t, "POL", report.Main.Entries[0].Country)
	assert.Equal(t, "Coco Gauff", report.Main.Entries[1].Player)
	require.NotEmpty(t, notes)
	assert.Contains(t, notes[0], "(2 players)")
	assert.Equal(t, []string{"Iga Swiatek", "Coco Gauff"}, f.store.Rosters[shared.RosterKey(testTID, shared.DrawMain)])
}

// TestProcessTournament_FetchError tests that a failed page changes nothing
func TestProcessTournament_FetchError(t *testing.T) {
	f := newFixture(t, "2026-01-24")
	f.docs.Errors[testURL] = errors.New("timeout")

	_, _, err := f.api.ProcessTournament(context.Background(), testTournament())

	assert.ErrorIs(t, err, ErrDocumentUnavailable)
	assert.Equal(t, 0, f.store.SaveCount)
}

// TestProcessTournament_StoreFailure tests that a broken change log does not fail the tournament
func TestProcessTournament_StoreFailure(t *testing.T) {
	f := newFixture(t, "2026-01-24")
	f.store.Rosters[testTID+"_MAIN"] = []string{"Iga Swiatek"}
	f.store.SaveChangeLogErr = errors.New("disk full")
	f.docs.Pages[testURL] = namePage("2026-02-18", []string{"Coco Gauff"}, nil)

	report, notes, err := f.api.ProcessTournament(context.Background(), testTournament())

	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.Len(t, report.Main.Entries, 1)
	assert.Equal(t, []string{"Iga Swiatek"}, f.store.Rosters[testTID+"_MAIN"])
}

// TestRun_FreshStaleOmitted tests the per tournament fallback
func TestRun_FreshStaleOmitted(t *testing.T) {
	f := newFixture(t, "2026-01-24")
	fresh := Tournament{Group: "Week of Feb 16", Label: "WTA 125 FRESH", URL: "https://example.test/fresh"}
	stale := Tournament{Group: "Week of Feb 16", Label: "WTA 125 STALE", URL: "https://example.test/stale"}
	gone := Tournament{Group: "Week of Feb 23", Label: "WTA 125 GONE", URL: "https://example.test/gone"}

	f.docs.Pages[fresh.URL] = namePage("2026-02-18", []string{"Iga Swiatek"}, nil)
	f.docs.Errors[stale.URL] = errors.New("503")
	f.docs.Errors[gone.URL] = errors.New("503")

	prior := store.TournamentReport{TournamentID: "WTA_125_STALE", DisplayName: "Stale Open", GeneratedOn: "2026-01-20"}
	f.store.Reports["WTA_125_STALE"] = prior
	f.store.ChangeLogs["WTA_125_STALE"] = []shared.ChangeEvent{{Date: "2026-01-20", Description: "x", Draw: shared.DrawMain}}

	result := f.api.Run(context.Background(), []Tournament{fresh, stale, gone})

	assert.Equal(t, 1, result.Fresh)
	assert.Equal(t, 1, result.Stale)
	assert.Equal(t, []string{"WTA 125 GONE"}, result.Omitted)
	require.Len(t, result.Reports, 2)
	assert.False(t, result.Reports[0].Stale)
	assert.True(t, result.Reports[1].Stale)
	assert.Equal(t, "Stale Open", result.Reports[1].DisplayName)
	assert.Equal(t, "Week of Feb 16", result.Reports[1].Group)
	assert.Len(t, result.Reports[1].ChangeLog, 1)
	assert.Equal(t, []string{"Test Open: Main Draw entry list is now available (1 players)"}, result.Notifications)
	assert.True(t, f.players.Loaded)
	assert.True(t, f.players.Flushed)

	// The stored fallback is not marked stale
	assert.False(t, f.store.Reports["WTA_125_STALE"].Stale)
}

// TestRun_SharesSnapshots tests that tournaments in the same week fetch each snapshot once
func TestRun_SharesSnapshots(t *testing.T) {
	f := newFixture(t, "2026-01-24")
	a := Tournament{Label: "A", URL: "https://example.test/a"}
	b := Tournament{Label: "B", URL: "https://example.test/b"}
	f.docs.Pages[a.URL] = namePage("2026-02-16", []string{"Iga Swiatek"}, []string{"Julia Riera"})
	f.docs.Pages[b.URL] = namePage("2026-02-20", []string{"Coco Gauff"}, []string{"Julia Riera"})

	result := f.api.Run(context.Background(), []Tournament{a, b})

	assert.Equal(t, 2, result.Fresh)
	assert.Equal(t, 1, f.rankings.Calls["2026-01-19"])
	assert.Equal(t, 1, f.rankings.Calls["2026-01-26"])
}

func TestRun_Cancelled(t *testing.T) {
	f := newFixture(t, "2026-01-24")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := f.api.Run(ctx, []Tournament{testTournament()})

	assert.Empty(t, result.Reports)
	assert.Equal(t, 0, f.docs.Calls[testURL])
}

func TestNewAPI_Validation(t *testing.T) {
	s := store.NewMemoryStore()
	docs, rankings, players := NewMockDocuments(), NewMockRankings(), NewMockPlayers()

	_, err := NewAPI(nil, docs, rankings, players, Options{RunDate: "2026-01-24"}, nil, nil)
	assert.Error(t, err)
	_, err = NewAPI(s, docs, rankings, players, Options{}, nil, nil)
	assert.Error(t, err)

	a, err := NewAPI(s, docs, rankings, players, Options{RunDate: "2026-01-24", FallbackStart: time.Now()}, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, a.Tracker)
}
