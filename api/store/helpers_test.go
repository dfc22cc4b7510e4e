/* helpers_test.go
 * Contains test helper functions and sample data for store package tests
 */

package store

import (
	"context"
	"os"
	"testing"

	"entrylist-tracker/api/shared"

	"github.com/google/uuid"
)

// CreateTestStore creates a Store connected to a throwaway database on the server named by MONGO_TEST_URI.
// The test is skipped when the variable is not set. The database is dropped on cleanup
func CreateTestStore(t *testing.T) *Store {
	t.Helper()
	mongoURI := os.Getenv("MONGO_TEST_URI")
	if mongoURI == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	s, err := NewStore(context.Background(), mongoURI, "entrylist_test_"+uuid.NewString()[:8])
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Database.Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

// CreateSampleReport creates a TournamentReport with one ranked main draw player
func CreateSampleReport(tournamentID string) TournamentReport {
	return TournamentReport{
		TournamentID: tournamentID,
		Group:        "WTA 125",
		Label:        "WTA 125 Oeiras 1",
		DisplayName:  "Oeiras Ladies Open",
		URL:          "https://www.wtatennis.com/tournaments/1158/oeiras-125-1/2026/player-list",
		StartDate:    "2026-02-18",
		Main: DrawReport{
			Draw:         shared.DrawMain,
			SnapshotDate: "2026-01-19",
			Entries: []shared.RankedEntry{
				{Position: 1, Player: "Camila Osorio", Country: "COL", Rank: 40, Highlight: true},
			},
		},
		Qualifying: DrawReport{
			Draw:         shared.DrawQualifying,
			SnapshotDate: "2026-01-26",
			Entries:      []shared.RankedEntry{},
			ExpectedOn:   "2026-01-30",
		},
		GeneratedOn: "2026-01-24",
	}
}

// CreateSampleEvents creates a change log, most recent first
func CreateSampleEvents() []shared.ChangeEvent {
	return []shared.ChangeEvent{
		{Date: "2026-01-25", Description: `<span class="removed">-</span> <b>Iga Swiatek</b> removed (Main Draw)`, Draw: shared.DrawMain},
		{Date: "2026-01-24", Description: `<span class="added">+</span> <b>Camila Osorio</b> added (Main Draw)`, Draw: shared.DrawMain},
	}
}
