/* output_test.go
 * Contains unit tests for output.go and the RunResult helpers
 */

package api

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"entrylist-tracker/api/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() RunResult {
	return RunResult{
		RunID:   "abc123",
		RunDate: "2026-01-24",
		Reports: []store.TournamentReport{
			{TournamentID: "A", Group: "Week of Feb 9"},
			{TournamentID: "B", Group: "Week of Feb 16"},
			{TournamentID: "C", Group: "Week of Feb 9"},
		},
		Notifications: []string{
			"Oeiras: Main Draw entry list is now available (32 players)",
			"Doha: + Camila Osorio added (Qualifying)",
		},
		Omitted: []string{"WTA 125 GONE"},
	}
}

func TestRunResult_Groups(t *testing.T) {
	groups := sampleResult().Groups()

	require.Len(t, groups, 2)
	assert.Equal(t, "Week of Feb 9", groups[0].Name)
	require.Len(t, groups[0].Tournaments, 2)
	assert.Equal(t, "A", groups[0].Tournaments[0].TournamentID)
	assert.Equal(t, "C", groups[0].Tournaments[1].TournamentID)
	assert.Equal(t, "Week of Feb 16", groups[1].Name)
}

func TestRunResult_Digest(t *testing.T) {
	expected := "Entry list updates for 2026-01-24 (run abc123)\n\n" +
		"- Oeiras: Main Draw entry list is now available (32 players)\n" +
		"- Doha: + Camila Osorio added (Qualifying)\n"

	assert.Equal(t, expected, sampleResult().Digest())
	assert.Equal(t, "", RunResult{RunDate: "2026-01-24"}.Digest())
}

func TestWriteOutputs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	require.NoError(t, WriteOutputs(dir, sampleResult()))

	data, err := os.ReadFile(filepath.Join(dir, ReportFileName))
	require.NoError(t, err)
	var report ReportFile
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, "abc123", report.RunID)
	assert.Len(t, report.Groups, 2)
	assert.Equal(t, []string{"WTA 125 GONE"}, report.Omitted)

	digest, err := os.ReadFile(filepath.Join(dir, DigestFileName))
	require.NoError(t, err)
	assert.Equal(t, sampleResult().Digest(), string(digest))

	// A quiet run removes the previous digest
	quiet := sampleResult()
	quiet.Notifications = nil
	require.NoError(t, WriteOutputs(dir, quiet))
	_, err = os.Stat(filepath.Join(dir, DigestFileName))
	assert.True(t, os.IsNotExist(err))

	// And does not fail when there is nothing to remove
	require.NoError(t, WriteOutputs(dir, quiet))
}
