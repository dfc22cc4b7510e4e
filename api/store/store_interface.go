/* store_interface.go
 * Contains the Store interface for dependency injection and testing. Every backend reads and writes whole values
 * per key, so a run is a sequence of read-modify-write steps. Only one run may use a storage location at a time
 */

package store

import (
	"context"

	"entrylist-tracker/api/shared"

	"github.com/cockroachdb/errors"
)

// ErrEmptyKey is returned when a roster key or tournament id is blank
var ErrEmptyKey = errors.New("empty store key")

// Interface defines the methods that every store backend implements.
// This allows for mocking in tests.
type Interface interface {
	// LoadRoster returns the persisted names for a roster key and whether any state existed for it
	LoadRoster(ctx context.Context, key string) ([]string, bool, error)
	SaveRoster(ctx context.Context, key string, names []string) error

	// LoadChangeLog returns the change log of a tournament, most recent first
	LoadChangeLog(ctx context.Context, tournamentID string) ([]shared.ChangeEvent, error)
	SaveChangeLog(ctx context.Context, tournamentID string, events []shared.ChangeEvent) error

	// LoadReport returns the last fresh report of a tournament, if any
	LoadReport(ctx context.Context, tournamentID string) (TournamentReport, bool, error)
	SaveReport(ctx context.Context, report TournamentReport) error

	// LoadPlayers returns every cached player identity
	LoadPlayers(ctx context.Context) (map[string]shared.PlayerRecord, error)
	// SavePlayers merges the given identities into the cache. Ids not in players are kept
	SavePlayers(ctx context.Context, players map[string]shared.PlayerRecord) error

	Close(ctx context.Context) error
}

// Ensure the backends implement Interface
var (
	_ Interface = (*Store)(nil)
	_ Interface = (*FileStore)(nil)
	_ Interface = (*MemoryStore)(nil)
	_ Interface = (*readOnly)(nil)
)

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}
