/* readonly.go
 * Contains the wrapper used for dry runs. Reads go to the wrapped store, writes are logged and dropped
 */

package store

import (
	"context"

	"entrylist-tracker/api/shared"
	"entrylist-tracker/logging"
)

type readOnly struct {
	inner  Interface
	logger *logging.Logger
}

// NewReadOnly wraps a store so that nothing is persisted
func NewReadOnly(inner Interface, logger *logging.Logger) Interface {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &readOnly{inner: inner, logger: logger.With("component", "read_only_store")}
}

func (r *readOnly) LoadRoster(ctx context.Context, key string) ([]string, bool, error) {
	return r.inner.LoadRoster(ctx, key)
}

func (r *readOnly) SaveRoster(_ context.Context, key string, names []string) error {
	r.logger.Debug("dropping roster write", "key", key, "players", len(names))
	return checkKey(key)
}

func (r *readOnly) LoadChangeLog(ctx context.Context, tournamentID string) ([]shared.ChangeEvent, error) {
	return r.inner.LoadChangeLog(ctx, tournamentID)
}

func (r *readOnly) SaveChangeLog(_ context.Context, tournamentID string, events []shared.ChangeEvent) error {
	r.logger.Debug("dropping change log write", "tournament", tournamentID, "events", len(events))
	return checkKey(tournamentID)
}

func (r *readOnly) LoadReport(ctx context.Context, tournamentID string) (TournamentReport, bool, error) {
	return r.inner.LoadReport(ctx, tournamentID)
}

func (r *readOnly) SaveReport(_ context.Context, report TournamentReport) error {
	r.logger.Debug("dropping report write", "tournament", report.TournamentID)
	return checkKey(report.TournamentID)
}

func (r *readOnly) LoadPlayers(ctx context.Context) (map[string]shared.PlayerRecord, error) {
	return r.inner.LoadPlayers(ctx)
}

func (r *readOnly) SavePlayers(_ context.Context, players map[string]shared.PlayerRecord) error {
	r.logger.Debug("dropping player cache write", "players", len(players))
	return nil
}

func (r *readOnly) Close(ctx context.Context) error {
	return r.inner.Close(ctx)
}
