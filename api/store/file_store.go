/* file_store.go
 * Contains the JSON file backed store. Every file is a single object keyed by roster key, tournament id or player
 * id. Files are read in full on each load and rewritten in full on each save through a temp file and rename
 */

package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"entrylist-tracker/api/shared"
	"entrylist-tracker/logging"

	"github.com/cockroachdb/errors"
)

const (
	RosterFile    = "roster_state.json"
	ChangeLogFile = "change_log.json"
	ReportsFile   = "reports.json"
	PlayersFile   = "players.json"
)

type FileStore struct {
	dir    string
	logger *logging.Logger
	mu     sync.Mutex
}

// NewFileStore creates the state directory if needed and returns a store writing into it
func NewFileStore(dir string, logger *logging.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("state directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating state directory %s", dir)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FileStore{dir: dir, logger: logger.With("component", "file_store")}, nil
}

func (f *FileStore) LoadRoster(_ context.Context, key string) ([]string, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	rosters, err := readState[[]string](f, RosterFile)
	if err != nil {
		return nil, false, err
	}
	names, ok := rosters[key]
	if !ok {
		return nil, false, nil
	}
	if names == nil {
		names = []string{}
	}
	return names, true, nil
}

func (f *FileStore) SaveRoster(_ context.Context, key string, names []string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	rosters, err := readState[[]string](f, RosterFile)
	if err != nil {
		return err
	}
	if names == nil {
		names = []string{}
	}
	rosters[key] = names
	return f.write(RosterFile, rosters)
}

func (f *FileStore) LoadChangeLog(_ context.Context, tournamentID string) ([]shared.ChangeEvent, error) {
	if err := checkKey(tournamentID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	logs, err := readState[[]shared.ChangeEvent](f, ChangeLogFile)
	if err != nil {
		return nil, err
	}
	events := logs[tournamentID]
	if events == nil {
		events = []shared.ChangeEvent{}
	}
	return events, nil
}

func (f *FileStore) SaveChangeLog(_ context.Context, tournamentID string, events []shared.ChangeEvent) error {
	if err := checkKey(tournamentID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	logs, err := readState[[]shared.ChangeEvent](f, ChangeLogFile)
	if err != nil {
		return err
	}
	if events == nil {
		events = []shared.ChangeEvent{}
	}
	logs[tournamentID] = events
	return f.write(ChangeLogFile, logs)
}

func (f *FileStore) LoadReport(_ context.Context, tournamentID string) (TournamentReport, bool, error) {
	if err := checkKey(tournamentID); err != nil {
		return TournamentReport{}, false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	reports, err := readState[TournamentReport](f, ReportsFile)
	if err != nil {
		return TournamentReport{}, false, err
	}
	report, ok := reports[tournamentID]
	return report, ok, nil
}

func (f *FileStore) SaveReport(_ context.Context, report TournamentReport) error {
	if err := checkKey(report.TournamentID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	reports, err := readState[TournamentReport](f, ReportsFile)
	if err != nil {
		return err
	}
	report.Stale = false
	report.ChangeLog = nil
	reports[report.TournamentID] = report
	return f.write(ReportsFile, reports)
}

func (f *FileStore) LoadPlayers(_ context.Context) (map[string]shared.PlayerRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return readState[shared.PlayerRecord](f, PlayersFile)
}

func (f *FileStore) SavePlayers(_ context.Context, players map[string]shared.PlayerRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	merged, err := readState[shared.PlayerRecord](f, PlayersFile)
	if err != nil {
		return err
	}
	for id, p := range players {
		merged[id] = p
	}
	return f.write(PlayersFile, merged)
}

func (f *FileStore) Close(context.Context) error {
	return nil
}

// readState decodes a state file. A missing or empty file is an empty map. A file that cannot be decoded is
// logged and also treated as empty
func readState[T any](f *FileStore, name string) (map[string]T, error) {
	path := filepath.Join(f.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]T{}, nil
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if len(data) == 0 {
		return map[string]T{}, nil
	}

	var out map[string]T
	if err := json.Unmarshal(data, &out); err != nil || out == nil {
		f.logger.Warn("state file is corrupt, treating as empty", "path", path, "error", err)
		return map[string]T{}, nil
	}
	return out, nil
}

func (f *FileStore) write(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding %s", name)
	}

	tmp, err := os.CreateTemp(f.dir, name+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "creating temp file for %s", name)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "writing %s", name)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", name)
	}
	if err := os.Rename(tmpName, filepath.Join(f.dir, name)); err != nil {
		return errors.Wrapf(err, "replacing %s", name)
	}
	return nil
}
