/* memory_store.go
 * Contains an in-memory store used by tests and by callers that want a throwaway run. Errors can be injected per
 * operation to exercise failure handling
 */

package store

import (
	"context"
	"sync"

	"entrylist-tracker/api/shared"
)

type MemoryStore struct {
	mu         sync.Mutex
	Rosters    map[string][]string
	ChangeLogs map[string][]shared.ChangeEvent
	Reports    map[string]TournamentReport
	Players    map[string]shared.PlayerRecord

	// Injected errors, returned by the matching operation when set
	LoadRosterErr    error
	SaveRosterErr    error
	LoadChangeLogErr error
	SaveChangeLogErr error
	LoadReportErr    error
	SaveReportErr    error
	LoadPlayersErr   error
	SavePlayersErr   error

	// SaveCount counts successful writes of any kind
	SaveCount int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Rosters:    map[string][]string{},
		ChangeLogs: map[string][]shared.ChangeEvent{},
		Reports:    map[string]TournamentReport{},
		Players:    map[string]shared.PlayerRecord{},
	}
}

func (m *MemoryStore) LoadRoster(_ context.Context, key string) ([]string, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LoadRosterErr != nil {
		return nil, false, m.LoadRosterErr
	}
	names, ok := m.Rosters[key]
	if !ok {
		return nil, false, nil
	}
	return append([]string{}, names...), true, nil
}

func (m *MemoryStore) SaveRoster(_ context.Context, key string, names []string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveRosterErr != nil {
		return m.SaveRosterErr
	}
	m.Rosters[key] = append([]string{}, names...)
	m.SaveCount++
	return nil
}

func (m *MemoryStore) LoadChangeLog(_ context.Context, tournamentID string) ([]shared.ChangeEvent, error) {
	if err := checkKey(tournamentID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LoadChangeLogErr != nil {
		return nil, m.LoadChangeLogErr
	}
	return append([]shared.ChangeEvent{}, m.ChangeLogs[tournamentID]...), nil
}

func (m *MemoryStore) SaveChangeLog(_ context.Context, tournamentID string, events []shared.ChangeEvent) error {
	if err := checkKey(tournamentID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveChangeLogErr != nil {
		return m.SaveChangeLogErr
	}
	m.ChangeLogs[tournamentID] = append([]shared.ChangeEvent{}, events...)
	m.SaveCount++
	return nil
}

func (m *MemoryStore) LoadReport(_ context.Context, tournamentID string) (TournamentReport, bool, error) {
	if err := checkKey(tournamentID); err != nil {
		return TournamentReport{}, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LoadReportErr != nil {
		return TournamentReport{}, false, m.LoadReportErr
	}
	report, ok := m.Reports[tournamentID]
	return report, ok, nil
}

func (m *MemoryStore) SaveReport(_ context.Context, report TournamentReport) error {
	if err := checkKey(report.TournamentID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveReportErr != nil {
		return m.SaveReportErr
	}
	report.Stale = false
	report.ChangeLog = nil
	m.Reports[report.TournamentID] = report
	m.SaveCount++
	return nil
}

func (m *MemoryStore) LoadPlayers(context.Context) (map[string]shared.PlayerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LoadPlayersErr != nil {
		return nil, m.LoadPlayersErr
	}
	out := make(map[string]shared.PlayerRecord, len(m.Players))
	for id, p := range m.Players {
		out[id] = p
	}
	return out, nil
}

func (m *MemoryStore) SavePlayers(_ context.Context, players map[string]shared.PlayerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SavePlayersErr != nil {
		return m.SavePlayersErr
	}
	for id, p := range players {
		m.Players[id] = p
	}
	m.SaveCount++
	return nil
}

func (m *MemoryStore) Close(context.Context) error {
	return nil
}
