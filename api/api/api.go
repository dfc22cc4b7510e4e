/* api.go
 * This file contains the public methods for running the tracker. A tournament is processed by fetching its page,
 * extracting both entry lists, resolving players, ranking them against the right snapshot and diffing them against
 * stored state. Run processes a list of tournaments in order and falls back to the last good report for a
 * tournament whose page could not be fetched
 */

package api

import (
	"context"
	"strings"
	"time"

	"entrylist-tracker/api/external"
	"entrylist-tracker/api/logic"
	"entrylist-tracker/api/shared"
	"entrylist-tracker/api/store"
	"entrylist-tracker/logging"
	"entrylist-tracker/metrics"

	"github.com/cockroachdb/errors"
)

// ErrDocumentUnavailable marks a tournament whose page could not be fetched
var ErrDocumentUnavailable = errors.New("tournament page unavailable")

// API provides methods for running the entry list tracker
type API struct {
	Store     store.Interface
	Documents external.DocumentFetcher
	Rankings  external.RankingFetcher
	Players   external.IdentityResolver
	Tracker   *logic.Tracker

	Options       logic.ProcessOptions
	FallbackStart time.Time
	RunDate       string

	Logger  *logging.Logger
	Metrics *metrics.Recorder
}

// Options holds the per run settings for NewAPI
type Options struct {
	RunDate       string
	FallbackStart time.Time
	Overrides     map[string]string
	Highlight     []string
}

// playerCache is implemented by resolvers that persist identities between runs
type playerCache interface {
	Load(ctx context.Context, cache external.PlayerCache)
	Flush(ctx context.Context, cache external.PlayerCache) error
}

// NewAPI creates a new API instance. Rankings are wrapped in a per run cache
func NewAPI(s store.Interface, docs external.DocumentFetcher, rankings external.RankingFetcher, players external.IdentityResolver, opts Options, logger *logging.Logger, rec *metrics.Recorder) (*API, error) {
	if s == nil || docs == nil || rankings == nil || players == nil {
		return nil, errors.New("store, documents, rankings and players are required")
	}
	if opts.RunDate == "" {
		return nil, errors.New("run date is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if _, ok := rankings.(*external.RankingCache); !ok {
		rankings = external.NewRankingCache(rankings)
	}

	return &API{
		Store:         s,
		Documents:     docs,
		Rankings:      rankings,
		Players:       players,
		Tracker:       logic.NewTracker(s, opts.RunDate, logger, rec),
		Options:       logic.NewProcessOptions(opts.Overrides, opts.Highlight),
		FallbackStart: opts.FallbackStart,
		RunDate:       opts.RunDate,
		Logger:        logger,
		Metrics:       rec,
	}, nil
}

// Run processes every tournament in order
// Preconditions: Receives context and the tournaments in display order
// Postconditions: Returns one report per tournament that was fetched or had a stored report, and every
// notification produced. A tournament failing never stops the others
func (a *API) Run(ctx context.Context, tournaments []Tournament) RunResult {
	result := RunResult{RunDate: a.RunDate, Reports: []store.TournamentReport{}, Notifications: []string{}}

	if pc, ok := a.Players.(playerCache); ok {
		pc.Load(ctx, a.Store)
		defer func() {
			if err := pc.Flush(ctx, a.Store); err != nil {
				a.Logger.Warn("could not save player cache", "error", err)
			}
		}()
	}

	for _, t := range tournaments {
		if err := ctx.Err(); err != nil {
			a.Logger.Warn("run cancelled", "remaining_from", t.Label, "error", err)
			break
		}

		log := a.Logger.With("tournament", t.Label)
		report, notes, err := a.ProcessTournament(ctx, t)
		if err == nil {
			result.Reports = append(result.Reports, report)
			result.Notifications = append(result.Notifications, notes...)
			result.Fresh++
			a.Metrics.Tournament("fresh")
			continue
		}

		log.Warn("tournament failed", "error", err)
		prior, ok := a.priorReport(ctx, t)
		if !ok {
			log.Warn("no previous report, omitting tournament")
			result.Omitted = append(result.Omitted, t.Label)
			a.Metrics.Tournament("omitted")
			continue
		}
		log.Info("using previous report", "generated_on", prior.GeneratedOn)
		result.Reports = append(result.Reports, prior)
		result.Stale++
		a.Metrics.Tournament("stale")
	}

	a.Logger.Info("run finished", "fresh", result.Fresh, "stale", result.Stale, "omitted", len(result.Omitted), "notifications", len(result.Notifications))
	return result
}

// priorReport loads the last fresh report for a tournament and marks it stale. The group and url come from the
// current configuration
func (a *API) priorReport(ctx context.Context, t Tournament) (store.TournamentReport, bool) {
	tid := shared.TournamentID(t.Label)
	prior, ok, err := a.Store.LoadReport(ctx, tid)
	if err != nil {
		a.Logger.Warn("could not load previous report", "tournament", t.Label, "error", err)
		return store.TournamentReport{}, false
	}
	if !ok {
		return store.TournamentReport{}, false
	}

	prior.Stale = true
	prior.Group = t.Group
	prior.Label = t.Label
	prior.URL = t.URL
	if t.DisplayName != "" {
		prior.DisplayName = t.DisplayName
	}
	prior.ChangeLog = a.changeLog(ctx, tid)
	return prior, true
}

// ProcessTournament fetches and tracks one tournament
// Preconditions: Receives context and the tournament
// Postconditions: Returns the fresh report and the notifications for both draws, main draw first. The report is
// stored as the tournament's fallback. Returns an error wrapping ErrDocumentUnavailable when the page could not be
// fetched, in which case nothing is changed. Store failures while tracking are logged and do not fail the call
func (a *API) ProcessTournament(ctx context.Context, t Tournament) (store.TournamentReport, []string, error) {
	tid := shared.TournamentID(t.Label)
	log := a.Logger.With("tournament", t.Label)

	doc, err := a.Documents.FetchDocument(ctx, t.URL)
	if err != nil {
		return store.TournamentReport{}, nil, errors.Mark(errors.Wrapf(err, "fetching %s", t.URL), ErrDocumentUnavailable)
	}

	meta := external.ParseTournamentMeta(doc)
	displayName := t.DisplayName
	if displayName == "" {
		displayName = meta.Name
	}
	if displayName == "" {
		displayName = t.Label
	}

	start := logic.ParseStartDate(meta.StartDate, a.FallbackStart)
	dates := logic.ResolveRankingDates(start)
	log.Debug("resolved ranking dates",
		"raw_start", meta.StartDate,
		"start", start.Format(shared.DateLayout),
		"main_snapshot", dates.MainSnapshot.Format(shared.DateLayout),
		"qualifying_snapshot", dates.QualifyingSnapshot.Format(shared.DateLayout))

	mainEntries, qualEntries := external.ExtractEntries(doc)
	mainInputs := a.resolveEntries(ctx, mainEntries)
	qualInputs := a.resolveEntries(ctx, qualEntries)
	log.Debug("extracted entry lists", "main", len(mainInputs), "qualifying", len(qualInputs))

	// A name based page sometimes drops the main draw once qualifying is published. Show the last known main
	// draw instead, without treating it as a change
	substituted := false
	if len(mainInputs) == 0 && len(qualInputs) > 0 && external.NameBased(qualEntries) {
		prior, ok, err := a.Store.LoadRoster(ctx, shared.RosterKey(tid, shared.DrawMain))
		if err != nil {
			log.Warn("could not load main draw state", "error", err)
		} else if ok && len(prior) > 0 {
			for _, name := range prior {
				mainInputs = append(mainInputs, shared.PlayerInput{Name: name})
			}
			substituted = true
			log.Info("main draw missing, showing stored main draw", "players", len(prior))
		}
	}

	report := store.TournamentReport{
		TournamentID: tid,
		Group:        t.Group,
		Label:        t.Label,
		DisplayName:  displayName,
		URL:          t.URL,
		StartDate:    start.Format(shared.DateLayout),
		GeneratedOn:  a.RunDate,
	}

	var notifications []string
	var notes []string
	report.Main, notes = a.processDraw(ctx, tid, shared.DrawMain, mainInputs, dates, displayName, substituted)
	notifications = append(notifications, notes...)
	report.Qualifying, notes = a.processDraw(ctx, tid, shared.DrawQualifying, qualInputs, dates, displayName, false)
	notifications = append(notifications, notes...)

	report.ChangeLog = a.changeLog(ctx, tid)

	if err := a.Store.SaveReport(ctx, report); err != nil {
		log.Warn("could not save report", "error", err)
	}
	return report, notifications, nil
}

// processDraw ranks one draw and tracks its changes
func (a *API) processDraw(ctx context.Context, tid string, draw shared.DrawType, players []shared.PlayerInput, dates logic.RankingDates, displayName string, substituted bool) (store.DrawReport, []string) {
	log := a.Logger.With("tournament", tid, "draw", string(draw))
	snapshot := dates.Snapshot(draw)

	var rankings []shared.RankingEntry
	if len(players) > 0 {
		rankings = a.Rankings.FetchRankings(ctx, snapshot)
		if len(rankings) == 0 {
			log.Warn("no rankings for snapshot, players will show as unranked", "snapshot", snapshot.Format(shared.DateLayout))
		}
	}

	rows := logic.ProcessPlayers(players, rankings, a.Options)
	report := store.DrawReport{
		Draw:         draw,
		SnapshotDate: snapshot.Format(shared.DateLayout),
		Entries:      rows,
		Substituted:  substituted,
	}

	if len(rows) == 0 {
		prior, _, err := a.Store.LoadRoster(ctx, shared.RosterKey(tid, draw))
		if err == nil && len(prior) == 0 {
			report.ExpectedOn = dates.Available(draw).Format(shared.DateLayout)
		}
	}

	notes, err := a.Tracker.Track(ctx, tid, draw, logic.Names(rows), displayName, substituted)
	if err != nil {
		log.Error("change tracking failed", "error", err)
		return report, nil
	}
	return report, notes
}

// resolveEntries turns extracted entries into processor input. Identities that cannot be resolved fall back to
// the inline name when the page had one, otherwise they are dropped. Entries resolving to a name already seen,
// ignoring case, are dropped so the table lists each player change tracking sees once
func (a *API) resolveEntries(ctx context.Context, entries []shared.PlayerEntry) []shared.PlayerInput {
	inputs := make([]shared.PlayerInput, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	add := func(in shared.PlayerInput) {
		key := strings.ToUpper(logic.NormalizeName(in.Name))
		if key == "" {
			return
		}
		if _, dup := seen[key]; dup {
			a.Logger.Debug("dropping repeated player", "player", in.Name)
			return
		}
		seen[key] = struct{}{}
		inputs = append(inputs, in)
	}

	for _, e := range entries {
		if e.ID == "" {
			add(shared.PlayerInput{Name: e.Name})
			continue
		}
		if p, ok := a.Players.Resolve(ctx, e.ID); ok {
			add(shared.PlayerInput{Name: p.Name, Country: p.Country})
			continue
		}
		if e.Name != "" {
			add(shared.PlayerInput{Name: e.Name})
			continue
		}
		a.Logger.Debug("dropping unresolved player", "player_id", e.ID)
	}
	return inputs
}

func (a *API) changeLog(ctx context.Context, tid string) []shared.ChangeEvent {
	events, err := a.Store.LoadChangeLog(ctx, tid)
	if err != nil {
		a.Logger.Warn("could not load change log", "tournament", tid, "error", err)
		return []shared.ChangeEvent{}
	}
	return events
}
