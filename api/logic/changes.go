/* changes.go
 * Contains the change tracking logic. Each run compares the names on an entry list against the names persisted for
 * the same roster key, records additions and removals in the tournament's change log and returns the notifications
 * for the run digest
 */

package logic

import (
	"context"
	"fmt"
	"html"
	"strings"

	"entrylist-tracker/api/shared"
	"entrylist-tracker/api/store"
	"entrylist-tracker/logging"
	"entrylist-tracker/metrics"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
)

// Tracker diffs rosters against persisted state. RunDate stamps every event recorded during the run
type Tracker struct {
	Store   store.Interface
	RunDate string
	Logger  *logging.Logger
	Metrics *metrics.Recorder
}

func NewTracker(s store.Interface, runDate string, logger *logging.Logger, rec *metrics.Recorder) *Tracker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tracker{Store: s, RunDate: runDate, Logger: logger, Metrics: rec}
}

// Track compares the current names of one draw with the last persisted names and updates state
// Preconditions: Receives the tournament id, the draw, the names observed this run, the name used in messages and
// whether notifications should be suppressed because the names are known to be stale
// Postconditions: Change events are prepended to the tournament's change log and saved before returning. Roster
// state is replaced when names is non-empty or nothing was stored before. Returns the availability notification,
// if any, followed by the plain text of each new event. Store errors are returned and nothing after the failing
// step is written
func (t *Tracker) Track(ctx context.Context, tournamentID string, draw shared.DrawType, names []string, displayName string, suppress bool) ([]string, error) {
	key := shared.RosterKey(tournamentID, draw)
	log := t.Logger.With("key", key)

	prevNames, existed, err := t.Store.LoadRoster(ctx, key)
	if err != nil {
		return nil, errors.Wrapf(err, "loading roster state for %s", key)
	}

	prev := nameSet(prevNames)
	curr := nameSet(names)

	var notifications []string
	var events []shared.ChangeEvent

	if len(prev) == 0 && len(curr) > 0 && !suppress {
		notifications = append(notifications, fmt.Sprintf("%s: %s entry list is now available (%d players)", displayName, draw.Label(), len(curr)))
		t.Metrics.Notification("available")
		log.Info("entry list available", "players", len(curr))
	} else if !suppress {
		for _, name := range uniqueNames(prevNames) {
			if _, ok := curr[strings.ToUpper(name)]; !ok {
				events = append(events, t.event(draw, name, false))
			}
		}
		for _, name := range uniqueNames(names) {
			if _, ok := prev[strings.ToUpper(name)]; !ok {
				events = append(events, t.event(draw, name, true))
			}
		}
	}

	if len(events) > 0 {
		existing, err := t.Store.LoadChangeLog(ctx, tournamentID)
		if err != nil {
			return nil, errors.Wrapf(err, "loading change log for %s", tournamentID)
		}

		// Most recent first, keeping the order the events were recorded in
		updated := make([]shared.ChangeEvent, 0, len(events)+len(existing))
		updated = append(updated, events...)
		updated = append(updated, existing...)
		if err := t.Store.SaveChangeLog(ctx, tournamentID, updated); err != nil {
			return nil, errors.Wrapf(err, "saving change log for %s", tournamentID)
		}

		for _, e := range events {
			notifications = append(notifications, fmt.Sprintf("%s: %s", displayName, StripMarkup(e.Description)))
			t.Metrics.ChangeEvent(string(draw))
			t.Metrics.Notification("change")
		}
		log.Info("recorded roster changes", "events", len(events))
	}

	if len(names) > 0 || !existed {
		if err := t.Store.SaveRoster(ctx, key, names); err != nil {
			return nil, errors.Wrapf(err, "saving roster state for %s", key)
		}
	} else if len(prevNames) > 0 {
		log.Warn("empty roster observed, keeping previous state", "previous", len(prevNames))
	}

	return notifications, nil
}

func (t *Tracker) event(draw shared.DrawType, name string, added bool) shared.ChangeEvent {
	class, sign, verb := "removed", "-", "removed"
	if added {
		class, sign, verb = "added", "+", "added"
	}
	return shared.ChangeEvent{
		Date:        t.RunDate,
		Description: fmt.Sprintf(`<span class="%s">%s</span> <b>%s</b> %s (%s)`, class, sign, html.EscapeString(name), verb, draw.Label()),
		Draw:        draw,
	}
}

// StripMarkup returns the text content of an HTML fragment
func StripMarkup(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.TrimSpace(doc.Text())
}

// nameSet returns the uppercased names as a set
func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		set[strings.ToUpper(n)] = struct{}{}
	}
	return set
}

// uniqueNames returns the non-blank names in order, dropping case-insensitive repeats
func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		upper := strings.ToUpper(n)
		if _, ok := seen[upper]; ok {
			continue
		}
		seen[upper] = struct{}{}
		out = append(out, n)
	}
	return out
}
