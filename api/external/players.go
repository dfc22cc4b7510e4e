/* players.go
 * Contains the player identity resolver. Ids found on identity based entry lists are turned into a canonical
 * name and country with one lookup per id, cached for the run and persisted between runs
 */

package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"entrylist-tracker/api/shared"
	"entrylist-tracker/logging"
	"entrylist-tracker/metrics"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

// PlayerCache is the durable side of the identity cache
type PlayerCache interface {
	LoadPlayers(ctx context.Context) (map[string]shared.PlayerRecord, error)
	SavePlayers(ctx context.Context, players map[string]shared.PlayerRecord) error
}

// IdentityResolver maps a player id to a record
type IdentityResolver interface {
	Resolve(ctx context.Context, id string) (shared.PlayerRecord, bool)
}

type PlayerResolver struct {
	// URLFormat holds a single %s for the player id
	URLFormat string
	UserAgent string
	HTTP      *http.Client
	Limiter   *rate.Limiter
	Logger    *logging.Logger
	Metrics   *metrics.Recorder

	mu      sync.Mutex
	known   map[string]shared.PlayerRecord
	failed  map[string]struct{}
	fetched map[string]shared.PlayerRecord
}

var _ IdentityResolver = (*PlayerResolver)(nil)

func NewPlayerResolver(urlFormat string, timeout time.Duration, delay time.Duration, userAgent string, logger *logging.Logger, rec *metrics.Recorder) *PlayerResolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PlayerResolver{
		URLFormat: urlFormat,
		UserAgent: userAgent,
		HTTP:      NewHTTPClient(timeout),
		Limiter:   NewLimiter(delay),
		Logger:    logger.With("component", "players"),
		Metrics:   rec,
		known:     map[string]shared.PlayerRecord{},
		failed:    map[string]struct{}{},
		fetched:   map[string]shared.PlayerRecord{},
	}
}

// Load seeds the run cache with identities resolved in earlier runs. A failure is logged and the run continues
// with an empty cache
func (r *PlayerResolver) Load(ctx context.Context, cache PlayerCache) {
	players, err := cache.LoadPlayers(ctx)
	if err != nil {
		r.Logger.Warn("could not load player cache", "error", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range players {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		r.known[id] = p
	}
	r.Logger.Debug("loaded player cache", "players", len(players))
}

// Flush persists the identities fetched during this run
func (r *PlayerResolver) Flush(ctx context.Context, cache PlayerCache) error {
	r.mu.Lock()
	fetched := make(map[string]shared.PlayerRecord, len(r.fetched))
	for id, p := range r.fetched {
		fetched[id] = p
	}
	r.mu.Unlock()

	if len(fetched) == 0 {
		return nil
	}
	if err := cache.SavePlayers(ctx, fetched); err != nil {
		return errors.Wrap(err, "saving player cache")
	}
	return nil
}

// Resolve returns the canonical record for a player id
// Preconditions: Receives context and the id found on the entry list
// Postconditions: Returns the record and true, or false when the lookup failed or returned no name. Each id is
// looked up remotely at most once per run, failures included
func (r *PlayerResolver) Resolve(ctx context.Context, id string) (shared.PlayerRecord, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return shared.PlayerRecord{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.known[id]; ok {
		r.Metrics.IdentityLookup("cached")
		return p, true
	}
	if _, ok := r.failed[id]; ok {
		r.Metrics.IdentityLookup("cached")
		return shared.PlayerRecord{}, false
	}

	p, err := r.lookup(ctx, id)
	if err != nil {
		r.Logger.Warn("player lookup failed", "player_id", id, "error", err)
		r.Metrics.IdentityLookup("failed")
		r.failed[id] = struct{}{}
		return shared.PlayerRecord{}, false
	}

	r.Metrics.IdentityLookup("fetched")
	r.known[id] = p
	r.fetched[id] = p
	return p, true
}

func (r *PlayerResolver) lookup(ctx context.Context, id string) (shared.PlayerRecord, error) {
	if err := r.Limiter.Wait(ctx); err != nil {
		return shared.PlayerRecord{}, err
	}

	body, err := fetchBody(ctx, r.HTTP, fmt.Sprintf(r.URLFormat, id), r.UserAgent)
	if err != nil {
		return shared.PlayerRecord{}, err
	}

	var resp playerMatchesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return shared.PlayerRecord{}, errors.Wrap(err, "decoding player response")
	}

	record, ok := recordFromResponse(id, resp)
	if !ok {
		return shared.PlayerRecord{}, errors.Newf("no name for player %s", id)
	}
	return record, nil
}

// recordFromResponse prefers the player object and falls back to whichever side of the latest match has the id
func recordFromResponse(id string, resp playerMatchesResponse) (shared.PlayerRecord, bool) {
	if name := resp.Player.name(); name != "" {
		return shared.PlayerRecord{Name: name, Country: strings.TrimSpace(resp.Player.CountryCode)}, true
	}

	for _, m := range resp.Matches {
		switch id {
		case m.PlayerIDA.String():
			if name := joinName(m.PlayerNameFirstA, m.PlayerNameLastA); name != "" {
				return shared.PlayerRecord{Name: name, Country: strings.TrimSpace(m.PlayerCountryA)}, true
			}
		case m.PlayerIDB.String():
			if name := joinName(m.PlayerNameFirstB, m.PlayerNameLastB); name != "" {
				return shared.PlayerRecord{Name: name, Country: strings.TrimSpace(m.PlayerCountryB)}, true
			}
		}
	}
	return shared.PlayerRecord{}, false
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
