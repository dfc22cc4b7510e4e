/* rankings.go
 * Contains the paginated ranking fetcher and the per run cache of ranking snapshots keyed by date
 */

package external

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"entrylist-tracker/api/shared"
	"entrylist-tracker/logging"
	"entrylist-tracker/metrics"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

// RankingFetcher returns the complete ranking list published on a date
type RankingFetcher interface {
	FetchRankings(ctx context.Context, date time.Time) []shared.RankingEntry
}

type RankingClient struct {
	BaseURL   string
	PageSize  int
	UserAgent string
	HTTP      *http.Client
	Limiter   *rate.Limiter
	Logger    *logging.Logger
	Metrics   *metrics.Recorder
}

var _ RankingFetcher = (*RankingClient)(nil)

func NewRankingClient(baseURL string, pageSize int, pageDelay time.Duration, timeout time.Duration, userAgent string, logger *logging.Logger, rec *metrics.Recorder) *RankingClient {
	if pageSize <= 0 {
		pageSize = 100
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &RankingClient{
		BaseURL:   baseURL,
		PageSize:  pageSize,
		UserAgent: userAgent,
		HTTP:      NewHTTPClient(timeout),
		Limiter:   NewLimiter(pageDelay),
		Logger:    logger.With("component", "rankings"),
		Metrics:   rec,
	}
}

// FetchRankings retrieves every page of the singles ranking published on date
// Preconditions: Receives context and the snapshot date
// Postconditions: Returns the rows in ranking order, deduplicated by player name with the first occurrence kept.
// Pages are requested from 0 until an empty page. Any failure ends pagination and the rows gathered so far are
// returned, so the result may be partial or empty but never an error
func (c *RankingClient) FetchRankings(ctx context.Context, date time.Time) []shared.RankingEntry {
	dateStr := date.Format(shared.DateLayout)
	log := c.Logger.With("date", dateStr)

	entries := []shared.RankingEntry{}
	seen := map[string]struct{}{}

	for page := 0; ; page++ {
		if err := c.Limiter.Wait(ctx); err != nil {
			log.Warn("ranking fetch interrupted", "page", page, "error", err)
			c.Metrics.RankingFailure()
			break
		}

		items, err := c.fetchPage(ctx, dateStr, page)
		if err != nil {
			log.Warn("ranking page failed, keeping partial result", "page", page, "rows", len(entries), "error", err)
			c.Metrics.RankingFailure()
			break
		}
		if len(items) == 0 {
			break
		}
		c.Metrics.RankingPage()

		for _, item := range items {
			name := strings.TrimSpace(item.Player.FullName)
			if name == "" {
				continue
			}
			key := strings.ToUpper(name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			entries = append(entries, shared.RankingEntry{
				Rank:    item.rank(),
				Player:  name,
				Country: strings.TrimSpace(item.Player.CountryCode),
			})
		}
	}

	log.Debug("fetched rankings", "rows", len(entries))
	return entries
}

func (c *RankingClient) fetchPage(ctx context.Context, date string, page int) ([]rankingItem, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid ranking url %q", c.BaseURL)
	}

	params := u.Query()
	params.Set("metric", "SINGLES")
	params.Set("type", "rankSingles")
	params.Set("sort", "asc")
	params.Set("at", date)
	params.Set("pageSize", strconv.Itoa(c.PageSize))
	params.Set("page", strconv.Itoa(page))
	u.RawQuery = params.Encode()

	body, err := fetchBody(ctx, c.HTTP, u.String(), c.UserAgent)
	if err != nil {
		return nil, err
	}

	items, err := decodeRankingPage(body)
	if err != nil {
		return nil, errors.Wrap(err, "decoding ranking page")
	}
	return items, nil
}

// RankingCache memoises snapshots for the length of a run so tournaments sharing a date fetch it once
type RankingCache struct {
	fetcher RankingFetcher
	mu      sync.Mutex
	byDate  map[string][]shared.RankingEntry
}

func NewRankingCache(fetcher RankingFetcher) *RankingCache {
	return &RankingCache{fetcher: fetcher, byDate: map[string][]shared.RankingEntry{}}
}

// Get returns the snapshot for date, fetching it on first use. Empty results are not cached so a later
// tournament may retry a date whose first fetch failed outright
func (c *RankingCache) Get(ctx context.Context, date time.Time) []shared.RankingEntry {
	key := date.Format(shared.DateLayout)

	c.mu.Lock()
	defer c.mu.Unlock()

	if entries, ok := c.byDate[key]; ok {
		return entries
	}
	entries := c.fetcher.FetchRankings(ctx, date)
	if len(entries) > 0 {
		c.byDate[key] = entries
	}
	return entries
}

// FetchRankings lets the cache stand in for the fetcher it wraps
func (c *RankingCache) FetchRankings(ctx context.Context, date time.Time) []shared.RankingEntry {
	return c.Get(ctx, date)
}
