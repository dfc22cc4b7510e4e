/* metrics.go
 * Contains the Prometheus counters for a tracking run. The job is a short lived batch so the metrics are pushed
 * to a Pushgateway at the end of the run instead of being scraped
 */

package metrics

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "entrylist"

// Recorder holds the counters for one run. A nil Recorder is valid and records nothing
type Recorder struct {
	registry *prometheus.Registry

	tournaments      *prometheus.CounterVec
	rankingPages     prometheus.Counter
	rankingFailures  prometheus.Counter
	identityLookups  *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	changeEvents     *prometheus.CounterVec
	lastRunTimestamp prometheus.Gauge
}

// New creates a Recorder with its own registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		tournaments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tournaments_total",
			Help:      "Tournaments handled by outcome (fresh, stale, omitted).",
		}, []string{"outcome"}),
		rankingPages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_pages_total",
			Help:      "Ranking pages fetched successfully.",
		}),
		rankingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_page_failures_total",
			Help:      "Ranking page requests that ended pagination early.",
		}),
		identityLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identity_lookups_total",
			Help:      "Player identity resolutions by result (cached, fetched, failed).",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications produced by kind (available, change).",
		}, []string{"kind"}),
		changeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "change_events_total",
			Help:      "Roster change events recorded by draw.",
		}, []string{"draw"}),
		lastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
	r.registry.MustRegister(
		r.tournaments,
		r.rankingPages,
		r.rankingFailures,
		r.identityLookups,
		r.notifications,
		r.changeEvents,
		r.lastRunTimestamp,
	)
	return r
}

// Registry exposes the underlying registry, mainly for tests
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) Tournament(outcome string) {
	if r == nil {
		return
	}
	r.tournaments.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RankingPage() {
	if r == nil {
		return
	}
	r.rankingPages.Inc()
}

func (r *Recorder) RankingFailure() {
	if r == nil {
		return
	}
	r.rankingFailures.Inc()
}

func (r *Recorder) IdentityLookup(result string) {
	if r == nil {
		return
	}
	r.identityLookups.WithLabelValues(result).Inc()
}

func (r *Recorder) Notification(kind string) {
	if r == nil {
		return
	}
	r.notifications.WithLabelValues(kind).Inc()
}

func (r *Recorder) ChangeEvent(draw string) {
	if r == nil {
		return
	}
	r.changeEvents.WithLabelValues(draw).Inc()
}

// Finish stamps the end of the run
func (r *Recorder) Finish() {
	if r == nil {
		return
	}
	r.lastRunTimestamp.SetToCurrentTime()
}

// Push sends every collected metric to the Pushgateway at url under the given job name
func (r *Recorder) Push(ctx context.Context, url string, job string) error {
	if r == nil || url == "" {
		return nil
	}
	err := push.New(url, job).Gatherer(r.registry).PushContext(ctx)
	if err != nil {
		return errors.Wrapf(err, "pushing metrics to %s", url)
	}
	return nil
}
