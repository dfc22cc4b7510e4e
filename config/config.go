/* config.go
 * Contains the configuration structures for a run: remote sources, state backend, output location, manual
 * overrides and the tournaments to process
 */

package config

import (
	"strings"
	"time"
)

// Config contains process configuration
type Config struct {
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// RunDate stamps change events. Empty means today
	RunDate string `koanf:"run_date" validate:"omitempty,datetime=2006-01-02"`

	// FallbackStartDate is used when a tournament page has no usable start date
	FallbackStartDate string `koanf:"fallback_start_date" validate:"required,datetime=2006-01-02"`

	Ranking   RankingConfig   `koanf:"ranking"`
	Players   PlayersConfig   `koanf:"players"`
	Documents DocumentsConfig `koanf:"documents"`
	State     StateConfig     `koanf:"state"`
	Output    OutputConfig    `koanf:"output"`
	Discord   DiscordConfig   `koanf:"discord"`
	Metrics   MetricsConfig   `koanf:"metrics"`

	// Overrides maps an uppercased player name to the country code that should always be shown
	Overrides map[string]string `koanf:"overrides"`

	// HighlightCountries marks rows whose country is in this list
	HighlightCountries []string `koanf:"highlight_countries"`

	Tournaments []Tournament `koanf:"tournaments" validate:"dive"`
}

type RankingConfig struct {
	URL       string        `koanf:"url" validate:"required,url"`
	PageSize  int           `koanf:"page_size" validate:"min=1,max=500"`
	PageDelay time.Duration `koanf:"page_delay"`
	Timeout   time.Duration `koanf:"timeout"`
	UserAgent string        `koanf:"user_agent"`
}

type PlayersConfig struct {
	// URL is a format string with a single %s for the player id
	URL     string        `koanf:"url" validate:"required,contains=%s"`
	Timeout time.Duration `koanf:"timeout"`
	Delay   time.Duration `koanf:"delay"`
}

type DocumentsConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

type StateConfig struct {
	Backend  string `koanf:"backend" validate:"oneof=file mongo"`
	Dir      string `koanf:"dir" validate:"required_if=Backend file"`
	MongoURI string `koanf:"mongo_uri" validate:"required_if=Backend mongo"`
	MongoDB  string `koanf:"mongo_db" validate:"required_if=Backend mongo"`
}

type OutputConfig struct {
	Dir string `koanf:"dir" validate:"required"`
}

type DiscordConfig struct {
	Token     string `koanf:"token"`
	ChannelID string `koanf:"channel_id" validate:"required_with=Token"`
}

type MetricsConfig struct {
	PushgatewayURL string `koanf:"pushgateway_url" validate:"omitempty,url"`
	Job            string `koanf:"job"`
}

// Tournament is one entry list page to track
type Tournament struct {
	Group       string `koanf:"group"`
	Label       string `koanf:"label" validate:"required"`
	URL         string `koanf:"url" validate:"required,url"`
	DisplayName string `koanf:"display_name"`
}

// New returns a Config holding the defaults. Tournaments are left empty
func New() *Config {
	return &Config{
		LogLevel:          "info",
		FallbackStartDate: "2026-02-09",
		Ranking: RankingConfig{
			URL:       "https://api.wtatennis.com/tennis/players/ranked",
			PageSize:  100,
			PageDelay: 50 * time.Millisecond,
			Timeout:   10 * time.Second,
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		Players: PlayersConfig{
			URL:     "https://api.wtatennis.com/tennis/players/%s/matches/?page=0&pageSize=1&sort=desc",
			Timeout: 10 * time.Second,
			Delay:   50 * time.Millisecond,
		},
		Documents: DocumentsConfig{
			Timeout: 15 * time.Second,
		},
		State: StateConfig{
			Backend: "file",
			Dir:     "state",
		},
		Output: OutputConfig{
			Dir: "output",
		},
		Metrics: MetricsConfig{
			Job: "entrylist_tracker",
		},
		Overrides: map[string]string{},
	}
}

// NormalizedOverrides returns the overrides with uppercased, trimmed names so lookups by canonical name are
// case insensitive regardless of how the file was written
func (c *Config) NormalizedOverrides() map[string]string {
	out := make(map[string]string, len(c.Overrides))
	for name, country := range c.Overrides {
		out[strings.ToUpper(strings.TrimSpace(name))] = strings.ToUpper(strings.TrimSpace(country))
	}
	return out
}

// RunDay returns the date used to stamp change events
func (c *Config) RunDay(now time.Time) string {
	if c.RunDate != "" {
		return c.RunDate
	}
	return now.Format("2006-01-02")
}
