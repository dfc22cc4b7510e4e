/* main.go
 * The "main" method for a tracker run. Loads configuration, processes every configured tournament's entry list,
 * writes report.json and digest.txt and optionally posts the digest to Discord
 * Usage: go run . -config=config.yaml [-only="doha,oeiras"] [-dry=true] [-notify]
 */

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "entrylist-tracker/api/api"
	"entrylist-tracker/api/external"
	"entrylist-tracker/api/store"
	"entrylist-tracker/bot"
	"entrylist-tracker/config"
	"entrylist-tracker/logging"
	"entrylist-tracker/metrics"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional, a scheduled run usually gets its environment directly
	envErr := godotenv.Load()

	//Flags
	configPtr := flag.String("config", "", "Path to the YAML config file. Defaults to $ENTRYLIST_CONFIG")
	onlyPtr := flag.String("only", "", "Comma separated tournament labels to process, e.g. \"doha,oeiras 1\"")
	dryPtr := flag.String("dry", "false", "Dry run: state is read but never written. Takes true or false as argument")
	notifyPtr := flag.Bool("notify", false, "Post the digest to the configured Discord channel")

	flag.Parse()

	dry, err := convertStrToBool(*dryPtr)
	if err != nil {
		log.Fatal("Invalid \"dry\" flag. Should be true or false")
	}
	filters, err := parseLabelFilter(*onlyPtr)
	if err != nil {
		log.Fatalf("invalid -only flag: %v", err)
	}

	cfg, err := config.Load(*configPtr)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()
	if envErr != nil {
		logger.Debug("no .env file loaded", "error", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, filters, dry, *notifyPtr, logger); err != nil {
		logger.Error("run failed", "error", err)
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
}

// run wires the stores and clients and processes the selected tournaments
// Preconditions: Receives a validated config, the label filters and the run flags
// Postconditions: Outputs are written to the output directory. Returns an error only when the run could not start
// or its outputs could not be written
func run(ctx context.Context, cfg *config.Config, filters []string, dry bool, notify bool, logger *logging.Logger) error {
	runID := uuid.New().String()
	runDate := cfg.RunDay(time.Now())
	logger = logger.With("run_id", runID)

	fallback, err := time.Parse("2006-01-02", cfg.FallbackStartDate)
	if err != nil {
		return errors.Wrap(err, "parsing fallback start date")
	}

	tournaments := selectTournaments(cfg.Tournaments, filters)
	if len(tournaments) == 0 {
		return errors.New("no tournaments selected")
	}
	logger.Info("starting run", "run_date", runDate, "tournaments", len(tournaments), "dry", dry)

	s, err := openStore(ctx, cfg.State, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(context.Background()); err != nil {
			logger.Warn("closing store", "error", err)
		}
	}()
	if dry {
		s = store.NewReadOnly(s, logger)
	}

	rec := metrics.New()
	rankings := external.NewRankingClient(cfg.Ranking.URL, cfg.Ranking.PageSize, cfg.Ranking.PageDelay, cfg.Ranking.Timeout, cfg.Ranking.UserAgent, logger, rec)
	players := external.NewPlayerResolver(cfg.Players.URL, cfg.Players.Timeout, cfg.Players.Delay, cfg.Ranking.UserAgent, logger, rec)
	docs := external.NewDocumentFetcher(cfg.Documents.Timeout, cfg.Ranking.UserAgent)

	engine, err := api.NewAPI(s, docs, rankings, players, api.Options{
		RunDate:       runDate,
		FallbackStart: fallback,
		Overrides:     cfg.NormalizedOverrides(),
		Highlight:     cfg.HighlightCountries,
	}, logger, rec)
	if err != nil {
		return errors.Wrap(err, "initialising api")
	}

	result := engine.Run(ctx, tournaments)
	result.RunID = runID

	if err := api.WriteOutputs(cfg.Output.Dir, result); err != nil {
		return err
	}
	logger.Info("outputs written", "dir", cfg.Output.Dir)

	if notify && !dry {
		sendDigest(cfg.Discord, result.Digest(), logger)
	}

	rec.Finish()
	pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rec.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
		logger.Warn("could not push metrics", "error", err)
	}
	return nil
}

// openStore creates the configured state backend
func openStore(ctx context.Context, cfg config.StateConfig, logger *logging.Logger) (store.Interface, error) {
	switch cfg.Backend {
	case "mongo":
		s, err := store.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, errors.Wrap(err, "connecting to mongo")
		}
		return s, nil
	default:
		s, err := store.NewFileStore(cfg.Dir, logger)
		if err != nil {
			return nil, errors.Wrap(err, "opening state directory")
		}
		return s, nil
	}
}

// sendDigest posts the digest to Discord. A failure is logged, the run's outputs are already written
func sendDigest(cfg config.DiscordConfig, digest string, logger *logging.Logger) {
	if digest == "" {
		logger.Info("no changes, nothing to send")
		return
	}
	notifier, err := bot.NewNotifier(cfg.Token, cfg.ChannelID, logger)
	if err != nil {
		logger.Warn("discord is not configured", "error", err)
		return
	}
	if err := notifier.Send(digest); err != nil {
		logger.Warn("could not send digest", "error", err)
	}
}
