package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/wonny/leapscope/internal/alerts"
	"github.com/wonny/leapscope/internal/analysis"
	"github.com/wonny/leapscope/internal/history"
	"github.com/wonny/leapscope/internal/portfolio"
	"github.com/wonny/leapscope/internal/providers"
	"github.com/wonny/leapscope/internal/providers/tradier"
	"github.com/wonny/leapscope/internal/providers/yahoo"
	"github.com/wonny/leapscope/internal/scanner"
	"github.com/wonny/leapscope/internal/strategy"
	"github.com/wonny/leapscope/pkg/config"
	"github.com/wonny/leapscope/pkg/database"
	"github.com/wonny/leapscope/pkg/httputil"
	"github.com/wonny/leapscope/pkg/logger"
	"github.com/wonny/leapscope/pkg/redis"
)

// app bundles the wired components a command needs. Database and redis
// are optional; commands that require persistence call requireDB.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	strategy *strategy.Config

	db    *database.DB
	redis *redis.Client

	router *providers.Router
}

// newApp loads config and strategy, connects what is configured, and
// wires the provider router
func newApp() (*app, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	strategyPath := cfg.Scan.StrategyFile
	if strategyFile != "" {
		strategyPath = strategyFile
	}

	strat, _, err := strategy.Load(strategyPath)
	if err != nil {
		log.WithField("path", strategyPath).WithError(err).Warn("Strategy file not loaded, using defaults")
		strat = strategy.Default()
	}
	for _, warning := range strategy.Warn(strat) {
		log.WithField("code", warning.Code).Warn(warning.Message)
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		strategy: strat,
	}

	if cfg.Database.URL != "" {
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
	} else {
		log.Warn("DATABASE_URL not set, history and portfolio persistence disabled")
	}

	if cfg.Redis.Enabled {
		client, err := redis.New(cfg)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, provider caching disabled")
		} else {
			a.redis = client
		}
	}

	a.router = a.buildRouter()
	return a, nil
}

// Close releases connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

// requireDB fails fast for commands that need persistence
func (a *app) requireDB() error {
	if a.db == nil {
		return errors.New("this command requires DATABASE_URL to be set")
	}
	return nil
}

// buildRouter wires the provider fallback chains. Yahoo leads for
// history, fundamentals and earnings; Tradier leads for anything
// options-related and for live quotes when a token is configured.
func (a *app) buildRouter() *providers.Router {
	// Separate clients so Tradier pacing never throttles Yahoo calls
	yahooHTTP := httputil.New(a.cfg, a.log)
	tradierHTTP := httputil.New(a.cfg, a.log)
	if a.redis != nil && a.cfg.Tradier.RateLimitPerMinute > 0 {
		tradierHTTP = tradierHTTP.WithRateLimiter(
			redis.NewRateLimiter(a.redis, "leapscope"),
			redis.RateLimitConfig{
				Key:    "tradier",
				Limit:  a.cfg.Tradier.RateLimitPerMinute,
				Window: time.Minute,
			},
		)
	}

	yahooClient := yahoo.NewClient(a.cfg, yahooHTTP, a.log)
	tradierClient := tradier.NewClient(a.cfg, tradierHTTP, a.log)

	opts := []providers.RouterOption{
		providers.WithKnownETFs(a.strategy.Scan.KnownETFs),
	}
	if a.redis != nil {
		opts = append(opts, providers.WithCache(redis.NewCache(a.redis, "leapscope")))
	}

	router := providers.NewRouter(a.log, opts...)
	router.RegisterOHLCV(yahooClient, tradierClient)
	router.RegisterFundamentals(yahooClient)
	router.RegisterOptionsChain(tradierClient, yahooClient)
	router.RegisterEarnings(yahooClient, tradierClient)
	router.RegisterAssetType(yahooClient)
	router.RegisterQuote(tradierClient, yahooClient)
	router.RegisterOptionQuote(tradierClient)

	return router
}

// buildAlertManager wires alert persistence and the optional Kafka fan-out
func (a *app) buildAlertManager() *alerts.Manager {
	var notifiers []alerts.Notifier
	if a.cfg.Kafka.Enabled {
		notifiers = append(notifiers, alerts.NewKafkaNotifier(a.cfg.Kafka))
	}
	return alerts.NewManager(alerts.NewAlertRepository(a.db.Pool), a.log, notifiers...)
}

// buildTracker wires the tracked-signal outcome tracker
func (a *app) buildTracker() *history.Tracker {
	return history.NewTracker(history.NewSignalStore(a.db.Pool), a.router, a.strategy.Tracking, a.log)
}

// buildScanner wires the scan pipeline; history, tracking and alerting
// attach only when a database is connected
func (a *app) buildScanner() *scanner.Scanner {
	opts := []scanner.Option{
		scanner.WithConcurrency(a.cfg.Scan.Concurrency),
	}
	if a.db != nil {
		opts = append(opts,
			scanner.WithHistory(history.NewScanStore(a.db.Pool)),
			scanner.WithTracker(a.buildTracker()),
			scanner.WithAlerter(a.buildAlertManager()),
		)
	}
	return scanner.NewScanner(a.strategy, a.router, a.log, opts...)
}

// buildPortfolioManager wires position pricing and signal evaluation
func (a *app) buildPortfolioManager() *portfolio.Manager {
	ta := analysis.NewTechnicalAnalyzer(a.strategy.Technical, a.log)
	pricer := portfolio.NewPricer(a.router, ta, a.strategy.Portfolio, a.log)
	machine := portfolio.NewSignalMachine(a.strategy.Portfolio, a.strategy.Decision.EarningsBlockDays, a.router, ta, a.log)
	return portfolio.NewManager(portfolio.NewPositionRepository(a.db.Pool), pricer, machine, a.log)
}
