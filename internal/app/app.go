package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/riskibarqy/topps-now-tracker/external/mlbstats"
	"github.com/riskibarqy/topps-now-tracker/internal/config"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/tournament"
	"github.com/riskibarqy/topps-now-tracker/internal/infrastructure/browser"
	"github.com/riskibarqy/topps-now-tracker/internal/infrastructure/catalog"
	"github.com/riskibarqy/topps-now-tracker/internal/infrastructure/urlcheck"
	"github.com/riskibarqy/topps-now-tracker/internal/interfaces/httpapi"
	"github.com/riskibarqy/topps-now-tracker/internal/interfaces/scheduler"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/id"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/producturl"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/resilience"
	"github.com/riskibarqy/topps-now-tracker/internal/usecase"
)

// App holds the wired pipeline. The CLI builds one per invocation and the
// serve command keeps one for the life of the process.
type App struct {
	Config       config.Config
	Logger       *logging.Logger
	Pipeline     usecase.Pipeline
	TeamSync     *usecase.TeamSyncService
	Orchestrator *usecase.Orchestrator
	Capabilities usecase.CapabilitySet

	stores stores
}

// Options tweak wiring for a single invocation.
type Options struct {
	// DryRun is applied to every step of the daily list.
	DryRun bool
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	extractor := catalog.NewExtractor(logger.Named("catalog"))
	renderer := browser.NewRenderer(browser.Config{
		Bin:            cfg.BrowserBin,
		Headless:       cfg.BrowserHeadless,
		UserAgent:      cfg.BrowserUserAgent,
		PageTimeout:    cfg.BrowserPageTimeout,
		SettleDelay:    cfg.BrowserSettleDelay,
		ScrollDelay:    cfg.BrowserScrollDelay,
		ScrollAttempts: cfg.BrowserScrollAttempts,
		DebugDir:       cfg.BrowserDebugDir,
		CountListings:  catalog.CountListings,
	}, logger)
	checker := urlcheck.NewChecker(urlcheck.Config{
		Timeout:   cfg.URLCheckTimeout,
		UserAgent: cfg.BrowserUserAgent,
	}, logger.Named("urlcheck"))
	stats := mlbstats.NewClient(mlbstats.ClientConfig{
		BaseURL:    cfg.MLBStatsBaseURL,
		Timeout:    cfg.MLBStatsTimeout,
		MaxRetries: cfg.MLBStatsMaxRetries,
		CacheTTL:   cfg.MLBStatsCacheTTL,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.MLBStatsCircuitEnabled,
			FailureThreshold: cfg.MLBStatsCircuitFailureCount,
			OpenTimeout:      cfg.MLBStatsCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.MLBStatsCircuitHalfOpenMaxReq,
		},
	})

	tournamentCatalog, err := tournament.LoadCatalog()
	if err != nil {
		_ = st.close()
		return nil, fmt.Errorf("load tournament catalog: %w", err)
	}

	pipeline := usecase.Pipeline{
		Scrape: usecase.NewScrapeService(renderer, extractor, st.cards, st.players, st.teams, usecase.ScrapeConfig{
			ArchiveURL: cfg.ToppsArchiveURL,
		}, logger.Named("scrape")),
		ProductURLs:  usecase.NewProductURLService(st.cards, producturl.NewSynthesizer(cfg.ToppsProductBaseURL), checker, logger.Named("product-urls")),
		ReleaseDates: usecase.NewReleaseDateService(renderer, extractor, st.cards, logger.Named("release-dates")),
		GameLinks:    usecase.NewGameLinkService(st.cards, st.teams, stats, logger.Named("game-ids")),
		Resolver:     usecase.NewPlayerResolver(st.players, st.teams, st.cards, stats, logger.Named("resolve-players")),
		Stats:        usecase.NewStatsService(st.players, st.statLines, stats, logger.Named("stats")),
		Nationality:  usecase.NewNationalityService(st.players, stats, logger.Named("nationality")),
		Tournaments:  usecase.NewTournamentService(tournamentCatalog, st.tournaments, st.players, st.raw, stats, logger.Named("tournaments")),
	}

	capabilities := usecase.CapabilitySet{
		usecase.CapabilityBrowser:       renderer.Available,
		usecase.CapabilityStatsProvider: stats.Available,
		usecase.CapabilityURLValidator:  func() error { return nil },
	}

	orchestrator := usecase.NewOrchestrator(
		pipeline.DailySteps(opts.DryRun),
		capabilities,
		st.executions,
		id.NewUUIDGenerator(),
		usecase.OrchestratorConfig{StepDelay: cfg.PipelineStepDelay},
		logger.Named("orchestrator"),
	)

	return &App{
		Config:       cfg,
		Logger:       logger,
		Pipeline:     pipeline,
		TeamSync:     usecase.NewTeamSyncService(st.teams, stats, logger.Named("sync-teams")),
		Orchestrator: orchestrator,
		Capabilities: capabilities,
		stores:       st,
	}, nil
}

// NewScheduler builds the cron trigger for the daily list.
func (a *App) NewScheduler() (*scheduler.Scheduler, error) {
	return scheduler.New(a.Orchestrator, scheduler.Config{
		DailySpec:  a.Config.PipelineDailyCron,
		PurgeSpec:  a.Config.PipelinePurgeCron,
		Location:   a.Config.PipelineTimezone,
		Retention:  a.Config.PipelineHistoryRetention,
		LockPath:   a.Config.PipelineLockPath,
		RunTimeout: a.Config.PipelineRunTimeout,
	}, a.Logger.Named("scheduler"))
}

// NewHTTPServer serves the operational API. A nil dispatcher leaves the
// trigger route answering 503.
func (a *App) NewHTTPServer(dispatcher httpapi.Dispatcher) (*http.Server, error) {
	if a.Config.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	handler := httpapi.NewHandler(a.Orchestrator, dispatcher, a.Logger.Named("http"))
	router := httpapi.NewRouter(handler, a.Logger, a.Config.InternalJobToken)

	return &http.Server{
		Addr:         a.Config.HTTPAddr,
		Handler:      router,
		ReadTimeout:  a.Config.ReadTimeout,
		WriteTimeout: a.Config.WriteTimeout,
	}, nil
}

func (a *App) Close() error {
	if a == nil || a.stores.close == nil {
		return nil
	}
	if err := a.stores.close(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close stores: %w", err)
	}
	return nil
}
