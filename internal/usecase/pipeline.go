package usecase

import (
	"context"
	"time"
)

// Step names, in daily order.
const (
	StepScrape            = "scrape"
	StepGenerateURLs      = "generate-urls"
	StepFixURLs           = "fix-urls"
	StepReleaseDates      = "release-dates"
	StepGameIDs           = "game-ids"
	StepResolvePlayers    = "resolve-players"
	StepStats             = "stats"
	StepNationality       = "nationality"
	StepTournaments       = "tournaments"
	StepTournamentRosters = "tournament-rosters"
)

// Pipeline bundles the services the daily list is built from.
type Pipeline struct {
	Scrape       *ScrapeService
	ProductURLs  *ProductURLService
	ReleaseDates *ReleaseDateService
	GameLinks    *GameLinkService
	Resolver     *PlayerResolver
	Stats        *StatsService
	Nationality  *NationalityService
	Tournaments  *TournamentService
}

// DailySteps returns the fixed daily list with its per-step options.
func (p Pipeline) DailySteps(dryRun bool) []Step {
	opts := func(limit int, delay time.Duration) StepOptions {
		return StepOptions{DryRun: dryRun, Limit: limit, Delay: delay}
	}

	return []Step{
		{
			Name:     StepScrape,
			Requires: p.Scrape.Capabilities(),
			Run: func(ctx context.Context) (StepReport, error) {
				return p.Scrape.Scrape(ctx, ScrapeInput{StepOptions: opts(0, 3*time.Second), MaxCards: 50})
			},
		},
		{
			Name: StepGenerateURLs,
			Run: func(ctx context.Context) (StepReport, error) {
				return p.ProductURLs.Generate(ctx, opts(0, 0))
			},
		},
		{
			Name:     StepFixURLs,
			Requires: p.ProductURLs.FixCapabilities(),
			Run: func(ctx context.Context) (StepReport, error) {
				return p.ProductURLs.Fix(ctx, FixURLsInput{StepOptions: opts(0, 500*time.Millisecond)})
			},
		},
		{
			Name:     StepReleaseDates,
			Requires: p.ReleaseDates.Capabilities(),
			Run: func(ctx context.Context) (StepReport, error) {
				return p.ReleaseDates.Scrape(ctx, opts(100, 5*time.Second))
			},
		},
		{
			Name:     StepGameIDs,
			Requires: p.GameLinks.Capabilities(),
			Run: func(ctx context.Context) (StepReport, error) {
				return p.GameLinks.Link(ctx, opts(0, 300*time.Millisecond))
			},
		},
		{
			Name:     StepResolvePlayers,
			Requires: p.Resolver.Capabilities(),
			Run: func(ctx context.Context) (StepReport, error) {
				return p.Resolver.Resolve(ctx, opts(0, 500*time.Millisecond))
			},
		},
		{
			Name:     StepStats,
			Requires: p.Stats.Capabilities(),
			Run: func(ctx context.Context) (StepReport, error) {
				return p.Stats.Fetch(ctx, StatsInput{StepOptions: opts(0, 500*time.Millisecond)})
			},
		},
		{
			Name:     StepNationality,
			Requires: p.Nationality.Capabilities(),
			Run: func(ctx context.Context) (StepReport, error) {
				return p.Nationality.Fetch(ctx, opts(0, 500*time.Millisecond))
			},
		},
		{
			Name:     StepTournaments,
			Requires: p.Tournaments.Capabilities(),
			Run: func(ctx context.Context) (StepReport, error) {
				return p.Tournaments.SyncData(ctx, TournamentInput{StepOptions: opts(0, 300*time.Millisecond)})
			},
		},
		{
			Name:     StepTournamentRosters,
			Requires: p.Tournaments.Capabilities(),
			Run: func(ctx context.Context) (StepReport, error) {
				return p.Tournaments.SyncRosters(ctx, TournamentInput{StepOptions: opts(0, 300*time.Millisecond)})
			},
		},
	}
}
