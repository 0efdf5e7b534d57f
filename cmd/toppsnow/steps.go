package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/topps-now-tracker/internal/app"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/jobscheduler"
	"github.com/riskibarqy/topps-now-tracker/internal/usecase"
)

const cliTrigger = "cli"

// stepFlags is the flag set shared by every step command.
type stepFlags struct {
	dryRun bool
	limit  int
	force  bool
	delay  time.Duration
}

func (f stepFlags) options() usecase.StepOptions {
	return usecase.StepOptions{DryRun: f.dryRun, Limit: f.limit, Force: f.force, Delay: f.delay}
}

func addStepFlags(cmd *cobra.Command, f *stepFlags, limit int, delay time.Duration) {
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Report what would change without writing")
	cmd.Flags().IntVar(&f.limit, "limit", limit, "Maximum items to process (0 means unlimited)")
	cmd.Flags().BoolVar(&f.force, "force", false, "Reprocess items that already have a value")
	cmd.Flags().DurationVar(&f.delay, "delay", delay, "Pause between external requests")
}

// stepCommand describes one CLI step. build turns parsed flags into the step
// the orchestrator runs.
type stepCommand struct {
	name  string
	short string
	limit int
	delay time.Duration
	flags func(cmd *cobra.Command)
	build func(a *app.App, opts usecase.StepOptions) usecase.Step
}

func newStepCommands(ctx *commandContext) []*cobra.Command {
	var (
		scrapeURLs     []string
		scrapeMaxCards int
		cardNumber     string
		season         int
		playerID       int64
		year           int
		rosterYear     int
	)

	specs := []stepCommand{
		{
			name:  usecase.StepScrape,
			short: "Discover new cards from the archive listing",
			delay: 3 * time.Second,
			flags: func(cmd *cobra.Command) {
				cmd.Flags().StringSliceVar(&scrapeURLs, "url", nil, "Listing page to scrape instead of the archive (repeatable)")
				cmd.Flags().IntVar(&scrapeMaxCards, "max-cards", 50, "Maximum listings to read per page")
			},
			build: func(a *app.App, opts usecase.StepOptions) usecase.Step {
				return usecase.Step{
					Name:     usecase.StepScrape,
					Requires: a.Pipeline.Scrape.Capabilities(),
					Run: func(ctx context.Context) (usecase.StepReport, error) {
						return a.Pipeline.Scrape.Scrape(ctx, usecase.ScrapeInput{StepOptions: opts, URLs: scrapeURLs, MaxCards: scrapeMaxCards})
					},
				}
			},
		},
		{
			name:  usecase.StepGenerateURLs,
			short: "Synthesize product links for cards without one",
			build: func(a *app.App, opts usecase.StepOptions) usecase.Step {
				return usecase.Step{
					Name: usecase.StepGenerateURLs,
					Run: func(ctx context.Context) (usecase.StepReport, error) {
						return a.Pipeline.ProductURLs.Generate(ctx, opts)
					},
				}
			},
		},
		{
			name:  usecase.StepFixURLs,
			short: "Validate stored product links and repair broken ones",
			delay: 500 * time.Millisecond,
			flags: func(cmd *cobra.Command) {
				cmd.Flags().StringVar(&cardNumber, "card-number", "", "Only check the card with this number")
			},
			build: func(a *app.App, opts usecase.StepOptions) usecase.Step {
				return usecase.Step{
					Name:     usecase.StepFixURLs,
					Requires: a.Pipeline.ProductURLs.FixCapabilities(),
					Run: func(ctx context.Context) (usecase.StepReport, error) {
						return a.Pipeline.ProductURLs.Fix(ctx, usecase.FixURLsInput{StepOptions: opts, CardNumber: cardNumber})
					},
				}
			},
		},
		{
			name:  usecase.StepReleaseDates,
			short: "Read release dates from product pages",
			limit: 10,
			delay: 3 * time.Second,
			build: func(a *app.App, opts usecase.StepOptions) usecase.Step {
				return usecase.Step{
					Name:     usecase.StepReleaseDates,
					Requires: a.Pipeline.ReleaseDates.Capabilities(),
					Run: func(ctx context.Context) (usecase.StepReport, error) {
						return a.Pipeline.ReleaseDates.Scrape(ctx, opts)
					},
				}
			},
		},
		{
			name:  usecase.StepGameIDs,
			short: "Link cards to the game they commemorate",
			delay: 300 * time.Millisecond,
			build: func(a *app.App, opts usecase.StepOptions) usecase.Step {
				return usecase.Step{
					Name:     usecase.StepGameIDs,
					Requires: a.Pipeline.GameLinks.Capabilities(),
					Run: func(ctx context.Context) (usecase.StepReport, error) {
						return a.Pipeline.GameLinks.Link(ctx, opts)
					},
				}
			},
		},
		{
			name:  usecase.StepResolvePlayers,
			short: "Bind players to stats-provider ids",
			delay: 500 * time.Millisecond,
			build: func(a *app.App, opts usecase.StepOptions) usecase.Step {
				return usecase.Step{
					Name:     usecase.StepResolvePlayers,
					Requires: a.Pipeline.Resolver.Capabilities(),
					Run: func(ctx context.Context) (usecase.StepReport, error) {
						return a.Pipeline.Resolver.Resolve(ctx, opts)
					},
				}
			},
		},
		{
			name:  usecase.StepStats,
			short: "Fetch season stat lines for resolved players",
			delay: 500 * time.Millisecond,
			flags: func(cmd *cobra.Command) {
				cmd.Flags().IntVar(&season, "season", 0, "Season to fetch (default current year)")
				cmd.Flags().Int64Var(&playerID, "player-id", 0, "Only fetch this local player")
			},
			build: func(a *app.App, opts usecase.StepOptions) usecase.Step {
				return usecase.Step{
					Name:     usecase.StepStats,
					Requires: a.Pipeline.Stats.Capabilities(),
					Run: func(ctx context.Context) (usecase.StepReport, error) {
						return a.Pipeline.Stats.Fetch(ctx, usecase.StatsInput{StepOptions: opts, Season: season, PlayerID: playerID})
					},
				}
			},
		},
		{
			name:  usecase.StepNationality,
			short: "Fill player birth countries",
			delay: 500 * time.Millisecond,
			build: func(a *app.App, opts usecase.StepOptions) usecase.Step {
				return usecase.Step{
					Name:     usecase.StepNationality,
					Requires: a.Pipeline.Nationality.Capabilities(),
					Run: func(ctx context.Context) (usecase.StepReport, error) {
						return a.Pipeline.Nationality.Fetch(ctx, opts)
					},
				}
			},
		},
		{
			name:  usecase.StepTournaments,
			short: "Sync tournament editions and games",
			flags: func(cmd *cobra.Command) {
				cmd.Flags().IntVar(&year, "year", 0, "Only sync this edition")
			},
			build: func(a *app.App, opts usecase.StepOptions) usecase.Step {
				return usecase.Step{
					Name:     usecase.StepTournaments,
					Requires: a.Pipeline.Tournaments.Capabilities(),
					Run: func(ctx context.Context) (usecase.StepReport, error) {
						return a.Pipeline.Tournaments.SyncData(ctx, usecase.TournamentInput{StepOptions: opts, Year: year})
					},
				}
			},
		},
		{
			name:  usecase.StepTournamentRosters,
			short: "Sync tournament rosters and player participation",
			flags: func(cmd *cobra.Command) {
				cmd.Flags().IntVar(&rosterYear, "year", 0, "Only sync this edition")
			},
			build: func(a *app.App, opts usecase.StepOptions) usecase.Step {
				return usecase.Step{
					Name:     usecase.StepTournamentRosters,
					Requires: a.Pipeline.Tournaments.Capabilities(),
					Run: func(ctx context.Context) (usecase.StepReport, error) {
						return a.Pipeline.Tournaments.SyncRosters(ctx, usecase.TournamentInput{StepOptions: opts, Year: rosterYear})
					},
				}
			},
		},
	}

	out := make([]*cobra.Command, 0, len(specs))
	for _, spec := range specs {
		out = append(out, spec.command(ctx))
	}
	return out
}

func (s stepCommand) command(ctx *commandContext) *cobra.Command {
	var flags stepFlags

	cmd := &cobra.Command{
		Use:   s.name,
		Short: s.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options()
			return ctx.withApp(cmd.Context(), app.Options{DryRun: opts.DryRun}, func(a *app.App) error {
				return runSingleStep(cmd.Context(), cmd.OutOrStdout(), a, s.build(a, opts), opts.DryRun)
			})
		},
	}
	addStepFlags(cmd, &flags, s.limit, s.delay)
	if s.flags != nil {
		s.flags(cmd)
	}
	return cmd
}

// runSingleStep runs step through the orchestrator so the run is recorded in
// history, then prints its counters. A failed or unavailable step is an
// error so the process exits non-zero.
func runSingleStep(ctx context.Context, out io.Writer, a *app.App, step usecase.Step, dryRun bool) error {
	var report usecase.StepReport
	run := step.Run
	step.Run = func(ctx context.Context) (usecase.StepReport, error) {
		r, err := run(ctx)
		report = r
		return r, err
	}

	execution, err := a.Orchestrator.Run(ctx, usecase.RunInput{
		JobName: step.Name,
		Trigger: cliTrigger,
		DryRun:  dryRun,
		Steps:   []usecase.Step{step},
	})
	if err != nil {
		return err
	}

	printReport(out, report)
	if len(execution.Steps) == 0 {
		return nil
	}
	record := execution.Steps[0]
	switch record.Status {
	case jobscheduler.StepFailed:
		return fmt.Errorf("%s failed: %s", step.Name, record.ErrorMessage)
	case jobscheduler.StepUnavailable:
		return fmt.Errorf("%s unavailable: %s", step.Name, record.ErrorMessage)
	}
	return nil
}

func printReport(out io.Writer, report usecase.StepReport) {
	keys := report.Counts.Keys()
	if len(keys) == 0 {
		return
	}

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, strconv.Itoa(report.Counts.Get(k))})
	}
	title := report.Step
	if report.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintln(out, title)
	fmt.Fprintln(out, renderTable([]string{"Counter", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
}
