package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/topps-now-tracker/internal/app"
	"github.com/riskibarqy/topps-now-tracker/internal/usecase"
)

const (
	stepCleanTitles = "clean-titles"
	stepSyncTeams   = "sync-teams"
	stepCardImages  = "card-images"
)

func newCleanTitlesCommand(ctx *commandContext) *cobra.Command {
	var flags stepFlags

	cmd := &cobra.Command{
		Use:   stepCleanTitles,
		Short: "Re-normalize stored card titles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options()
			return ctx.withApp(cmd.Context(), app.Options{}, func(a *app.App) error {
				step := usecase.Step{
					Name: stepCleanTitles,
					Run: func(ctx context.Context) (usecase.StepReport, error) {
						return a.Pipeline.ProductURLs.CleanTitles(ctx, opts)
					},
				}
				return runSingleStep(cmd.Context(), cmd.OutOrStdout(), a, step, opts.DryRun)
			})
		},
	}
	addStepFlags(cmd, &flags, 0, 0)
	return cmd
}

func newSyncTeamsCommand(ctx *commandContext) *cobra.Command {
	var flags stepFlags
	var season int

	cmd := &cobra.Command{
		Use:   stepSyncTeams,
		Short: "Refresh league team reference rows from the stats provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options()
			return ctx.withApp(cmd.Context(), app.Options{}, func(a *app.App) error {
				step := usecase.Step{
					Name:     stepSyncTeams,
					Requires: a.TeamSync.Capabilities(),
					Run: func(ctx context.Context) (usecase.StepReport, error) {
						return a.TeamSync.Sync(ctx, usecase.TeamSyncInput{StepOptions: opts, Season: season})
					},
				}
				return runSingleStep(cmd.Context(), cmd.OutOrStdout(), a, step, opts.DryRun)
			})
		},
	}
	addStepFlags(cmd, &flags, 0, 0)
	cmd.Flags().IntVar(&season, "season", 0, "Season to sync (default current year)")
	return cmd
}

func newCardImagesCommand(ctx *commandContext) *cobra.Command {
	var flags stepFlags

	cmd := &cobra.Command{
		Use:   stepCardImages,
		Short: "Fill missing card images from product pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options()
			return ctx.withApp(cmd.Context(), app.Options{DryRun: opts.DryRun}, func(a *app.App) error {
				step := usecase.Step{
					Name:     stepCardImages,
					Requires: a.Pipeline.ReleaseDates.Capabilities(),
					Run: func(ctx context.Context) (usecase.StepReport, error) {
						return a.Pipeline.ReleaseDates.ScrapeImages(ctx, opts)
					},
				}
				return runSingleStep(cmd.Context(), cmd.OutOrStdout(), a, step, opts.DryRun)
			})
		},
	}
	addStepFlags(cmd, &flags, 10, 2*time.Second)
	return cmd
}
