package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/topps-now-tracker/internal/app"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/jobscheduler"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent pipeline executions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			return ctx.withApp(cmd.Context(), app.Options{}, func(a *app.App) error {
				items, err := a.Orchestrator.RecentExecutions(cmd.Context(), limit)
				if err != nil {
					return err
				}
				printHistory(cmd.OutOrStdout(), items)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of executions to show")
	return cmd
}

func printHistory(out io.Writer, items []jobscheduler.Execution) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No executions recorded")
		return
	}

	rows := make([][]string, 0, len(items))
	for _, e := range items {
		duration := ""
		if e.FinishedAt != nil {
			duration = e.FinishedAt.Sub(e.StartedAt).Round(time.Second).String()
		}
		rows = append(rows, []string{
			e.StartedAt.UTC().Format(time.RFC3339),
			e.JobName,
			e.Trigger,
			string(e.Status),
			yesNo(e.DryRun),
			strconv.Itoa(len(e.Steps)),
			duration,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Started", "Job", "Trigger", "Status", "Dry run", "Steps", "Duration"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	))
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
