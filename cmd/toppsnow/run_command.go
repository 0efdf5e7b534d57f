package main

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/topps-now-tracker/internal/app"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/jobscheduler"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var step string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full daily list once, or one step with its daily options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), app.Options{DryRun: dryRun}, func(a *app.App) error {
				var (
					execution jobscheduler.Execution
					err       error
				)
				if name := strings.TrimSpace(step); name != "" {
					execution, err = a.Orchestrator.RunNamed(cmd.Context(), name, cliTrigger)
				} else {
					execution, err = a.Orchestrator.RunDaily(cmd.Context(), cliTrigger)
				}
				if err != nil {
					return err
				}

				printExecution(cmd.OutOrStdout(), execution)
				if execution.Status == jobscheduler.ExecutionFailed {
					return fmt.Errorf("run %s failed: %s", execution.ID, strings.Join(execution.FailedSteps(), ", "))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run every step without writing")
	cmd.Flags().StringVar(&step, "step", "", "Run only this step of the daily list")
	return cmd
}

func printExecution(out io.Writer, execution jobscheduler.Execution) {
	rows := make([][]string, 0, len(execution.Steps))
	for _, s := range execution.Steps {
		rows = append(rows, []string{
			s.Name,
			string(s.Status),
			(time.Duration(s.ElapsedMs) * time.Millisecond).String(),
			formatCounts(s.Counts),
			s.ErrorMessage,
		})
	}

	fmt.Fprintf(out, "%s %s (%s)\n", execution.JobName, execution.Status, execution.ID)
	fmt.Fprintln(out, renderTable(
		[]string{"Step", "Status", "Elapsed", "Counts", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))
}

func formatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strconv.Itoa(counts[k]))
	}
	return strings.Join(parts, " ")
}
