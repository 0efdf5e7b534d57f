package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/jobscheduler"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/id"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const DailyJobName = "daily-pipeline"

// StepFunc runs one pipeline step and returns its summary.
type StepFunc func(ctx context.Context) (StepReport, error)

type Step struct {
	Name     string
	Requires []Capability
	Run      StepFunc
}

// CapabilityChecker reports whether an optional dependency can be used.
type CapabilityChecker interface {
	Check(ctx context.Context, capability Capability) error
}

// CapabilitySet is a CapabilityChecker backed by check functions. A
// capability without a check is unavailable.
type CapabilitySet map[Capability]func() error

func (c CapabilitySet) Check(_ context.Context, capability Capability) error {
	check, ok := c[capability]
	if !ok || check == nil {
		return fmt.Errorf("%w: %s is not configured", ErrCapabilityUnavailable, capability)
	}
	if err := check(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCapabilityUnavailable, capability, err)
	}
	return nil
}

type OrchestratorConfig struct {
	// StepDelay is the pause between consecutive steps.
	StepDelay time.Duration
}

type RunInput struct {
	JobName string
	Trigger string
	DryRun  bool
	Steps   []Step
}

// Orchestrator runs steps one after another. A failing step is recorded and
// the next step still runs; nothing a step does can stop the run.
type Orchestrator struct {
	daily        []Step
	capabilities CapabilityChecker
	history      jobscheduler.Repository
	ids          id.Generator
	cfg          OrchestratorConfig
	logger       *logging.Logger
	now          func() time.Time
	sleep        func(ctx context.Context, d time.Duration) error
}

func NewOrchestrator(
	daily []Step,
	capabilities CapabilityChecker,
	history jobscheduler.Repository,
	ids id.Generator,
	cfg OrchestratorConfig,
	logger *logging.Logger,
) *Orchestrator {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if cfg.StepDelay < 0 {
		cfg.StepDelay = 0
	}

	return &Orchestrator{
		daily:        daily,
		capabilities: capabilities,
		history:      history,
		ids:          ids,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
		sleep:        sleepContext,
	}
}

// StepNames lists the daily steps in execution order.
func (o *Orchestrator) StepNames() []string {
	out := make([]string, 0, len(o.daily))
	for _, s := range o.daily {
		out = append(out, s.Name)
	}
	return out
}

func (o *Orchestrator) lookup(name string) (Step, bool) {
	for _, s := range o.daily {
		if s.Name == name {
			return s, true
		}
	}
	return Step{}, false
}

// RunDaily executes the full daily list.
func (o *Orchestrator) RunDaily(ctx context.Context, trigger string) (jobscheduler.Execution, error) {
	return o.Run(ctx, RunInput{JobName: DailyJobName, Trigger: trigger, Steps: o.daily})
}

// RunNamed executes one step of the daily list with its daily options.
func (o *Orchestrator) RunNamed(ctx context.Context, name, trigger string) (jobscheduler.Execution, error) {
	step, ok := o.lookup(strings.TrimSpace(name))
	if !ok {
		return jobscheduler.Execution{}, fmt.Errorf("%w: unknown step %q", ErrInvalidInput, name)
	}
	return o.Run(ctx, RunInput{JobName: step.Name, Trigger: trigger, Steps: []Step{step}})
}

// Run executes the given steps and records the execution. The returned error
// is only set when the execution could not start; step failures are in the
// execution record.
func (o *Orchestrator) Run(ctx context.Context, input RunInput) (jobscheduler.Execution, error) {
	if len(input.Steps) == 0 {
		return jobscheduler.Execution{}, fmt.Errorf("%w: no steps to run", ErrInvalidInput)
	}
	executionID, err := o.ids.NewID()
	if err != nil {
		return jobscheduler.Execution{}, fmt.Errorf("generate execution id: %w", err)
	}

	ctx, span := startUsecaseSpan(ctx, "usecase.Orchestrator.Run",
		attribute.String("job.name", input.JobName),
		attribute.String("job.execution_id", executionID),
	)
	defer span.End()

	traceID, _ := traceMetaFromContext(ctx)
	execution := jobscheduler.Execution{
		ID:        executionID,
		JobName:   input.JobName,
		Trigger:   input.Trigger,
		Status:    jobscheduler.ExecutionRunning,
		DryRun:    input.DryRun,
		StartedAt: o.now().UTC(),
		TraceID:   traceID,
	}
	o.save(ctx, execution)
	o.logger.InfoContext(ctx, "job started",
		"job", execution.JobName,
		"execution_id", execution.ID,
		"trigger", execution.Trigger,
		"steps", len(input.Steps),
	)

	cancelled := false
	for i, step := range input.Steps {
		if i > 0 && !cancelled {
			if err := o.sleep(ctx, o.cfg.StepDelay); err != nil {
				cancelled = true
			}
		}
		if cancelled || ctx.Err() != nil {
			cancelled = true
			execution.Steps = append(execution.Steps, jobscheduler.StepRecord{
				Name:         step.Name,
				Status:       jobscheduler.StepSkipped,
				StartedAt:    o.now().UTC(),
				ErrorMessage: "run cancelled",
			})
			continue
		}

		record := o.runStep(ctx, step)
		execution.Steps = append(execution.Steps, record)
		o.save(ctx, execution)
	}

	finished := o.now().UTC()
	execution.FinishedAt = &finished
	execution.Status = execution.Summarize()
	o.save(ctx, execution)

	o.logger.InfoContext(ctx, "job finished",
		"job", execution.JobName,
		"execution_id", execution.ID,
		"status", execution.Status,
		"failed_steps", execution.FailedSteps(),
		"elapsed_ms", finished.Sub(execution.StartedAt).Milliseconds(),
	)
	return execution, nil
}

func (o *Orchestrator) runStep(ctx context.Context, step Step) jobscheduler.StepRecord {
	started := o.now().UTC()
	record := jobscheduler.StepRecord{Name: step.Name, StartedAt: started}

	for _, capability := range step.Requires {
		if o.capabilities == nil {
			break
		}
		if err := o.capabilities.Check(ctx, capability); err != nil {
			record.Status = jobscheduler.StepUnavailable
			record.ErrorMessage = err.Error()
			o.logger.WarnContext(ctx, "step unavailable", "step", step.Name, "capability", capability, "error", err)
			return record
		}
	}

	ctx, span := startUsecaseSpan(ctx, "usecase.Orchestrator.step", attribute.String("job.step", step.Name))
	defer span.End()

	var (
		report StepReport
		err    error
		c      panics.Catcher
	)
	c.Try(func() {
		report, err = step.Run(ctx)
	})
	if recovered := c.Recovered(); recovered != nil {
		err = fmt.Errorf("step panicked: %w", recovered.AsError())
	}

	record.ElapsedMs = o.now().UTC().Sub(started).Milliseconds()
	record.Counts = report.Counts.Map()
	switch {
	case err == nil:
		record.Status = jobscheduler.StepSucceeded
		o.logger.InfoContext(ctx, "step finished", append([]any{"step", step.Name, "elapsed_ms", record.ElapsedMs}, report.Counts.logArgs()...)...)
	case errors.Is(err, ErrCapabilityUnavailable):
		record.Status = jobscheduler.StepUnavailable
		record.ErrorMessage = err.Error()
		o.logger.WarnContext(ctx, "step unavailable", "step", step.Name, "error", err)
	default:
		record.Status = jobscheduler.StepFailed
		record.ErrorMessage = err.Error()
		o.logger.ErrorContext(ctx, "step failed", "step", step.Name, "elapsed_ms", record.ElapsedMs, "error", err)
	}
	return record
}

func (o *Orchestrator) save(ctx context.Context, execution jobscheduler.Execution) {
	if o.history == nil {
		return
	}
	if err := o.history.Save(context.WithoutCancel(ctx), execution); err != nil {
		o.logger.WarnContext(ctx, "record execution failed", "execution_id", execution.ID, "error", err)
	}
}

// Purge drops finished executions older than retention.
func (o *Orchestrator) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	if o.history == nil {
		return 0, nil
	}
	if retention <= 0 {
		return 0, fmt.Errorf("%w: retention must be > 0", ErrInvalidInput)
	}
	cutoff := o.now().UTC().Add(-retention)
	n, err := o.history.PurgeFinishedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge execution history: %w", err)
	}
	o.logger.InfoContext(ctx, "execution history purged", "removed", n, "cutoff", cutoff.Format(time.RFC3339))
	return n, nil
}

// RecentExecutions lists the latest executions, newest first.
func (o *Orchestrator) RecentExecutions(ctx context.Context, limit int) ([]jobscheduler.Execution, error) {
	if o.history == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	items, err := o.history.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	return items, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
