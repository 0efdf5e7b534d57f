package postgres

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/jobscheduler"
	qb "github.com/riskibarqy/topps-now-tracker/internal/platform/querybuilder"
)

type ExecutionRepository struct {
	db *sqlx.DB
}

func NewExecutionRepository(db *sqlx.DB) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

type executionModel struct {
	ID         string     `db:"id"`
	JobName    string     `db:"job_name"`
	Trigger    string     `db:"trigger"`
	Status     string     `db:"status"`
	DryRun     bool       `db:"dry_run"`
	StartedAt  time.Time  `db:"started_at"`
	FinishedAt *time.Time `db:"finished_at"`
	Steps      string     `db:"steps"`
	TraceID    string     `db:"trace_id"`
}

// Save writes the execution and is called again as steps finish, so the row
// always reflects the latest progress.
func (r *ExecutionRepository) Save(ctx context.Context, execution jobscheduler.Execution) error {
	steps := execution.Steps
	if steps == nil {
		steps = []jobscheduler.StepRecord{}
	}
	stepsJSON, err := sonic.MarshalString(steps)
	if err != nil {
		return fmt.Errorf("encode execution steps: %w", err)
	}

	model := executionModel{
		ID:         execution.ID,
		JobName:    execution.JobName,
		Trigger:    execution.Trigger,
		Status:     string(execution.Status),
		DryRun:     execution.DryRun,
		StartedAt:  execution.StartedAt.UTC(),
		FinishedAt: execution.FinishedAt,
		Steps:      stepsJSON,
		TraceID:    execution.TraceID,
	}
	query, args, err := qb.UpsertModel("job_executions", model, []string{"id"}, "")
	if err != nil {
		return fmt.Errorf("build upsert execution query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert execution id=%s: %w", execution.ID, err)
	}
	return nil
}

func (r *ExecutionRepository) ListRecent(ctx context.Context, limit int) ([]jobscheduler.Execution, error) {
	query, args, err := qb.Select("id", "job_name", "trigger", "status", "dry_run", "started_at", "finished_at", "steps::text AS steps", "trace_id").
		From("job_executions").
		OrderBy("started_at DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select executions query: %w", err)
	}

	var rows []executionModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select executions: %w", err)
	}

	out := make([]jobscheduler.Execution, 0, len(rows))
	for _, row := range rows {
		var steps []jobscheduler.StepRecord
		if err := sonic.UnmarshalString(row.Steps, &steps); err != nil {
			return nil, fmt.Errorf("decode steps of execution %s: %w", row.ID, err)
		}
		out = append(out, jobscheduler.Execution{
			ID:         row.ID,
			JobName:    row.JobName,
			Trigger:    row.Trigger,
			Status:     jobscheduler.ExecutionStatus(row.Status),
			DryRun:     row.DryRun,
			StartedAt:  row.StartedAt,
			FinishedAt: row.FinishedAt,
			Steps:      steps,
			TraceID:    row.TraceID,
		})
	}
	return out, nil
}

func (r *ExecutionRepository) PurgeFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := qb.DeleteFrom("job_executions").
		Where(qb.NotNull("finished_at"), qb.Expr("finished_at < ?", cutoff.UTC())).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build purge executions query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("purge executions before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read purged execution rows: %w", err)
	}
	return n, nil
}
