package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/jobscheduler"
)

type ExecutionRepository struct {
	mu         sync.RWMutex
	executions map[string]jobscheduler.Execution
}

func NewExecutionRepository() *ExecutionRepository {
	return &ExecutionRepository{executions: make(map[string]jobscheduler.Execution)}
}

func (r *ExecutionRepository) Save(_ context.Context, execution jobscheduler.Execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	execution.Steps = append([]jobscheduler.StepRecord(nil), execution.Steps...)
	r.executions[execution.ID] = execution
	return nil
}

func (r *ExecutionRepository) ListRecent(_ context.Context, limit int) ([]jobscheduler.Execution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]jobscheduler.Execution, 0, len(r.executions))
	for _, e := range r.executions {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ExecutionRepository) PurgeFinishedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, e := range r.executions {
		if e.FinishedAt != nil && e.FinishedAt.Before(cutoff) {
			delete(r.executions, id)
			n++
		}
	}
	return n, nil
}
