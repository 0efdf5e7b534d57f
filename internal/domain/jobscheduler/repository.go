package jobscheduler

import (
	"context"
	"time"
)

type Repository interface {
	Save(ctx context.Context, execution Execution) error
	ListRecent(ctx context.Context, limit int) ([]Execution, error)
	PurgeFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
