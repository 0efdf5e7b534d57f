package playerstats

import "context"

type Repository interface {
	Upsert(ctx context.Context, line Line) error
	Get(ctx context.Context, playerID int64, season int, kind Kind) (Line, bool, error)
}
