package team

import "context"

type Repository interface {
	Upsert(ctx context.Context, item Team) (Team, error)
	GetByID(ctx context.Context, teamID int64) (Team, bool, error)
	GetByExternalID(ctx context.Context, externalID int64) (Team, bool, error)
	FindByName(ctx context.Context, fullName string) (Team, bool, error)
	List(ctx context.Context) ([]Team, error)
}
