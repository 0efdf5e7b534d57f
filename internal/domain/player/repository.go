package player

import "context"

// Query filters players for enrichment steps. A Limit <= 0 means unlimited.
type Query struct {
	ActiveOnly         bool
	HasExternalID      bool
	MissingExternalID  bool
	MissingNationality bool
	IDs                []int64
	Limit              int
}

type Repository interface {
	GetOrCreate(ctx context.Context, fullName string) (Player, bool, error)
	GetByID(ctx context.Context, playerID int64) (Player, bool, error)
	GetByExternalID(ctx context.Context, externalID int64) (Player, bool, error)
	List(ctx context.Context, query Query) ([]Player, error)
	Count(ctx context.Context) (int, error)
	AssignExternalID(ctx context.Context, playerID, externalID int64) error
	SetTeam(ctx context.Context, playerID, teamID int64) error
	SetNationality(ctx context.Context, playerID int64, nationality string) error
	MergeTournamentParticipation(ctx context.Context, playerID int64, years []int, country string) error
}
