package tournament

import "context"

type Repository interface {
	UpsertTournament(ctx context.Context, item Tournament) (Tournament, error)
	UpsertGame(ctx context.Context, game Game) error
	UpsertRosterEntries(ctx context.Context, entries []RosterEntry) error
	ListRosterEntries(ctx context.Context, tournamentID int64) ([]RosterEntry, error)
}
