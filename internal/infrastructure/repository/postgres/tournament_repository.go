package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/tournament"
	qb "github.com/riskibarqy/topps-now-tracker/internal/platform/querybuilder"
)

type TournamentRepository struct {
	db *sqlx.DB
}

func NewTournamentRepository(db *sqlx.DB) *TournamentRepository {
	return &TournamentRepository{db: db}
}

type tournamentTableModel struct {
	ID       int64  `db:"id"`
	Year     int    `db:"year"`
	Name     string `db:"name"`
	Champion string `db:"champion"`
	RunnerUp string `db:"runner_up"`
}

type tournamentWriteModel struct {
	Year     int    `db:"year"`
	Name     string `db:"name"`
	Champion string `db:"champion"`
	RunnerUp string `db:"runner_up"`
}

type tournamentGameModel struct {
	GamePk       int64     `db:"game_pk"`
	TournamentID int64     `db:"tournament_id"`
	GameDate     time.Time `db:"game_date"`
	AwayTeam     string    `db:"away_team"`
	HomeTeam     string    `db:"home_team"`
	AwayScore    *int      `db:"away_score"`
	HomeScore    *int      `db:"home_score"`
	Status       string    `db:"status"`
}

type rosterEntryModel struct {
	TournamentID     int64  `db:"tournament_id"`
	ExternalPlayerID int64  `db:"external_player_id"`
	Country          string `db:"country"`
	PlayerName       string `db:"player_name"`
	PlayerID         *int64 `db:"player_id"`
}

func (r *TournamentRepository) UpsertTournament(ctx context.Context, item tournament.Tournament) (tournament.Tournament, error) {
	if err := item.Validate(); err != nil {
		return tournament.Tournament{}, err
	}

	model := tournamentWriteModel{
		Year:     item.Year,
		Name:     item.Name,
		Champion: item.Champion,
		RunnerUp: item.RunnerUp,
	}
	query, args, err := qb.UpsertModel("tournaments", model, []string{"year"}, "RETURNING *")
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("build upsert tournament query: %w", err)
	}

	var row tournamentTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return tournament.Tournament{}, fmt.Errorf("upsert tournament year=%d: %w", item.Year, err)
	}
	return tournament.Tournament{
		ID:       row.ID,
		Year:     row.Year,
		Name:     row.Name,
		Champion: row.Champion,
		RunnerUp: row.RunnerUp,
	}, nil
}

func (r *TournamentRepository) UpsertGame(ctx context.Context, game tournament.Game) error {
	model := tournamentGameModel{
		GamePk:       game.GamePk,
		TournamentID: game.TournamentID,
		GameDate:     game.GameDate.UTC(),
		AwayTeam:     game.AwayTeam,
		HomeTeam:     game.HomeTeam,
		AwayScore:    game.AwayScore,
		HomeScore:    game.HomeScore,
		Status:       game.Status,
	}
	query, args, err := qb.UpsertModel("tournament_games", model, []string{"game_pk"}, "")
	if err != nil {
		return fmt.Errorf("build upsert tournament game query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert tournament game pk=%d: %w", game.GamePk, err)
	}
	return nil
}

func (r *TournamentRepository) UpsertRosterEntries(ctx context.Context, entries []tournament.RosterEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert roster entries: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, e := range entries {
		model := rosterEntryModel{
			TournamentID:     e.TournamentID,
			ExternalPlayerID: e.ExternalPlayerID,
			Country:          e.Country,
			PlayerName:       e.PlayerName,
			PlayerID:         e.PlayerID,
		}
		query, args, err := qb.UpsertModel("tournament_rosters", model, []string{"tournament_id", "external_player_id", "country"}, "")
		if err != nil {
			return fmt.Errorf("build upsert roster entry query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert roster entry player=%d country=%s: %w", e.ExternalPlayerID, e.Country, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert roster entries tx: %w", err)
	}
	return nil
}

func (r *TournamentRepository) ListRosterEntries(ctx context.Context, tournamentID int64) ([]tournament.RosterEntry, error) {
	query, args, err := qb.Select("*").From("tournament_rosters").
		Where(qb.Eq("tournament_id", tournamentID)).
		OrderBy("country", "external_player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select roster entries query: %w", err)
	}

	var rows []rosterEntryModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select roster entries: %w", err)
	}

	out := make([]tournament.RosterEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, tournament.RosterEntry{
			TournamentID:     row.TournamentID,
			ExternalPlayerID: row.ExternalPlayerID,
			Country:          row.Country,
			PlayerName:       row.PlayerName,
			PlayerID:         row.PlayerID,
		})
	}
	return out, nil
}
