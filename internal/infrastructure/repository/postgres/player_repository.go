package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/player"
	qb "github.com/riskibarqy/topps-now-tracker/internal/platform/querybuilder"
)

const playersExternalIDKey = "players_external_id_key"

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) GetOrCreate(ctx context.Context, fullName string) (player.Player, bool, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return player.Player{}, false, fmt.Errorf("player full name is required")
	}

	first, last := player.SplitName(fullName)
	query, args, err := qb.InsertInto("players").
		Columns("full_name", "first_name", "last_name").
		Values(fullName, first, last).
		Suffix("ON CONFLICT (full_name) DO NOTHING RETURNING *").
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build insert player query: %w", err)
	}

	var row playerTableModel
	err = r.db.GetContext(ctx, &row, query, args...)
	switch {
	case err == nil:
		return row.toDomain(), true, nil
	case !isNotFound(err):
		return player.Player{}, false, fmt.Errorf("insert player name=%s: %w", fullName, err)
	}

	existing, ok, err := r.getOne(ctx, qb.Eq("full_name", fullName))
	if err != nil {
		return player.Player{}, false, err
	}
	if !ok {
		return player.Player{}, false, fmt.Errorf("player %q not found after conflict", fullName)
	}
	return existing, false, nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID int64) (player.Player, bool, error) {
	return r.getOne(ctx, qb.Eq("id", playerID))
}

func (r *PlayerRepository) GetByExternalID(ctx context.Context, externalID int64) (player.Player, bool, error) {
	return r.getOne(ctx, qb.Eq("external_id", externalID))
}

func (r *PlayerRepository) getOne(ctx context.Context, conditions ...qb.Condition) (player.Player, bool, error) {
	query, args, err := qb.Select("*").From("players").Where(conditions...).Limit(1).ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build select player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("select player: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *PlayerRepository) List(ctx context.Context, query player.Query) ([]player.Player, error) {
	var conds []qb.Condition
	if query.ActiveOnly {
		conds = append(conds, qb.Eq("is_active", true))
	}
	if query.HasExternalID {
		conds = append(conds, qb.NotNull("external_id"))
	}
	if query.MissingExternalID {
		conds = append(conds, qb.IsNull("external_id"))
	}
	if query.MissingNationality {
		conds = append(conds, qb.Blank("nationality"))
	}
	if len(query.IDs) > 0 {
		conds = append(conds, qb.In("id", int64SliceToAny(query.IDs)))
	}

	sqlQuery, args, err := qb.Select("*").From("players").Where(conds...).OrderBy("id").Limit(query.Limit).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, sqlQuery, args...); err != nil {
		return nil, fmt.Errorf("select players: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *PlayerRepository) Count(ctx context.Context) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From("players").ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count players query: %w", err)
	}

	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return n, nil
}

// AssignExternalID writes the external id once. Rebinding to the same id is
// a no-op; any other change is refused.
func (r *PlayerRepository) AssignExternalID(ctx context.Context, playerID, externalID int64) error {
	query, args, err := qb.Update("players").
		Set("external_id", externalID).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", playerID), qb.IsNull("external_id")).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build assign external id query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err, playersExternalIDKey) {
			return player.ErrExternalIDTaken
		}
		return fmt.Errorf("assign external id player=%d: %w", playerID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read assigned external id rows: %w", err)
	}
	if n > 0 {
		return nil
	}

	current, ok, err := r.GetByID(ctx, playerID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("player %d not found", playerID)
	}
	if current.ExternalID != nil && *current.ExternalID == externalID {
		return nil
	}
	return player.ErrExternalIDImmutable
}

func (r *PlayerRepository) SetTeam(ctx context.Context, playerID, teamID int64) error {
	return r.update(ctx, playerID, qb.Update("players").Set("team_id", teamID))
}

func (r *PlayerRepository) SetNationality(ctx context.Context, playerID int64, nationality string) error {
	return r.update(ctx, playerID, qb.Update("players").Set("nationality", nationality))
}

// MergeTournamentParticipation unions the years in SQL. An empty country keeps
// the stored one.
func (r *PlayerRepository) MergeTournamentParticipation(ctx context.Context, playerID int64, years []int, country string) error {
	builder := qb.Update("players").SetExpr(
		"tournament_years",
		"ARRAY(SELECT DISTINCT y FROM unnest(tournament_years || ?::int[]) AS y ORDER BY y)",
		intsToInt64Array(years),
	)
	if country != "" {
		builder = builder.Set("tournament_country", country)
	}
	return r.update(ctx, playerID, builder)
}

func (r *PlayerRepository) update(ctx context.Context, playerID int64, builder *qb.UpdateBuilder) error {
	query, args, err := builder.SetExpr("updated_at", "NOW()").Where(qb.Eq("id", playerID)).ToSQL()
	if err != nil {
		return fmt.Errorf("build update player query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update player %d: %w", playerID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read updated player rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("player %d not found", playerID)
	}
	return nil
}
