package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/team"
	qb "github.com/riskibarqy/topps-now-tracker/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// Upsert matches on external id, falling back to the full name.
func (r *TeamRepository) Upsert(ctx context.Context, item team.Team) (team.Team, error) {
	if err := item.Validate(); err != nil {
		return team.Team{}, err
	}

	var (
		existing team.Team
		found    bool
		err      error
	)
	if item.HasExternalID() {
		existing, found, err = r.GetByExternalID(ctx, *item.ExternalID)
		if err != nil {
			return team.Team{}, err
		}
	}
	if !found {
		existing, found, err = r.FindByName(ctx, item.FullName)
		if err != nil {
			return team.Team{}, err
		}
	}

	model := teamWriteModel{
		ExternalID:   item.ExternalID,
		Abbreviation: item.Abbreviation,
		FullName:     strings.TrimSpace(item.FullName),
		TeamName:     item.TeamName,
		LocationName: item.LocationName,
		Venue:        item.Venue,
	}

	var query string
	var args []any
	if found {
		query, args, err = qb.Update("teams").
			Set("external_id", model.ExternalID).
			Set("abbreviation", model.Abbreviation).
			Set("full_name", model.FullName).
			Set("team_name", model.TeamName).
			Set("location_name", model.LocationName).
			Set("venue", model.Venue).
			SetExpr("updated_at", "NOW()").
			Where(qb.Eq("id", existing.ID)).
			Suffix("RETURNING *").
			ToSQL()
	} else {
		query, args, err = qb.InsertModel("teams", model, "RETURNING *")
	}
	if err != nil {
		return team.Team{}, fmt.Errorf("build upsert team query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return team.Team{}, fmt.Errorf("upsert team name=%s: %w", item.FullName, err)
	}
	return row.toDomain(), nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID int64) (team.Team, bool, error) {
	return r.getOne(ctx, qb.Eq("id", teamID))
}

func (r *TeamRepository) GetByExternalID(ctx context.Context, externalID int64) (team.Team, bool, error) {
	return r.getOne(ctx, qb.Eq("external_id", externalID))
}

func (r *TeamRepository) FindByName(ctx context.Context, fullName string) (team.Team, bool, error) {
	return r.getOne(ctx, qb.Expr("LOWER(full_name) = LOWER(?)", strings.TrimSpace(fullName)))
}

func (r *TeamRepository) getOne(ctx context.Context, conditions ...qb.Condition) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("teams").Where(conditions...).Limit(1).ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build select team query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("select team: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").OrderBy("id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
