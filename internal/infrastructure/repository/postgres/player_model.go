package postgres

import (
	"time"

	"github.com/lib/pq"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/player"
)

type playerTableModel struct {
	ID                int64         `db:"id"`
	FullName          string        `db:"full_name"`
	FirstName         string        `db:"first_name"`
	LastName          string        `db:"last_name"`
	TeamID            *int64        `db:"team_id"`
	ExternalID        *int64        `db:"external_id"`
	Nationality       string        `db:"nationality"`
	Position          string        `db:"position"`
	IsActive          bool          `db:"is_active"`
	TournamentYears   pq.Int64Array `db:"tournament_years"`
	TournamentCountry string        `db:"tournament_country"`
	CreatedAt         time.Time     `db:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at"`
}

func (m playerTableModel) toDomain() player.Player {
	return player.Player{
		ID:                m.ID,
		FullName:          m.FullName,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		TeamID:            m.TeamID,
		ExternalID:        m.ExternalID,
		Nationality:       m.Nationality,
		Position:          m.Position,
		IsActive:          m.IsActive,
		TournamentYears:   int64ArrayToInts(m.TournamentYears),
		TournamentCountry: m.TournamentCountry,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
