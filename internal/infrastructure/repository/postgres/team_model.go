package postgres

import (
	"time"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/team"
)

type teamTableModel struct {
	ID           int64     `db:"id"`
	ExternalID   *int64    `db:"external_id"`
	Abbreviation string    `db:"abbreviation"`
	FullName     string    `db:"full_name"`
	TeamName     string    `db:"team_name"`
	LocationName string    `db:"location_name"`
	Venue        string    `db:"venue"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type teamWriteModel struct {
	ExternalID   *int64 `db:"external_id"`
	Abbreviation string `db:"abbreviation"`
	FullName     string `db:"full_name"`
	TeamName     string `db:"team_name"`
	LocationName string `db:"location_name"`
	Venue        string `db:"venue"`
}

func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:           m.ID,
		ExternalID:   m.ExternalID,
		Abbreviation: m.Abbreviation,
		FullName:     m.FullName,
		TeamName:     m.TeamName,
		LocationName: m.LocationName,
		Venue:        m.Venue,
	}
}
