package tournament

import (
	"fmt"
	"time"
)

type Tournament struct {
	ID       int64
	Year     int
	Name     string
	Champion string
	RunnerUp string
}

func (t Tournament) Validate() error {
	if t.Year <= 0 {
		return fmt.Errorf("tournament year is required")
	}
	if t.Name == "" {
		return fmt.Errorf("tournament name is required")
	}
	return nil
}

// Game is one national-team game, keyed by the provider's GamePk.
type Game struct {
	GamePk       int64
	TournamentID int64
	GameDate     time.Time
	AwayTeam     string
	HomeTeam     string
	AwayScore    *int
	HomeScore    *int
	Status       string
}

// RosterEntry records that a player appeared for a country in a tournament.
// Unique on (TournamentID, ExternalPlayerID, Country).
type RosterEntry struct {
	TournamentID     int64
	ExternalPlayerID int64
	Country          string
	PlayerName       string
	PlayerID         *int64
}
