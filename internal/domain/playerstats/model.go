package playerstats

import (
	"fmt"
	"time"
)

type Kind string

const (
	KindHitting  Kind = "hitting"
	KindPitching Kind = "pitching"
)

var AllKinds = []Kind{KindHitting, KindPitching}

// Hitting fields are nil when the provider omitted them.
type Hitting struct {
	GamesPlayed *int
	AtBats      *int
	Runs        *int
	Hits        *int
	Doubles     *int
	Triples     *int
	HomeRuns    *int
	RBI         *int
	StolenBases *int
	Avg         *float64
	OBP         *float64
	SLG         *float64
	OPS         *float64
}

type Pitching struct {
	Wins           *int
	Losses         *int
	ERA            *float64
	GamesPitched   *int
	GamesStarted   *int
	Saves          *int
	InningsPitched *float64
	Strikeouts     *int
	WalksAllowed   *int
	WHIP           *float64
}

// Line is one season stat line, unique on (PlayerID, Season, Kind). Writing a
// line replaces the stored one wholesale.
type Line struct {
	PlayerID  int64
	Season    int
	Kind      Kind
	Hitting   *Hitting
	Pitching  *Pitching
	UpdatedAt time.Time
}

func (l Line) Validate() error {
	if l.PlayerID <= 0 {
		return fmt.Errorf("stat line player id is required")
	}
	if l.Season < 1871 {
		return fmt.Errorf("stat line season %d is out of range", l.Season)
	}
	switch l.Kind {
	case KindHitting:
		if l.Hitting == nil {
			return fmt.Errorf("hitting line has no hitting stats")
		}
	case KindPitching:
		if l.Pitching == nil {
			return fmt.Errorf("pitching line has no pitching stats")
		}
	default:
		return fmt.Errorf("invalid stat kind: %q", l.Kind)
	}
	return nil
}
