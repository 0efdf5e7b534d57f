package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/playerstats"
	qb "github.com/riskibarqy/topps-now-tracker/internal/platform/querybuilder"
)

type PlayerStatsRepository struct {
	db *sqlx.DB
}

func NewPlayerStatsRepository(db *sqlx.DB) *PlayerStatsRepository {
	return &PlayerStatsRepository{db: db}
}

// Upsert replaces the stored line. Columns of the other stat kind are
// written as NULL.
func (r *PlayerStatsRepository) Upsert(ctx context.Context, line playerstats.Line) error {
	if err := line.Validate(); err != nil {
		return err
	}

	query, args, err := qb.UpsertModel(
		"player_season_stats",
		statLineToModel(line),
		[]string{"player_id", "season", "kind"},
		", updated_at = NOW()",
	)
	if err != nil {
		return fmt.Errorf("build upsert stat line query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert stat line player=%d season=%d kind=%s: %w", line.PlayerID, line.Season, line.Kind, err)
	}
	return nil
}

func (r *PlayerStatsRepository) Get(ctx context.Context, playerID int64, season int, kind playerstats.Kind) (playerstats.Line, bool, error) {
	query, args, err := qb.Select("*").From("player_season_stats").
		Where(
			qb.Eq("player_id", playerID),
			qb.Eq("season", season),
			qb.Eq("kind", string(kind)),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return playerstats.Line{}, false, fmt.Errorf("build select stat line query: %w", err)
	}

	var row statLineTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return playerstats.Line{}, false, nil
		}
		return playerstats.Line{}, false, fmt.Errorf("select stat line: %w", err)
	}
	return row.toDomain(), true, nil
}

type statLineWriteModel struct {
	PlayerID       int64    `db:"player_id"`
	Season         int      `db:"season"`
	Kind           string   `db:"kind"`
	GamesPlayed    *int     `db:"games_played"`
	AtBats         *int     `db:"at_bats"`
	Runs           *int     `db:"runs"`
	Hits           *int     `db:"hits"`
	Doubles        *int     `db:"doubles"`
	Triples        *int     `db:"triples"`
	HomeRuns       *int     `db:"home_runs"`
	RBI            *int     `db:"rbi"`
	StolenBases    *int     `db:"stolen_bases"`
	Avg            *float64 `db:"avg"`
	OBP            *float64 `db:"obp"`
	SLG            *float64 `db:"slg"`
	OPS            *float64 `db:"ops"`
	Wins           *int     `db:"wins"`
	Losses         *int     `db:"losses"`
	ERA            *float64 `db:"era"`
	GamesPitched   *int     `db:"games_pitched"`
	GamesStarted   *int     `db:"games_started"`
	Saves          *int     `db:"saves"`
	InningsPitched *float64 `db:"innings_pitched"`
	Strikeouts     *int     `db:"strikeouts"`
	WalksAllowed   *int     `db:"walks_allowed"`
	WHIP           *float64 `db:"whip"`
}

type statLineTableModel struct {
	statLineWriteModel
	UpdatedAt time.Time `db:"updated_at"`
}

func statLineToModel(line playerstats.Line) statLineWriteModel {
	m := statLineWriteModel{
		PlayerID: line.PlayerID,
		Season:   line.Season,
		Kind:     string(line.Kind),
	}
	if h := line.Hitting; h != nil && line.Kind == playerstats.KindHitting {
		m.GamesPlayed = h.GamesPlayed
		m.AtBats = h.AtBats
		m.Runs = h.Runs
		m.Hits = h.Hits
		m.Doubles = h.Doubles
		m.Triples = h.Triples
		m.HomeRuns = h.HomeRuns
		m.RBI = h.RBI
		m.StolenBases = h.StolenBases
		m.Avg = h.Avg
		m.OBP = h.OBP
		m.SLG = h.SLG
		m.OPS = h.OPS
	}
	if p := line.Pitching; p != nil && line.Kind == playerstats.KindPitching {
		m.Wins = p.Wins
		m.Losses = p.Losses
		m.ERA = p.ERA
		m.GamesPitched = p.GamesPitched
		m.GamesStarted = p.GamesStarted
		m.Saves = p.Saves
		m.InningsPitched = p.InningsPitched
		m.Strikeouts = p.Strikeouts
		m.WalksAllowed = p.WalksAllowed
		m.WHIP = p.WHIP
	}
	return m
}

func (m statLineTableModel) toDomain() playerstats.Line {
	line := playerstats.Line{
		PlayerID:  m.PlayerID,
		Season:    m.Season,
		Kind:      playerstats.Kind(m.Kind),
		UpdatedAt: m.UpdatedAt,
	}
	switch line.Kind {
	case playerstats.KindHitting:
		line.Hitting = &playerstats.Hitting{
			GamesPlayed: m.GamesPlayed,
			AtBats:      m.AtBats,
			Runs:        m.Runs,
			Hits:        m.Hits,
			Doubles:     m.Doubles,
			Triples:     m.Triples,
			HomeRuns:    m.HomeRuns,
			RBI:         m.RBI,
			StolenBases: m.StolenBases,
			Avg:         m.Avg,
			OBP:         m.OBP,
			SLG:         m.SLG,
			OPS:         m.OPS,
		}
	case playerstats.KindPitching:
		line.Pitching = &playerstats.Pitching{
			Wins:           m.Wins,
			Losses:         m.Losses,
			ERA:            m.ERA,
			GamesPitched:   m.GamesPitched,
			GamesStarted:   m.GamesStarted,
			Saves:          m.Saves,
			InningsPitched: m.InningsPitched,
			Strikeouts:     m.Strikeouts,
			WalksAllowed:   m.WalksAllowed,
			WHIP:           m.WHIP,
		}
	}
	return line
}
