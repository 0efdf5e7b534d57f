package usecase

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/player"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/playerstats"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
)

type StatsInput struct {
	StepOptions
	// Season defaults to the current year.
	Season   int
	PlayerID int64
}

type StatsService struct {
	players player.Repository
	lines   playerstats.Repository
	stats   StatsProvider
	logger  *logging.Logger
	now     func() time.Time
}

func NewStatsService(players player.Repository, lines playerstats.Repository, stats StatsProvider, logger *logging.Logger) *StatsService {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsService{
		players: players,
		lines:   lines,
		stats:   stats,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *StatsService) Capabilities() []Capability {
	return []Capability{CapabilityStatsProvider}
}

// Fetch upserts hitting and pitching lines independently. A player with only
// one group on record still gets that group stored.
func (s *StatsService) Fetch(ctx context.Context, input StatsInput) (StepReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.Fetch")
	defer span.End()

	report := newReport("stats", input.StepOptions)
	if s.stats == nil {
		return report, fmt.Errorf("%w: %s", ErrCapabilityUnavailable, CapabilityStatsProvider)
	}

	season := input.Season
	if season <= 0 {
		season = s.now().UTC().Year()
	}
	query := player.Query{HasExternalID: true, Limit: input.Limit}
	if input.PlayerID > 0 {
		query = player.Query{HasExternalID: true, IDs: []int64{input.PlayerID}}
	}
	items, err := s.players.List(ctx, query)
	if err != nil {
		return report, fmt.Errorf("list players for stats: %w", err)
	}

	pacer := input.pacer()
	for _, item := range items {
		for _, kind := range playerstats.AllKinds {
			if err := pacer.Wait(ctx); err != nil {
				return report, err
			}

			bag, found, err := s.stats.SeasonStats(ctx, *item.ExternalID, kind, season)
			if err != nil {
				report.Counts.Inc("failed")
				s.logger.WarnContext(ctx, "fetch season stats failed",
					"player", item.FullName,
					"kind", kind,
					"season", season,
					"error", err,
				)
				continue
			}
			if !found {
				report.Counts.Inc("no_" + string(kind))
				continue
			}

			line := StatLineFromBag(item.ID, season, kind, bag)
			if input.DryRun {
				report.Counts.Inc("would_store_" + string(kind))
				continue
			}
			if err := s.lines.Upsert(ctx, line); err != nil {
				report.Counts.Inc("failed")
				s.logger.WarnContext(ctx, "store season stats failed", "player_id", item.ID, "kind", kind, "error", err)
				continue
			}
			report.Counts.Inc(string(kind))
		}
	}

	s.logger.InfoContext(ctx, "stats finished", append([]any{"season", season}, report.Counts.logArgs()...)...)
	return report, nil
}

// StatLineFromBag maps provider stat names onto a stat line. Missing or
// unparseable values stay nil.
func StatLineFromBag(playerID int64, season int, kind playerstats.Kind, bag ExternalStatBag) playerstats.Line {
	line := playerstats.Line{PlayerID: playerID, Season: season, Kind: kind}
	switch kind {
	case playerstats.KindHitting:
		line.Hitting = &playerstats.Hitting{
			GamesPlayed: bagInt(bag, "gamesPlayed"),
			AtBats:      bagInt(bag, "atBats"),
			Runs:        bagInt(bag, "runs"),
			Hits:        bagInt(bag, "hits"),
			Doubles:     bagInt(bag, "doubles"),
			Triples:     bagInt(bag, "triples"),
			HomeRuns:    bagInt(bag, "homeRuns"),
			RBI:         bagInt(bag, "rbi"),
			StolenBases: bagInt(bag, "stolenBases"),
			Avg:         bagFloat(bag, "avg"),
			OBP:         bagFloat(bag, "obp"),
			SLG:         bagFloat(bag, "slg"),
			OPS:         bagFloat(bag, "ops"),
		}
	case playerstats.KindPitching:
		line.Pitching = &playerstats.Pitching{
			Wins:           bagInt(bag, "wins"),
			Losses:         bagInt(bag, "losses"),
			ERA:            bagFloat(bag, "era"),
			GamesPitched:   bagInt(bag, "gamesPlayed"),
			GamesStarted:   bagInt(bag, "gamesStarted"),
			Saves:          bagInt(bag, "saves"),
			InningsPitched: bagFloat(bag, "inningsPitched"),
			Strikeouts:     bagInt(bag, "strikeOuts"),
			WalksAllowed:   bagInt(bag, "baseOnBalls"),
			WHIP:           bagFloat(bag, "whip"),
		}
	}
	return line
}

func bagInt(bag ExternalStatBag, key string) *int {
	switch v := bag[key].(type) {
	case int:
		return &v
	case int64:
		n := int(v)
		return &n
	case float64:
		if v != math.Trunc(v) {
			return nil
		}
		n := int(v)
		return &n
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		return &n
	default:
		return nil
	}
}

func bagFloat(bag ExternalStatBag, key string) *float64 {
	switch v := bag[key].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	default:
		return nil
	}
}
