package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/card"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/team"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
)

// GameLinkService binds a card to the game it commemorates.
type GameLinkService struct {
	cardRepo card.Repository
	teams    team.Repository
	stats    StatsProvider
	logger   *logging.Logger
}

func NewGameLinkService(cardRepo card.Repository, teams team.Repository, stats StatsProvider, logger *logging.Logger) *GameLinkService {
	if logger == nil {
		logger = logging.Default()
	}
	return &GameLinkService{cardRepo: cardRepo, teams: teams, stats: stats, logger: logger}
}

func (s *GameLinkService) Capabilities() []Capability {
	return []Capability{CapabilityStatsProvider}
}

// GameDate is the day before release. Cards go on sale the day after the
// game they commemorate.
func GameDate(release time.Time) time.Time {
	y, m, d := release.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

func (s *GameLinkService) Link(ctx context.Context, opts StepOptions) (StepReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameLinkService.Link")
	defer span.End()

	report := newReport("game-ids", opts)
	if s.stats == nil {
		return report, fmt.Errorf("%w: %s", ErrCapabilityUnavailable, CapabilityStatsProvider)
	}

	items, err := s.cardRepo.List(ctx, card.Query{
		HasReleaseDate:    true,
		MissingGameID:     !opts.Force,
		TeamHasExternalID: true,
		Limit:             opts.Limit,
	})
	if err != nil {
		return report, fmt.Errorf("list cards for game linkage: %w", err)
	}

	pacer := opts.pacer()
	for _, item := range items {
		teamItem, ok, err := s.teams.GetByID(ctx, *item.TeamID)
		if err != nil || !ok || !teamItem.HasExternalID() {
			report.Counts.Inc("skipped")
			continue
		}
		if err := pacer.Wait(ctx); err != nil {
			return report, err
		}

		gameDate := GameDate(*item.ReleaseDate)
		games, err := s.stats.TeamSchedule(ctx, gameDate, *teamItem.ExternalID)
		if err != nil {
			report.Counts.Inc("failed")
			s.logger.WarnContext(ctx, "fetch team schedule failed",
				"card_number", item.CardNumber,
				"team", teamItem.Abbreviation,
				"date", gameDate.Format("2006-01-02"),
				"error", err,
			)
			continue
		}
		if len(games) == 0 {
			report.Counts.Inc("no_game")
			continue
		}
		if len(games) > 1 {
			report.Counts.Inc("doubleheader")
			s.logger.WarnContext(ctx, "several games on game date, binding the first",
				"card_number", item.CardNumber,
				"date", gameDate.Format("2006-01-02"),
				"games", len(games),
			)
		}

		gamePk := games[0].GamePk
		if item.GameID != nil && *item.GameID == gamePk {
			report.Counts.Inc("unchanged")
			continue
		}
		if opts.DryRun {
			report.Counts.Inc("would_link")
			s.logger.InfoContext(ctx, "would link game", "card_number", item.CardNumber, "game_pk", gamePk)
			continue
		}
		if err := s.cardRepo.UpdateGameID(ctx, item.ID, gamePk); err != nil {
			report.Counts.Inc("failed")
			s.logger.WarnContext(ctx, "store game id failed", "card_id", item.ID, "error", err)
			continue
		}
		report.Counts.Inc("linked")
	}

	s.logger.InfoContext(ctx, "game linkage finished", report.Counts.logArgs()...)
	return report, nil
}
