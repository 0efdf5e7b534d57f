package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/team"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
)

type TeamSyncInput struct {
	StepOptions
	Season int
}

// TeamSyncService refreshes league team reference rows from the provider.
type TeamSyncService struct {
	teams  team.Repository
	stats  StatsProvider
	logger *logging.Logger
	now    func() time.Time
}

func NewTeamSyncService(teams team.Repository, stats StatsProvider, logger *logging.Logger) *TeamSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &TeamSyncService{teams: teams, stats: stats, logger: logger, now: time.Now}
}

func (s *TeamSyncService) Capabilities() []Capability {
	return []Capability{CapabilityStatsProvider}
}

func (s *TeamSyncService) Sync(ctx context.Context, input TeamSyncInput) (StepReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamSyncService.Sync")
	defer span.End()

	report := newReport("sync-teams", input.StepOptions)
	if s.stats == nil {
		return report, fmt.Errorf("%w: %s", ErrCapabilityUnavailable, CapabilityStatsProvider)
	}

	season := input.Season
	if season <= 0 {
		season = s.now().UTC().Year()
	}
	remote, err := s.stats.Teams(ctx, season)
	if err != nil {
		return report, fmt.Errorf("fetch teams season=%d: %w", season, err)
	}

	for i, item := range remote {
		if input.Limit > 0 && i >= input.Limit {
			break
		}
		extID := item.ID
		row := team.Team{
			ExternalID:   &extID,
			Abbreviation: strings.ToUpper(strings.TrimSpace(item.Abbreviation)),
			FullName:     strings.TrimSpace(item.Name),
			TeamName:     strings.TrimSpace(item.TeamName),
			LocationName: strings.TrimSpace(item.LocationName),
			Venue:        strings.TrimSpace(item.Venue),
		}
		if err := row.Validate(); err != nil {
			report.Counts.Inc("skipped")
			s.logger.WarnContext(ctx, "provider team rejected", "external_id", item.ID, "error", err)
			continue
		}
		if input.DryRun {
			report.Counts.Inc("would_upsert")
			continue
		}
		if _, err := s.teams.Upsert(ctx, row); err != nil {
			report.Counts.Inc("failed")
			s.logger.WarnContext(ctx, "upsert team failed", "team", row.FullName, "error", err)
			continue
		}
		report.Counts.Inc("upserted")
	}

	s.logger.InfoContext(ctx, "team sync finished", append([]any{"season", season}, report.Counts.logArgs()...)...)
	return report, nil
}
