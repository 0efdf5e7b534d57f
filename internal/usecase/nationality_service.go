package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/player"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
)

type NationalityService struct {
	players player.Repository
	stats   StatsProvider
	logger  *logging.Logger
}

func NewNationalityService(players player.Repository, stats StatsProvider, logger *logging.Logger) *NationalityService {
	if logger == nil {
		logger = logging.Default()
	}
	return &NationalityService{players: players, stats: stats, logger: logger}
}

func (s *NationalityService) Capabilities() []Capability {
	return []Capability{CapabilityStatsProvider}
}

// Fetch writes the provider birth country. Players that already have a
// nationality are skipped unless Force is set.
func (s *NationalityService) Fetch(ctx context.Context, opts StepOptions) (StepReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.NationalityService.Fetch")
	defer span.End()

	report := newReport("nationality", opts)
	if s.stats == nil {
		return report, fmt.Errorf("%w: %s", ErrCapabilityUnavailable, CapabilityStatsProvider)
	}

	items, err := s.players.List(ctx, player.Query{
		HasExternalID:      true,
		MissingNationality: !opts.Force,
		Limit:              opts.Limit,
	})
	if err != nil {
		return report, fmt.Errorf("list players for nationality: %w", err)
	}

	pacer := opts.pacer()
	for _, item := range items {
		if err := pacer.Wait(ctx); err != nil {
			return report, err
		}

		person, found, err := s.stats.GetPerson(ctx, *item.ExternalID)
		if err != nil {
			report.Counts.Inc("failed")
			s.logger.WarnContext(ctx, "fetch person failed", "player", item.FullName, "error", err)
			continue
		}
		country := strings.TrimSpace(person.BirthCountry)
		if !found || country == "" {
			report.Counts.Inc("not_found")
			continue
		}
		if country == item.Nationality {
			report.Counts.Inc("unchanged")
			continue
		}
		if opts.DryRun {
			report.Counts.Inc("would_update")
			s.logger.InfoContext(ctx, "would set nationality", "player", item.FullName, "nationality", country)
			continue
		}
		if err := s.players.SetNationality(ctx, item.ID, country); err != nil {
			report.Counts.Inc("failed")
			s.logger.WarnContext(ctx, "store nationality failed", "player_id", item.ID, "error", err)
			continue
		}
		report.Counts.Inc("updated")
	}

	s.logger.InfoContext(ctx, "nationality finished", report.Counts.logArgs()...)
	return report, nil
}
