package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/card"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/cardtitle"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/producturl"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/resilience"
)

type FixURLsInput struct {
	StepOptions
	CardNumber string
}

// ProductURLService owns the stored product links and the titles they are
// derived from.
type ProductURLService struct {
	cardRepo    card.Repository
	synthesizer *producturl.Synthesizer
	validator   URLValidator
	logger      *logging.Logger
}

func NewProductURLService(cardRepo card.Repository, synthesizer *producturl.Synthesizer, validator URLValidator, logger *logging.Logger) *ProductURLService {
	if logger == nil {
		logger = logging.Default()
	}
	if synthesizer == nil {
		synthesizer = producturl.NewSynthesizer("")
	}
	return &ProductURLService{
		cardRepo:    cardRepo,
		synthesizer: synthesizer,
		validator:   validator,
		logger:      logger,
	}
}

// Generate fills short and long product URLs for cards that have none. Force
// regenerates every card with a title.
func (s *ProductURLService) Generate(ctx context.Context, opts StepOptions) (StepReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProductURLService.Generate")
	defer span.End()

	report := newReport("generate-urls", opts)
	query := card.Query{RequireTitle: true, MissingProductURL: !opts.Force, Limit: opts.Limit}
	items, err := s.cardRepo.List(ctx, query)
	if err != nil {
		return report, fmt.Errorf("list cards for url generation: %w", err)
	}

	for _, item := range items {
		short, long, ok := s.synthesizer.Both(item.Title, item.SourceTitle)
		if !ok {
			report.Counts.Inc("skipped")
			s.logger.WarnContext(ctx, "no url could be built from title", "card_id", item.ID, "title", item.Title)
			continue
		}
		if short == item.ProductURL && long == item.ProductURLLong {
			report.Counts.Inc("unchanged")
			continue
		}
		if opts.DryRun {
			report.Counts.Inc("would_update")
			s.logger.InfoContext(ctx, "would set product url", "card_number", item.CardNumber, "short", short, "long", long)
			continue
		}
		if err := s.cardRepo.UpdateProductURLs(ctx, item.ID, card.URLs{Short: short, Long: long}); err != nil {
			report.Counts.Inc("failed")
			s.logger.WarnContext(ctx, "store product url failed", "card_id", item.ID, "error", err)
			continue
		}
		report.Counts.Inc("updated")
	}

	s.logger.InfoContext(ctx, "generate urls finished", report.Counts.logArgs()...)
	return report, nil
}

func (s *ProductURLService) FixCapabilities() []Capability {
	return []Capability{CapabilityURLValidator}
}

// Fix validates stored short URLs. A broken one is replaced by the short form
// regenerated from the current title, and then by the long form, but only
// when the replacement itself validates.
func (s *ProductURLService) Fix(ctx context.Context, input FixURLsInput) (StepReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProductURLService.Fix")
	defer span.End()

	report := newReport("fix-urls", input.StepOptions)
	if s.validator == nil {
		return report, fmt.Errorf("%w: %s", ErrCapabilityUnavailable, CapabilityURLValidator)
	}

	query := card.Query{HasProductURL: true, CardNumber: strings.TrimSpace(input.CardNumber), Limit: input.Limit}
	items, err := s.cardRepo.List(ctx, query)
	if err != nil {
		return report, fmt.Errorf("list cards for url check: %w", err)
	}

	pacer := input.pacer()
	for _, item := range items {
		if err := pacer.Wait(ctx); err != nil {
			return report, err
		}

		// An unreachable stored URL counts as invalid so a fresh candidate
		// still gets tried.
		valid, status, err := s.validator.Exists(ctx, item.ProductURL)
		if err != nil {
			valid, status = false, 0
			report.Counts.Inc("check_error")
			s.logger.WarnContext(ctx, "check product url failed", "card_id", item.ID, "url", item.ProductURL, "error", err)
		}
		if valid && !input.Force {
			report.Counts.Inc("valid")
			continue
		}

		replacement, ok := s.replacement(ctx, item, pacer)
		if !ok {
			report.Counts.Inc("broken")
			s.logger.WarnContext(ctx, "product url broken and no candidate validated",
				"card_number", item.CardNumber,
				"url", item.ProductURL,
				"status", status,
			)
			continue
		}
		if replacement == item.ProductURL {
			report.Counts.Inc("valid")
			continue
		}
		if input.DryRun {
			report.Counts.Inc("would_fix")
			s.logger.InfoContext(ctx, "would replace product url", "card_number", item.CardNumber, "from", item.ProductURL, "to", replacement)
			continue
		}
		if err := s.cardRepo.UpdateProductURLs(ctx, item.ID, card.URLs{Short: replacement}); err != nil {
			report.Counts.Inc("failed")
			s.logger.WarnContext(ctx, "store fixed url failed", "card_id", item.ID, "error", err)
			continue
		}
		report.Counts.Inc("fixed")
	}

	s.logger.InfoContext(ctx, "fix urls finished", report.Counts.logArgs()...)
	return report, nil
}

func (s *ProductURLService) replacement(ctx context.Context, item card.Card, pacer *resilience.Pacer) (string, bool) {
	var candidates []string
	if short, ok := s.synthesizer.Short(item.Title); ok {
		candidates = append(candidates, short)
	}
	if item.ProductURLLong != "" {
		candidates = append(candidates, item.ProductURLLong)
	} else if long, ok := s.synthesizer.Long(item.SourceTitle); ok {
		candidates = append(candidates, long)
	}

	tried := map[string]bool{item.ProductURL: true}
	for _, candidate := range candidates {
		if tried[candidate] {
			continue
		}
		tried[candidate] = true
		if err := pacer.Wait(ctx); err != nil {
			return "", false
		}
		valid, _, err := s.validator.Exists(ctx, candidate)
		if err == nil && valid {
			return candidate, true
		}
	}
	return "", false
}

// CleanTitles re-applies title normalization to stored titles.
func (s *ProductURLService) CleanTitles(ctx context.Context, opts StepOptions) (StepReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProductURLService.CleanTitles")
	defer span.End()

	report := newReport("clean-titles", opts)
	items, err := s.cardRepo.List(ctx, card.Query{RequireTitle: true, Limit: opts.Limit})
	if err != nil {
		return report, fmt.Errorf("list cards for title cleanup: %w", err)
	}

	for _, item := range items {
		cleaned := cardtitle.Normalize(item.Title)
		if cleaned == item.Title {
			report.Counts.Inc("unchanged")
			continue
		}
		if cleaned == "" {
			report.Counts.Inc("skipped")
			continue
		}
		if opts.DryRun {
			report.Counts.Inc("would_clean")
			s.logger.InfoContext(ctx, "would clean title", "card_id", item.ID, "from", item.Title, "to", cleaned)
			continue
		}
		if err := s.cardRepo.UpdateTitle(ctx, item.ID, cleaned); err != nil {
			report.Counts.Inc("failed")
			s.logger.WarnContext(ctx, "store cleaned title failed", "card_id", item.ID, "error", err)
			continue
		}
		report.Counts.Inc("cleaned")
	}

	s.logger.InfoContext(ctx, "clean titles finished", report.Counts.logArgs()...)
	return report, nil
}
