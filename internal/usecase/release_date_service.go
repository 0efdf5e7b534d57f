package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/card"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
)

// ReleaseDateService reads product pages: release dates and the main
// product image.
type ReleaseDateService struct {
	renderer  PageRenderer
	extractor CatalogExtractor
	cardRepo  card.Repository
	logger    *logging.Logger
}

func NewReleaseDateService(renderer PageRenderer, extractor CatalogExtractor, cardRepo card.Repository, logger *logging.Logger) *ReleaseDateService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReleaseDateService{
		renderer:  renderer,
		extractor: extractor,
		cardRepo:  cardRepo,
		logger:    logger,
	}
}

func (s *ReleaseDateService) Capabilities() []Capability {
	return []Capability{CapabilityBrowser}
}

// Scrape fills release dates from product pages. Each card is rendered in a
// fresh browser session. A date that cannot be found leaves the card as is.
func (s *ReleaseDateService) Scrape(ctx context.Context, opts StepOptions) (StepReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReleaseDateService.Scrape")
	defer span.End()

	report := newReport("release-dates", opts)
	if s.renderer == nil {
		return report, fmt.Errorf("%w: %s", ErrCapabilityUnavailable, CapabilityBrowser)
	}
	if err := s.renderer.Available(); err != nil {
		return report, fmt.Errorf("%w: %s: %v", ErrCapabilityUnavailable, CapabilityBrowser, err)
	}

	items, err := s.cardRepo.List(ctx, card.Query{
		HasAnyProductURL:   true,
		MissingReleaseDate: !opts.Force,
		Limit:              opts.Limit,
	})
	if err != nil {
		return report, fmt.Errorf("list cards for release dates: %w", err)
	}

	pacer := opts.pacer()
	for _, item := range items {
		if err := pacer.Wait(ctx); err != nil {
			return report, err
		}

		found, err := s.scrapeOne(ctx, item, opts.DryRun)
		switch {
		case errors.Is(err, ErrFatalSession):
			return report, err
		case errors.Is(err, ErrExtractionMiss):
			report.Counts.Inc("not_found")
			s.logger.DebugContext(ctx, "release date not found", "card_number", item.CardNumber)
		case err != nil:
			report.Counts.Inc("failed")
			s.logger.WarnContext(ctx, "scrape release date failed", "card_number", item.CardNumber, "error", err)
		case opts.DryRun:
			report.Counts.Inc("found")
		case found:
			report.Counts.Inc("updated")
		}
	}

	s.logger.InfoContext(ctx, "release dates finished", report.Counts.logArgs()...)
	return report, nil
}

// scrapeOne tries the long product URL first, then the short one.
func (s *ReleaseDateService) scrapeOne(ctx context.Context, item card.Card, dryRun bool) (bool, error) {
	var date time.Time
	err := s.renderProduct(ctx, item, "release date", func(page RenderedPage) bool {
		var ok bool
		date, ok = s.extractor.ExtractReleaseDate(page)
		return ok
	})
	if err != nil {
		return false, err
	}
	if dryRun {
		s.logger.InfoContext(ctx, "found release date", "card_number", item.CardNumber, "release_date", date.Format("2006-01-02"))
		return true, nil
	}
	if err := s.cardRepo.UpdateReleaseDate(ctx, item.ID, date); err != nil {
		return false, fmt.Errorf("store release date: %w", err)
	}
	return true, nil
}

// ScrapeImages fills the image URL of cards whose listing carried no usable
// thumbnail. Force revisits cards that already have one.
func (s *ReleaseDateService) ScrapeImages(ctx context.Context, opts StepOptions) (StepReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReleaseDateService.ScrapeImages")
	defer span.End()

	report := newReport("card-images", opts)
	if s.renderer == nil {
		return report, fmt.Errorf("%w: %s", ErrCapabilityUnavailable, CapabilityBrowser)
	}
	if err := s.renderer.Available(); err != nil {
		return report, fmt.Errorf("%w: %s: %v", ErrCapabilityUnavailable, CapabilityBrowser, err)
	}

	items, err := s.cardRepo.List(ctx, card.Query{
		HasAnyProductURL: true,
		MissingImageURL:  !opts.Force,
		Limit:            opts.Limit,
	})
	if err != nil {
		return report, fmt.Errorf("list cards for images: %w", err)
	}

	pacer := opts.pacer()
	for _, item := range items {
		if err := pacer.Wait(ctx); err != nil {
			return report, err
		}

		var src string
		err := s.renderProduct(ctx, item, "image", func(page RenderedPage) bool {
			var ok bool
			src, ok = s.extractor.ExtractImageURL(page)
			return ok
		})
		switch {
		case errors.Is(err, ErrFatalSession):
			return report, err
		case errors.Is(err, ErrExtractionMiss):
			report.Counts.Inc("not_found")
			s.logger.DebugContext(ctx, "product image not found", "card_number", item.CardNumber)
			continue
		case err != nil:
			report.Counts.Inc("failed")
			s.logger.WarnContext(ctx, "scrape product image failed", "card_number", item.CardNumber, "error", err)
			continue
		}

		if src == item.ImageURL {
			report.Counts.Inc("unchanged")
			continue
		}
		if opts.DryRun {
			report.Counts.Inc("found")
			s.logger.InfoContext(ctx, "found product image", "card_number", item.CardNumber, "image_url", src)
			continue
		}
		if err := s.cardRepo.UpdateImageURL(ctx, item.ID, src); err != nil {
			report.Counts.Inc("failed")
			s.logger.WarnContext(ctx, "store product image failed", "card_id", item.ID, "error", err)
			continue
		}
		report.Counts.Inc("updated")
	}

	s.logger.InfoContext(ctx, "card images finished", report.Counts.logArgs()...)
	return report, nil
}

// renderProduct renders the long product URL, then the short one, until
// extract accepts a page. A page without the field is an extraction miss.
func (s *ReleaseDateService) renderProduct(ctx context.Context, item card.Card, field string, extract func(RenderedPage) bool) error {
	urls := make([]string, 0, 2)
	if item.ProductURLLong != "" {
		urls = append(urls, item.ProductURLLong)
	}
	if item.ProductURL != "" && item.ProductURL != item.ProductURLLong {
		urls = append(urls, item.ProductURL)
	}

	lastErr := fmt.Errorf("%w: no %s on product page", ErrExtractionMiss, field)
	for _, url := range urls {
		page, err := s.renderer.Render(ctx, url, RenderOptions{})
		if err != nil {
			if errors.Is(err, ErrFatalSession) {
				return err
			}
			lastErr = err
			continue
		}
		if extract(page) {
			return nil
		}
	}
	return lastErr
}
