package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/card"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/player"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/team"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/cardtitle"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultArchiveURL = "https://www.topps.com/collections/topps-now-archive"

type ScrapeConfig struct {
	ArchiveURL string
	MaxCards   int
}

type ScrapeInput struct {
	StepOptions
	// URLs overrides the archive entry page. Each is rendered in its own
	// browser session.
	URLs     []string
	MaxCards int
}

type ScrapeService struct {
	renderer  PageRenderer
	extractor CatalogExtractor
	cardRepo  card.Repository
	players   player.Repository
	teams     team.Repository
	cfg       ScrapeConfig
	logger    *logging.Logger
	now       func() time.Time
}

func NewScrapeService(
	renderer PageRenderer,
	extractor CatalogExtractor,
	cardRepo card.Repository,
	players player.Repository,
	teams team.Repository,
	cfg ScrapeConfig,
	logger *logging.Logger,
) *ScrapeService {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.ArchiveURL) == "" {
		cfg.ArchiveURL = DefaultArchiveURL
	}
	if cfg.MaxCards <= 0 {
		cfg.MaxCards = 50
	}

	return &ScrapeService{
		renderer:  renderer,
		extractor: extractor,
		cardRepo:  cardRepo,
		players:   players,
		teams:     teams,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *ScrapeService) Capabilities() []Capability {
	return []Capability{CapabilityBrowser}
}

func (s *ScrapeService) Scrape(ctx context.Context, input ScrapeInput) (StepReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScrapeService.Scrape")
	defer span.End()

	report := newReport("scrape", input.StepOptions)
	if s.renderer == nil {
		return report, fmt.Errorf("%w: %s", ErrCapabilityUnavailable, CapabilityBrowser)
	}
	if err := s.renderer.Available(); err != nil {
		return report, fmt.Errorf("%w: %s: %v", ErrCapabilityUnavailable, CapabilityBrowser, err)
	}

	urls := input.URLs
	if len(urls) == 0 {
		urls = []string{s.cfg.ArchiveURL}
	}
	maxCards := input.MaxCards
	if maxCards <= 0 {
		maxCards = s.cfg.MaxCards
	}
	span.SetAttributes(attribute.Int("scrape.urls", len(urls)), attribute.Int("scrape.max_cards", maxCards))

	pacer := input.pacer()
	processed := 0
	for i, url := range urls {
		if processed >= maxCards {
			break
		}
		if err := pacer.Wait(ctx); err != nil {
			return report, err
		}

		page, err := s.renderer.Render(ctx, url, RenderOptions{Scroll: true, DebugName: fmt.Sprintf("archive-%d", i)})
		if err != nil {
			if errors.Is(err, ErrFatalSession) {
				return report, err
			}
			report.Counts.Inc("pages_failed")
			s.logger.WarnContext(ctx, "render catalog page failed", "url", url, "error", err)
			continue
		}
		report.Counts.Inc("pages")

		listings := s.extractor.ExtractListings(page)
		report.Counts.Add("listings", len(listings))
		if len(listings) == 0 {
			s.logger.WarnContext(ctx, "catalog page yielded no listings", "url", url)
		}

		for _, raw := range listings {
			if processed >= maxCards {
				break
			}
			processed++

			created, err := s.ingest(ctx, raw, input.DryRun)
			switch {
			case errors.Is(err, ErrExtractionMiss):
				report.Counts.Inc("skipped")
				s.logger.WarnContext(ctx, "listing skipped", "title", raw.Title, "error", err)
			case err != nil:
				report.Counts.Inc("failed")
				s.logger.WarnContext(ctx, "ingest listing failed", "title", raw.Title, "error", err)
			case input.DryRun:
				report.Counts.Inc("parsed")
			case created:
				report.Counts.Inc("created")
			default:
				report.Counts.Inc("updated")
			}
		}
	}

	s.logger.InfoContext(ctx, "scrape finished", report.Counts.logArgs()...)
	return report, nil
}

// ingest turns one raw listing into a stored card. It returns whether a new
// card row was created.
func (s *ScrapeService) ingest(ctx context.Context, raw card.RawExtract, dryRun bool) (bool, error) {
	title := cardtitle.Normalize(raw.Title)
	if title == "" {
		return false, fmt.Errorf("%w: listing has no title", ErrExtractionMiss)
	}

	identity := cardtitle.DeriveIdentity(title, raw.CardNumberHint)
	playerName := player.TeamSetName
	if identity.Kind != card.KindTeamSet {
		playerName = cardtitle.PlayerName(title)
	}
	if strings.TrimSpace(playerName) == "" {
		return false, fmt.Errorf("%w: no player name in %q", ErrExtractionMiss, title)
	}

	var totalPrint *int
	if n, ok := cardtitle.PrintRunFromTitle(title); ok {
		totalPrint = &n
	} else if n, ok := cardtitle.ParsePrintRun(raw.PrintRunText); ok {
		totalPrint = &n
	}

	year, ok := cardtitle.Year(title)
	if !ok {
		year = s.now().UTC().Year()
	}

	if dryRun {
		s.logger.InfoContext(ctx, "parsed listing",
			"card_number", identity.CardNumber(),
			"player", playerName,
			"year", year,
			"title", title,
		)
		return false, nil
	}

	set, err := s.cardRepo.GetOrCreateSet(ctx, year)
	if err != nil {
		return false, fmt.Errorf("get or create set year=%d: %w", year, err)
	}
	owner, _, err := s.players.GetOrCreate(ctx, playerName)
	if err != nil {
		return false, fmt.Errorf("get or create player %q: %w", playerName, err)
	}

	draft := card.Draft{
		SetID:       set.ID,
		Identity:    identity,
		PlayerID:    owner.ID,
		Title:       title,
		SourceTitle: strings.TrimSpace(cardtitle.JoinLines(raw.Title)),
		TotalPrint:  totalPrint,
		ImageURL:    strings.TrimSpace(raw.ImageURL),
		DetailURL:   strings.TrimSpace(raw.DetailURL),
	}
	if identity.Kind == card.KindTeamSet {
		draft.TeamID = s.teamSetTeam(ctx, title)
	}

	_, created, err := s.cardRepo.Upsert(ctx, draft)
	if err != nil {
		return false, fmt.Errorf("upsert card %s: %w", identity.CardNumber(), err)
	}
	return created, nil
}

func (s *ScrapeService) teamSetTeam(ctx context.Context, title string) *int64 {
	if s.teams == nil {
		return nil
	}
	name, ok := cardtitle.TeamName(title)
	if !ok {
		return nil
	}
	item, found, err := s.teams.FindByName(ctx, name)
	if err != nil {
		s.logger.WarnContext(ctx, "lookup team for team set failed", "team", name, "error", err)
		return nil
	}
	if !found {
		return nil
	}
	id := item.ID
	return &id
}
