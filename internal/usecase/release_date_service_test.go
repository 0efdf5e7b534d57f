package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/card"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/team"
	"github.com/riskibarqy/topps-now-tracker/internal/infrastructure/repository/memory"
	cardmock "github.com/riskibarqy/topps-now-tracker/internal/mocks/domain/card"
)

func TestReleaseDateService_PrefersLongURLAndStoresDate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cards := memory.NewCardRepository(nil)
	item := seedCard(t, cards, "OS-14", bregmanTitle)
	_ = cards.UpdateProductURLs(ctx, item.ID, card.URLs{Short: "https://x/short", Long: "https://x/long"})

	renderer := &stubRenderer{pages: map[string]string{
		"https://x/short": "short-page",
		"https://x/long":  "long-page",
	}}
	extractor := stubExtractor{dates: map[string]time.Time{
		"long-page": time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC),
	}}
	svc := NewReleaseDateService(renderer, extractor, cards, testLogger())

	report, err := svc.Scrape(ctx, StepOptions{})
	if err != nil {
		t.Fatalf("scrape release dates: %v", err)
	}
	if report.Counts.Get("updated") != 1 {
		t.Fatalf("unexpected counts: %v", report.Counts.Map())
	}
	if len(renderer.rendered) != 1 || renderer.rendered[0] != "https://x/long" {
		t.Fatalf("expected only the long url to be rendered, got %v", renderer.rendered)
	}

	got, _, _ := cards.GetByNumber(ctx, item.SetID, "OS-14")
	if got.ReleaseDate == nil || got.ReleaseDate.Format("2006-01-02") != "2025-03-28" {
		t.Fatalf("unexpected release date: %v", got.ReleaseDate)
	}
}

func TestReleaseDateService_MissLeavesDateUnknown(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cards := memory.NewCardRepository(nil)
	item := seedCard(t, cards, "OS-14", bregmanTitle)
	_ = cards.UpdateProductURLs(ctx, item.ID, card.URLs{Short: "https://x/short"})

	renderer := &stubRenderer{pages: map[string]string{"https://x/short": "blank"}}
	svc := NewReleaseDateService(renderer, stubExtractor{}, cards, testLogger())

	report, err := svc.Scrape(ctx, StepOptions{})
	if err != nil {
		t.Fatalf("scrape release dates: %v", err)
	}
	if report.Counts.Get("not_found") != 1 {
		t.Fatalf("unexpected counts: %v", report.Counts.Map())
	}
	got, _, _ := cards.GetByNumber(ctx, item.SetID, "OS-14")
	if got.ReleaseDate != nil {
		t.Fatalf("release date must stay unknown")
	}
}

func TestReleaseDateService_FatalSessionAbortsStep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cards := memory.NewCardRepository(nil)
	for i := 1; i <= 3; i++ {
		item := seedCard(t, cards, fmt.Sprint(i), fmt.Sprintf("P%d Name - 2025 MLB Topps NOW® - Card %d", i, i))
		_ = cards.UpdateProductURLs(ctx, item.ID, card.URLs{Short: fmt.Sprintf("https://x/%d", i)})
	}

	renderer := &stubRenderer{errs: map[string]error{"https://x/1": fmt.Errorf("%w: launch", ErrFatalSession)}}
	svc := NewReleaseDateService(renderer, stubExtractor{}, cards, testLogger())

	_, err := svc.Scrape(ctx, StepOptions{})
	if !errors.Is(err, ErrFatalSession) {
		t.Fatalf("expected fatal session error, got %v", err)
	}
	if len(renderer.rendered) != 1 {
		t.Fatalf("step should stop at the first fatal error, rendered %v", renderer.rendered)
	}
}

func TestReleaseDateService_ScrapeImagesFillsMissingImages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cards := memory.NewCardRepository(nil)
	bare := seedCard(t, cards, "OS-14", bregmanTitle)
	_ = cards.UpdateProductURLs(ctx, bare.ID, card.URLs{Short: "https://x/short", Long: "https://x/long"})

	pictured := seedCard(t, cards, "9", "Juan Soto - 2025 MLB Topps NOW® - Card 9")
	_ = cards.UpdateProductURLs(ctx, pictured.ID, card.URLs{Short: "https://x/soto"})
	_ = cards.UpdateImageURL(ctx, pictured.ID, "https://cdn.shopify.com/soto_500x.jpg")

	renderer := &stubRenderer{pages: map[string]string{
		"https://x/long": "long-page",
		"https://x/soto": "soto-page",
	}}
	extractor := stubExtractor{images: map[string]string{
		"long-page": "https://cdn.shopify.com/os-14_500x.jpg",
		"soto-page": "https://cdn.shopify.com/other_500x.jpg",
	}}
	svc := NewReleaseDateService(renderer, extractor, cards, testLogger())

	report, err := svc.ScrapeImages(ctx, StepOptions{})
	if err != nil {
		t.Fatalf("scrape images: %v", err)
	}
	if report.Counts.Get("updated") != 1 {
		t.Fatalf("unexpected counts: %v", report.Counts.Map())
	}
	if len(renderer.rendered) != 1 || renderer.rendered[0] != "https://x/long" {
		t.Fatalf("cards with an image must be skipped without force, rendered %v", renderer.rendered)
	}

	got, _, _ := cards.GetByNumber(ctx, bare.SetID, "OS-14")
	if got.ImageURL != "https://cdn.shopify.com/os-14_500x.jpg" {
		t.Fatalf("unexpected image url: %q", got.ImageURL)
	}
	kept, _, _ := cards.GetByNumber(ctx, pictured.SetID, "9")
	if kept.ImageURL != "https://cdn.shopify.com/soto_500x.jpg" {
		t.Fatalf("existing image must be kept, got %q", kept.ImageURL)
	}
}

func TestReleaseDateService_ScrapeImagesOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		opts      StepOptions
		wantCount string
		wantImage string
	}{
		{name: "dry run stores nothing", opts: StepOptions{DryRun: true}, wantCount: "found", wantImage: ""},
		{name: "force overwrites", opts: StepOptions{Force: true}, wantCount: "updated", wantImage: "https://cdn.shopify.com/new_500x.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			cards := memory.NewCardRepository(nil)
			item := seedCard(t, cards, "OS-14", bregmanTitle)
			_ = cards.UpdateProductURLs(ctx, item.ID, card.URLs{Short: "https://x/short"})
			if tt.opts.Force {
				_ = cards.UpdateImageURL(ctx, item.ID, "https://cdn.shopify.com/old_500x.jpg")
			}

			renderer := &stubRenderer{pages: map[string]string{"https://x/short": "page"}}
			extractor := stubExtractor{images: map[string]string{"page": "https://cdn.shopify.com/new_500x.jpg"}}
			svc := NewReleaseDateService(renderer, extractor, cards, testLogger())

			report, err := svc.ScrapeImages(ctx, tt.opts)
			if err != nil {
				t.Fatalf("scrape images: %v", err)
			}
			if report.Counts.Get(tt.wantCount) != 1 {
				t.Fatalf("unexpected counts: %v", report.Counts.Map())
			}
			got, _, _ := cards.GetByNumber(ctx, item.SetID, "OS-14")
			if got.ImageURL != tt.wantImage {
				t.Fatalf("image: got %q want %q", got.ImageURL, tt.wantImage)
			}
		})
	}
}

func TestReleaseDateService_ScrapeImagesMissAndUnavailable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cards := memory.NewCardRepository(nil)
	item := seedCard(t, cards, "OS-14", bregmanTitle)
	_ = cards.UpdateProductURLs(ctx, item.ID, card.URLs{Short: "https://x/short"})

	renderer := &stubRenderer{pages: map[string]string{"https://x/short": "no-image"}}
	svc := NewReleaseDateService(renderer, stubExtractor{}, cards, testLogger())
	report, err := svc.ScrapeImages(ctx, StepOptions{})
	if err != nil {
		t.Fatalf("scrape images: %v", err)
	}
	if report.Counts.Get("not_found") != 1 {
		t.Fatalf("unexpected counts: %v", report.Counts.Map())
	}

	offline := NewReleaseDateService(&stubRenderer{available: errors.New("no chromium")}, stubExtractor{}, cards, testLogger())
	if _, err := offline.ScrapeImages(ctx, StepOptions{}); !errors.Is(err, ErrCapabilityUnavailable) {
		t.Fatalf("expected capability error, got %v", err)
	}
}

func TestGameDate_IsDayBeforeRelease(t *testing.T) {
	t.Parallel()

	got := GameDate(time.Date(2025, 3, 28, 15, 0, 0, 0, time.UTC))
	if got.Format("2006-01-02") != "2025-03-27" {
		t.Fatalf("unexpected game date: %s", got)
	}
	if got := GameDate(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)); got.Format("2006-01-02") != "2025-02-28" {
		t.Fatalf("unexpected month rollover: %s", got)
	}
}

func TestGameLinkService_QueriesDayBeforeAndBindsFirstGame(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	extID := int64(117)
	teams := memory.NewTeamRepository([]team.Team{{ID: 3, ExternalID: &extID, Abbreviation: "HOU", FullName: "Houston Astros"}})
	cards := memory.NewCardRepository(teams)
	set, _ := cards.GetOrCreateSet(ctx, 2025)
	teamID := int64(3)
	item, _, _ := cards.Upsert(ctx, card.Draft{SetID: set.ID, Identity: card.Sequential("OS-14"), PlayerID: 1, TeamID: &teamID, Title: bregmanTitle})
	_ = cards.UpdateReleaseDate(ctx, item.ID, time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC))

	gameDay := time.Date(2025, 3, 27, 0, 0, 0, 0, time.UTC)
	stats := &stubStats{schedules: map[string][]ExternalGame{
		scheduleKey(gameDay, 117): {{GamePk: 778001}, {GamePk: 778002}},
	}}
	svc := NewGameLinkService(cards, teams, stats, testLogger())

	report, err := svc.Link(ctx, StepOptions{})
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if report.Counts.Get("linked") != 1 || report.Counts.Get("doubleheader") != 1 {
		t.Fatalf("unexpected counts: %v", report.Counts.Map())
	}
	if len(stats.schedCall) != 1 || !stats.schedCall[0].date.Equal(gameDay) || stats.schedCall[0].teamID != 117 {
		t.Fatalf("unexpected schedule query: %+v", stats.schedCall)
	}
	got, _, _ := cards.GetByNumber(ctx, set.ID, "OS-14")
	if got.GameID == nil || *got.GameID != 778001 {
		t.Fatalf("expected first game bound, got %v", got.GameID)
	}
}

func TestGameLinkService_StoreFailureIsCountedNotReturned(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	extID := int64(117)
	teams := memory.NewTeamRepository([]team.Team{{ID: 3, ExternalID: &extID, Abbreviation: "HOU", FullName: "Houston Astros"}})
	teamID := int64(3)
	released := time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC)
	item := card.Card{ID: 42, CardNumber: "OS-14", TeamID: &teamID, ReleaseDate: &released}

	repo := cardmock.NewRepository(t)
	repo.On("List", mock.Anything, card.Query{HasReleaseDate: true, MissingGameID: true, TeamHasExternalID: true}).
		Return([]card.Card{item}, nil).Once()
	repo.On("UpdateGameID", mock.Anything, int64(42), int64(778001)).Return(errors.New("connection reset")).Once()

	stats := &stubStats{schedules: map[string][]ExternalGame{
		scheduleKey(GameDate(released), 117): {{GamePk: 778001}},
	}}
	svc := NewGameLinkService(repo, teams, stats, testLogger())

	report, err := svc.Link(ctx, StepOptions{})
	if err != nil {
		t.Fatalf("per-card store errors must not fail the step: %v", err)
	}
	if report.Counts.Get("failed") != 1 || report.Counts.Get("linked") != 0 {
		t.Fatalf("unexpected counts: %v", report.Counts.Map())
	}
}

func TestGameLinkService_ListFailureFailsStep(t *testing.T) {
	t.Parallel()

	repo := cardmock.NewRepository(t)
	repo.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()

	svc := NewGameLinkService(repo, memory.NewTeamRepository(nil), &stubStats{}, testLogger())
	if _, err := svc.Link(context.Background(), StepOptions{}); err == nil {
		t.Fatalf("expected list error to fail the step")
	}
	repo.AssertNotCalled(t, "UpdateGameID", mock.Anything, mock.Anything, mock.Anything)
}
