package memory

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/card"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/team"
)

func TestCardRepositoryUpsertKeepsEnrichment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewCardRepository(nil)
	set, err := repo.GetOrCreateSet(ctx, 2025)
	if err != nil {
		t.Fatalf("get or create set: %v", err)
	}

	print1 := 2176
	draft := card.Draft{SetID: set.ID, Identity: card.Sequential("OS-14"), PlayerID: 1, Title: "t1", TotalPrint: &print1}
	created, isNew, err := repo.Upsert(ctx, draft)
	if err != nil || !isNew {
		t.Fatalf("first upsert: new=%v err=%v", isNew, err)
	}
	if created.SetYear != 2025 {
		t.Fatalf("expected set year 2025, got %d", created.SetYear)
	}

	if err := repo.UpdateReleaseDate(ctx, created.ID, time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("update release date: %v", err)
	}

	draft.Title = "t2"
	draft.TotalPrint = nil
	updated, isNew, err := repo.Upsert(ctx, draft)
	if err != nil || isNew {
		t.Fatalf("second upsert: new=%v err=%v", isNew, err)
	}
	if updated.ID != created.ID || updated.Title != "t2" {
		t.Fatalf("expected in-place update, got %+v", updated)
	}
	if updated.TotalPrint == nil || *updated.TotalPrint != 2176 {
		t.Fatalf("print run should be kept when draft has none")
	}
	if updated.ReleaseDate == nil {
		t.Fatalf("release date must survive a rescrape")
	}

	count, _ := repo.Count(ctx)
	if count != 1 {
		t.Fatalf("expected one card, got %d", count)
	}
}

func TestCardRepositoryListFilters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	extID := int64(117)
	teams := NewTeamRepository([]team.Team{
		{ID: 1, ExternalID: &extID, Abbreviation: "HOU", FullName: "Houston Astros"},
		{ID: 2, Abbreviation: "XX", FullName: "No External"},
	})
	repo := NewCardRepository(teams)
	set, _ := repo.GetOrCreateSet(ctx, 2025)

	withTeam, withoutExternal := int64(1), int64(2)
	a, _, _ := repo.Upsert(ctx, card.Draft{SetID: set.ID, Identity: card.Sequential("1"), PlayerID: 1, TeamID: &withTeam, Title: "a"})
	_, _, _ = repo.Upsert(ctx, card.Draft{SetID: set.ID, Identity: card.Sequential("2"), PlayerID: 1, TeamID: &withoutExternal, Title: "b"})
	_, _, _ = repo.Upsert(ctx, card.Draft{SetID: set.ID, Identity: card.Sequential("3"), PlayerID: 2, Title: "c"})
	_ = repo.UpdateReleaseDate(ctx, a.ID, time.Now())

	got, err := repo.List(ctx, card.Query{HasReleaseDate: true, TeamHasExternalID: true, MissingGameID: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("unexpected cards: %+v", got)
	}

	limited, _ := repo.List(ctx, card.Query{MissingProductURL: true, Limit: 2})
	if len(limited) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}

	n, _ := repo.AssignTeamForPlayer(ctx, 2, 1)
	if n != 1 {
		t.Fatalf("expected one card to inherit team, got %d", n)
	}
}

func TestCardRepositoryImageFilters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewCardRepository(nil)
	set, _ := repo.GetOrCreateSet(ctx, 2025)

	upsert := func(number string) card.Card {
		t.Helper()
		item, _, err := repo.Upsert(ctx, card.Draft{SetID: set.ID, Identity: card.Sequential(number), PlayerID: 1, Title: "t" + number})
		if err != nil {
			t.Fatalf("upsert %s: %v", number, err)
		}
		return item
	}
	longOnly := upsert("1")
	pictured := upsert("2")
	upsert("3")

	_ = repo.UpdateProductURLs(ctx, longOnly.ID, card.URLs{Long: "https://x/long"})
	_ = repo.UpdateProductURLs(ctx, pictured.ID, card.URLs{Short: "https://x/2"})
	if err := repo.UpdateImageURL(ctx, pictured.ID, "https://cdn.shopify.com/2.jpg"); err != nil {
		t.Fatalf("update image url: %v", err)
	}

	got, err := repo.List(ctx, card.Query{HasAnyProductURL: true, MissingImageURL: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != longOnly.ID {
		t.Fatalf("expected only the long-url card without image, got %+v", got)
	}

	if err := repo.UpdateImageURL(ctx, 999, "x"); err == nil {
		t.Fatalf("expected error for unknown card")
	}
}
