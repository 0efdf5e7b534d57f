package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/team"
	"github.com/riskibarqy/topps-now-tracker/internal/infrastructure/repository/memory"
	basecache "github.com/riskibarqy/topps-now-tracker/internal/platform/cache"
)

type countingTeams struct {
	team.Repository
	reads   int
	failing bool
}

func (c *countingTeams) GetByExternalID(ctx context.Context, externalID int64) (team.Team, bool, error) {
	c.reads++
	if c.failing {
		return team.Team{}, false, errors.New("store unavailable")
	}
	return c.Repository.GetByExternalID(ctx, externalID)
}

func (c *countingTeams) List(ctx context.Context) ([]team.Team, error) {
	c.reads++
	return c.Repository.List(ctx)
}

func int64Ptr(v int64) *int64 { return &v }

func newCountingTeams() *countingTeams {
	return &countingTeams{Repository: memory.NewTeamRepository([]team.Team{
		{ID: 1, ExternalID: int64Ptr(147), Abbreviation: "NYY", FullName: "New York Yankees"},
	})}
}

func TestTeamRepository_CachesLookups(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	next := newCountingTeams()
	repo := NewTeamRepository(next, basecache.NewStore(0))

	for i := 0; i < 3; i++ {
		got, ok, err := repo.GetByExternalID(ctx, 147)
		if err != nil || !ok {
			t.Fatalf("lookup: ok=%v err=%v", ok, err)
		}
		if got.Abbreviation != "NYY" {
			t.Fatalf("unexpected team: %+v", got)
		}
	}
	if next.reads != 1 {
		t.Fatalf("expected one read through, got %d", next.reads)
	}

	if _, ok, err := repo.GetByExternalID(ctx, 999); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if _, _, _ = repo.GetByExternalID(ctx, 999); next.reads != 2 {
		t.Fatalf("expected misses to be cached, got %d reads", next.reads)
	}
}

func TestTeamRepository_UpsertDropsCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	next := newCountingTeams()
	repo := NewTeamRepository(next, basecache.NewStore(0))

	if _, err := repo.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := repo.Upsert(ctx, team.Team{ExternalID: int64Ptr(111), Abbreviation: "BOS", FullName: "Boston Red Sox"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	items, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected fresh list after upsert, got %d teams", len(items))
	}
	if next.reads != 2 {
		t.Fatalf("expected a second read after upsert, got %d", next.reads)
	}
}

func TestTeamRepository_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	next := newCountingTeams()
	next.failing = true
	repo := NewTeamRepository(next, basecache.NewStore(0))

	if _, _, err := repo.GetByExternalID(ctx, 147); err == nil {
		t.Fatalf("expected error")
	}
	next.failing = false
	if _, ok, err := repo.GetByExternalID(ctx, 147); err != nil || !ok {
		t.Fatalf("expected recovery, got ok=%v err=%v", ok, err)
	}
}
