package cache

import (
	"context"
	"strconv"
	"strings"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/team"
	basecache "github.com/riskibarqy/topps-now-tracker/internal/platform/cache"
)

// TeamRepository is a read-through cache over a team store. Team rows change
// only during a team sync, while game linking and player resolution read them
// once per card, so any write drops the whole cache.
type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
}

func NewTeamRepository(next team.Repository, cache *basecache.Store) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

type cachedTeam struct {
	value  team.Team
	exists bool
}

func (r *TeamRepository) Upsert(ctx context.Context, item team.Team) (team.Team, error) {
	saved, err := r.next.Upsert(ctx, item)
	if err != nil {
		return team.Team{}, err
	}
	r.cache.Clear(ctx)
	return saved, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID int64) (team.Team, bool, error) {
	return r.lookup(ctx, "team:id:"+strconv.FormatInt(teamID, 10), func(ctx context.Context) (team.Team, bool, error) {
		return r.next.GetByID(ctx, teamID)
	})
}

func (r *TeamRepository) GetByExternalID(ctx context.Context, externalID int64) (team.Team, bool, error) {
	return r.lookup(ctx, "team:ext:"+strconv.FormatInt(externalID, 10), func(ctx context.Context) (team.Team, bool, error) {
		return r.next.GetByExternalID(ctx, externalID)
	})
}

func (r *TeamRepository) FindByName(ctx context.Context, fullName string) (team.Team, bool, error) {
	key := "team:name:" + strings.ToLower(strings.TrimSpace(fullName))
	return r.lookup(ctx, key, func(ctx context.Context) (team.Team, bool, error) {
		return r.next.FindByName(ctx, fullName)
	})
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	items, err := basecache.Load(ctx, r.cache, "team:list", func(ctx context.Context) ([]team.Team, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]team.Team(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]team.Team(nil), items...), nil
}

func (r *TeamRepository) lookup(ctx context.Context, key string, load func(context.Context) (team.Team, bool, error)) (team.Team, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, key, func(ctx context.Context) (cachedTeam, error) {
		item, exists, err := load(ctx)
		if err != nil {
			return cachedTeam{}, err
		}
		return cachedTeam{value: item, exists: exists}, nil
	})
	if err != nil {
		return team.Team{}, false, err
	}
	return cached.value, cached.exists, nil
}
