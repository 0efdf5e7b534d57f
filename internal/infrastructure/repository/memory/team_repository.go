package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/team"
)

type TeamRepository struct {
	mu     sync.RWMutex
	teams  map[int64]team.Team
	nextID int64
}

func NewTeamRepository(seed []team.Team) *TeamRepository {
	r := &TeamRepository{teams: make(map[int64]team.Team)}
	for _, t := range seed {
		if t.ID == 0 {
			r.nextID++
			t.ID = r.nextID
		} else if t.ID > r.nextID {
			r.nextID = t.ID
		}
		r.teams[t.ID] = t
	}
	return r
}

// Upsert matches on external id, falling back to the full name.
func (r *TeamRepository) Upsert(_ context.Context, item team.Team) (team.Team, error) {
	if err := item.Validate(); err != nil {
		return team.Team{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, existing := range r.teams {
		sameExternal := item.HasExternalID() && existing.HasExternalID() && *existing.ExternalID == *item.ExternalID
		if sameExternal || strings.EqualFold(existing.FullName, item.FullName) {
			item.ID = id
			r.teams[id] = item
			return item, nil
		}
	}

	r.nextID++
	item.ID = r.nextID
	r.teams[item.ID] = item
	return item, nil
}

func (r *TeamRepository) GetByID(_ context.Context, teamID int64) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.teams[teamID]
	return t, ok, nil
}

func (r *TeamRepository) GetByExternalID(_ context.Context, externalID int64) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.teams {
		if t.HasExternalID() && *t.ExternalID == externalID {
			return t, true, nil
		}
	}
	return team.Team{}, false, nil
}

func (r *TeamRepository) FindByName(_ context.Context, fullName string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fullName = strings.TrimSpace(fullName)
	for _, t := range r.teams {
		if strings.EqualFold(t.FullName, fullName) {
			return t, true, nil
		}
	}
	return team.Team{}, false, nil
}

func (r *TeamRepository) List(_ context.Context) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0, len(r.teams))
	for _, t := range r.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
