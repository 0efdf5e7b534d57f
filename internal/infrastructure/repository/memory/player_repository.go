package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/player"
)

type PlayerRepository struct {
	mu         sync.RWMutex
	players    map[int64]player.Player
	byName     map[string]int64
	byExternal map[int64]int64
	nextID     int64
	now        func() time.Time
}

// NewPlayerRepository seeds the store. Seeded players keep their IDs when set.
func NewPlayerRepository(seed []player.Player) *PlayerRepository {
	r := &PlayerRepository{
		players:    make(map[int64]player.Player),
		byName:     make(map[string]int64),
		byExternal: make(map[int64]int64),
		now:        time.Now,
	}
	for _, p := range seed {
		if p.ID == 0 {
			r.nextID++
			p.ID = r.nextID
		} else if p.ID > r.nextID {
			r.nextID = p.ID
		}
		r.index(p)
	}
	return r
}

func (r *PlayerRepository) index(p player.Player) {
	r.players[p.ID] = p
	r.byName[p.FullName] = p.ID
	if p.ExternalID != nil {
		r.byExternal[*p.ExternalID] = p.ID
	}
}

func (r *PlayerRepository) GetOrCreate(_ context.Context, fullName string) (player.Player, bool, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return player.Player{}, false, fmt.Errorf("player full name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byName[fullName]; ok {
		return r.players[id], false, nil
	}

	first, last := player.SplitName(fullName)
	now := r.now().UTC()
	r.nextID++
	p := player.Player{
		ID:        r.nextID,
		FullName:  fullName,
		FirstName: first,
		LastName:  last,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.index(p)
	return p, true, nil
}

func (r *PlayerRepository) GetByID(_ context.Context, playerID int64) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.players[playerID]
	return p, ok, nil
}

func (r *PlayerRepository) GetByExternalID(_ context.Context, externalID int64) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byExternal[externalID]
	if !ok {
		return player.Player{}, false, nil
	}
	return r.players[id], true, nil
}

func (r *PlayerRepository) List(_ context.Context, query player.Query) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Player, 0, len(r.players))
	for _, p := range r.players {
		switch {
		case query.ActiveOnly && !p.IsActive:
			continue
		case query.HasExternalID && p.ExternalID == nil:
			continue
		case query.MissingExternalID && p.ExternalID != nil:
			continue
		case query.MissingNationality && p.Nationality != "":
			continue
		case len(query.IDs) > 0 && !slices.Contains(query.IDs, p.ID):
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (r *PlayerRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players), nil
}

func (r *PlayerRepository) AssignExternalID(_ context.Context, playerID, externalID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return fmt.Errorf("player %d not found", playerID)
	}
	if p.ExternalID != nil {
		if *p.ExternalID == externalID {
			return nil
		}
		return player.ErrExternalIDImmutable
	}
	if owner, taken := r.byExternal[externalID]; taken && owner != playerID {
		return player.ErrExternalIDTaken
	}

	p.ExternalID = int64Ptr(externalID)
	p.UpdatedAt = r.now().UTC()
	r.index(p)
	return nil
}

func (r *PlayerRepository) SetTeam(_ context.Context, playerID, teamID int64) error {
	return r.update(playerID, func(p *player.Player) { p.TeamID = int64Ptr(teamID) })
}

func (r *PlayerRepository) SetNationality(_ context.Context, playerID int64, nationality string) error {
	return r.update(playerID, func(p *player.Player) { p.Nationality = nationality })
}

func (r *PlayerRepository) MergeTournamentParticipation(_ context.Context, playerID int64, years []int, country string) error {
	return r.update(playerID, func(p *player.Player) {
		p.TournamentYears = player.MergeYears(p.TournamentYears, years)
		if country != "" {
			p.TournamentCountry = country
		}
	})
}

func (r *PlayerRepository) update(playerID int64, apply func(*player.Player)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return fmt.Errorf("player %d not found", playerID)
	}
	apply(&p)
	p.UpdatedAt = r.now().UTC()
	r.index(p)
	return nil
}
