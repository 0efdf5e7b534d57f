package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/tournament"
)

type rosterKey struct {
	tournamentID int64
	playerID     int64
	country      string
}

type TournamentRepository struct {
	mu          sync.RWMutex
	tournaments map[int]tournament.Tournament
	nextID      int64
	games       map[int64]tournament.Game
	roster      map[rosterKey]tournament.RosterEntry
}

func NewTournamentRepository() *TournamentRepository {
	return &TournamentRepository{
		tournaments: make(map[int]tournament.Tournament),
		games:       make(map[int64]tournament.Game),
		roster:      make(map[rosterKey]tournament.RosterEntry),
	}
}

func (r *TournamentRepository) UpsertTournament(_ context.Context, item tournament.Tournament) (tournament.Tournament, error) {
	if err := item.Validate(); err != nil {
		return tournament.Tournament{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.tournaments[item.Year]; ok {
		item.ID = existing.ID
	} else {
		r.nextID++
		item.ID = r.nextID
	}
	r.tournaments[item.Year] = item
	return item, nil
}

func (r *TournamentRepository) UpsertGame(_ context.Context, game tournament.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.games[game.GamePk] = game
	return nil
}

func (r *TournamentRepository) UpsertRosterEntries(_ context.Context, entries []tournament.RosterEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range entries {
		r.roster[rosterKey{tournamentID: e.TournamentID, playerID: e.ExternalPlayerID, country: e.Country}] = e
	}
	return nil
}

func (r *TournamentRepository) ListRosterEntries(_ context.Context, tournamentID int64) ([]tournament.RosterEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tournament.RosterEntry, 0)
	for _, e := range r.roster {
		if e.TournamentID == tournamentID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Country != out[j].Country {
			return out[i].Country < out[j].Country
		}
		return out[i].ExternalPlayerID < out[j].ExternalPlayerID
	})
	return out, nil
}

func (r *TournamentRepository) Games() []tournament.Game {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tournament.Game, 0, len(r.games))
	for _, g := range r.games {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GamePk < out[j].GamePk })
	return out
}
