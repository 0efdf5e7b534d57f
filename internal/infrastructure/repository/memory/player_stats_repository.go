package memory

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/playerstats"
)

type statKey struct {
	playerID int64
	season   int
	kind     playerstats.Kind
}

type PlayerStatsRepository struct {
	mu    sync.RWMutex
	lines map[statKey]playerstats.Line
	now   func() time.Time
}

func NewPlayerStatsRepository() *PlayerStatsRepository {
	return &PlayerStatsRepository{
		lines: make(map[statKey]playerstats.Line),
		now:   time.Now,
	}
}

func (r *PlayerStatsRepository) Upsert(_ context.Context, line playerstats.Line) error {
	if err := line.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	line.UpdatedAt = r.now().UTC()
	r.lines[statKey{playerID: line.PlayerID, season: line.Season, kind: line.Kind}] = line
	return nil
}

func (r *PlayerStatsRepository) Get(_ context.Context, playerID int64, season int, kind playerstats.Kind) (playerstats.Line, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	line, ok := r.lines[statKey{playerID: playerID, season: season, kind: kind}]
	return line, ok, nil
}

func (r *PlayerStatsRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lines)
}
