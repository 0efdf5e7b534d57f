package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/rawdata"
)

type RawDataRepository struct {
	mu       sync.RWMutex
	payloads map[string]rawdata.Payload
}

func NewRawDataRepository() *RawDataRepository {
	return &RawDataRepository{payloads: make(map[string]rawdata.Payload)}
}

func (r *RawDataRepository) UpsertMany(_ context.Context, items []rawdata.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		r.payloads[item.Source+"|"+item.EntityType+"|"+item.EntityKey] = item
	}
	return nil
}

func (r *RawDataRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.payloads)
}
