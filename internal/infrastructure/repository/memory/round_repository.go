package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rmarban/euroleague-fantasy/internal/domain/round"
)

type RoundRepository struct {
	mu     sync.RWMutex
	rounds map[int64]round.Round
}

func NewRoundRepository() *RoundRepository {
	return &RoundRepository{rounds: make(map[int64]round.Round)}
}

func (r *RoundRepository) UpsertBatch(_ context.Context, rounds []round.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range rounds {
		r.rounds[item.ID] = item
	}
	return nil
}

func (r *RoundRepository) List(_ context.Context) ([]round.Round, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]round.Round, 0, len(r.rounds))
	for _, item := range r.rounds {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
