package memory

import (
	"context"
	"sync"

	"github.com/rmarban/euroleague-fantasy/internal/domain/squad"
)

type SquadRepository struct {
	mu      sync.RWMutex
	entries []squad.InitialEntry
}

func NewSquadRepository() *SquadRepository {
	return &SquadRepository{}
}

func (r *SquadRepository) Replace(_ context.Context, entries []squad.InitialEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make([]squad.InitialEntry, len(entries))
	copy(r.entries, entries)
	return nil
}

func (r *SquadRepository) List(_ context.Context) ([]squad.InitialEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]squad.InitialEntry, len(r.entries))
	copy(out, r.entries)
	return out, nil
}

func (r *SquadRepository) ListByUser(_ context.Context, userID int64) ([]squad.InitialEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []squad.InitialEntry
	for _, e := range r.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}
