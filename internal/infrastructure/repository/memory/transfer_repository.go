package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rmarban/euroleague-fantasy/internal/domain/transfer"
)

type TransferRepository struct {
	mu        sync.RWMutex
	transfers map[string]transfer.Transfer
}

func NewTransferRepository() *TransferRepository {
	return &TransferRepository{transfers: make(map[string]transfer.Transfer)}
}

func (r *TransferRepository) UpsertBatch(_ context.Context, transfers []transfer.Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range transfers {
		r.transfers[t.ID] = t
	}
	return nil
}

func (r *TransferRepository) ListNewestFirst(_ context.Context) ([]transfer.Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]transfer.Transfer, 0, len(r.transfers))
	for _, t := range r.transfers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *TransferRepository) ListByPlayerOldestFirst(_ context.Context, playerID int64) ([]transfer.Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []transfer.Transfer
	for _, t := range r.transfers {
		if t.PlayerID == playerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.Before(out[j].OccurredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
