package memory

import (
	"context"
	"sync"

	"github.com/rmarban/euroleague-fantasy/internal/domain/syncrun"
)

type SyncRunRepository struct {
	mu   sync.RWMutex
	runs []syncrun.Run
}

func NewSyncRunRepository() *SyncRunRepository {
	return &SyncRunRepository{}
}

func (r *SyncRunRepository) Insert(_ context.Context, run syncrun.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs = append(r.runs, run)
	return nil
}

func (r *SyncRunRepository) ListRecent(_ context.Context, limit int) ([]syncrun.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.runs) {
		limit = len(r.runs)
	}
	out := make([]syncrun.Run, 0, limit)
	for i := len(r.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.runs[i])
	}
	return out, nil
}

// SchemaChecker always reports ready; memory repositories need no schema.
type SchemaChecker struct{}

func (SchemaChecker) Ready(context.Context) error { return nil }
