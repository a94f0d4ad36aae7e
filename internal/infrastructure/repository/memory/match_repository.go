package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rmarban/euroleague-fantasy/internal/domain/match"
)

type MatchRepository struct {
	mu      sync.RWMutex
	matches map[string]match.Match
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{matches: make(map[string]match.Match)}
}

func (r *MatchRepository) Upsert(_ context.Context, m match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.matches[m.ID] = m
	return nil
}

func (r *MatchRepository) UpsertBatch(_ context.Context, matches []match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range matches {
		r.matches[m.ID] = m
	}
	return nil
}

func (r *MatchRepository) ListByRound(_ context.Context, roundID int64) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []match.Match
	for _, m := range r.matches {
		if m.RoundID == roundID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MatchRepository) List(_ context.Context) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, len(r.matches))
	for _, m := range r.matches {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
