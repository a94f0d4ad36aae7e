package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rmarban/euroleague-fantasy/internal/domain/link"
)

type LinkRepository struct {
	mu         sync.RWMutex
	links      map[string]link.PlayerLink
	unresolved map[string]link.Unresolved
}

func NewLinkRepository() *LinkRepository {
	return &LinkRepository{
		links:      make(map[string]link.PlayerLink),
		unresolved: make(map[string]link.Unresolved),
	}
}

func (r *LinkRepository) UpsertLink(_ context.Context, l link.PlayerLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.links[l.OfficialCode] = l
	return nil
}

func (r *LinkRepository) GetByOfficialCode(_ context.Context, code string) (link.PlayerLink, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.links[code]
	return l, ok, nil
}

func (r *LinkRepository) ListLinks(_ context.Context) ([]link.PlayerLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]link.PlayerLink, 0, len(r.links))
	for _, l := range r.links {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OfficialCode < out[j].OfficialCode })
	return out, nil
}

func (r *LinkRepository) UpsertUnresolved(_ context.Context, u link.Unresolved) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.unresolved[u.ID] = u
	return nil
}

func (r *LinkRepository) DeleteUnresolved(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.unresolved, id)
	return nil
}

func (r *LinkRepository) ListUnresolved(_ context.Context) ([]link.Unresolved, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]link.Unresolved, 0, len(r.unresolved))
	for _, u := range r.unresolved {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
