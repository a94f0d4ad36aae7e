package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rmarban/euroleague-fantasy/internal/domain/team"
)

type TeamRepository struct {
	mu    sync.RWMutex
	teams map[int64]team.Team
}

func NewTeamRepository(teams []team.Team) *TeamRepository {
	byID := make(map[int64]team.Team, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
	}
	return &TeamRepository{teams: byID}
}

func (r *TeamRepository) UpsertBatch(_ context.Context, teams []team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range teams {
		if existing, ok := r.teams[t.ID]; ok {
			t.OfficialCode = existing.OfficialCode
			t.OfficialName = existing.OfficialName
		}
		r.teams[t.ID] = t
	}
	return nil
}

func (r *TeamRepository) List(_ context.Context) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0, len(r.teams))
	for _, t := range r.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TeamRepository) GetByID(_ context.Context, id int64) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.teams[id]
	return t, ok, nil
}

func (r *TeamRepository) SetOfficialCode(_ context.Context, id int64, code, officialName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.teams[id]
	if !ok {
		return nil
	}
	t.OfficialCode = code
	t.OfficialName = officialName
	r.teams[id] = t
	return nil
}
