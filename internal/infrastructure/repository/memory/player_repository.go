package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rmarban/euroleague-fantasy/internal/domain/player"
)

type PlayerRepository struct {
	mu      sync.RWMutex
	players map[int64]player.Player
}

func NewPlayerRepository(players []player.Player) *PlayerRepository {
	byID := make(map[int64]player.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}
	return &PlayerRepository{players: byID}
}

func (r *PlayerRepository) UpsertBatch(_ context.Context, players []player.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range players {
		if existing, ok := r.players[p.ID]; ok {
			p.OfficialCode = existing.OfficialCode
		}
		r.players[p.ID] = p
	}
	return nil
}

func (r *PlayerRepository) List(_ context.Context) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PlayerRepository) ListByTeam(_ context.Context, teamID int64) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []player.Player
	for _, p := range r.players {
		if p.TeamID == teamID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PlayerRepository) GetByID(_ context.Context, id int64) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.players[id]
	return p, ok, nil
}

func (r *PlayerRepository) SetOfficialCode(_ context.Context, id int64, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return nil
	}
	p.OfficialCode = code
	r.players[id] = p
	return nil
}
