package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rmarban/euroleague-fantasy/internal/domain/playerstats"
)

type PlayerStatsRepository struct {
	mu    sync.RWMutex
	lines map[string]playerstats.StatLine
}

func NewPlayerStatsRepository() *PlayerStatsRepository {
	return &PlayerStatsRepository{lines: make(map[string]playerstats.StatLine)}
}

func statKey(playerID, roundID int64) string {
	return fmt.Sprintf("%d|%d", playerID, roundID)
}

func (r *PlayerStatsRepository) UpsertBatch(_ context.Context, lines []playerstats.StatLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, line := range lines {
		key := statKey(line.PlayerID, line.RoundID)
		if existing, ok := r.lines[key]; ok && line.PlatformPoints == nil {
			line.PlatformPoints = existing.PlatformPoints
		}
		r.lines[key] = line
	}
	return nil
}

func (r *PlayerStatsRepository) SetPlatformPoints(_ context.Context, roundID int64, points map[int64]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for playerID, pts := range points {
		pts := pts
		key := statKey(playerID, roundID)
		line, ok := r.lines[key]
		if !ok {
			line = playerstats.StatLine{PlayerID: playerID, RoundID: roundID}
		}
		line.PlatformPoints = &pts
		r.lines[key] = line
	}
	return nil
}

func (r *PlayerStatsRepository) ListByRound(_ context.Context, roundID int64) ([]playerstats.StatLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []playerstats.StatLine
	for _, line := range r.lines {
		if line.RoundID == roundID {
			out = append(out, line)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func (r *PlayerStatsRepository) ListByPlayer(_ context.Context, playerID int64) ([]playerstats.StatLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []playerstats.StatLine
	for _, line := range r.lines {
		if line.PlayerID == playerID {
			out = append(out, line)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoundID < out[j].RoundID })
	return out, nil
}
