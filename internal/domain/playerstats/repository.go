package playerstats

import "context"

// Repository describes stat-line persistence needs from use cases. The
// upsert key is (player, canonical round).
type Repository interface {
	UpsertBatch(ctx context.Context, lines []StatLine) error
	// SetPlatformPoints overlays one round's authoritative platform
	// points, keyed by player id, atomically.
	SetPlatformPoints(ctx context.Context, roundID int64, points map[int64]int) error
	ListByRound(ctx context.Context, roundID int64) ([]StatLine, error)
	ListByPlayer(ctx context.Context, playerID int64) ([]StatLine, error)
}
