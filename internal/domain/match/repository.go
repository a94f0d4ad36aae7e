package match

import "context"

// Repository describes match persistence needs from use cases.
type Repository interface {
	Upsert(ctx context.Context, m Match) error
	UpsertBatch(ctx context.Context, matches []Match) error
	ListByRound(ctx context.Context, roundID int64) ([]Match, error)
	List(ctx context.Context) ([]Match, error)
}
