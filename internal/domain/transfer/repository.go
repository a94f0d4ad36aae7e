package transfer

import "context"

// Repository describes transfer-ledger persistence needs from use cases.
type Repository interface {
	UpsertBatch(ctx context.Context, transfers []Transfer) error
	// ListNewestFirst returns the full ledger ordered by occurrence time
	// descending, ties broken by id for determinism.
	ListNewestFirst(ctx context.Context) ([]Transfer, error)
	ListByPlayerOldestFirst(ctx context.Context, playerID int64) ([]Transfer, error)
}
