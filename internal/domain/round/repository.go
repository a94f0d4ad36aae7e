package round

import "context"

// Repository describes round persistence needs from use cases.
type Repository interface {
	UpsertBatch(ctx context.Context, rounds []Round) error
	List(ctx context.Context) ([]Round, error)
}
