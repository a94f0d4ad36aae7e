package squad

import "context"

// Repository describes initial-squad persistence. Replace swaps the whole
// snapshot atomically; partial updates are never meaningful here.
type Repository interface {
	Replace(ctx context.Context, entries []InitialEntry) error
	List(ctx context.Context) ([]InitialEntry, error)
	ListByUser(ctx context.Context, userID int64) ([]InitialEntry, error)
}
