package syncrun

import "context"

type Repository interface {
	Insert(ctx context.Context, run Run) error
	ListRecent(ctx context.Context, limit int) ([]Run, error)
}
