package user

import "context"

type Repository interface {
	UpsertBatch(ctx context.Context, users []User) error
	List(ctx context.Context) ([]User, error)
}
