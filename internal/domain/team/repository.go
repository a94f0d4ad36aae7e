package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	UpsertBatch(ctx context.Context, teams []Team) error
	List(ctx context.Context) ([]Team, error)
	GetByID(ctx context.Context, id int64) (Team, bool, error)
	SetOfficialCode(ctx context.Context, id int64, code, officialName string) error
}
