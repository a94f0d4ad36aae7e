package player

import "context"

// Repository describes player persistence needs from use cases.
type Repository interface {
	UpsertBatch(ctx context.Context, players []Player) error
	List(ctx context.Context) ([]Player, error)
	ListByTeam(ctx context.Context, teamID int64) ([]Player, error)
	GetByID(ctx context.Context, id int64) (Player, bool, error)
	SetOfficialCode(ctx context.Context, id int64, code string) error
}
