package link

import "context"

// Repository describes link and unresolved-queue persistence.
type Repository interface {
	UpsertLink(ctx context.Context, l PlayerLink) error
	GetByOfficialCode(ctx context.Context, code string) (PlayerLink, bool, error)
	ListLinks(ctx context.Context) ([]PlayerLink, error)

	UpsertUnresolved(ctx context.Context, u Unresolved) error
	DeleteUnresolved(ctx context.Context, id string) error
	ListUnresolved(ctx context.Context) ([]Unresolved, error)
}
