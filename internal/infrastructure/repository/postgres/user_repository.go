package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rmarban/euroleague-fantasy/internal/domain/user"
	qb "github.com/rmarban/euroleague-fantasy/internal/platform/querybuilder"
)

type userTableModel struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type userInsertModel struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) UpsertBatch(ctx context.Context, users []user.User) error {
	if len(users) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert users: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, u := range users {
		query, args, err := qb.InsertModel("users", userInsertModel{ID: u.ID, Name: u.Name},
			"ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()")
		if err != nil {
			return fmt.Errorf("build upsert user query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert user id=%d: %w", u.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert users: %w", err)
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	query, args, err := qb.Select("*").From("users").OrderBy("id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select users query: %w", err)
	}

	var rows []userTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}

	out := make([]user.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, user.User{ID: row.ID, Name: row.Name})
	}
	return out, nil
}
