package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rmarban/euroleague-fantasy/internal/domain/round"
	qb "github.com/rmarban/euroleague-fantasy/internal/platform/querybuilder"
)

type roundTableModel struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	CanonicalID int64     `db:"canonical_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type roundInsertModel struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	CanonicalID int64  `db:"canonical_id"`
}

type RoundRepository struct {
	db *sqlx.DB
}

func NewRoundRepository(db *sqlx.DB) *RoundRepository {
	return &RoundRepository{db: db}
}

func (r *RoundRepository) UpsertBatch(ctx context.Context, rounds []round.Round) error {
	if len(rounds) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert rounds: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const suffix = "ON CONFLICT (id) DO UPDATE SET " +
		"name = EXCLUDED.name, canonical_id = EXCLUDED.canonical_id, updated_at = NOW()"
	for _, item := range rounds {
		insert := roundInsertModel{ID: item.ID, Name: item.Name, CanonicalID: item.CanonicalID}
		query, args, err := qb.InsertModel("rounds", insert, suffix)
		if err != nil {
			return fmt.Errorf("build upsert round query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert round id=%d: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert rounds: %w", err)
	}
	return nil
}

func (r *RoundRepository) List(ctx context.Context) ([]round.Round, error) {
	query, args, err := qb.Select("*").From("rounds").OrderBy("id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select rounds query: %w", err)
	}

	var rows []roundTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select rounds: %w", err)
	}

	out := make([]round.Round, 0, len(rows))
	for _, row := range rows {
		out = append(out, round.Round{ID: row.ID, Name: row.Name, CanonicalID: row.CanonicalID})
	}
	return out, nil
}
