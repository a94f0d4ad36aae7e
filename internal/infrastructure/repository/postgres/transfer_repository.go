package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rmarban/euroleague-fantasy/internal/domain/transfer"
	qb "github.com/rmarban/euroleague-fantasy/internal/platform/querybuilder"
)

type transferTableModel struct {
	ID         string    `db:"id"`
	PlayerID   int64     `db:"player_id"`
	FromUserID int64     `db:"from_user_id"`
	ToUserID   int64     `db:"to_user_id"`
	Amount     int64     `db:"amount"`
	OccurredAt time.Time `db:"occurred_at"`
	CreatedAt  time.Time `db:"created_at"`
}

type transferInsertModel struct {
	ID         string    `db:"id"`
	PlayerID   int64     `db:"player_id"`
	FromUserID int64     `db:"from_user_id"`
	ToUserID   int64     `db:"to_user_id"`
	Amount     int64     `db:"amount"`
	OccurredAt time.Time `db:"occurred_at"`
}

func (m transferTableModel) toDomain() transfer.Transfer {
	return transfer.Transfer{
		ID:         m.ID,
		PlayerID:   m.PlayerID,
		FromUserID: m.FromUserID,
		ToUserID:   m.ToUserID,
		Amount:     m.Amount,
		OccurredAt: m.OccurredAt,
	}
}

type TransferRepository struct {
	db *sqlx.DB
}

func NewTransferRepository(db *sqlx.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

// UpsertBatch appends ledger rows. The dedup id makes literal duplicates a
// no-op; existing rows are never rewritten.
func (r *TransferRepository) UpsertBatch(ctx context.Context, transfers []transfer.Transfer) error {
	if len(transfers) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert transfers: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, t := range transfers {
		insert := transferInsertModel{
			ID:         t.ID,
			PlayerID:   t.PlayerID,
			FromUserID: t.FromUserID,
			ToUserID:   t.ToUserID,
			Amount:     t.Amount,
			OccurredAt: t.OccurredAt,
		}
		query, args, err := qb.InsertModel("transfers", insert, "ON CONFLICT (id) DO NOTHING")
		if err != nil {
			return fmt.Errorf("build upsert transfer query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert transfer id=%s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert transfers: %w", err)
	}
	return nil
}

func (r *TransferRepository) ListNewestFirst(ctx context.Context) ([]transfer.Transfer, error) {
	query, args, err := qb.Select("*").From("transfers").
		OrderBy("occurred_at DESC", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select transfers query: %w", err)
	}

	var rows []transferTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select transfers: %w", err)
	}

	out := make([]transfer.Transfer, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *TransferRepository) ListByPlayerOldestFirst(ctx context.Context, playerID int64) ([]transfer.Transfer, error) {
	query, args, err := qb.Select("*").From("transfers").
		Where(qb.Eq("player_id", playerID)).
		OrderBy("occurred_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select transfers by player query: %w", err)
	}

	var rows []transferTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select transfers player=%d: %w", playerID, err)
	}

	out := make([]transfer.Transfer, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
