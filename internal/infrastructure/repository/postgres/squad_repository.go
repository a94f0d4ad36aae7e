package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rmarban/euroleague-fantasy/internal/domain/squad"
	qb "github.com/rmarban/euroleague-fantasy/internal/platform/querybuilder"
)

type squadEntryTableModel struct {
	UserID    int64     `db:"user_id"`
	PlayerID  int64     `db:"player_id"`
	Price     int64     `db:"price"`
	CreatedAt time.Time `db:"created_at"`
}

type squadEntryInsertModel struct {
	UserID   int64 `db:"user_id"`
	PlayerID int64 `db:"player_id"`
	Price    int64 `db:"price"`
}

type SquadRepository struct {
	db *sqlx.DB
}

func NewSquadRepository(db *sqlx.DB) *SquadRepository {
	return &SquadRepository{db: db}
}

// Replace swaps the whole snapshot in one transaction. The snapshot is
// derived state, so delete-and-insert is the correct shape, not patching.
func (r *SquadRepository) Replace(ctx context.Context, entries []squad.InitialEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace initial squads: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	clearQuery, clearArgs, err := qb.DeleteFrom("initial_squads").ToSQL()
	if err != nil {
		return fmt.Errorf("build clear initial squads query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, clearQuery, clearArgs...); err != nil {
		return fmt.Errorf("clear initial squads: %w", err)
	}

	for _, e := range entries {
		insert := squadEntryInsertModel{UserID: e.UserID, PlayerID: e.PlayerID, Price: e.Price}
		query, args, err := qb.InsertModel("initial_squads", insert, "")
		if err != nil {
			return fmt.Errorf("build insert initial squad entry query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert initial squad entry user=%d player=%d: %w", e.UserID, e.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace initial squads: %w", err)
	}
	return nil
}

func (r *SquadRepository) List(ctx context.Context) ([]squad.InitialEntry, error) {
	query, args, err := qb.Select("*").From("initial_squads").OrderBy("user_id", "player_id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select initial squads query: %w", err)
	}

	var rows []squadEntryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select initial squads: %w", err)
	}

	out := make([]squad.InitialEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, squad.InitialEntry{UserID: row.UserID, PlayerID: row.PlayerID, Price: row.Price})
	}
	return out, nil
}

func (r *SquadRepository) ListByUser(ctx context.Context, userID int64) ([]squad.InitialEntry, error) {
	query, args, err := qb.Select("*").From("initial_squads").
		Where(qb.Eq("user_id", userID)).
		OrderBy("player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select initial squads by user query: %w", err)
	}

	var rows []squadEntryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select initial squads user=%d: %w", userID, err)
	}

	out := make([]squad.InitialEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, squad.InitialEntry{UserID: row.UserID, PlayerID: row.PlayerID, Price: row.Price})
	}
	return out, nil
}
