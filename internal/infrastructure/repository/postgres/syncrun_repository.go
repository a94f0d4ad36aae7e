package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rmarban/euroleague-fantasy/internal/domain/syncrun"
	qb "github.com/rmarban/euroleague-fantasy/internal/platform/querybuilder"
)

type syncRunTableModel struct {
	ID         string    `db:"id"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
	Clean      bool      `db:"clean"`
	Steps      []byte    `db:"steps"`
}

type syncRunInsertModel struct {
	ID         string    `db:"id"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
	Clean      bool      `db:"clean"`
	Steps      string    `db:"steps"`
}

type SyncRunRepository struct {
	db *sqlx.DB
}

func NewSyncRunRepository(db *sqlx.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

func (r *SyncRunRepository) Insert(ctx context.Context, run syncrun.Run) error {
	steps, err := encodeJSON(run.Steps)
	if err != nil {
		return fmt.Errorf("encode run steps id=%s: %w", run.ID, err)
	}
	insert := syncRunInsertModel{
		ID:         run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Clean:      run.Clean,
		Steps:      steps,
	}
	query, args, err := qb.InsertModel("sync_runs", insert, "")
	if err != nil {
		return fmt.Errorf("build insert sync run query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert sync run id=%s: %w", run.ID, err)
	}
	return nil
}

func (r *SyncRunRepository) ListRecent(ctx context.Context, limit int) ([]syncrun.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query, args, err := qb.Select("*").From("sync_runs").
		OrderBy("started_at DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select sync runs query: %w", err)
	}

	var rows []syncRunTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select sync runs: %w", err)
	}

	out := make([]syncrun.Run, 0, len(rows))
	for _, row := range rows {
		var steps []syncrun.StepResult
		if err := decodeJSON(row.Steps, &steps); err != nil {
			return nil, fmt.Errorf("decode run steps id=%s: %w", row.ID, err)
		}
		out = append(out, syncrun.Run{
			ID:         row.ID,
			StartedAt:  row.StartedAt,
			FinishedAt: row.FinishedAt,
			Clean:      row.Clean,
			Steps:      steps,
		})
	}
	return out, nil
}
