package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rmarban/euroleague-fantasy/internal/domain/team"
	qb "github.com/rmarban/euroleague-fantasy/internal/platform/querybuilder"
)

type teamTableModel struct {
	ID           int64          `db:"id"`
	Name         string         `db:"name"`
	OfficialCode sql.NullString `db:"official_code"`
	OfficialName sql.NullString `db:"official_name"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

type teamInsertModel struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:           m.ID,
		Name:         m.Name,
		OfficialCode: m.OfficialCode.String,
		OfficialName: m.OfficialName.String,
	}
}

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// UpsertBatch refreshes master data. Official-code columns are linker-owned
// and never touched here.
func (r *TeamRepository) UpsertBatch(ctx context.Context, teams []team.Team) error {
	if len(teams) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert teams: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, t := range teams {
		query, args, err := qb.InsertModel("teams", teamInsertModel{ID: t.ID, Name: t.Name},
			"ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()")
		if err != nil {
			return fmt.Errorf("build upsert team query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert team id=%d: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert teams: %w", err)
	}
	return nil
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").OrderBy("id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, id int64) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("teams").Where(qb.Eq("id", id)).ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build select team query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("select team id=%d: %w", id, err)
	}
	return row.toDomain(), true, nil
}

func (r *TeamRepository) SetOfficialCode(ctx context.Context, id int64, code, officialName string) error {
	query, args, err := qb.Update("teams").
		Set("official_code", nullableString(code)).
		Set("official_name", nullableString(officialName)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build link team query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("link team id=%d code=%s: %w", id, code, err)
	}
	return nil
}
