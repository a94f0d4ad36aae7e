package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rmarban/euroleague-fantasy/internal/domain/player"
	qb "github.com/rmarban/euroleague-fantasy/internal/platform/querybuilder"
)

type playerTableModel struct {
	ID           int64          `db:"id"`
	TeamID       int64          `db:"team_id"`
	Name         string         `db:"name"`
	Position     string         `db:"position"`
	Price        int64          `db:"price"`
	OfficialCode sql.NullString `db:"official_code"`
	Country      string         `db:"country"`
	HeightCm     int            `db:"height_cm"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

type playerInsertModel struct {
	ID       int64  `db:"id"`
	TeamID   int64  `db:"team_id"`
	Name     string `db:"name"`
	Position string `db:"position"`
	Price    int64  `db:"price"`
	Country  string `db:"country"`
	HeightCm int    `db:"height_cm"`
}

func (m playerTableModel) toDomain() player.Player {
	return player.Player{
		ID:           m.ID,
		TeamID:       m.TeamID,
		Name:         m.Name,
		Position:     player.Position(m.Position),
		Price:        m.Price,
		OfficialCode: m.OfficialCode.String,
		Country:      m.Country,
		HeightCm:     m.HeightCm,
	}
}

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) UpsertBatch(ctx context.Context, players []player.Player) error {
	if len(players) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert players: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const suffix = "ON CONFLICT (id) DO UPDATE SET " +
		"team_id = EXCLUDED.team_id, name = EXCLUDED.name, position = EXCLUDED.position, " +
		"price = EXCLUDED.price, country = EXCLUDED.country, height_cm = EXCLUDED.height_cm, " +
		"updated_at = NOW()"
	for _, p := range players {
		insert := playerInsertModel{
			ID:       p.ID,
			TeamID:   p.TeamID,
			Name:     p.Name,
			Position: string(p.Position),
			Price:    p.Price,
			Country:  p.Country,
			HeightCm: p.HeightCm,
		}
		query, args, err := qb.InsertModel("players", insert, suffix)
		if err != nil {
			return fmt.Errorf("build upsert player query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert player id=%d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert players: %w", err)
	}
	return nil
}

func (r *PlayerRepository) List(ctx context.Context) ([]player.Player, error) {
	query, args, err := qb.Select("*").From("players").OrderBy("id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select players: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *PlayerRepository) ListByTeam(ctx context.Context, teamID int64) ([]player.Player, error) {
	query, args, err := qb.Select("*").From("players").
		Where(qb.Eq("team_id", teamID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players by team query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select players team=%d: %w", teamID, err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (player.Player, bool, error) {
	query, args, err := qb.Select("*").From("players").Where(qb.Eq("id", id)).ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build select player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("select player id=%d: %w", id, err)
	}
	return row.toDomain(), true, nil
}

func (r *PlayerRepository) SetOfficialCode(ctx context.Context, id int64, code string) error {
	query, args, err := qb.Update("players").
		Set("official_code", nullableString(code)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build link player query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("link player id=%d code=%s: %w", id, code, err)
	}
	return nil
}
