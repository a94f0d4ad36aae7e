package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rmarban/euroleague-fantasy/internal/domain/playerstats"
	qb "github.com/rmarban/euroleague-fantasy/internal/platform/querybuilder"
)

type statLineTableModel struct {
	PlayerID        int64         `db:"player_id"`
	RoundID         int64         `db:"round_id"`
	GameCode        int           `db:"game_code"`
	Seconds         int           `db:"seconds"`
	Points          int           `db:"points"`
	TwoPointsMade   int           `db:"two_points_made"`
	TwoPointsAtt    int           `db:"two_points_att"`
	ThreePointsMade int           `db:"three_points_made"`
	ThreePointsAtt  int           `db:"three_points_att"`
	FreeThrowsMade  int           `db:"free_throws_made"`
	FreeThrowsAtt   int           `db:"free_throws_att"`
	Assists         int           `db:"assists"`
	ReboundsOff     int           `db:"rebounds_off"`
	ReboundsDef     int           `db:"rebounds_def"`
	Steals          int           `db:"steals"`
	Turnovers       int           `db:"turnovers"`
	BlocksFavour    int           `db:"blocks_favour"`
	BlocksAgainst   int           `db:"blocks_against"`
	FoulsCommitted  int           `db:"fouls_committed"`
	ComputedPoints  int           `db:"computed_points"`
	PlatformPoints  sql.NullInt64 `db:"platform_points"`
	CreatedAt       time.Time     `db:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at"`
}

type statLineInsertModel struct {
	PlayerID        int64 `db:"player_id"`
	RoundID         int64 `db:"round_id"`
	GameCode        int   `db:"game_code"`
	Seconds         int   `db:"seconds"`
	Points          int   `db:"points"`
	TwoPointsMade   int   `db:"two_points_made"`
	TwoPointsAtt    int   `db:"two_points_att"`
	ThreePointsMade int   `db:"three_points_made"`
	ThreePointsAtt  int   `db:"three_points_att"`
	FreeThrowsMade  int   `db:"free_throws_made"`
	FreeThrowsAtt   int   `db:"free_throws_att"`
	Assists         int   `db:"assists"`
	ReboundsOff     int   `db:"rebounds_off"`
	ReboundsDef     int   `db:"rebounds_def"`
	Steals          int   `db:"steals"`
	Turnovers       int   `db:"turnovers"`
	BlocksFavour    int   `db:"blocks_favour"`
	BlocksAgainst   int   `db:"blocks_against"`
	FoulsCommitted  int   `db:"fouls_committed"`
	ComputedPoints  int   `db:"computed_points"`
}

// statUpsertSuffix keeps platform_points out of the update: the counting
// stats and platform overlay are written by different steps.
const statUpsertSuffix = "ON CONFLICT (player_id, round_id) DO UPDATE SET " +
	"game_code = EXCLUDED.game_code, seconds = EXCLUDED.seconds, points = EXCLUDED.points, " +
	"two_points_made = EXCLUDED.two_points_made, two_points_att = EXCLUDED.two_points_att, " +
	"three_points_made = EXCLUDED.three_points_made, three_points_att = EXCLUDED.three_points_att, " +
	"free_throws_made = EXCLUDED.free_throws_made, free_throws_att = EXCLUDED.free_throws_att, " +
	"assists = EXCLUDED.assists, rebounds_off = EXCLUDED.rebounds_off, rebounds_def = EXCLUDED.rebounds_def, " +
	"steals = EXCLUDED.steals, turnovers = EXCLUDED.turnovers, " +
	"blocks_favour = EXCLUDED.blocks_favour, blocks_against = EXCLUDED.blocks_against, " +
	"fouls_committed = EXCLUDED.fouls_committed, computed_points = EXCLUDED.computed_points, " +
	"updated_at = NOW()"

func (m statLineTableModel) toDomain() playerstats.StatLine {
	return playerstats.StatLine{
		PlayerID:        m.PlayerID,
		RoundID:         m.RoundID,
		GameCode:        m.GameCode,
		Seconds:         m.Seconds,
		Points:          m.Points,
		TwoPointsMade:   m.TwoPointsMade,
		TwoPointsAtt:    m.TwoPointsAtt,
		ThreePointsMade: m.ThreePointsMade,
		ThreePointsAtt:  m.ThreePointsAtt,
		FreeThrowsMade:  m.FreeThrowsMade,
		FreeThrowsAtt:   m.FreeThrowsAtt,
		Assists:         m.Assists,
		ReboundsOff:     m.ReboundsOff,
		ReboundsDef:     m.ReboundsDef,
		Steals:          m.Steals,
		Turnovers:       m.Turnovers,
		BlocksFavour:    m.BlocksFavour,
		BlocksAgainst:   m.BlocksAgainst,
		FoulsCommitted:  m.FoulsCommitted,
		ComputedPoints:  m.ComputedPoints,
		PlatformPoints:  nullInt64ToIntPtr(m.PlatformPoints),
	}
}

type PlayerStatsRepository struct {
	db *sqlx.DB
}

func NewPlayerStatsRepository(db *sqlx.DB) *PlayerStatsRepository {
	return &PlayerStatsRepository{db: db}
}

// UpsertBatch writes one round's stat lines in a single transaction, so a
// mid-round failure never leaves half a round persisted.
func (r *PlayerStatsRepository) UpsertBatch(ctx context.Context, lines []playerstats.StatLine) error {
	if len(lines) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert stat lines: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, line := range lines {
		insert := statLineInsertModel{
			PlayerID:        line.PlayerID,
			RoundID:         line.RoundID,
			GameCode:        line.GameCode,
			Seconds:         line.Seconds,
			Points:          line.Points,
			TwoPointsMade:   line.TwoPointsMade,
			TwoPointsAtt:    line.TwoPointsAtt,
			ThreePointsMade: line.ThreePointsMade,
			ThreePointsAtt:  line.ThreePointsAtt,
			FreeThrowsMade:  line.FreeThrowsMade,
			FreeThrowsAtt:   line.FreeThrowsAtt,
			Assists:         line.Assists,
			ReboundsOff:     line.ReboundsOff,
			ReboundsDef:     line.ReboundsDef,
			Steals:          line.Steals,
			Turnovers:       line.Turnovers,
			BlocksFavour:    line.BlocksFavour,
			BlocksAgainst:   line.BlocksAgainst,
			FoulsCommitted:  line.FoulsCommitted,
			ComputedPoints:  line.ComputedPoints,
		}
		query, args, err := qb.InsertModel("player_round_stats", insert, statUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build upsert stat line query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert stat line player=%d round=%d: %w", line.PlayerID, line.RoundID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert stat lines: %w", err)
	}
	return nil
}

// SetPlatformPoints overlays the platform's authoritative fantasy points for
// one round in a single transaction, like every other per-round write. A row
// may not exist yet when the platform scores a player the official box score
// missed; the insert covers that.
func (r *PlayerStatsRepository) SetPlatformPoints(ctx context.Context, roundID int64, points map[int64]int) error {
	if len(points) == 0 {
		return nil
	}

	playerIDs := make([]int64, 0, len(points))
	for playerID := range points {
		playerIDs = append(playerIDs, playerID)
	}
	sort.Slice(playerIDs, func(i, j int) bool { return playerIDs[i] < playerIDs[j] })

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx set platform points: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `
		INSERT INTO player_round_stats (player_id, round_id, platform_points)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_id, round_id) DO UPDATE SET
			platform_points = EXCLUDED.platform_points, updated_at = NOW()`
	for _, playerID := range playerIDs {
		if _, err := tx.ExecContext(ctx, query, playerID, roundID, points[playerID]); err != nil {
			return fmt.Errorf("set platform points player=%d round=%d: %w", playerID, roundID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set platform points round=%d: %w", roundID, err)
	}
	return nil
}

func (r *PlayerStatsRepository) ListByRound(ctx context.Context, roundID int64) ([]playerstats.StatLine, error) {
	query, args, err := qb.Select("*").From("player_round_stats").
		Where(qb.Eq("round_id", roundID)).
		OrderBy("player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select stat lines by round query: %w", err)
	}

	var rows []statLineTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select stat lines round=%d: %w", roundID, err)
	}

	out := make([]playerstats.StatLine, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *PlayerStatsRepository) ListByPlayer(ctx context.Context, playerID int64) ([]playerstats.StatLine, error) {
	query, args, err := qb.Select("*").From("player_round_stats").
		Where(qb.Eq("player_id", playerID)).
		OrderBy("round_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select stat lines by player query: %w", err)
	}

	var rows []statLineTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select stat lines player=%d: %w", playerID, err)
	}

	out := make([]playerstats.StatLine, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
