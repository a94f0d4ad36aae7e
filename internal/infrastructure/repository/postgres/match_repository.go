package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rmarban/euroleague-fantasy/internal/domain/match"
	qb "github.com/rmarban/euroleague-fantasy/internal/platform/querybuilder"
)

type matchTableModel struct {
	ID         string        `db:"id"`
	RoundID    int64         `db:"round_id"`
	HomeTeamID int64         `db:"home_team_id"`
	AwayTeamID int64         `db:"away_team_id"`
	GameCode   int           `db:"game_code"`
	KickoffAt  time.Time     `db:"kickoff_at"`
	Status     string        `db:"status"`
	HomeScore  sql.NullInt64 `db:"home_score"`
	AwayScore  sql.NullInt64 `db:"away_score"`
	HomeQ1     int           `db:"home_q1"`
	HomeQ2     int           `db:"home_q2"`
	HomeQ3     int           `db:"home_q3"`
	HomeQ4     int           `db:"home_q4"`
	HomeOT     int           `db:"home_ot"`
	AwayQ1     int           `db:"away_q1"`
	AwayQ2     int           `db:"away_q2"`
	AwayQ3     int           `db:"away_q3"`
	AwayQ4     int           `db:"away_q4"`
	AwayOT     int           `db:"away_ot"`
	CreatedAt  time.Time     `db:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at"`
}

type matchInsertModel struct {
	ID         string        `db:"id"`
	RoundID    int64         `db:"round_id"`
	HomeTeamID int64         `db:"home_team_id"`
	AwayTeamID int64         `db:"away_team_id"`
	GameCode   int           `db:"game_code"`
	KickoffAt  time.Time     `db:"kickoff_at"`
	Status     string        `db:"status"`
	HomeScore  sql.NullInt64 `db:"home_score"`
	AwayScore  sql.NullInt64 `db:"away_score"`
	HomeQ1     int           `db:"home_q1"`
	HomeQ2     int           `db:"home_q2"`
	HomeQ3     int           `db:"home_q3"`
	HomeQ4     int           `db:"home_q4"`
	HomeOT     int           `db:"home_ot"`
	AwayQ1     int           `db:"away_q1"`
	AwayQ2     int           `db:"away_q2"`
	AwayQ3     int           `db:"away_q3"`
	AwayQ4     int           `db:"away_q4"`
	AwayOT     int           `db:"away_ot"`
}

// matchUpsertSuffix keys on the business identity, not the synthetic id, so
// a re-canonicalized round can never duplicate a fixture.
const matchUpsertSuffix = "ON CONFLICT (round_id, home_team_id, away_team_id) DO UPDATE SET " +
	"game_code = EXCLUDED.game_code, kickoff_at = EXCLUDED.kickoff_at, status = EXCLUDED.status, " +
	"home_score = EXCLUDED.home_score, away_score = EXCLUDED.away_score, " +
	"home_q1 = EXCLUDED.home_q1, home_q2 = EXCLUDED.home_q2, home_q3 = EXCLUDED.home_q3, " +
	"home_q4 = EXCLUDED.home_q4, home_ot = EXCLUDED.home_ot, " +
	"away_q1 = EXCLUDED.away_q1, away_q2 = EXCLUDED.away_q2, away_q3 = EXCLUDED.away_q3, " +
	"away_q4 = EXCLUDED.away_q4, away_ot = EXCLUDED.away_ot, updated_at = NOW()"

func (m matchTableModel) toDomain() match.Match {
	return match.Match{
		ID:         m.ID,
		RoundID:    m.RoundID,
		HomeTeamID: m.HomeTeamID,
		AwayTeamID: m.AwayTeamID,
		GameCode:   m.GameCode,
		KickoffAt:  m.KickoffAt,
		Status:     m.Status,
		HomeScore:  nullInt64ToIntPtr(m.HomeScore),
		AwayScore:  nullInt64ToIntPtr(m.AwayScore),
		HomeQuarters: match.QuarterScores{
			Q1: m.HomeQ1, Q2: m.HomeQ2, Q3: m.HomeQ3, Q4: m.HomeQ4, OT: m.HomeOT,
		},
		AwayQuarters: match.QuarterScores{
			Q1: m.AwayQ1, Q2: m.AwayQ2, Q3: m.AwayQ3, Q4: m.AwayQ4, OT: m.AwayOT,
		},
	}
}

func matchToInsert(m match.Match) matchInsertModel {
	return matchInsertModel{
		ID:         m.ID,
		RoundID:    m.RoundID,
		HomeTeamID: m.HomeTeamID,
		AwayTeamID: m.AwayTeamID,
		GameCode:   m.GameCode,
		KickoffAt:  m.KickoffAt,
		Status:     m.Status,
		HomeScore:  nullableInt(m.HomeScore),
		AwayScore:  nullableInt(m.AwayScore),
		HomeQ1:     m.HomeQuarters.Q1,
		HomeQ2:     m.HomeQuarters.Q2,
		HomeQ3:     m.HomeQuarters.Q3,
		HomeQ4:     m.HomeQuarters.Q4,
		HomeOT:     m.HomeQuarters.OT,
		AwayQ1:     m.AwayQuarters.Q1,
		AwayQ2:     m.AwayQuarters.Q2,
		AwayQ3:     m.AwayQuarters.Q3,
		AwayQ4:     m.AwayQuarters.Q4,
		AwayOT:     m.AwayQuarters.OT,
	}
}

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) Upsert(ctx context.Context, m match.Match) error {
	query, args, err := qb.InsertModel("matches", matchToInsert(m), matchUpsertSuffix)
	if err != nil {
		return fmt.Errorf("build upsert match query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert match id=%s: %w", m.ID, err)
	}
	return nil
}

func (r *MatchRepository) UpsertBatch(ctx context.Context, matches []match.Match) error {
	if len(matches) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert matches: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, m := range matches {
		query, args, err := qb.InsertModel("matches", matchToInsert(m), matchUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build upsert match query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert match id=%s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert matches: %w", err)
	}
	return nil
}

func (r *MatchRepository) ListByRound(ctx context.Context, roundID int64) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("round_id", roundID)).
		OrderBy("kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches by round query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches round=%d: %w", roundID, err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *MatchRepository) List(ctx context.Context) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").OrderBy("round_id", "kickoff_at", "id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
