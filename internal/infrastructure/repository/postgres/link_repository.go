package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rmarban/euroleague-fantasy/internal/domain/link"
	qb "github.com/rmarban/euroleague-fantasy/internal/platform/querybuilder"
)

type playerLinkTableModel struct {
	OfficialCode string    `db:"official_code"`
	PlayerID     int64     `db:"player_id"`
	Method       string    `db:"method"`
	MatchedName  string    `db:"matched_name"`
	CreatedAt    time.Time `db:"created_at"`
}

type playerLinkInsertModel struct {
	OfficialCode string    `db:"official_code"`
	PlayerID     int64     `db:"player_id"`
	Method       string    `db:"method"`
	MatchedName  string    `db:"matched_name"`
	CreatedAt    time.Time `db:"created_at"`
}

type unresolvedTableModel struct {
	ID           string    `db:"id"`
	Source       string    `db:"source"`
	OfficialCode string    `db:"official_code"`
	Name         string    `db:"name"`
	TeamHint     string    `db:"team_hint"`
	CandidateIDs []byte    `db:"candidate_ids"`
	CreatedAt    time.Time `db:"created_at"`
}

type unresolvedInsertModel struct {
	ID           string    `db:"id"`
	Source       string    `db:"source"`
	OfficialCode string    `db:"official_code"`
	Name         string    `db:"name"`
	TeamHint     string    `db:"team_hint"`
	CandidateIDs string    `db:"candidate_ids"`
	CreatedAt    time.Time `db:"created_at"`
}

type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

func (r *LinkRepository) UpsertLink(ctx context.Context, l link.PlayerLink) error {
	insert := playerLinkInsertModel{
		OfficialCode: l.OfficialCode,
		PlayerID:     l.PlayerID,
		Method:       l.Method,
		MatchedName:  l.MatchedName,
		CreatedAt:    l.CreatedAt,
	}
	query, args, err := qb.InsertModel("player_links", insert,
		"ON CONFLICT (official_code) DO UPDATE SET "+
			"player_id = EXCLUDED.player_id, method = EXCLUDED.method, "+
			"matched_name = EXCLUDED.matched_name")
	if err != nil {
		return fmt.Errorf("build upsert player link query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert player link code=%s: %w", l.OfficialCode, err)
	}
	return nil
}

func (r *LinkRepository) GetByOfficialCode(ctx context.Context, code string) (link.PlayerLink, bool, error) {
	query, args, err := qb.Select("*").From("player_links").
		Where(qb.Eq("official_code", code)).
		ToSQL()
	if err != nil {
		return link.PlayerLink{}, false, fmt.Errorf("build select player link query: %w", err)
	}

	var row playerLinkTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return link.PlayerLink{}, false, nil
		}
		return link.PlayerLink{}, false, fmt.Errorf("select player link code=%s: %w", code, err)
	}
	return link.PlayerLink{
		PlayerID:     row.PlayerID,
		OfficialCode: row.OfficialCode,
		Method:       row.Method,
		MatchedName:  row.MatchedName,
		CreatedAt:    row.CreatedAt,
	}, true, nil
}

func (r *LinkRepository) ListLinks(ctx context.Context) ([]link.PlayerLink, error) {
	query, args, err := qb.Select("*").From("player_links").OrderBy("official_code").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select player links query: %w", err)
	}

	var rows []playerLinkTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select player links: %w", err)
	}

	out := make([]link.PlayerLink, 0, len(rows))
	for _, row := range rows {
		out = append(out, link.PlayerLink{
			PlayerID:     row.PlayerID,
			OfficialCode: row.OfficialCode,
			Method:       row.Method,
			MatchedName:  row.MatchedName,
			CreatedAt:    row.CreatedAt,
		})
	}
	return out, nil
}

func (r *LinkRepository) UpsertUnresolved(ctx context.Context, u link.Unresolved) error {
	candidates, err := encodeJSON(u.CandidateIDs)
	if err != nil {
		return fmt.Errorf("encode unresolved candidates id=%s: %w", u.ID, err)
	}
	insert := unresolvedInsertModel{
		ID:           u.ID,
		Source:       u.Source,
		OfficialCode: u.OfficialCode,
		Name:         u.Name,
		TeamHint:     u.TeamHint,
		CandidateIDs: candidates,
		CreatedAt:    u.CreatedAt,
	}
	query, args, err := qb.InsertModel("unresolved_entities", insert,
		"ON CONFLICT (id) DO UPDATE SET "+
			"name = EXCLUDED.name, team_hint = EXCLUDED.team_hint, "+
			"candidate_ids = EXCLUDED.candidate_ids")
	if err != nil {
		return fmt.Errorf("build upsert unresolved query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert unresolved id=%s: %w", u.ID, err)
	}
	return nil
}

func (r *LinkRepository) DeleteUnresolved(ctx context.Context, id string) error {
	query, args, err := qb.DeleteFrom("unresolved_entities").Where(qb.Eq("id", id)).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete unresolved query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete unresolved id=%s: %w", id, err)
	}
	return nil
}

func (r *LinkRepository) ListUnresolved(ctx context.Context) ([]link.Unresolved, error) {
	query, args, err := qb.Select("*").From("unresolved_entities").OrderBy("created_at", "id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select unresolved query: %w", err)
	}

	var rows []unresolvedTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select unresolved: %w", err)
	}

	out := make([]link.Unresolved, 0, len(rows))
	for _, row := range rows {
		var candidateIDs []int64
		if err := decodeJSON(row.CandidateIDs, &candidateIDs); err != nil {
			return nil, fmt.Errorf("decode unresolved candidates id=%s: %w", row.ID, err)
		}
		out = append(out, link.Unresolved{
			ID:           row.ID,
			Source:       row.Source,
			OfficialCode: row.OfficialCode,
			Name:         row.Name,
			TeamHint:     row.TeamHint,
			CandidateIDs: candidateIDs,
			CreatedAt:    row.CreatedAt,
		})
	}
	return out, nil
}
