package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// engineTables is every table a sync run writes.
var engineTables = []string{
	"teams",
	"players",
	"rounds",
	"matches",
	"player_round_stats",
	"transfers",
	"initial_squads",
	"player_links",
	"unresolved_entities",
	"users",
	"sync_runs",
}

// SchemaChecker verifies migrations have produced every engine table.
type SchemaChecker struct {
	db *sqlx.DB
}

func NewSchemaChecker(db *sqlx.DB) *SchemaChecker {
	return &SchemaChecker{db: db}
}

func (c *SchemaChecker) Ready(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	const query = `SELECT tablename FROM pg_tables WHERE schemaname = 'public'`
	var names []string
	if err := c.db.SelectContext(ctx, &names, query); err != nil {
		return fmt.Errorf("list tables: %w", err)
	}

	present := make(map[string]struct{}, len(names))
	for _, name := range names {
		present[name] = struct{}{}
	}
	var missing []string
	for _, table := range engineTables {
		if _, ok := present[table]; !ok {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tables: %s (run migrations first)", strings.Join(missing, ", "))
	}
	return nil
}
