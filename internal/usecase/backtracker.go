package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rmarban/euroleague-fantasy/internal/domain/squad"
	"github.com/rmarban/euroleague-fantasy/internal/domain/transfer"
	"github.com/rmarban/euroleague-fantasy/internal/domain/user"
)

// Backtrack reconstructs season-start ownership from current rosters and
// the transfer ledger, newest entry first. Undoing a purchase removes the
// player from the buyer; undoing a sale returns the player to the seller.
// A party that is the market or an untracked account is a no-op. After the
// full reverse walk each working set equals the roster immediately before
// the oldest ledger entry.
func Backtrack(current map[int64][]int64, ledgerNewestFirst []transfer.Transfer) map[int64]map[int64]struct{} {
	working := make(map[int64]map[int64]struct{}, len(current))
	for userID, playerIDs := range current {
		set := make(map[int64]struct{}, len(playerIDs))
		for _, id := range playerIDs {
			set[id] = struct{}{}
		}
		working[userID] = set
	}

	for _, t := range ledgerNewestFirst {
		if buyer, tracked := working[t.ToUserID]; tracked {
			delete(buyer, t.PlayerID)
		}
		if seller, tracked := working[t.FromUserID]; tracked {
			seller[t.PlayerID] = struct{}{}
		}
	}
	return working
}

// stepBacktrackRosters wholesale-replaces the initial-squad snapshot with
// the reconstructed season-start rosters, priced at season start.
func (e *Engine) stepBacktrackRosters(ctx context.Context, rc *RunContext) (Counters, error) {
	ctx, span := startUsecaseSpan(ctx, "Engine.stepBacktrackRosters")
	defer span.End()

	rosters, err := e.fantasy.FetchLeagueRoster(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch league rosters: %w", err)
	}
	rc.CurrentRosters = rosters

	users := make([]user.User, 0, len(rosters))
	current := make(map[int64][]int64, len(rosters))
	for _, r := range rosters {
		row := user.User{ID: r.UserID, Name: r.Name}
		if err := row.Validate(); err != nil {
			e.logger.WarnContext(ctx, "skipping invalid roster owner", "user_id", r.UserID, "error", err)
			continue
		}
		users = append(users, row)
		current[r.UserID] = r.PlayerIDs
	}
	if err := e.users.UpsertBatch(ctx, users); err != nil {
		return nil, fmt.Errorf("upsert roster owners: %w", err)
	}

	ledger, err := e.transfers.ListNewestFirst(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transfer ledger: %w", err)
	}

	start := Backtrack(current, ledger)
	prices := seasonStartPrices(ledger, rc, e.seasonStart)

	entries := make([]squad.InitialEntry, 0, len(start)*12)
	for userID, players := range start {
		for playerID := range players {
			entries = append(entries, squad.InitialEntry{
				UserID:   userID,
				PlayerID: playerID,
				Price:    prices[playerID],
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].UserID != entries[j].UserID {
			return entries[i].UserID < entries[j].UserID
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})

	if err := e.squads.Replace(ctx, entries); err != nil {
		return nil, fmt.Errorf("replace initial squads: %w", err)
	}

	counters := Counters{}
	counters.Add("users", len(users))
	counters.Add("upserted", len(entries))
	counters.Add("ledger_entries", len(ledger))
	return counters, nil
}

// seasonStartPrices approximates each player's season-start valuation: the
// amount of the oldest ledger entry naming the player on or after season
// start, falling back to the current master price. Pre-season entries carry
// last season's valuations and are excluded; a zero seasonStart disables the
// bound.
func seasonStartPrices(ledgerNewestFirst []transfer.Transfer, rc *RunContext, seasonStart time.Time) map[int64]int64 {
	prices := make(map[int64]int64)
	for i := len(ledgerNewestFirst) - 1; i >= 0; i-- {
		t := ledgerNewestFirst[i]
		if !seasonStart.IsZero() && t.OccurredAt.Before(seasonStart) {
			continue
		}
		if _, seen := prices[t.PlayerID]; !seen && t.Amount > 0 {
			prices[t.PlayerID] = t.Amount
		}
	}
	for id, p := range rc.Players {
		if _, seen := prices[id]; !seen {
			prices[id] = p.Price
		}
	}
	return prices
}
