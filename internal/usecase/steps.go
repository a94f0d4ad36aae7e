package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rmarban/euroleague-fantasy/internal/domain/player"
	"github.com/rmarban/euroleague-fantasy/internal/domain/round"
	"github.com/rmarban/euroleague-fantasy/internal/domain/team"
	"github.com/rmarban/euroleague-fantasy/internal/domain/transfer"
	"github.com/rmarban/euroleague-fantasy/internal/domain/user"
)

// stepSyncMaster ingests the platform's master snapshot and fills the run
// context caches. Upserts never touch the official-code columns, so links
// from earlier runs survive.
func (e *Engine) stepSyncMaster(ctx context.Context, rc *RunContext) (Counters, error) {
	ctx, span := startUsecaseSpan(ctx, "Engine.stepSyncMaster")
	defer span.End()

	comp, err := e.fantasy.FetchCompetitionData(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch competition data: %w", err)
	}

	teams := make([]team.Team, 0, len(comp.Teams))
	for _, t := range comp.Teams {
		row := team.Team{ID: t.ID, Name: t.Name}
		if err := row.Validate(); err != nil {
			e.logger.WarnContext(ctx, "skipping invalid team row", "team_id", t.ID, "error", err)
			continue
		}
		teams = append(teams, row)
	}
	if err := e.teams.UpsertBatch(ctx, teams); err != nil {
		return nil, fmt.Errorf("upsert teams: %w", err)
	}

	players := make([]player.Player, 0, len(comp.Players))
	for _, p := range comp.Players {
		row := player.Player{
			ID:       p.ID,
			TeamID:   p.TeamID,
			Name:     p.Name,
			Position: player.NormalizePosition(p.Position),
			Price:    p.Price,
			Country:  p.Country,
			HeightCm: p.HeightCm,
		}
		if err := row.Validate(); err != nil {
			e.logger.WarnContext(ctx, "skipping invalid player row", "player_id", p.ID, "error", err)
			continue
		}
		players = append(players, row)
	}
	if err := e.players.UpsertBatch(ctx, players); err != nil {
		return nil, fmt.Errorf("upsert players: %w", err)
	}

	rc.RawRounds = make([]round.Round, 0, len(comp.Rounds))
	for _, r := range comp.Rounds {
		row := round.Round{ID: r.ID, Name: r.Name}
		if err := row.Validate(); err != nil {
			e.logger.WarnContext(ctx, "skipping invalid round row", "round_id", r.ID, "error", err)
			continue
		}
		rc.RawRounds = append(rc.RawRounds, row)
	}

	if err := e.reloadEntityCaches(ctx, rc); err != nil {
		return nil, err
	}

	counters := Counters{}
	counters.Add("teams", len(teams))
	counters.Add("players", len(players))
	counters.Add("rounds", len(rc.RawRounds))
	return counters, nil
}

// reloadEntityCaches refreshes the run context from persisted state, picking
// up official codes written by previous runs or earlier steps.
func (e *Engine) reloadEntityCaches(ctx context.Context, rc *RunContext) error {
	teams, err := e.teams.List(ctx)
	if err != nil {
		return fmt.Errorf("list teams: %w", err)
	}
	rc.Teams = make(map[int64]team.Team, len(teams))
	rc.TeamCodes = make(map[string]int64, len(teams))
	for _, t := range teams {
		rc.Teams[t.ID] = t
		if t.OfficialCode != "" {
			rc.TeamCodes[t.OfficialCode] = t.ID
		}
	}

	players, err := e.players.List(ctx)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	rc.Players = make(map[int64]player.Player, len(players))
	rc.PlayerCodes = make(map[string]int64, len(players))
	for _, p := range players {
		rc.Players[p.ID] = p
		if p.OfficialCode != "" {
			rc.PlayerCodes[p.OfficialCode] = p.ID
		}
	}
	return nil
}

// stepLinkTeams matches every official club to a platform team and persists
// the short code on the team row. Already-linked clubs short-circuit.
func (e *Engine) stepLinkTeams(ctx context.Context, rc *RunContext) (Counters, error) {
	ctx, span := startUsecaseSpan(ctx, "Engine.stepLinkTeams")
	defer span.End()

	officialTeams, err := e.official.FetchTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch official teams: %w", err)
	}
	rc.OfficialTeams = officialTeams

	candidates := make([]team.Team, 0, len(rc.Teams))
	for _, t := range rc.Teams {
		candidates = append(candidates, t)
	}

	counters := Counters{}
	for _, official := range officialTeams {
		code := strings.TrimSpace(official.Code)
		if code == "" {
			counters.Add("skipped", 1)
			continue
		}
		if _, linked := rc.TeamCodes[code]; linked {
			counters.Add("matched", 1)
			continue
		}
		matched, ok := e.matcher.MatchTeam(ctx, official, candidates)
		if !ok {
			counters.Add("unmatched", 1)
			continue
		}
		if err := e.teams.SetOfficialCode(ctx, matched.ID, code, official.Name); err != nil {
			return nil, fmt.Errorf("link team id=%d code=%s: %w", matched.ID, code, err)
		}
		matched.OfficialCode = code
		matched.OfficialName = official.Name
		rc.Teams[matched.ID] = matched
		rc.TeamCodes[code] = matched.ID
		for i := range candidates {
			if candidates[i].ID == matched.ID {
				candidates[i] = matched
			}
		}
		counters.Add("matched", 1)
	}
	return counters, nil
}

// stepLinkPlayers walks every official roster entry. One unmatched player
// never blocks the rest of the roster.
func (e *Engine) stepLinkPlayers(ctx context.Context, rc *RunContext) (Counters, error) {
	ctx, span := startUsecaseSpan(ctx, "Engine.stepLinkPlayers")
	defer span.End()

	candidates := make([]player.Player, 0, len(rc.Players))
	for _, p := range rc.Players {
		candidates = append(candidates, p)
	}

	counters := Counters{}
	for _, officialTeam := range rc.OfficialTeams {
		hintTeamID := rc.TeamCodes[strings.TrimSpace(officialTeam.Code)]
		for _, entry := range officialTeam.Roster {
			code := strings.TrimSpace(entry.Code)
			if code == "" {
				counters.Add("skipped", 1)
				continue
			}
			if _, linked := rc.PlayerCodes[code]; linked {
				counters.Add("matched", 1)
				continue
			}
			if entry.TeamCode == "" {
				entry.TeamCode = officialTeam.Code
			}
			matched, ok, err := e.matcher.MatchPlayer(ctx, entry, candidates, hintTeamID)
			if err != nil {
				return nil, err
			}
			if !ok {
				counters.Add("unmatched", 1)
				continue
			}
			if err := e.players.SetOfficialCode(ctx, matched.ID, code); err != nil {
				return nil, fmt.Errorf("link player id=%d code=%s: %w", matched.ID, code, err)
			}
			matched.OfficialCode = code
			rc.Players[matched.ID] = matched
			rc.PlayerCodes[code] = matched.ID
			for i := range candidates {
				if candidates[i].ID == matched.ID {
					candidates[i] = matched
				}
			}
			counters.Add("matched", 1)
		}
	}
	return counters, nil
}

// stepCanonicalizeRounds builds the per-run canonical map and persists every
// raw round stamped with its canonical id. Later steps only write facts
// through Resolve.
func (e *Engine) stepCanonicalizeRounds(ctx context.Context, rc *RunContext) (Counters, error) {
	ctx, span := startUsecaseSpan(ctx, "Engine.stepCanonicalizeRounds")
	defer span.End()

	rc.Canonical = BuildCanonicalRounds(rc.RawRounds, e.rescheduleMarker)
	stamped := rc.Canonical.Apply(rc.RawRounds)
	if err := e.rounds.UpsertBatch(ctx, stamped); err != nil {
		return nil, fmt.Errorf("upsert rounds: %w", err)
	}
	rc.RawRounds = stamped

	collapsed := 0
	for _, r := range stamped {
		if r.CanonicalID != r.ID {
			collapsed++
		}
	}
	counters := Counters{}
	counters.Add("rounds", len(stamped))
	counters.Add("collapsed", collapsed)
	return counters, nil
}

// stepSyncTransfers pages the league board newest-first and upserts the
// ledger. Literal duplicates collapse through the dedup id.
func (e *Engine) stepSyncTransfers(ctx context.Context, rc *RunContext) (Counters, error) {
	ctx, span := startUsecaseSpan(ctx, "Engine.stepSyncTransfers")
	defer span.End()

	const maxPages = 500

	counters := Counters{}
	seenUsers := make(map[int64]struct{})
	offset := 0
	for page := 0; page < maxPages; page++ {
		board, err := e.fantasy.FetchLeagueBoard(ctx, offset, e.transferPageSize)
		if err != nil {
			return counters, fmt.Errorf("fetch league board offset=%d: %w", offset, err)
		}

		var users []user.User
		for _, u := range board.Users {
			if _, seen := seenUsers[u.ID]; seen {
				continue
			}
			row := user.User{ID: u.ID, Name: u.Name}
			if err := row.Validate(); err != nil {
				continue
			}
			seenUsers[u.ID] = struct{}{}
			users = append(users, row)
		}
		if len(users) > 0 {
			if err := e.users.UpsertBatch(ctx, users); err != nil {
				return counters, fmt.Errorf("upsert users: %w", err)
			}
		}

		transfers := make([]transfer.Transfer, 0, len(board.Entries))
		for _, entry := range board.Entries {
			row := transfer.Transfer{
				ID:         transfer.DedupID(entry.PlayerID, entry.FromUserID, entry.ToUserID, entry.Amount, entry.OccurredAt),
				PlayerID:   entry.PlayerID,
				FromUserID: entry.FromUserID,
				ToUserID:   entry.ToUserID,
				Amount:     entry.Amount,
				OccurredAt: entry.OccurredAt.UTC(),
			}
			if err := row.Validate(); err != nil {
				e.logger.WarnContext(ctx, "skipping invalid ledger entry", "player_id", entry.PlayerID, "error", err)
				counters.Add("skipped", 1)
				continue
			}
			transfers = append(transfers, row)
		}
		if err := e.transfers.UpsertBatch(ctx, transfers); err != nil {
			return counters, fmt.Errorf("upsert transfers offset=%d: %w", offset, err)
		}
		counters.Add("upserted", len(transfers))

		if !board.HasMore {
			return counters, nil
		}
		offset += e.transferPageSize
	}
	return counters, fmt.Errorf("league board paging exceeded %d pages", maxPages)
}
