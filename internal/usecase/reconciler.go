package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/rmarban/euroleague-fantasy/internal/domain/match"
	"github.com/rmarban/euroleague-fantasy/internal/domain/playerstats"
	"github.com/rmarban/euroleague-fantasy/internal/domain/round"
)

// stepSyncMatches reconciles platform fixtures with official box scores for
// every raw round, writing all facts under canonical round ids. Round-level
// failures are logged and skipped; the step keeps going.
func (e *Engine) stepSyncMatches(ctx context.Context, rc *RunContext) (Counters, error) {
	ctx, span := startUsecaseSpan(ctx, "Engine.stepSyncMatches")
	defer span.End()

	if rc.Canonical == nil {
		return nil, fmt.Errorf("sync matches: %w: canonical round map not built", ErrInvalidInput)
	}

	schedule, err := e.official.FetchSchedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch official schedule: %w", err)
	}
	rc.Schedule = make(map[string][]ExternalScheduledGame, len(schedule))
	for _, g := range schedule {
		key := pairingKey(g.HomeCode, g.AwayCode)
		rc.Schedule[key] = append(rc.Schedule[key], g)
	}

	counters := Counters{}
	for _, raw := range rc.RawRounds {
		roundCounters, err := e.syncRound(ctx, rc, raw)
		counters.Merge(roundCounters)
		if err != nil {
			counters.Add("failed_rounds", 1)
			e.logger.WarnContext(ctx, "round sync failed, continuing",
				"round_id", raw.ID,
				"round_name", raw.Name,
				"error", err,
			)
		}
	}
	return counters, nil
}

// pairingKey is the official fixture key: HOMECODE_AWAYCODE, exact match
// only.
func pairingKey(homeCode, awayCode string) string {
	return strings.ToUpper(strings.TrimSpace(homeCode)) + "_" + strings.ToUpper(strings.TrimSpace(awayCode))
}

// matchScheduledGame picks the schedule entry for one fixture. A pairing can
// repeat within a season (playoff series, rescheduled legs), so the entry
// whose official date is nearest the platform kickoff wins.
func matchScheduledGame(candidates []ExternalScheduledGame, kickoff time.Time) (ExternalScheduledGame, bool) {
	var best ExternalScheduledGame
	bestDelta := time.Duration(-1)
	for _, c := range candidates {
		delta := c.Date.Sub(kickoff)
		if delta < 0 {
			delta = -delta
		}
		if bestDelta < 0 || delta < bestDelta {
			best, bestDelta = c, delta
		}
	}
	return best, bestDelta >= 0
}

type boxFetchResult struct {
	idx    int
	header ExternalGameHeader
	box    ExternalBoxScore
	err    error
}

func (e *Engine) syncRound(ctx context.Context, rc *RunContext, raw round.Round) (Counters, error) {
	ctx, span := startUsecaseSpan(ctx, "Engine.syncRound")
	defer span.End()

	counters := Counters{}
	canonicalID := rc.Canonical.Resolve(raw)
	now := e.now()

	persisted, err := e.matches.ListByRound(ctx, canonicalID)
	if err != nil {
		return counters, fmt.Errorf("list persisted matches round=%d: %w", canonicalID, err)
	}
	if skippableRound(persisted, now, e.skipWindow) {
		counters.Add("skipped_rounds", 1)
		return counters, nil
	}

	games, err := e.fantasy.FetchRoundGames(ctx, raw.ID)
	if err != nil {
		return counters, fmt.Errorf("fetch round games round=%d: %w", raw.ID, err)
	}
	if len(games.Games) == 0 {
		e.logger.InfoContext(ctx, "round has no fixtures yet", "round_id", raw.ID)
		counters.Add("skipped_rounds", 1)
		return counters, nil
	}

	rows := make([]match.Match, 0, len(games.Games))
	gameCodes := make([]int, 0, len(games.Games))
	allFuture := true
	for _, g := range games.Games {
		row := match.Match{
			ID:         match.SyntheticID(canonicalID, g.HomeTeamID, g.AwayTeamID),
			RoundID:    canonicalID,
			HomeTeamID: g.HomeTeamID,
			AwayTeamID: g.AwayTeamID,
			KickoffAt:  g.KickoffAt.UTC(),
			Status:     match.NormalizeStatus(g.Status),
			HomeScore:  g.HomeScore,
			AwayScore:  g.AwayScore,
		}
		if err := row.Validate(); err != nil {
			e.logger.WarnContext(ctx, "skipping invalid fixture", "round_id", raw.ID, "error", err)
			counters.Add("skipped", 1)
			continue
		}
		if !g.KickoffAt.After(now) {
			allFuture = false
		}

		homeCode := e.officialCodeOf(rc, g.HomeTeamID)
		awayCode := e.officialCodeOf(rc, g.AwayTeamID)
		code := 0
		if homeCode != "" && awayCode != "" {
			if sched, ok := matchScheduledGame(rc.Schedule[pairingKey(homeCode, awayCode)], g.KickoffAt); ok {
				code = sched.GameCode
			}
		}
		if code == 0 {
			e.logger.WarnContext(ctx, "fixture has no resolvable game code",
				"round_id", raw.ID,
				"home_team_id", g.HomeTeamID,
				"away_team_id", g.AwayTeamID,
			)
			counters.Add("skipped", 1)
		}
		row.GameCode = code
		rows = append(rows, row)
		gameCodes = append(gameCodes, code)
	}

	if allFuture {
		if err := e.matches.UpsertBatch(ctx, rows); err != nil {
			return counters, fmt.Errorf("upsert future fixtures round=%d: %w", canonicalID, err)
		}
		counters.Add("skipped_rounds", 1)
		return counters, nil
	}

	results, err := e.fetchBoxScores(ctx, gameCodes)
	if err != nil {
		return counters, err
	}

	lines := make([]playerstats.StatLine, 0, len(rows)*12)
	for _, res := range results {
		if res.err != nil {
			e.logger.WarnContext(ctx, "box score fetch failed, skipping game",
				"round_id", canonicalID,
				"game_code", rows[res.idx].GameCode,
				"error", res.err,
			)
			counters.Add("skipped", 1)
			continue
		}
		applyHeader(&rows[res.idx], res.header)
		built, lineCounters := e.buildStatLines(ctx, rc, canonicalID, res.box)
		lines = append(lines, built...)
		counters.Merge(lineCounters)
	}

	if err := e.matches.UpsertBatch(ctx, rows); err != nil {
		return counters, fmt.Errorf("upsert matches round=%d: %w", canonicalID, err)
	}
	if err := e.stats.UpsertBatch(ctx, lines); err != nil {
		return counters, fmt.Errorf("upsert stat lines round=%d: %w", canonicalID, err)
	}
	counters.Add("upserted", len(lines))

	overlay := make(map[int64]int, len(games.PlayerPoints))
	for playerID, points := range games.PlayerPoints {
		if _, known := rc.Players[playerID]; !known {
			counters.Add("unmatched", 1)
			continue
		}
		overlay[playerID] = points
	}
	if err := e.stats.SetPlatformPoints(ctx, canonicalID, overlay); err != nil {
		return counters, fmt.Errorf("overlay platform points round=%d: %w", canonicalID, err)
	}
	return counters, nil
}

// fetchBoxScores pulls header plus box score per game with bounded
// concurrency. Writes stay sequential; only the reads fan out.
func (e *Engine) fetchBoxScores(ctx context.Context, gameCodes []int) ([]boxFetchResult, error) {
	jobs := make([]int, 0, len(gameCodes))
	for idx, code := range gameCodes {
		if code != 0 {
			jobs = append(jobs, idx)
		}
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	workers := e.fetchWorkers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create fetch pool: %w", err)
	}
	defer pool.Release()

	results := make(chan boxFetchResult, len(jobs))
	var wg sync.WaitGroup
	for _, idx := range jobs {
		idx := idx
		code := gameCodes[idx]
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			res := boxFetchResult{idx: idx}
			res.header, res.err = e.official.FetchGameHeader(ctx, code)
			if res.err == nil {
				res.box, res.err = e.official.FetchBoxScore(ctx, code)
			}
			results <- res
		}); err != nil {
			wg.Done()
			return nil, fmt.Errorf("submit box score fetch: %w", err)
		}
	}
	wg.Wait()
	close(results)

	out := make([]boxFetchResult, 0, len(jobs))
	for res := range results {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].idx < out[j].idx })
	return out, nil
}

// applyHeader overlays official live state onto a fixture. The official
// feed wins status disagreements with the platform.
func applyHeader(m *match.Match, h ExternalGameHeader) {
	regulationDone := len(h.HomeByQuarter) >= 4 && len(h.AwayByQuarter) >= 4

	m.HomeQuarters = quarterSplits(h.HomeByQuarter, h.HomeFinal)
	m.AwayQuarters = quarterSplits(h.AwayByQuarter, h.AwayFinal)

	homeFinal, awayFinal := h.HomeFinal, h.AwayFinal
	m.HomeScore = &homeFinal
	m.AwayScore = &awayFinal

	switch {
	case h.Live:
		m.Status = match.StatusLive
	case regulationDone:
		m.Status = match.StatusFinished
	}
}

// quarterSplits converts cumulative end-of-quarter totals into per-quarter
// points. Mid-quarter polling can make a cumulative value regress, so the
// difference is clamped at zero. Overtime is the final total beyond the
// fourth-quarter cumulative, zero until regulation is complete.
func quarterSplits(cumulative []int, final int) match.QuarterScores {
	var vals [4]int
	prev := 0
	for i := 0; i < len(cumulative) && i < 4; i++ {
		diff := cumulative[i] - prev
		if diff < 0 {
			diff = 0
		}
		vals[i] = diff
		prev = cumulative[i]
	}

	qs := match.QuarterScores{Q1: vals[0], Q2: vals[1], Q3: vals[2], Q4: vals[3]}
	if len(cumulative) >= 4 {
		if ot := final - cumulative[3]; ot > 0 {
			qs.OT = ot
		}
	}
	return qs
}

// buildStatLines resolves each box-score line to a platform player and
// values it through the scoring weights. Unresolved lines are counted, not
// fatal.
func (e *Engine) buildStatLines(ctx context.Context, rc *RunContext, canonicalID int64, box ExternalBoxScore) ([]playerstats.StatLine, Counters) {
	counters := Counters{}
	lines := make([]playerstats.StatLine, 0, len(box.Lines))
	for _, raw := range box.Lines {
		playerID, ok := rc.PlayerCodes[strings.TrimSpace(raw.PlayerCode)]
		if !ok {
			e.logger.DebugContext(ctx, "box score line for unlinked player",
				"player_code", raw.PlayerCode,
				"player_name", raw.PlayerName,
				"game_code", box.GameCode,
			)
			counters.Add("unmatched", 1)
			continue
		}
		line := playerstats.StatLine{
			PlayerID:        playerID,
			RoundID:         canonicalID,
			GameCode:        box.GameCode,
			Seconds:         raw.Seconds,
			Points:          raw.Points,
			TwoPointsMade:   raw.TwoPointsMade,
			TwoPointsAtt:    raw.TwoPointsAtt,
			ThreePointsMade: raw.ThreePointsMade,
			ThreePointsAtt:  raw.ThreePointsAtt,
			FreeThrowsMade:  raw.FreeThrowsMade,
			FreeThrowsAtt:   raw.FreeThrowsAtt,
			Assists:         raw.Assists,
			ReboundsOff:     raw.ReboundsOff,
			ReboundsDef:     raw.ReboundsDef,
			Steals:          raw.Steals,
			Turnovers:       raw.Turnovers,
			BlocksFavour:    raw.BlocksFavour,
			BlocksAgainst:   raw.BlocksAgainst,
			FoulsCommitted:  raw.FoulsCommitted,
		}
		line.ComputedPoints = e.weights.Score(line)
		if err := line.Validate(); err != nil {
			e.logger.WarnContext(ctx, "skipping invalid stat line",
				"player_code", raw.PlayerCode,
				"game_code", box.GameCode,
				"error", err,
			)
			counters.Add("skipped", 1)
			continue
		}
		counters.Add("matched", 1)
		lines = append(lines, line)
	}
	return lines, counters
}

// skippableRound reports whether persisted state proves there is nothing new
// to fetch: every fixture finished and the latest kickoff older than the
// window. Official feeds revise recently finished games, so fresh rounds are
// always re-fetched.
func skippableRound(persisted []match.Match, now time.Time, window time.Duration) bool {
	if len(persisted) == 0 {
		return false
	}
	var latest time.Time
	for _, m := range persisted {
		if !match.IsFinishedStatus(m.Status) {
			return false
		}
		if m.KickoffAt.After(latest) {
			latest = m.KickoffAt
		}
	}
	return latest.Before(now.Add(-window))
}
