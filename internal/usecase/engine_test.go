package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rmarban/euroleague-fantasy/internal/domain/match"
	"github.com/rmarban/euroleague-fantasy/internal/domain/syncrun"
	"github.com/rmarban/euroleague-fantasy/internal/infrastructure/repository/memory"
	"github.com/rmarban/euroleague-fantasy/internal/platform/cache"
	"github.com/rmarban/euroleague-fantasy/internal/platform/logging"
)

var engineNow = time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)

type fakeFantasy struct {
	competition ExternalCompetition
	roundGames  map[int64]ExternalRoundGames
	board       []ExternalBoardPage
	rosters     []ExternalUserRoster
}

func (f *fakeFantasy) FetchCompetitionData(context.Context) (ExternalCompetition, error) {
	return f.competition, nil
}

func (f *fakeFantasy) FetchRoundGames(_ context.Context, roundID int64) (ExternalRoundGames, error) {
	games, ok := f.roundGames[roundID]
	if !ok {
		return ExternalRoundGames{RoundID: roundID}, nil
	}
	return games, nil
}

func (f *fakeFantasy) FetchLeagueBoard(_ context.Context, offset, limit int) (ExternalBoardPage, error) {
	idx := offset / limit
	if idx >= len(f.board) {
		return ExternalBoardPage{}, nil
	}
	return f.board[idx], nil
}

func (f *fakeFantasy) FetchLeagueRoster(context.Context) ([]ExternalUserRoster, error) {
	return f.rosters, nil
}

type fakeOfficial struct {
	mu          sync.Mutex
	teams       []ExternalOfficialTeam
	schedule    []ExternalScheduledGame
	headers     map[int]ExternalGameHeader
	boxes       map[int]ExternalBoxScore
	teamsErr    error
	headerCalls int
}

func (f *fakeOfficial) FetchTeams(context.Context) ([]ExternalOfficialTeam, error) {
	if f.teamsErr != nil {
		return nil, f.teamsErr
	}
	return f.teams, nil
}

func (f *fakeOfficial) FetchSchedule(context.Context) ([]ExternalScheduledGame, error) {
	return f.schedule, nil
}

func (f *fakeOfficial) FetchGameHeader(_ context.Context, gameCode int) (ExternalGameHeader, error) {
	f.mu.Lock()
	f.headerCalls++
	f.mu.Unlock()
	h, ok := f.headers[gameCode]
	if !ok {
		return ExternalGameHeader{}, fmt.Errorf("no header for game %d", gameCode)
	}
	return h, nil
}

func (f *fakeOfficial) FetchBoxScore(_ context.Context, gameCode int) (ExternalBoxScore, error) {
	b, ok := f.boxes[gameCode]
	if !ok {
		return ExternalBoxScore{}, fmt.Errorf("no box score for game %d", gameCode)
	}
	return b, nil
}

type seqIDs struct{ n int }

func (g *seqIDs) NewID() (string, error) {
	g.n++
	return fmt.Sprintf("%04d", g.n), nil
}

type failingSchema struct{}

func (failingSchema) Ready(context.Context) error { return fmt.Errorf("relation teams does not exist") }

type engineFixture struct {
	engine    *Engine
	fantasy   *fakeFantasy
	official  *fakeOfficial
	teams     *memory.TeamRepository
	players   *memory.PlayerRepository
	rounds    *memory.RoundRepository
	matches   *memory.MatchRepository
	stats     *memory.PlayerStatsRepository
	transfers *memory.TransferRepository
	squads    *memory.SquadRepository
	users     *memory.UserRepository
	links     *memory.LinkRepository
	runs      *memory.SyncRunRepository
	cache     *cache.Store
}

func intPtr(v int) *int { return &v }

// newEngineFixture wires a two-club league: the platform knows Real Madrid
// and Panathinaikos with three players, one fixture has finished with
// overtime, player 10 moved market -> Ana -> Bruno, and one official roster
// entry has no platform counterpart.
func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	fantasy := &fakeFantasy{
		competition: ExternalCompetition{
			Teams: []ExternalFantasyTeam{
				{ID: 1, Name: "Real Madrid"},
				{ID: 2, Name: "Panathinaikos Athens"},
			},
			Players: []ExternalFantasyPlayer{
				{ID: 10, TeamID: 1, Name: "Facundo Campazzo", Position: "G", Price: 2000},
				{ID: 11, TeamID: 1, Name: "Walter Tavares", Position: "C", Price: 1800},
				{ID: 20, TeamID: 2, Name: "Kostas Sloukas", Position: "G", Price: 1500},
			},
			Rounds: []ExternalRound{
				{ID: 100, Name: "Jornada 1"},
				{ID: 150, Name: "Jornada 1 (aplazada)"},
			},
		},
		roundGames: map[int64]ExternalRoundGames{
			100: {
				RoundID: 100,
				Games: []ExternalFantasyGame{
					{
						HomeTeamID: 1,
						AwayTeamID: 2,
						KickoffAt:  engineNow.Add(-48 * time.Hour),
						Status:     "FT",
						HomeScore:  intPtr(85),
						AwayScore:  intPtr(78),
					},
				},
				PlayerPoints: map[int64]int{10: 25, 999: 5},
			},
		},
		board: []ExternalBoardPage{
			{
				Users: []ExternalUser{{ID: 500, Name: "Ana"}, {ID: 501, Name: "Bruno"}},
				Entries: []ExternalLedgerEntry{
					{PlayerID: 10, FromUserID: 500, ToUserID: 501, Amount: 2500000, OccurredAt: engineNow.Add(-10 * 24 * time.Hour)},
					{PlayerID: 10, FromUserID: 0, ToUserID: 500, Amount: 2000000, OccurredAt: engineNow.Add(-30 * 24 * time.Hour)},
				},
				HasMore: false,
			},
		},
		rosters: []ExternalUserRoster{
			{UserID: 500, Name: "Ana", PlayerIDs: []int64{11}},
			{UserID: 501, Name: "Bruno", PlayerIDs: []int64{10, 20}},
		},
	}

	official := &fakeOfficial{
		teams: []ExternalOfficialTeam{
			{
				Code: "MAD",
				Name: "Real Madrid CF",
				Roster: []ExternalOfficialPlayer{
					{Code: "P0010", Name: "CAMPAZZO, FACUNDO"},
					{Code: "P0011", Name: "TAVARES, WALTER"},
				},
			},
			{
				Code: "PAN",
				Name: "Panathinaikos Athens BC",
				Roster: []ExternalOfficialPlayer{
					{Code: "P0020", Name: "SLOUKAS, KOSTAS"},
					{Code: "P0999", Name: "NOWHERE, MAN"},
				},
			},
		},
		schedule: []ExternalScheduledGame{
			{GameCode: 1, RoundNumber: 1, HomeCode: "MAD", AwayCode: "PAN", Date: engineNow.Add(-48 * time.Hour), Played: true},
		},
		headers: map[int]ExternalGameHeader{
			1: {
				GameCode:      1,
				HomeFinal:     85,
				AwayFinal:     78,
				HomeByQuarter: []int{20, 41, 60, 78},
				AwayByQuarter: []int{18, 39, 58, 78},
			},
		},
		boxes: map[int]ExternalBoxScore{
			1: {
				GameCode: 1,
				Lines: []ExternalStatLine{
					{
						PlayerCode: "P0010", PlayerName: "CAMPAZZO, FACUNDO", TeamCode: "MAD",
						Points: 17, TwoPointsMade: 4, TwoPointsAtt: 5, ThreePointsMade: 2, ThreePointsAtt: 4,
						FreeThrowsMade: 3, FreeThrowsAtt: 4, Assists: 4, ReboundsOff: 2, ReboundsDef: 4,
						Steals: 1, Turnovers: 3,
					},
					{
						PlayerCode: "P0011", PlayerName: "TAVARES, WALTER", TeamCode: "MAD",
						Points: 12, TwoPointsMade: 6, TwoPointsAtt: 8, ReboundsOff: 3, ReboundsDef: 5,
						BlocksFavour: 3,
					},
					{
						PlayerCode: "P0020", PlayerName: "SLOUKAS, KOSTAS", TeamCode: "PAN",
						Points: 10, Assists: 2, Steals: 1,
					},
					{
						PlayerCode: "P0777", PlayerName: "STRANGER, TOTAL", TeamCode: "PAN",
						Points: 2,
					},
				},
			},
		},
	}

	fx := &engineFixture{
		fantasy:   fantasy,
		official:  official,
		teams:     memory.NewTeamRepository(nil),
		players:   memory.NewPlayerRepository(nil),
		rounds:    memory.NewRoundRepository(),
		matches:   memory.NewMatchRepository(),
		stats:     memory.NewPlayerStatsRepository(),
		transfers: memory.NewTransferRepository(),
		squads:    memory.NewSquadRepository(),
		users:     memory.NewUserRepository(),
		links:     memory.NewLinkRepository(),
		runs:      memory.NewSyncRunRepository(),
		cache:     cache.NewStore(time.Hour),
	}

	engine, err := NewEngine(EngineParams{
		Fantasy:   fantasy,
		Official:  official,
		Teams:     fx.teams,
		Players:   fx.players,
		Rounds:    fx.rounds,
		Matches:   fx.matches,
		Stats:     fx.stats,
		Transfers: fx.transfers,
		Squads:    fx.squads,
		Users:     fx.users,
		Links:     fx.links,
		Runs:      fx.runs,
		Schema:    memory.SchemaChecker{},
		IDs:       &seqIDs{},
		Cache:     fx.cache,
		Logger:    logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	engine.now = func() time.Time { return engineNow }
	fx.engine = engine
	return fx
}

func stepByName(t *testing.T, run syncrun.Run, name string) syncrun.StepResult {
	t.Helper()
	for _, s := range run.Steps {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("run has no step %q", name)
	return syncrun.StepResult{}
}

func TestEngine_Run_FullPipeline(t *testing.T) {
	ctx := context.Background()
	fx := newEngineFixture(t)
	fx.cache.Set(ctx, "read:euroleague:teams:E2025", "stale")
	fx.cache.Set(ctx, "meta:last_run", "keep")

	run, err := fx.engine.Run(ctx)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !run.Clean {
		t.Fatalf("expected clean run, steps: %+v", run.Steps)
	}
	if len(run.Steps) != 7 {
		t.Fatalf("expected 7 steps, got %d", len(run.Steps))
	}
	if run.ID != "run_0001" {
		t.Fatalf("run id = %s, want run_0001", run.ID)
	}

	// Clubs and athletes carry their official codes after the link steps.
	teams, _ := fx.teams.List(ctx)
	codes := map[int64]string{}
	for _, tm := range teams {
		codes[tm.ID] = tm.OfficialCode
	}
	if codes[1] != "MAD" || codes[2] != "PAN" {
		t.Fatalf("unexpected team codes %v", codes)
	}

	players, _ := fx.players.List(ctx)
	playerCodes := map[int64]string{}
	for _, p := range players {
		playerCodes[p.ID] = p.OfficialCode
	}
	if playerCodes[10] != "P0010" || playerCodes[11] != "P0011" || playerCodes[20] != "P0020" {
		t.Fatalf("unexpected player codes %v", playerCodes)
	}

	// The roster entry without a platform counterpart sits in the queue.
	unresolved, _ := fx.links.ListUnresolved(ctx)
	if len(unresolved) != 1 || unresolved[0].OfficialCode != "P0999" {
		t.Fatalf("unexpected unresolved queue %+v", unresolved)
	}

	// Both raw rounds persisted, collapsed onto the lower id.
	rounds, _ := fx.rounds.List(ctx)
	if len(rounds) != 2 {
		t.Fatalf("expected 2 persisted rounds, got %d", len(rounds))
	}
	for _, r := range rounds {
		if r.CanonicalID != 100 {
			t.Fatalf("round %d canonical = %d, want 100", r.ID, r.CanonicalID)
		}
	}

	// One reconciled fixture under the canonical round, finished in overtime.
	matches, _ := fx.matches.ListByRound(ctx, 100)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match in round 100, got %d", len(matches))
	}
	m := matches[0]
	if m.ID != match.SyntheticID(100, 1, 2) || m.GameCode != 1 {
		t.Fatalf("unexpected match identity %+v", m)
	}
	if m.Status != match.StatusFinished {
		t.Fatalf("match status = %s, want FINISHED", m.Status)
	}
	if m.HomeScore == nil || *m.HomeScore != 85 || m.AwayScore == nil || *m.AwayScore != 78 {
		t.Fatalf("unexpected final score %v - %v", m.HomeScore, m.AwayScore)
	}
	if m.HomeQuarters.OT != 7 || m.AwayQuarters.OT != 0 {
		t.Fatalf("unexpected overtime split home=%d away=%d", m.HomeQuarters.OT, m.AwayQuarters.OT)
	}

	// Box-score lines valued through the weights, platform points overlaid.
	lines, _ := fx.stats.ListByRound(ctx, 100)
	if len(lines) != 3 {
		t.Fatalf("expected 3 stat lines, got %d", len(lines))
	}
	byPlayer := map[int64]int{}
	for _, l := range lines {
		byPlayer[l.PlayerID] = l.ComputedPoints
	}
	if byPlayer[10] != 25 || byPlayer[11] != 27 || byPlayer[20] != 15 {
		t.Fatalf("unexpected computed points %v", byPlayer)
	}
	for _, l := range lines {
		if l.PlayerID == 10 {
			if l.PlatformPoints == nil || *l.PlatformPoints != 25 {
				t.Fatalf("platform points overlay missing: %+v", l)
			}
		}
	}

	matchStep := stepByName(t, run, "sync_matches")
	if matchStep.Counters["unmatched"] != 2 {
		t.Fatalf("expected 2 unmatched (stranger line + unknown points), got %d", matchStep.Counters["unmatched"])
	}

	// The ledger holds both moves of player 10.
	ledger, _ := fx.transfers.ListNewestFirst(ctx)
	if len(ledger) != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", len(ledger))
	}
	if ledger[0].ToUserID != 501 || ledger[1].ToUserID != 500 {
		t.Fatalf("ledger not newest first: %+v", ledger)
	}

	// Season-start snapshot: player 10 joined mid-season and belongs to
	// nobody; the others stay put at their master price.
	entries, _ := fx.squads.List(ctx)
	if len(entries) != 2 {
		t.Fatalf("expected 2 initial squad entries, got %+v", entries)
	}
	if entries[0].UserID != 500 || entries[0].PlayerID != 11 || entries[0].Price != 1800 {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].UserID != 501 || entries[1].PlayerID != 20 || entries[1].Price != 1500 {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}

	// Clean run drops read caches and nothing else.
	if _, ok := fx.cache.Get(ctx, "read:euroleague:teams:E2025"); ok {
		t.Fatal("read cache must be invalidated after a clean run")
	}
	if _, ok := fx.cache.Get(ctx, "meta:last_run"); !ok {
		t.Fatal("non-read cache keys must survive invalidation")
	}

	stored, _ := fx.runs.ListRecent(ctx, 10)
	if len(stored) != 1 || stored[0].ID != run.ID {
		t.Fatalf("run summary not persisted: %+v", stored)
	}
}

func TestEngine_Run_RepeatedPairingResolvesByDate(t *testing.T) {
	ctx := context.Background()
	fx := newEngineFixture(t)

	// The same clubs meet again a day before the run, platform round 200.
	// Both schedule entries share the MAD_PAN pairing; each fixture must
	// resolve the game code of its own meeting.
	fx.fantasy.competition.Rounds = append(fx.fantasy.competition.Rounds, ExternalRound{ID: 200, Name: "Jornada 2"})
	fx.fantasy.roundGames[200] = ExternalRoundGames{
		RoundID: 200,
		Games: []ExternalFantasyGame{
			{
				HomeTeamID: 1,
				AwayTeamID: 2,
				KickoffAt:  engineNow.Add(-24 * time.Hour),
				Status:     "FT",
				HomeScore:  intPtr(70),
				AwayScore:  intPtr(65),
			},
		},
	}
	fx.official.schedule = append(fx.official.schedule, ExternalScheduledGame{
		GameCode: 2, RoundNumber: 2, HomeCode: "MAD", AwayCode: "PAN",
		Date: engineNow.Add(-24 * time.Hour), Played: true,
	})
	fx.official.headers[2] = ExternalGameHeader{
		GameCode:      2,
		HomeFinal:     70,
		AwayFinal:     65,
		HomeByQuarter: []int{18, 36, 54, 70},
		AwayByQuarter: []int{15, 32, 49, 65},
	}
	fx.official.boxes[2] = ExternalBoxScore{GameCode: 2}

	run, err := fx.engine.Run(ctx)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !run.Clean {
		t.Fatalf("expected clean run, steps: %+v", run.Steps)
	}

	first, _ := fx.matches.ListByRound(ctx, 100)
	if len(first) != 1 || first[0].GameCode != 1 {
		t.Fatalf("first meeting resolved wrong game code: %+v", first)
	}
	second, _ := fx.matches.ListByRound(ctx, 200)
	if len(second) != 1 || second[0].GameCode != 2 {
		t.Fatalf("second meeting resolved wrong game code: %+v", second)
	}
	if first[0].HomeScore == nil || *first[0].HomeScore != 85 || second[0].HomeScore == nil || *second[0].HomeScore != 70 {
		t.Fatalf("meetings carry each other's scores: %v vs %v", first[0].HomeScore, second[0].HomeScore)
	}
}

func TestEngine_Run_SettledRoundsAreSkipped(t *testing.T) {
	ctx := context.Background()
	fx := newEngineFixture(t)

	if _, err := fx.engine.Run(ctx); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	headerCallsAfterFirst := fx.official.headerCalls
	if headerCallsAfterFirst != 1 {
		t.Fatalf("expected exactly 1 header fetch in first run, got %d", headerCallsAfterFirst)
	}

	run, err := fx.engine.Run(ctx)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if !run.Clean {
		t.Fatalf("second run not clean: %+v", run.Steps)
	}

	// Every fixture finished well outside the revision window, so neither
	// raw round hits the feed again.
	matchStep := stepByName(t, run, "sync_matches")
	if matchStep.Counters["skipped_rounds"] != 2 {
		t.Fatalf("expected both raw rounds skipped, counters: %v", matchStep.Counters)
	}
	if fx.official.headerCalls != headerCallsAfterFirst {
		t.Fatalf("settled round was re-fetched: %d header calls", fx.official.headerCalls)
	}
}

func TestEngine_Run_StepFailureDoesNotHaltOrInvalidate(t *testing.T) {
	ctx := context.Background()
	fx := newEngineFixture(t)
	fx.official.teamsErr = fmt.Errorf("upstream 503")
	fx.cache.Set(ctx, "read:euroleague:teams:E2025", "stale")

	run, err := fx.engine.Run(ctx)
	if err != nil {
		t.Fatalf("run must not fail on a step error: %v", err)
	}
	if run.Clean {
		t.Fatal("run with a failed step cannot be clean")
	}
	if len(run.Steps) != 7 {
		t.Fatalf("failure must not halt later steps, got %d steps", len(run.Steps))
	}

	linkStep := stepByName(t, run, "link_teams")
	if linkStep.Status != syncrun.StepStatusFailed || linkStep.Error == "" {
		t.Fatalf("unexpected link_teams result %+v", linkStep)
	}
	for _, name := range []string{"sync_master", "canonicalize_rounds", "sync_transfers", "backtrack_rosters"} {
		if s := stepByName(t, run, name); s.Status != syncrun.StepStatusOK {
			t.Fatalf("step %s = %s, want ok", name, s.Status)
		}
	}

	// Poisoned caches stay untouched on a dirty run.
	if _, ok := fx.cache.Get(ctx, "read:euroleague:teams:E2025"); !ok {
		t.Fatal("read caches must be kept when any step failed")
	}

	// The dirty run is still recorded.
	stored, _ := fx.runs.ListRecent(ctx, 10)
	if len(stored) != 1 || stored[0].Clean {
		t.Fatalf("dirty run not persisted correctly: %+v", stored)
	}
}

func TestEngine_Run_SchemaNotReadyIsFatal(t *testing.T) {
	fx := newEngineFixture(t)

	engine, err := NewEngine(EngineParams{
		Fantasy:   fx.fantasy,
		Official:  fx.official,
		Teams:     fx.teams,
		Players:   fx.players,
		Rounds:    fx.rounds,
		Matches:   fx.matches,
		Stats:     fx.stats,
		Transfers: fx.transfers,
		Squads:    fx.squads,
		Users:     fx.users,
		Links:     fx.links,
		Runs:      fx.runs,
		Schema:    failingSchema{},
		IDs:       &seqIDs{},
		Logger:    logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	_, err = engine.Run(context.Background())
	if !errors.Is(err, ErrSchemaNotReady) {
		t.Fatalf("expected ErrSchemaNotReady, got %v", err)
	}

	stored, _ := fx.runs.ListRecent(context.Background(), 10)
	if len(stored) != 0 {
		t.Fatalf("aborted run must not be persisted: %+v", stored)
	}
}

func TestEngine_RunBacktrack_OnlyLedgerSteps(t *testing.T) {
	ctx := context.Background()
	fx := newEngineFixture(t)

	// A full run first so the entity caches have something to reload.
	if _, err := fx.engine.Run(ctx); err != nil {
		t.Fatalf("seed run failed: %v", err)
	}

	run, err := fx.engine.RunBacktrack(ctx)
	if err != nil {
		t.Fatalf("backtrack run failed: %v", err)
	}
	if !run.Clean {
		t.Fatalf("backtrack run not clean: %+v", run.Steps)
	}
	if len(run.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(run.Steps))
	}
	if run.Steps[0].Name != "sync_transfers" || run.Steps[1].Name != "backtrack_rosters" {
		t.Fatalf("unexpected step order %+v", run.Steps)
	}

	entries, _ := fx.squads.List(ctx)
	if len(entries) != 2 {
		t.Fatalf("expected snapshot rebuilt with 2 entries, got %d", len(entries))
	}
}

func TestEngine_RecentRuns(t *testing.T) {
	ctx := context.Background()
	fx := newEngineFixture(t)

	if _, err := fx.engine.Run(ctx); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if _, err := fx.engine.Run(ctx); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	runs, err := fx.engine.RecentRuns(ctx, 1)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run_0002" {
		t.Fatalf("expected newest run only, got %+v", runs)
	}
}
