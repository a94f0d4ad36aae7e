package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rmarban/euroleague-fantasy/internal/domain/link"
	"github.com/rmarban/euroleague-fantasy/internal/domain/match"
	"github.com/rmarban/euroleague-fantasy/internal/domain/player"
	"github.com/rmarban/euroleague-fantasy/internal/domain/playerstats"
	"github.com/rmarban/euroleague-fantasy/internal/domain/round"
	"github.com/rmarban/euroleague-fantasy/internal/domain/squad"
	"github.com/rmarban/euroleague-fantasy/internal/domain/syncrun"
	"github.com/rmarban/euroleague-fantasy/internal/domain/team"
	"github.com/rmarban/euroleague-fantasy/internal/domain/transfer"
	"github.com/rmarban/euroleague-fantasy/internal/domain/user"
	"github.com/rmarban/euroleague-fantasy/internal/platform/cache"
	"github.com/rmarban/euroleague-fantasy/internal/platform/logging"
)

// SchemaChecker verifies the relational schema is present before any step
// writes. A failure here is the one fatal condition that aborts a run.
type SchemaChecker interface {
	Ready(ctx context.Context) error
}

// IDGenerator issues run identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// Counters accumulates per-step entity accounting for the run summary.
type Counters map[string]int

func (c Counters) Add(key string, n int) {
	c[key] += n
}

func (c Counters) Merge(other Counters) {
	for k, v := range other {
		c[k] += v
	}
}

// RunContext is the shared mutable state of one sync run. The orchestrator
// owns it; nothing in it survives the run except what repositories persist.
type RunContext struct {
	Teams          map[int64]team.Team
	TeamCodes      map[string]int64
	Players        map[int64]player.Player
	PlayerCodes    map[string]int64
	RawRounds      []round.Round
	Canonical      *CanonicalRounds
	Schedule       map[string][]ExternalScheduledGame
	OfficialTeams  []ExternalOfficialTeam
	CurrentRosters []ExternalUserRoster
}

func newRunContext() *RunContext {
	return &RunContext{
		Teams:       make(map[int64]team.Team),
		TeamCodes:   make(map[string]int64),
		Players:     make(map[int64]player.Player),
		PlayerCodes: make(map[string]int64),
		Schedule:    make(map[string][]ExternalScheduledGame),
	}
}

type step struct {
	name string
	run  func(ctx context.Context, rc *RunContext) (Counters, error)
}

// EngineParams wires the engine's collaborators and tuning knobs.
type EngineParams struct {
	Fantasy  FantasyProvider
	Official OfficialProvider

	Teams     team.Repository
	Players   player.Repository
	Rounds    round.Repository
	Matches   match.Repository
	Stats     playerstats.Repository
	Transfers transfer.Repository
	Squads    squad.Repository
	Users     user.Repository
	Links     link.Repository
	Runs      syncrun.Repository

	Schema SchemaChecker
	IDs    IDGenerator
	Cache  *cache.Store
	Logger *logging.Logger

	Weights                 ScoringWeights
	TeamSimilarityThreshold float64
	RescheduleMarker        string
	SkipWindow              time.Duration
	SeasonStart             time.Time
	TransferPageSize        int
	FetchWorkers            int
}

// Engine implements the sync pipeline: master data, entity links, canonical
// rounds, match reconciliation, transfer ledger, roster backtracking.
type Engine struct {
	fantasy  FantasyProvider
	official OfficialProvider

	teams     team.Repository
	players   player.Repository
	rounds    round.Repository
	matches   match.Repository
	stats     playerstats.Repository
	transfers transfer.Repository
	squads    squad.Repository
	users     user.Repository
	links     link.Repository
	runs      syncrun.Repository

	schema SchemaChecker
	ids    IDGenerator
	cache  *cache.Store
	logger *logging.Logger

	matcher *Matcher
	weights ScoringWeights

	rescheduleMarker string
	skipWindow       time.Duration
	seasonStart      time.Time
	transferPageSize int
	fetchWorkers     int
	now              func() time.Time

	steps []step
}

func NewEngine(p EngineParams) (*Engine, error) {
	switch {
	case p.Fantasy == nil || p.Official == nil:
		return nil, fmt.Errorf("new engine: %w: providers are required", ErrInvalidInput)
	case p.Teams == nil || p.Players == nil || p.Rounds == nil || p.Matches == nil ||
		p.Stats == nil || p.Transfers == nil || p.Squads == nil || p.Users == nil ||
		p.Links == nil || p.Runs == nil:
		return nil, fmt.Errorf("new engine: %w: repositories are required", ErrInvalidInput)
	case p.Schema == nil:
		return nil, fmt.Errorf("new engine: %w: schema checker is required", ErrInvalidInput)
	case p.IDs == nil:
		return nil, fmt.Errorf("new engine: %w: id generator is required", ErrInvalidInput)
	}

	logger := p.Logger
	if logger == nil {
		logger = logging.Default()
	}
	if p.TeamSimilarityThreshold <= 0 {
		p.TeamSimilarityThreshold = 0.4
	}
	if p.RescheduleMarker == "" {
		p.RescheduleMarker = "(aplazada)"
	}
	if p.SkipWindow <= 0 {
		p.SkipWindow = 24 * time.Hour
	}
	if p.TransferPageSize <= 0 {
		p.TransferPageSize = 25
	}
	if p.FetchWorkers <= 0 {
		p.FetchWorkers = 1
	}
	if (p.Weights == ScoringWeights{}) {
		p.Weights = DefaultScoringWeights()
	}

	e := &Engine{
		fantasy:          p.Fantasy,
		official:         p.Official,
		teams:            p.Teams,
		players:          p.Players,
		rounds:           p.Rounds,
		matches:          p.Matches,
		stats:            p.Stats,
		transfers:        p.Transfers,
		squads:           p.Squads,
		users:            p.Users,
		links:            p.Links,
		runs:             p.Runs,
		schema:           p.Schema,
		ids:              p.IDs,
		cache:            p.Cache,
		logger:           logger,
		matcher:          NewMatcher(p.Links, logger, p.TeamSimilarityThreshold),
		weights:          p.Weights,
		rescheduleMarker: p.RescheduleMarker,
		skipWindow:       p.SkipWindow,
		seasonStart:      p.SeasonStart,
		transferPageSize: p.TransferPageSize,
		fetchWorkers:     p.FetchWorkers,
		now:              time.Now,
	}
	e.steps = []step{
		{name: "sync_master", run: e.stepSyncMaster},
		{name: "link_teams", run: e.stepLinkTeams},
		{name: "link_players", run: e.stepLinkPlayers},
		{name: "canonicalize_rounds", run: e.stepCanonicalizeRounds},
		{name: "sync_matches", run: e.stepSyncMatches},
		{name: "sync_transfers", run: e.stepSyncTransfers},
		{name: "backtrack_rosters", run: e.stepBacktrackRosters},
	}
	return e, nil
}

// officialCodeOf returns the official short code of a platform team, empty
// when the club is not linked yet.
func (e *Engine) officialCodeOf(rc *RunContext, teamID int64) string {
	t, ok := rc.Teams[teamID]
	if !ok {
		return ""
	}
	return t.OfficialCode
}
