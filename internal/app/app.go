package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rmarban/euroleague-fantasy/external/euroleague"
	"github.com/rmarban/euroleague-fantasy/external/fantasy"
	"github.com/rmarban/euroleague-fantasy/internal/config"
	"github.com/rmarban/euroleague-fantasy/internal/infrastructure/repository/postgres"
	"github.com/rmarban/euroleague-fantasy/internal/platform/cache"
	idgen "github.com/rmarban/euroleague-fantasy/internal/platform/id"
	"github.com/rmarban/euroleague-fantasy/internal/platform/logging"
	"github.com/rmarban/euroleague-fantasy/internal/platform/resilience"
	"github.com/rmarban/euroleague-fantasy/internal/usecase"
)

// App bundles everything a sync process needs: the engine, its database
// pool, and the official feed client for cache warm-up.
type App struct {
	Config   config.Config
	Logger   *logging.Logger
	DB       *sqlx.DB
	Cache    *cache.Store
	Official *euroleague.Client
	Engine   *usecase.Engine
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := OpenDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var store *cache.Store
	if cfg.CacheEnabled {
		store = cache.NewStore(cfg.CacheTTL)
	}

	fantasyClient := fantasy.NewClient(fantasy.ClientConfig{
		BaseURL:       cfg.FantasyBaseURL,
		Token:         cfg.FantasyToken,
		LeagueID:      cfg.FantasyLeagueID,
		Timeout:       cfg.FantasyTimeout,
		MaxRetries:    cfg.FantasyMaxRetries,
		CourtesyDelay: cfg.CourtesyDelay,
		Logger:        logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FantasyCircuitEnabled,
			FailureThreshold: cfg.FantasyCircuitFailureCount,
			OpenTimeout:      cfg.FantasyCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FantasyCircuitHalfOpenMaxReq,
		},
	})

	officialClient := euroleague.NewClient(euroleague.ClientConfig{
		BaseURL:       cfg.EuroleagueBaseURL,
		SeasonCode:    cfg.EuroleagueSeasonCode,
		Timeout:       cfg.EuroleagueTimeout,
		MaxRetries:    cfg.EuroleagueMaxRetries,
		CourtesyDelay: cfg.CourtesyDelay,
		Logger:        logger,
		Cache:         store,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.EuroleagueCircuitEnabled,
			FailureThreshold: cfg.EuroleagueCircuitFailureCount,
			OpenTimeout:      cfg.EuroleagueCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.EuroleagueHalfOpenMaxReq,
		},
	})

	engine, err := usecase.NewEngine(usecase.EngineParams{
		Fantasy:  fantasyClient,
		Official: officialClient,

		Teams:     postgres.NewTeamRepository(db),
		Players:   postgres.NewPlayerRepository(db),
		Rounds:    postgres.NewRoundRepository(db),
		Matches:   postgres.NewMatchRepository(db),
		Stats:     postgres.NewPlayerStatsRepository(db),
		Transfers: postgres.NewTransferRepository(db),
		Squads:    postgres.NewSquadRepository(db),
		Users:     postgres.NewUserRepository(db),
		Links:     postgres.NewLinkRepository(db),
		Runs:      postgres.NewSyncRunRepository(db),

		Schema: postgres.NewSchemaChecker(db),
		IDs:    idgen.NewRandomGenerator(),
		Cache:  store,
		Logger: logger,

		TeamSimilarityThreshold: cfg.TeamSimilarityThreshold,
		RescheduleMarker:        cfg.RescheduleMarker,
		SkipWindow:              cfg.RoundSkipWindow,
		SeasonStart:             cfg.SeasonStartDate,
		TransferPageSize:        cfg.TransferPageSize,
		FetchWorkers:            cfg.FetchWorkers,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("build sync engine: %w", err)
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Cache:    store,
		Official: officialClient,
		Engine:   engine,
	}, nil
}

// Warm prefetches the official feed's season-long reads.
func (a *App) Warm(ctx context.Context) {
	a.Official.Warm(ctx)
}

func (a *App) Close() error {
	return a.DB.Close()
}
