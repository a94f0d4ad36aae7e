package usecase

import (
	"context"
	"fmt"

	"github.com/rmarban/euroleague-fantasy/internal/domain/syncrun"
)

// readCachePrefix fronts every read-side cache key the engine may poison.
const readCachePrefix = "read:"

// Run executes the full pipeline. A step failure is logged and recorded but
// never halts later steps; only a schema or storage failure before the first
// step aborts the run. Read caches are invalidated exactly once, and only
// when every step succeeded.
func (e *Engine) Run(ctx context.Context) (syncrun.Run, error) {
	return e.runPipeline(ctx, e.steps, nil)
}

// RunBacktrack executes only the ledger and roster-reconstruction steps,
// for operators who want a fresh initial-squad snapshot without a full sync.
func (e *Engine) RunBacktrack(ctx context.Context) (syncrun.Run, error) {
	steps := []step{
		{name: "sync_transfers", run: e.stepSyncTransfers},
		{name: "backtrack_rosters", run: e.stepBacktrackRosters},
	}
	return e.runPipeline(ctx, steps, e.reloadEntityCaches)
}

// RecentRuns returns the latest persisted run summaries, newest first.
func (e *Engine) RecentRuns(ctx context.Context, limit int) ([]syncrun.Run, error) {
	return e.runs.ListRecent(ctx, limit)
}

func (e *Engine) runPipeline(ctx context.Context, steps []step, prepare func(context.Context, *RunContext) error) (syncrun.Run, error) {
	ctx, span := startUsecaseSpan(ctx, "Engine.runPipeline")
	defer span.End()

	if err := e.schema.Ready(ctx); err != nil {
		return syncrun.Run{}, fmt.Errorf("%w: %v", ErrSchemaNotReady, err)
	}

	runID, err := e.ids.NewID()
	if err != nil {
		return syncrun.Run{}, fmt.Errorf("generate run id: %w", err)
	}

	run := syncrun.Run{ID: "run_" + runID, StartedAt: e.now().UTC()}
	rc := newRunContext()

	if prepare != nil {
		if err := prepare(ctx, rc); err != nil {
			return syncrun.Run{}, fmt.Errorf("prepare run context: %w", err)
		}
	}

	clean := true
	for _, st := range steps {
		stepStart := e.now()
		counters, stepErr := st.run(ctx, rc)
		if counters == nil {
			counters = Counters{}
		}
		result := syncrun.StepResult{
			Name:     st.name,
			Status:   syncrun.StepStatusOK,
			Duration: e.now().Sub(stepStart),
			Counters: counters,
		}
		if stepErr != nil {
			clean = false
			result.Status = syncrun.StepStatusFailed
			result.Error = stepErr.Error()
			e.logger.ErrorContext(ctx, "sync step failed",
				"run_id", run.ID,
				"step", st.name,
				"error", stepErr,
			)
		} else {
			e.logger.InfoContext(ctx, "sync step finished",
				"run_id", run.ID,
				"step", st.name,
				"duration", result.Duration,
				"counters", map[string]int(counters),
			)
		}
		run.Steps = append(run.Steps, result)
	}

	run.FinishedAt = e.now().UTC()
	run.Clean = clean

	if clean && e.cache != nil {
		e.cache.DeletePrefix(ctx, readCachePrefix)
		e.logger.InfoContext(ctx, "read caches invalidated", "run_id", run.ID)
	} else if !clean {
		e.logger.WarnContext(ctx, "run finished with failures, read caches kept", "run_id", run.ID)
	}

	if err := e.runs.Insert(ctx, run); err != nil {
		e.logger.ErrorContext(ctx, "persist run summary failed", "run_id", run.ID, "error", err)
	}

	e.logger.InfoContext(ctx, "sync run completed",
		"run_id", run.ID,
		"clean", run.Clean,
		"steps", len(run.Steps),
		"duration", run.FinishedAt.Sub(run.StartedAt),
	)
	return run, nil
}
