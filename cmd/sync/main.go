package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rmarban/euroleague-fantasy/internal/app"
	"github.com/rmarban/euroleague-fantasy/internal/config"
	"github.com/rmarban/euroleague-fantasy/internal/domain/syncrun"
	"github.com/rmarban/euroleague-fantasy/internal/infrastructure/repository/postgres"
	"github.com/rmarban/euroleague-fantasy/internal/observability"
	"github.com/rmarban/euroleague-fantasy/internal/platform/logging"
)

func main() {
	root := &cobra.Command{
		Use:           "sync",
		Short:         "Synchronize the fantasy platform with the official competition feed",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newBacktrackCmd(), newRunsCmd(), newMigrateCheckCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute the full sync pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				a.Warm(ctx)
				run, err := a.Engine.Run(ctx)
				if err != nil {
					return err
				}
				fmt.Println(run.Summary())
				return nil
			})
		},
	}
}

func newBacktrackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backtrack",
		Short: "Rebuild the season-start squad snapshot from the transfer ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				run, err := a.Engine.RunBacktrack(ctx)
				if err != nil {
					return err
				}
				fmt.Println(run.Summary())
				return nil
			})
		},
	}
}

func newRunsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent sync runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				runs, err := a.Engine.RecentRuns(ctx, limit)
				if err != nil {
					return err
				}
				for _, run := range runs {
					printRunLine(run)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show")
	return cmd
}

func newMigrateCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-check",
		Short: "Verify the database schema is ready for sync runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				if err := postgres.NewSchemaChecker(a.DB).Ready(ctx); err != nil {
					return err
				}
				fmt.Println("schema ready")
				return nil
			})
		},
	}
}

func withApp(fn func(context.Context, *app.App) error) error {
	// Missing .env is fine; the environment may carry everything already.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewJSON(cfg.LogLevel).With(
		"service", cfg.ServiceName,
		"env", cfg.AppEnv,
	)
	logging.SetDefault(logger)
	defer func() {
		_ = logger.Sync()
	}()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("flush traces failed", "error", err)
		}
	}()

	stopProfiling, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return fmt.Errorf("init pyroscope: %w", err)
	}
	defer func() {
		if err := stopProfiling(); err != nil {
			logger.Error("stop profiler failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("close database failed", "error", err)
		}
	}()

	return fn(ctx, a)
}

func printRunLine(run syncrun.Run) {
	status := "clean"
	if !run.Clean {
		status = "dirty"
	}
	fmt.Printf("%s  %s  %s  steps=%d  duration=%s\n",
		run.ID,
		run.StartedAt.Format(time.RFC3339),
		status,
		len(run.Steps),
		run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond),
	)
}
