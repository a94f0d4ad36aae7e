package config

import (
	"strings"
	"testing"
	"time"

	"github.com/rmarban/euroleague-fantasy/internal/platform/logging"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FANTASY_LEAGUE_ID", "123456")
	t.Setenv("EUROLEAGUE_SEASON_CODE", "E2025")
	t.Setenv("SEASON_START_DATE", "2025-09-30")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.AppEnv != EnvDev {
		t.Fatalf("AppEnv = %s, want dev", cfg.AppEnv)
	}
	if cfg.ServiceName != "euroleague-fantasy-sync" {
		t.Fatalf("ServiceName = %s", cfg.ServiceName)
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.FantasyBaseURL != "https://biwenger.as.com/api/v2" {
		t.Fatalf("FantasyBaseURL = %s", cfg.FantasyBaseURL)
	}
	if cfg.EuroleagueBaseURL != "https://api-live.euroleague.net" {
		t.Fatalf("EuroleagueBaseURL = %s", cfg.EuroleagueBaseURL)
	}
	if cfg.FantasyLeagueID != 123456 {
		t.Fatalf("FantasyLeagueID = %d", cfg.FantasyLeagueID)
	}
	if !cfg.CacheEnabled || cfg.CacheTTL != 60*time.Second {
		t.Fatalf("cache defaults wrong: enabled=%t ttl=%s", cfg.CacheEnabled, cfg.CacheTTL)
	}
	if cfg.RoundSkipWindow != 24*time.Hour {
		t.Fatalf("RoundSkipWindow = %s, want 24h", cfg.RoundSkipWindow)
	}
	if cfg.CourtesyDelay != 400*time.Millisecond {
		t.Fatalf("CourtesyDelay = %s, want 400ms", cfg.CourtesyDelay)
	}
	if cfg.TeamSimilarityThreshold != 0.4 {
		t.Fatalf("TeamSimilarityThreshold = %v, want 0.4", cfg.TeamSimilarityThreshold)
	}
	if cfg.RescheduleMarker != "(aplazada)" {
		t.Fatalf("RescheduleMarker = %q", cfg.RescheduleMarker)
	}
	if cfg.TransferPageSize != 25 {
		t.Fatalf("TransferPageSize = %d, want 25", cfg.TransferPageSize)
	}
	if cfg.FetchWorkers != 2 {
		t.Fatalf("FetchWorkers = %d, want 2", cfg.FetchWorkers)
	}
	want := time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)
	if !cfg.SeasonStartDate.Equal(want) {
		t.Fatalf("SeasonStartDate = %s, want %s", cfg.SeasonStartDate, want)
	}
	if cfg.UptraceEnabled || cfg.PyroscopeEnabled {
		t.Fatal("observability exporters must default to disabled")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "PROD")
	t.Setenv("APP_LOG_LEVEL", "warn")
	t.Setenv("FANTASY_BASE_URL", "https://mirror.example.com/api/v2/")
	t.Setenv("SYNC_ROUND_SKIP_WINDOW", "6h")
	t.Setenv("MATCH_TEAM_SIMILARITY_THRESHOLD", "0.55")
	t.Setenv("SYNC_FETCH_WORKERS", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.AppEnv != EnvProd {
		t.Fatalf("AppEnv = %s, want prod", cfg.AppEnv)
	}
	if cfg.LogLevel != logging.LevelWarn {
		t.Fatalf("LogLevel = %v, want warn", cfg.LogLevel)
	}
	if cfg.FantasyBaseURL != "https://mirror.example.com/api/v2" {
		t.Fatalf("trailing slash not trimmed: %s", cfg.FantasyBaseURL)
	}
	if cfg.RoundSkipWindow != 6*time.Hour {
		t.Fatalf("RoundSkipWindow = %s, want 6h", cfg.RoundSkipWindow)
	}
	if cfg.TeamSimilarityThreshold != 0.55 {
		t.Fatalf("TeamSimilarityThreshold = %v", cfg.TeamSimilarityThreshold)
	}
	if cfg.FetchWorkers != 8 {
		t.Fatalf("FetchWorkers = %d", cfg.FetchWorkers)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantSub string
	}{
		{
			name:    "missing league id",
			env:     map[string]string{"FANTASY_LEAGUE_ID": ""},
			wantSub: "FANTASY_LEAGUE_ID is required",
		},
		{
			name:    "missing season code",
			env:     map[string]string{"EUROLEAGUE_SEASON_CODE": ""},
			wantSub: "EUROLEAGUE_SEASON_CODE is required",
		},
		{
			name:    "missing season start",
			env:     map[string]string{"SEASON_START_DATE": ""},
			wantSub: "SEASON_START_DATE is required",
		},
		{
			name:    "malformed season start",
			env:     map[string]string{"SEASON_START_DATE": "30/09/2025"},
			wantSub: "parse SEASON_START_DATE",
		},
		{
			name:    "invalid app env",
			env:     map[string]string{"APP_ENV": "sandbox"},
			wantSub: "invalid APP_ENV",
		},
		{
			name:    "threshold out of range",
			env:     map[string]string{"MATCH_TEAM_SIMILARITY_THRESHOLD": "1.5"},
			wantSub: "MATCH_TEAM_SIMILARITY_THRESHOLD",
		},
		{
			name:    "zero skip window",
			env:     map[string]string{"SYNC_ROUND_SKIP_WINDOW": "0s"},
			wantSub: "SYNC_ROUND_SKIP_WINDOW must be > 0",
		},
		{
			name:    "uptrace enabled without dsn",
			env:     map[string]string{"UPTRACE_ENABLED": "true"},
			wantSub: "UPTRACE_DSN is required",
		},
		{
			name:    "pyroscope enabled without server",
			env:     map[string]string{"PYROSCOPE_ENABLED": "true"},
			wantSub: "PYROSCOPE_SERVER_ADDRESS is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}
