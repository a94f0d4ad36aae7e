package euroleague

import (
	"context"
	"encoding/xml"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/sourcegraph/conc"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/rmarban/euroleague-fantasy/internal/platform/cache"
	"github.com/rmarban/euroleague-fantasy/internal/platform/logging"
	"github.com/rmarban/euroleague-fantasy/internal/platform/resilience"
	"github.com/rmarban/euroleague-fantasy/internal/usecase"
)

const defaultBaseURL = "https://api-live.euroleague.net"

// Season-long reads are cached under the read: prefix so a clean sync run
// can drop them together with the rest of the derived read caches.
const (
	teamsCacheKey    = "read:euroleague:teams:"
	scheduleCacheKey = "read:euroleague:schedule:"
)

var errFeedTransient = crerr.New("official feed transient failure")

// IsTransient reports whether the failure is worth retrying on the next
// scheduled run.
func IsTransient(err error) bool {
	return stderrors.Is(err, errFeedTransient)
}

type ClientConfig struct {
	BaseURL        string
	SeasonCode     string
	Timeout        time.Duration
	MaxRetries     int
	CourtesyDelay  time.Duration
	Logger         *logging.Logger
	Cache          *cache.Store
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads the official competition feed. It implements
// usecase.OfficialProvider.
type Client struct {
	http           *fasthttp.Client
	baseURL        string
	seasonCode     string
	timeout        time.Duration
	maxRetries     int
	courtesyDelay  time.Duration
	logger         *logging.Logger
	cache          *cache.Store
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
	validate       *validator.Validate

	mu          sync.Mutex
	lastRequest time.Time
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		http:           &fasthttp.Client{ReadTimeout: timeout, WriteTimeout: timeout},
		baseURL:        baseURL,
		seasonCode:     strings.TrimSpace(cfg.SeasonCode),
		timeout:        timeout,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		courtesyDelay:  cfg.CourtesyDelay,
		logger:         logger,
		cache:          cfg.Cache,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		validate:       validator.New(),
	}
}

// Warm prefetches the season-long reads so the first sync step does not
// pay both feed round trips serially. Failures are logged and retried by
// the steps that actually need the data.
func (c *Client) Warm(ctx context.Context) {
	if c.cache == nil {
		return
	}
	wg := conc.NewWaitGroup()
	wg.Go(func() {
		if _, err := c.FetchTeams(ctx); err != nil {
			c.logger.WarnContext(ctx, "warm official teams failed", "error", err)
		}
	})
	wg.Go(func() {
		if _, err := c.FetchSchedule(ctx); err != nil {
			c.logger.WarnContext(ctx, "warm official schedule failed", "error", err)
		}
	})
	wg.Wait()
}

func (c *Client) FetchTeams(ctx context.Context) ([]usecase.ExternalOfficialTeam, error) {
	load := func(ctx context.Context) (any, error) {
		var payload clubsXML
		path := "/v1/teams?seasonCode=" + c.seasonCode
		if err := c.doXML(ctx, path, &payload); err != nil {
			return nil, fmt.Errorf("fetch official teams: %w", err)
		}

		out := make([]usecase.ExternalOfficialTeam, 0, len(payload.Clubs))
		for _, club := range payload.Clubs {
			team := usecase.ExternalOfficialTeam{
				Code:   strings.TrimSpace(club.Code),
				Name:   strings.TrimSpace(club.Name),
				Roster: make([]usecase.ExternalOfficialPlayer, 0, len(club.Roster)),
			}
			for _, item := range club.Roster {
				team.Roster = append(team.Roster, usecase.ExternalOfficialPlayer{
					Code:     strings.TrimSpace(item.Code),
					Name:     strings.TrimSpace(item.Name),
					TeamCode: team.Code,
				})
			}
			out = append(out, team)
		}
		return out, nil
	}

	if c.cache == nil {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return value.([]usecase.ExternalOfficialTeam), nil
	}
	value, err := c.cache.GetOrLoad(ctx, teamsCacheKey+c.seasonCode, load)
	if err != nil {
		return nil, err
	}
	return value.([]usecase.ExternalOfficialTeam), nil
}

func (c *Client) FetchSchedule(ctx context.Context) ([]usecase.ExternalScheduledGame, error) {
	load := func(ctx context.Context) (any, error) {
		var payload scheduleXML
		path := "/v1/schedules?seasonCode=" + c.seasonCode
		if err := c.doXML(ctx, path, &payload); err != nil {
			return nil, fmt.Errorf("fetch official schedule: %w", err)
		}

		out := make([]usecase.ExternalScheduledGame, 0, len(payload.Items))
		for _, item := range payload.Items {
			out = append(out, usecase.ExternalScheduledGame{
				GameCode:    item.GameCode,
				RoundNumber: item.GameDay,
				HomeCode:    strings.TrimSpace(item.HomeCode),
				AwayCode:    strings.TrimSpace(item.AwayCode),
				Date:        parseScheduleTime(item.Date, item.StartTime),
				Played:      item.Played,
			})
		}
		return out, nil
	}

	if c.cache == nil {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return value.([]usecase.ExternalScheduledGame), nil
	}
	value, err := c.cache.GetOrLoad(ctx, scheduleCacheKey+c.seasonCode, load)
	if err != nil {
		return nil, err
	}
	return value.([]usecase.ExternalScheduledGame), nil
}

func (c *Client) FetchGameHeader(ctx context.Context, gameCode int) (usecase.ExternalGameHeader, error) {
	var payload gameHeaderXML
	path := fmt.Sprintf("/v1/games?seasonCode=%s&gameCode=%d", c.seasonCode, gameCode)
	if err := c.doXML(ctx, path, &payload); err != nil {
		return usecase.ExternalGameHeader{}, fmt.Errorf("fetch game header code=%d: %w", gameCode, err)
	}

	home, err := parseQuarterTotals(payload.QuartersHome)
	if err != nil {
		return usecase.ExternalGameHeader{}, fmt.Errorf("parse home quarters code=%d: %w", gameCode, err)
	}
	away, err := parseQuarterTotals(payload.QuartersAway)
	if err != nil {
		return usecase.ExternalGameHeader{}, fmt.Errorf("parse away quarters code=%d: %w", gameCode, err)
	}
	return usecase.ExternalGameHeader{
		GameCode:      gameCode,
		Live:          payload.Live,
		HomeFinal:     payload.ScoreHome,
		AwayFinal:     payload.ScoreAway,
		HomeByQuarter: home,
		AwayByQuarter: away,
	}, nil
}

func (c *Client) FetchBoxScore(ctx context.Context, gameCode int) (usecase.ExternalBoxScore, error) {
	raw, err := c.fetch(ctx, fmt.Sprintf("/v1/games/boxscore?seasonCode=%s&gameCode=%d", c.seasonCode, gameCode), "application/json")
	if err != nil {
		return usecase.ExternalBoxScore{}, fmt.Errorf("fetch box score code=%d: %w", gameCode, err)
	}

	var payload boxScorePayload
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return usecase.ExternalBoxScore{}, fmt.Errorf("decode box score code=%d: %w", gameCode, err)
	}
	if err := c.validate.Struct(&payload); err != nil {
		return usecase.ExternalBoxScore{}, fmt.Errorf("validate box score code=%d: %w", gameCode, err)
	}

	out := usecase.ExternalBoxScore{GameCode: gameCode}
	for _, teamStats := range payload.Stats {
		for _, row := range teamStats.PlayersStats {
			code := strings.TrimSpace(row.PlayerID)
			if code == "" {
				continue
			}
			out.Lines = append(out.Lines, usecase.ExternalStatLine{
				PlayerCode:      code,
				PlayerName:      strings.TrimSpace(row.Player),
				Seconds:         parseMinutes(row.Minutes),
				Points:          row.Points,
				TwoPointsMade:   row.FieldGoalsMade2,
				TwoPointsAtt:    row.FieldGoalsAttempted2,
				ThreePointsMade: row.FieldGoalsMade3,
				ThreePointsAtt:  row.FieldGoalsAttempted3,
				FreeThrowsMade:  row.FreeThrowsMade,
				FreeThrowsAtt:   row.FreeThrowsAttempted,
				ReboundsOff:     row.OffensiveRebounds,
				ReboundsDef:     row.DefensiveRebounds,
				Assists:         row.Assistances,
				Steals:          row.Steals,
				Turnovers:       row.Turnovers,
				BlocksFavour:    row.BlocksFavour,
				BlocksAgainst:   row.BlocksAgainst,
				FoulsCommitted:  row.FoulsCommited,
			})
		}
	}
	return out, nil
}

func (c *Client) doXML(ctx context.Context, path string, target any) error {
	raw, err := c.fetch(ctx, path, "application/xml")
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode feed payload: %w", err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, path, accept string) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "official feed circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: official feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_, _ = buf.WriteString(c.baseURL)
	_, _ = buf.WriteString(path)
	fullURL := buf.String()

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL, accept)
		if c.circuitEnabled {
			if reqErr != nil && IsTransient(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL, accept string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.waitCourtesy()

		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		req.SetRequestURI(fullURL)
		req.Header.SetMethod(fasthttp.MethodGet)
		req.Header.Set("Accept", accept)

		err := c.http.DoTimeout(req, resp, c.timeout)
		status := resp.StatusCode()
		raw := append([]byte(nil), resp.Body()...)
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)

		switch {
		case err != nil:
			lastErr = fmt.Errorf("%w: send request: %v", errFeedTransient, err)
		case status >= 200 && status < 300:
			return raw, nil
		case isRetryableStatus(status):
			lastErr = fmt.Errorf("%w: feed status=%d", errFeedTransient, status)
		default:
			return nil, fmt.Errorf("feed status=%d body=%s", status, abbreviateBody(raw))
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "official feed request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) waitCourtesy() {
	if c.courtesyDelay <= 0 {
		return
	}
	c.mu.Lock()
	wait := c.courtesyDelay - time.Since(c.lastRequest)
	if wait > 0 {
		c.lastRequest = c.lastRequest.Add(c.courtesyDelay)
	} else {
		c.lastRequest = time.Now()
	}
	c.mu.Unlock()
	if wait > 0 {
		time.Sleep(wait)
	}
}

// parseQuarterTotals reads running totals like "20,41,60,78" or
// "20,41,60,78,85" with an overtime column. An empty value means the game
// has not produced any quarter data yet.
func parseQuarterTotals(value string) ([]int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("quarter total %q: %w", part, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// parseMinutes converts the feed's "MM:SS" playing time into seconds.
// "DNP" and blank values map to zero.
func parseMinutes(value string) int {
	value = strings.TrimSpace(value)
	minutesPart, secondsPart, ok := strings.Cut(value, ":")
	if !ok {
		return 0
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(minutesPart))
	if err != nil {
		return 0
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(secondsPart))
	if err != nil {
		return 0
	}
	return minutes*60 + seconds
}

func parseScheduleTime(date, startTime string) time.Time {
	date = strings.TrimSpace(date)
	startTime = strings.TrimSpace(startTime)
	if startTime != "" {
		if ts, err := time.Parse("Jan 2, 2006 15:04", date+" "+startTime); err == nil {
			return ts.UTC()
		}
	}
	if ts, err := time.Parse("Jan 2, 2006", date); err == nil {
		return ts.UTC()
	}
	return time.Time{}
}

func isRetryableStatus(status int) bool {
	return status == fasthttp.StatusTooManyRequests || status >= 500
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	if len(raw) <= limit {
		return string(raw)
	}
	return string(raw[:limit]) + "..."
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
