package fantasy

import (
	"context"
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/rmarban/euroleague-fantasy/internal/platform/logging"
	"github.com/rmarban/euroleague-fantasy/internal/platform/resilience"
	"github.com/rmarban/euroleague-fantasy/internal/usecase"
)

const defaultBaseURL = "https://biwenger.as.com/api/v2"

var bearerTokenRegex = regexp.MustCompile(`(?i)bearer\s+[^\s"']+`)
var errFantasyTransient = crerr.New("fantasy platform transient failure")

// IsTransient reports whether the failure is worth retrying on the next
// scheduled run.
func IsTransient(err error) bool {
	return stderrors.Is(err, errFantasyTransient)
}

type ClientConfig struct {
	BaseURL        string
	Token          string
	LeagueID       int64
	Timeout        time.Duration
	MaxRetries     int
	CourtesyDelay  time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the fantasy platform's unofficial JSON API. It implements
// usecase.FantasyProvider.
type Client struct {
	http           *fasthttp.Client
	baseURL        string
	token          string
	leagueID       int64
	timeout        time.Duration
	maxRetries     int
	courtesyDelay  time.Duration
	logger         *logging.Logger
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
		token:          strings.TrimSpace(cfg.Token),
		leagueID:       cfg.LeagueID,
		timeout:        timeout,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		courtesyDelay:  cfg.CourtesyDelay,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		validate:       validator.New(),
	}
}

func (c *Client) FetchCompetitionData(ctx context.Context) (usecase.ExternalCompetition, error) {
	var envelope competitionEnvelope
	if err := c.doJSON(ctx, "/competitions/euroleague/data?lang=en&score=1", &envelope); err != nil {
		return usecase.ExternalCompetition{}, fmt.Errorf("fetch competition data: %w", err)
	}

	out := usecase.ExternalCompetition{
		Teams:   make([]usecase.ExternalFantasyTeam, 0, len(envelope.Data.Teams)),
		Players: make([]usecase.ExternalFantasyPlayer, 0, len(envelope.Data.Players)),
		Rounds:  make([]usecase.ExternalRound, 0, len(envelope.Data.Rounds)),
	}
	for _, t := range envelope.Data.Teams {
		out.Teams = append(out.Teams, usecase.ExternalFantasyTeam{ID: t.ID, Name: t.Name})
	}
	for _, p := range envelope.Data.Players {
		out.Players = append(out.Players, usecase.ExternalFantasyPlayer{
			ID:       p.ID,
			TeamID:   p.TeamID,
			Name:     p.Name,
			Position: p.Position,
			Price:    p.Price,
			Country:  p.Country,
			HeightCm: p.Height,
		})
	}
	for _, r := range envelope.Data.Rounds {
		out.Rounds = append(out.Rounds, usecase.ExternalRound{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (c *Client) FetchRoundGames(ctx context.Context, roundID int64) (usecase.ExternalRoundGames, error) {
	var envelope roundGamesEnvelope
	path := fmt.Sprintf("/rounds/%d/games", roundID)
	if err := c.doJSON(ctx, path, &envelope); err != nil {
		return usecase.ExternalRoundGames{}, fmt.Errorf("fetch round games round=%d: %w", roundID, err)
	}

	out := usecase.ExternalRoundGames{
		RoundID:      roundID,
		Games:        make([]usecase.ExternalFantasyGame, 0, len(envelope.Data.Games)),
		PlayerPoints: make(map[int64]int, len(envelope.Data.Scores)),
	}
	for _, g := range envelope.Data.Games {
		out.Games = append(out.Games, usecase.ExternalFantasyGame{
			HomeTeamID: g.Home.ID,
			AwayTeamID: g.Away.ID,
			KickoffAt:  time.Unix(g.Date, 0).UTC(),
			Status:     g.Status,
			HomeScore:  g.HomeScore,
			AwayScore:  g.AwayScore,
		})
	}
	for _, s := range envelope.Data.Scores {
		out.PlayerPoints[s.PlayerID] = s.Points
	}
	return out, nil
}

func (c *Client) FetchLeagueBoard(ctx context.Context, offset, limit int) (usecase.ExternalBoardPage, error) {
	var envelope boardEnvelope
	path := fmt.Sprintf("/league/%d/board?type=transfer,market&offset=%d&limit=%d", c.leagueID, offset, limit)
	if err := c.doJSON(ctx, path, &envelope); err != nil {
		return usecase.ExternalBoardPage{}, fmt.Errorf("fetch league board offset=%d: %w", offset, err)
	}

	out := usecase.ExternalBoardPage{HasMore: len(envelope.Data) >= limit}
	seenUsers := make(map[int64]struct{})
	addUser := func(p *boardPartyPayload) int64 {
		if p == nil || p.ID <= 0 {
			return 0
		}
		if _, seen := seenUsers[p.ID]; !seen {
			seenUsers[p.ID] = struct{}{}
			out.Users = append(out.Users, usecase.ExternalUser{ID: p.ID, Name: p.Name})
		}
		return p.ID
	}
	for _, item := range envelope.Data {
		for _, content := range item.Content {
			entry := usecase.ExternalLedgerEntry{
				PlayerID:   content.Player,
				FromUserID: addUser(content.From),
				ToUserID:   addUser(content.To),
				Amount:     content.Amount,
				OccurredAt: time.Unix(pickTimestamp(content.Date, item.Date), 0).UTC(),
			}
			out.Entries = append(out.Entries, entry)
		}
	}
	return out, nil
}

func (c *Client) FetchLeagueRoster(ctx context.Context) ([]usecase.ExternalUserRoster, error) {
	var envelope leagueEnvelope
	path := fmt.Sprintf("/league/%d?fields=standings,players", c.leagueID)
	if err := c.doJSON(ctx, path, &envelope); err != nil {
		return nil, fmt.Errorf("fetch league rosters: %w", err)
	}

	out := make([]usecase.ExternalUserRoster, 0, len(envelope.Data.Standings))
	for _, s := range envelope.Data.Standings {
		out = append(out, usecase.ExternalUserRoster{
			UserID:    s.ID,
			Name:      s.Name,
			PlayerIDs: s.Players,
		})
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, path string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "fantasy circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: fantasy platform is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_, _ = buf.WriteString(c.baseURL)
	_, _ = buf.WriteString(path)
	fullURL := buf.String()

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
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
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode platform payload: %w", err)
	}
	if err := c.validate.Struct(target); err != nil {
		return fmt.Errorf("validate platform payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
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
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		err := c.http.DoTimeout(req, resp, c.timeout)
		status := resp.StatusCode()
		raw := append([]byte(nil), resp.Body()...)
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)

		switch {
		case err != nil:
			lastErr = fmt.Errorf("%w: send request: %s", errFantasyTransient, c.redact(err.Error()))
		case status >= 200 && status < 300:
			return raw, nil
		case isRetryableStatus(status):
			lastErr = fmt.Errorf("%w: platform status=%d", errFantasyTransient, status)
		default:
			return nil, fmt.Errorf("platform status=%d body=%s", status, abbreviateBody(raw))
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

	c.logger.WarnContext(ctx, "fantasy request failed", "url", c.redact(fullURL), "error", lastErr)
	return nil, lastErr
}

// waitCourtesy enforces the minimum pause between consecutive requests to
// the platform host.
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

func (c *Client) redact(value string) string {
	if c.token != "" {
		value = strings.ReplaceAll(value, c.token, "REDACTED")
	}
	return bearerTokenRegex.ReplaceAllString(value, "Bearer REDACTED")
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

func pickTimestamp(values ...int64) int64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
