package usecase

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/rmarban/euroleague-fantasy/internal/domain/link"
	"github.com/rmarban/euroleague-fantasy/internal/domain/player"
	"github.com/rmarban/euroleague-fantasy/internal/domain/team"
	"github.com/rmarban/euroleague-fantasy/internal/platform/logging"
)

// teamStopwords are tokens carrying no identity: legal-form noise and
// anything two characters or shorter.
var teamStopwords = map[string]struct{}{
	"bc":         {},
	"club":       {},
	"basketball": {},
}

// Matcher links official-feed identities to platform entities. Resolution
// order: persisted link, exact normalized name, token similarity (teams),
// scoped "LASTNAME, FIRSTNAME" match (players), unresolved queue. It never
// guesses below the similarity threshold and never prompts.
type Matcher struct {
	links         link.Repository
	logger        *logging.Logger
	teamThreshold float64
	now           func() time.Time
}

func NewMatcher(links link.Repository, logger *logging.Logger, teamThreshold float64) *Matcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Matcher{
		links:         links,
		logger:        logger,
		teamThreshold: teamThreshold,
		now:           time.Now,
	}
}

// MatchTeam resolves an official club against the platform team list. The
// returned bool is false when no candidate clears the bar; that is not an
// error.
func (m *Matcher) MatchTeam(ctx context.Context, official ExternalOfficialTeam, candidates []team.Team) (team.Team, bool) {
	ctx, span := startUsecaseSpan(ctx, "Matcher.MatchTeam")
	defer span.End()

	code := strings.TrimSpace(official.Code)
	for _, c := range candidates {
		if c.OfficialCode != "" && c.OfficialCode == code {
			return c, true
		}
	}

	wanted := normalizeName(official.Name)
	for _, c := range candidates {
		if c.OfficialCode == "" && normalizeName(c.Name) == wanted {
			return c, true
		}
	}

	officialTokens := teamTokens(official.Name)
	var best team.Team
	bestScore := -1.0
	for _, c := range candidates {
		if c.OfficialCode != "" {
			continue
		}
		score := jaccard(officialTokens, teamTokens(c.Name))
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore >= m.teamThreshold {
		m.logger.DebugContext(ctx, "team matched by token similarity",
			"official_code", code,
			"official_name", official.Name,
			"platform_name", best.Name,
			"score", bestScore,
		)
		return best, true
	}

	m.logger.WarnContext(ctx, "team unmatched",
		"official_code", code,
		"official_name", official.Name,
		"best_score", bestScore,
	)
	return team.Team{}, false
}

// MatchPlayer resolves one official roster entry against platform players.
// A successful non-persisted match writes the link before returning so later
// lookups in the same run short-circuit. hintTeamID scopes the unresolved
// candidate pool; zero means no hint.
func (m *Matcher) MatchPlayer(ctx context.Context, official ExternalOfficialPlayer, candidates []player.Player, hintTeamID int64) (player.Player, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "Matcher.MatchPlayer")
	defer span.End()

	code := strings.TrimSpace(official.Code)
	if code == "" {
		return player.Player{}, false, fmt.Errorf("match player: %w: empty official code", ErrInvalidInput)
	}

	existing, found, err := m.links.GetByOfficialCode(ctx, code)
	if err != nil {
		return player.Player{}, false, fmt.Errorf("lookup player link code=%s: %w", code, err)
	}
	if found {
		for _, c := range candidates {
			if c.ID == existing.PlayerID {
				return c, true, nil
			}
		}
		m.logger.WarnContext(ctx, "persisted link points at unknown player",
			"official_code", code,
			"player_id", existing.PlayerID,
		)
		return player.Player{}, false, nil
	}

	wanted := normalizeName(official.Name)
	for _, c := range candidates {
		if c.OfficialCode == "" && normalizeName(c.Name) == wanted {
			if err := m.persistPlayerLink(ctx, c, code, link.MethodExact, official.Name); err != nil {
				return player.Player{}, false, err
			}
			return c, true, nil
		}
	}

	scoped := normalizeOfficialPlayerName(official.Name)
	for _, c := range candidates {
		if c.OfficialCode == "" && normalizeName(c.Name) == scoped {
			if err := m.persistPlayerLink(ctx, c, code, link.MethodScoped, official.Name); err != nil {
				return player.Player{}, false, err
			}
			return c, true, nil
		}
	}

	if err := m.queueUnresolved(ctx, official, candidates, hintTeamID); err != nil {
		return player.Player{}, false, err
	}
	return player.Player{}, false, nil
}

func (m *Matcher) persistPlayerLink(ctx context.Context, matched player.Player, code, method, matchedName string) error {
	l := link.PlayerLink{
		PlayerID:     matched.ID,
		OfficialCode: code,
		Method:       method,
		MatchedName:  matchedName,
		CreatedAt:    m.now().UTC(),
	}
	if err := m.links.UpsertLink(ctx, l); err != nil {
		return fmt.Errorf("persist player link code=%s: %w", code, err)
	}
	// A link resolves the player; any row queued for them in an earlier
	// run is stale now.
	if err := m.links.DeleteUnresolved(ctx, unresolvedID("official_roster", code)); err != nil {
		return fmt.Errorf("clear unresolved queue code=%s: %w", code, err)
	}
	return nil
}

func (m *Matcher) queueUnresolved(ctx context.Context, official ExternalOfficialPlayer, candidates []player.Player, hintTeamID int64) error {
	var candidateIDs []int64
	if hintTeamID > 0 {
		for _, c := range candidates {
			if c.TeamID == hintTeamID && c.OfficialCode == "" {
				candidateIDs = append(candidateIDs, c.ID)
			}
		}
	}
	u := link.Unresolved{
		ID:           unresolvedID("official_roster", official.Code),
		Source:       "official_roster",
		OfficialCode: strings.TrimSpace(official.Code),
		Name:         official.Name,
		TeamHint:     official.TeamCode,
		CandidateIDs: candidateIDs,
		CreatedAt:    m.now().UTC(),
	}
	if err := m.links.UpsertUnresolved(ctx, u); err != nil {
		return fmt.Errorf("queue unresolved player code=%s: %w", official.Code, err)
	}
	m.logger.WarnContext(ctx, "player unmatched, queued for manual linkage",
		"official_code", official.Code,
		"official_name", official.Name,
		"team_hint", official.TeamCode,
		"candidates", len(candidateIDs),
	)
	return nil
}

func unresolvedID(source, code string) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s", source, strings.TrimSpace(code))
	return fmt.Sprintf("ur_%016x", h.Sum64())
}

// normalizeName lowercases and collapses internal whitespace.
func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// normalizeOfficialPlayerName converts the feed's "LASTNAME, FIRSTNAME"
// convention to "firstname lastname". Names without a comma pass through
// normalization unchanged.
func normalizeOfficialPlayerName(name string) string {
	last, first, found := strings.Cut(name, ",")
	if !found {
		return normalizeName(name)
	}
	return normalizeName(first + " " + last)
}

func teamTokens(name string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(name)) {
		if len(tok) <= 2 {
			continue
		}
		if _, skip := teamStopwords[tok]; skip {
			continue
		}
		out[tok] = struct{}{}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
