package usecase

import (
	"sort"

	"github.com/rmarban/euroleague-fantasy/internal/domain/round"
)

// CanonicalRounds collapses rescheduled duplicate rounds onto one id. Built
// once per run before any fact-writing step and treated as immutable after.
type CanonicalRounds struct {
	marker string
	byName map[string]int64
}

// BuildCanonicalRounds sorts raw rounds ascending by id and keeps the first
// id seen per normalized name, so the originally scheduled round always wins
// over its postponed replay regardless of input order.
func BuildCanonicalRounds(rawRounds []round.Round, rescheduleMarker string) *CanonicalRounds {
	sorted := make([]round.Round, len(rawRounds))
	copy(sorted, rawRounds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byName := make(map[string]int64, len(sorted))
	for _, r := range sorted {
		name := round.NormalizeName(r.Name, rescheduleMarker)
		if _, seen := byName[name]; !seen {
			byName[name] = r.ID
		}
	}
	return &CanonicalRounds{marker: rescheduleMarker, byName: byName}
}

// Resolve returns the canonical id for a round. A name never seen during
// the build resolves to the round's own id.
func (c *CanonicalRounds) Resolve(r round.Round) int64 {
	if id, ok := c.byName[round.NormalizeName(r.Name, c.marker)]; ok {
		return id
	}
	return r.ID
}

// Apply stamps every raw round with its canonical id.
func (c *CanonicalRounds) Apply(rawRounds []round.Round) []round.Round {
	out := make([]round.Round, len(rawRounds))
	for i, r := range rawRounds {
		r.CanonicalID = c.Resolve(r)
		out[i] = r
	}
	return out
}

// Canonical reports whether the round is its own canonical representative.
func (c *CanonicalRounds) Canonical(r round.Round) bool {
	return c.Resolve(r) == r.ID
}
