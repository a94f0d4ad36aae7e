package usecase

import "github.com/rmarban/euroleague-fantasy/internal/domain/playerstats"

// ScoringWeights holds per-stat weights in tenths of a fantasy point, which
// keeps the valuation in integer arithmetic. The defaults reproduce the
// platform's published formula, so changing them breaks parity checks.
type ScoringWeights struct {
	PointScored     int
	MissedTwo       int
	MissedThree     int
	MissedFreeThrow int
	Assist          int
	Rebound         int
	Steal           int
	Turnover        int
	Block           int
}

// DefaultScoringWeights returns the platform parity weights: +1 per point,
// -0.3 per missed two, -0.5 per missed three and missed free throw, +1.5 per
// assist, +1.2 per rebound, +2 per steal, -2 per turnover, +2 per block.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		PointScored:     10,
		MissedTwo:       -3,
		MissedThree:     -5,
		MissedFreeThrow: -5,
		Assist:          15,
		Rebound:         12,
		Steal:           20,
		Turnover:        -20,
		Block:           20,
	}
}

// Score values one stat line. The raw sum in tenths is rounded up to the
// next whole point, matching the platform's ceiling behavior. Stats absent
// from the line contribute zero.
func (w ScoringWeights) Score(line playerstats.StatLine) int {
	tenths := line.Points * w.PointScored
	tenths += (line.TwoPointsAtt - line.TwoPointsMade) * w.MissedTwo
	tenths += (line.ThreePointsAtt - line.ThreePointsMade) * w.MissedThree
	tenths += (line.FreeThrowsAtt - line.FreeThrowsMade) * w.MissedFreeThrow
	tenths += line.Assists * w.Assist
	tenths += line.Rebounds() * w.Rebound
	tenths += line.Steals * w.Steal
	tenths += line.Turnovers * w.Turnover
	tenths += line.BlocksFavour * w.Block
	return ceilTenths(tenths)
}

// ceilTenths rounds a tenths total up to the next integer point. Integer
// division truncates toward zero, so only positive remainders need the bump.
func ceilTenths(tenths int) int {
	q := tenths / 10
	if tenths%10 > 0 {
		q++
	}
	return q
}
