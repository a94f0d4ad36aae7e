package playerstats

import "fmt"

// StatLine is one player's box-score line for one canonical round. Counting
// stats come from the official feed; ComputedPoints is the engine's fantasy
// valuation and PlatformPoints mirrors the platform's own number when the
// platform has published one.
type StatLine struct {
	PlayerID        int64
	RoundID         int64
	GameCode        int
	Seconds         int
	Points          int
	TwoPointsMade   int
	TwoPointsAtt    int
	ThreePointsMade int
	ThreePointsAtt  int
	FreeThrowsMade  int
	FreeThrowsAtt   int
	Assists         int
	ReboundsOff     int
	ReboundsDef     int
	Steals          int
	Turnovers       int
	BlocksFavour    int
	BlocksAgainst   int
	FoulsCommitted  int
	ComputedPoints  int
	PlatformPoints  *int
}

func (s StatLine) Validate() error {
	if s.PlayerID <= 0 {
		return fmt.Errorf("stat line player id must be positive")
	}
	if s.RoundID <= 0 {
		return fmt.Errorf("stat line round id must be positive")
	}
	if s.TwoPointsMade > s.TwoPointsAtt || s.ThreePointsMade > s.ThreePointsAtt || s.FreeThrowsMade > s.FreeThrowsAtt {
		return fmt.Errorf("stat line made cannot exceed attempted")
	}
	return nil
}

// Rebounds is the combined rebound count the scoring model weighs.
func (s StatLine) Rebounds() int {
	return s.ReboundsOff + s.ReboundsDef
}
