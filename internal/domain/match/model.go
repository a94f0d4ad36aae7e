package match

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusFinished  = "FINISHED"
	StatusPostponed = "POSTPONED"
)

// QuarterScores holds per-period points for one side. OT aggregates all
// overtime periods; it is zero unless regulation completed with a tie.
type QuarterScores struct {
	Q1 int
	Q2 int
	Q3 int
	Q4 int
	OT int
}

func (q QuarterScores) Total() int {
	return q.Q1 + q.Q2 + q.Q3 + q.Q4 + q.OT
}

// Match is one fixture keyed by (canonical round, home, away). GameCode is
// the official feed's numeric game identifier; zero means the fixture has not
// been paired with the official schedule yet.
type Match struct {
	ID           string
	RoundID      int64
	HomeTeamID   int64
	AwayTeamID   int64
	GameCode     int
	KickoffAt    time.Time
	Status       string
	HomeScore    *int
	AwayScore    *int
	HomeQuarters QuarterScores
	AwayQuarters QuarterScores
}

func (m Match) Validate() error {
	if m.RoundID <= 0 {
		return fmt.Errorf("match round id must be positive")
	}
	if m.HomeTeamID <= 0 || m.AwayTeamID <= 0 {
		return fmt.Errorf("match team ids must be positive")
	}
	if m.HomeTeamID == m.AwayTeamID {
		return fmt.Errorf("match cannot pair a team with itself")
	}
	return nil
}

// SyntheticID derives a stable identifier from the upsert key so repeated
// syncs address the same row.
func SyntheticID(roundID, homeTeamID, awayTeamID int64) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%d|%d", roundID, homeTeamID, awayTeamID)
	return fmt.Sprintf("mt_%016x", h.Sum64())
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusScheduled
	}
	switch status {
	case "FT", "ENDED", "FINAL", "RESULT":
		return StatusFinished
	case "IN_PLAY", "PLAYING":
		return StatusLive
	}
	return status
}

func IsFinishedStatus(status string) bool {
	return NormalizeStatus(status) == StatusFinished
}
