package link

import (
	"fmt"
	"strings"
	"time"
)

// Match methods, ordered by confidence. Manual links come from operators
// working the unresolved queue out of band.
const (
	MethodExact  = "exact"
	MethodScoped = "scoped"
	MethodManual = "manual"
)

// PlayerLink records a resolved identity between a platform player and an
// official feed code.
type PlayerLink struct {
	PlayerID     int64
	OfficialCode string
	Method       string
	MatchedName  string
	CreatedAt    time.Time
}

func (l PlayerLink) Validate() error {
	if l.PlayerID <= 0 {
		return fmt.Errorf("player link player id must be positive")
	}
	if strings.TrimSpace(l.OfficialCode) == "" {
		return fmt.Errorf("player link official code is required")
	}
	switch l.Method {
	case MethodExact, MethodScoped, MethodManual:
		return nil
	default:
		return fmt.Errorf("invalid player link method: %s", l.Method)
	}
}

// Unresolved is one queued entity the matcher could not resolve. Rows stay
// in the queue until an operator records a manual link out of band.
type Unresolved struct {
	ID           string
	Source       string
	OfficialCode string
	Name         string
	TeamHint     string
	CandidateIDs []int64
	CreatedAt    time.Time
}
