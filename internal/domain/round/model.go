package round

import (
	"fmt"
	"strings"
)

// Round is one raw competition round as reported by the fantasy platform.
// The platform creates a second round row when a fixture is rescheduled, so
// several raw rounds can share one CanonicalID.
type Round struct {
	ID          int64
	Name        string
	CanonicalID int64
}

func (r Round) Validate() error {
	if r.ID <= 0 {
		return fmt.Errorf("round id must be positive")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("round name is required")
	}
	return nil
}

// NormalizeName strips the reschedule marker suffix, if present, and
// collapses surrounding whitespace. Comparisons are case-insensitive.
func NormalizeName(name, rescheduleMarker string) string {
	out := strings.TrimSpace(name)
	if rescheduleMarker != "" {
		lower := strings.ToLower(out)
		marker := strings.ToLower(rescheduleMarker)
		if idx := strings.LastIndex(lower, marker); idx >= 0 && strings.TrimSpace(lower[idx+len(marker):]) == "" {
			out = strings.TrimSpace(out[:idx])
		}
	}
	return strings.ToLower(strings.Join(strings.Fields(out), " "))
}
