package team

import (
	"fmt"
	"strings"
)

// Team is one basketball club tracked by the engine. ID is the fantasy
// platform identifier; OfficialCode is the short code used by the official
// feed (empty until the club has been linked).
type Team struct {
	ID           int64
	Name         string
	OfficialCode string
	OfficialName string
}

func (t Team) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("team id must be positive")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("team name is required")
	}
	return nil
}

// Linked reports whether the club has been matched to an official feed code.
func (t Team) Linked() bool {
	return t.OfficialCode != ""
}
