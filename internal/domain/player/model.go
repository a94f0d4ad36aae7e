package player

import (
	"fmt"
	"strings"
)

// Position represents basketball position categories used by the platform.
type Position string

const (
	PositionGuard   Position = "G"
	PositionForward Position = "F"
	PositionCenter  Position = "C"
	PositionUnknown Position = ""
)

// Player is one athlete from the fantasy platform's master data. ID is the
// platform identifier; OfficialCode is set once the entity matcher has linked
// the athlete to the official feed.
type Player struct {
	ID           int64
	TeamID       int64
	Name         string
	Position     Position
	Price        int64
	OfficialCode string
	Country      string
	HeightCm     int
}

func (p Player) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("player id must be positive")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("player name is required")
	}
	if p.Price < 0 {
		return fmt.Errorf("player price cannot be negative")
	}
	return nil
}

func NormalizePosition(value string) Position {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "G", "GUARD", "1", "2":
		return PositionGuard
	case "F", "FORWARD", "3", "4":
		return PositionForward
	case "C", "CENTER", "5":
		return PositionCenter
	default:
		return PositionUnknown
	}
}
