package squad

import "fmt"

// InitialEntry is one (user, player) membership in the reconstructed
// season-start squad snapshot, priced at the season-start valuation.
type InitialEntry struct {
	UserID   int64
	PlayerID int64
	Price    int64
}

func (e InitialEntry) Validate() error {
	if e.UserID <= 0 {
		return fmt.Errorf("initial squad entry user id must be positive")
	}
	if e.PlayerID <= 0 {
		return fmt.Errorf("initial squad entry player id must be positive")
	}
	return nil
}
