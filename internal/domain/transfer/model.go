package transfer

import (
	"fmt"
	"hash/fnv"
	"time"
)

// MarketParty marks a side of a transfer that is the open market rather than
// a tracked league member.
const MarketParty int64 = 0

// Transfer is one row of the ownership ledger. FromUserID / ToUserID are
// MarketParty when the counterpart is the market or an untracked account.
type Transfer struct {
	ID         string
	PlayerID   int64
	FromUserID int64
	ToUserID   int64
	Amount     int64
	OccurredAt time.Time
}

func (t Transfer) Validate() error {
	if t.PlayerID <= 0 {
		return fmt.Errorf("transfer player id must be positive")
	}
	if t.OccurredAt.IsZero() {
		return fmt.Errorf("transfer timestamp is required")
	}
	if t.Amount < 0 {
		return fmt.Errorf("transfer amount cannot be negative")
	}
	return nil
}

// DedupID hashes the full ledger identity so literal duplicate feed rows
// collapse into one persisted transfer.
func DedupID(playerID, fromUserID, toUserID, amount int64, occurredAt time.Time) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%d|%d|%d|%d", playerID, fromUserID, toUserID, amount, occurredAt.UTC().Unix())
	return fmt.Sprintf("tr_%016x", h.Sum64())
}
