package usecase

import (
	"testing"
	"time"

	"github.com/rmarban/euroleague-fantasy/internal/domain/player"
	"github.com/rmarban/euroleague-fantasy/internal/domain/transfer"
)

func ts(day int) time.Time {
	return time.Date(2025, 10, day, 12, 0, 0, 0, time.UTC)
}

func TestBacktrack_UndoesSaleBetweenMembers(t *testing.T) {
	// User 2 sold player 7 to user 1. Before that sale, user 2 owned them.
	current := map[int64][]int64{
		1: {7, 8},
		2: {9},
	}
	ledger := []transfer.Transfer{
		{ID: "tr_1", PlayerID: 7, FromUserID: 2, ToUserID: 1, Amount: 500, OccurredAt: ts(20)},
	}

	start := Backtrack(current, ledger)

	if _, owns := start[1][7]; owns {
		t.Fatal("buyer must not own the player at season start")
	}
	if _, owns := start[2][7]; !owns {
		t.Fatal("seller must own the player at season start")
	}
	if _, owns := start[1][8]; !owns {
		t.Fatal("untouched player must stay with its owner")
	}
}

func TestBacktrack_MarketPartyIsNoOp(t *testing.T) {
	current := map[int64][]int64{
		1: {7},
	}
	// User 1 bought player 7 from the market, then the market is not a
	// tracked working set, so only the buyer side is undone.
	ledger := []transfer.Transfer{
		{ID: "tr_1", PlayerID: 7, FromUserID: transfer.MarketParty, ToUserID: 1, Amount: 300, OccurredAt: ts(15)},
	}

	start := Backtrack(current, ledger)

	if _, owns := start[1][7]; owns {
		t.Fatal("market purchase must be undone for the buyer")
	}
	if _, tracked := start[transfer.MarketParty]; tracked {
		t.Fatal("market must never appear as a tracked owner")
	}
}

func TestBacktrack_UntrackedAccountIsNoOp(t *testing.T) {
	current := map[int64][]int64{
		1: {7},
	}
	// User 99 left the league; their side of the chain is silently skipped.
	ledger := []transfer.Transfer{
		{ID: "tr_1", PlayerID: 7, FromUserID: 99, ToUserID: 1, Amount: 450, OccurredAt: ts(18)},
	}

	start := Backtrack(current, ledger)

	if _, owns := start[1][7]; owns {
		t.Fatal("purchase from untracked account must still be undone for the buyer")
	}
	if _, tracked := start[99]; tracked {
		t.Fatal("untracked account must not be materialized")
	}
}

func TestBacktrack_ChainedTransfersReverseInOrder(t *testing.T) {
	// Market -> user 1 -> user 2. Walking newest first undoes the resale
	// before the original purchase, leaving nobody with the player.
	current := map[int64][]int64{
		1: {},
		2: {7},
	}
	ledger := []transfer.Transfer{
		{ID: "tr_2", PlayerID: 7, FromUserID: 1, ToUserID: 2, Amount: 600, OccurredAt: ts(22)},
		{ID: "tr_1", PlayerID: 7, FromUserID: transfer.MarketParty, ToUserID: 1, Amount: 400, OccurredAt: ts(10)},
	}

	start := Backtrack(current, ledger)

	if _, owns := start[1][7]; owns {
		t.Fatal("player joined mid-season, user 1 must not own them at season start")
	}
	if _, owns := start[2][7]; owns {
		t.Fatal("player joined mid-season, user 2 must not own them at season start")
	}
}

func TestSeasonStartPrices_OldestEntryWinsWithMasterFallback(t *testing.T) {
	ledger := []transfer.Transfer{
		{ID: "tr_3", PlayerID: 7, Amount: 900, OccurredAt: ts(25)},
		{ID: "tr_2", PlayerID: 7, Amount: 700, OccurredAt: ts(12)},
		{ID: "tr_1", PlayerID: 8, Amount: 0, OccurredAt: ts(5)},
	}
	rc := &RunContext{
		Players: map[int64]player.Player{
			7: {ID: 7, Name: "Traded Often", Price: 1200},
			8: {ID: 8, Name: "Free Agent Pickup", Price: 150},
			9: {ID: 9, Name: "Never Moved", Price: 300},
		},
	}

	prices := seasonStartPrices(ledger, rc, time.Time{})

	if prices[7] != 700 {
		t.Fatalf("player 7 price = %d, want oldest ledger amount 700", prices[7])
	}
	// Zero-amount ledger rows carry no valuation; fall back to master price.
	if prices[8] != 150 {
		t.Fatalf("player 8 price = %d, want master fallback 150", prices[8])
	}
	if prices[9] != 300 {
		t.Fatalf("player 9 price = %d, want master fallback 300", prices[9])
	}
}

func TestSeasonStartPrices_PreSeasonEntriesExcluded(t *testing.T) {
	seasonStart := ts(8)
	ledger := []transfer.Transfer{
		{ID: "tr_2", PlayerID: 7, Amount: 950, OccurredAt: ts(14)},
		// Last season's valuation, before the cutoff.
		{ID: "tr_1", PlayerID: 7, Amount: 400, OccurredAt: ts(3)},
		{ID: "tr_0", PlayerID: 8, Amount: 250, OccurredAt: ts(2)},
	}
	rc := &RunContext{
		Players: map[int64]player.Player{
			7: {ID: 7, Name: "Traded Often", Price: 1200},
			8: {ID: 8, Name: "Quiet Since August", Price: 175},
		},
	}

	prices := seasonStartPrices(ledger, rc, seasonStart)

	if prices[7] != 950 {
		t.Fatalf("player 7 price = %d, want oldest in-season amount 950", prices[7])
	}
	// Only pre-season rows name player 8; the master price takes over.
	if prices[8] != 175 {
		t.Fatalf("player 8 price = %d, want master fallback 175", prices[8])
	}
}

func TestTransferDedupID_Deterministic(t *testing.T) {
	at := ts(20)
	a := transfer.DedupID(7, 1, 2, 500, at)
	b := transfer.DedupID(7, 1, 2, 500, at.In(time.FixedZone("CET", 3600)))
	if a != b {
		t.Fatalf("same ledger identity produced different ids: %s vs %s", a, b)
	}
	if c := transfer.DedupID(7, 1, 2, 501, at); c == a {
		t.Fatal("different amount must produce a different id")
	}
}
