package usecase

import (
	"context"
	"time"
)

// FantasyProvider exposes the fantasy platform API the engine ingests.
type FantasyProvider interface {
	FetchCompetitionData(ctx context.Context) (ExternalCompetition, error)
	FetchRoundGames(ctx context.Context, roundID int64) (ExternalRoundGames, error)
	// FetchLeagueBoard pages through the league's activity ledger,
	// newest entries first.
	FetchLeagueBoard(ctx context.Context, offset, limit int) (ExternalBoardPage, error)
	// FetchLeagueRoster returns every tracked member with their current
	// player ownership.
	FetchLeagueRoster(ctx context.Context) ([]ExternalUserRoster, error)
}

// OfficialProvider exposes the official competition feed.
type OfficialProvider interface {
	FetchTeams(ctx context.Context) ([]ExternalOfficialTeam, error)
	FetchSchedule(ctx context.Context) ([]ExternalScheduledGame, error)
	FetchGameHeader(ctx context.Context, gameCode int) (ExternalGameHeader, error)
	FetchBoxScore(ctx context.Context, gameCode int) (ExternalBoxScore, error)
}

// ExternalCompetition is the platform's master snapshot: every club, every
// athlete with current price, and every round the platform has created.
type ExternalCompetition struct {
	Teams   []ExternalFantasyTeam
	Players []ExternalFantasyPlayer
	Rounds  []ExternalRound
}

type ExternalFantasyTeam struct {
	ID   int64
	Name string
}

type ExternalFantasyPlayer struct {
	ID       int64
	TeamID   int64
	Name     string
	Position string
	Price    int64
	Country  string
	HeightCm int
}

type ExternalRound struct {
	ID   int64
	Name string
}

// ExternalRoundGames carries one round's fixtures plus the platform's own
// fantasy points per player for that round, when published.
type ExternalRoundGames struct {
	RoundID      int64
	Games        []ExternalFantasyGame
	PlayerPoints map[int64]int
}

type ExternalFantasyGame struct {
	HomeTeamID int64
	AwayTeamID int64
	KickoffAt  time.Time
	Status     string
	HomeScore  *int
	AwayScore  *int
}

type ExternalBoardPage struct {
	Users   []ExternalUser
	Entries []ExternalLedgerEntry
	HasMore bool
}

type ExternalUser struct {
	ID   int64
	Name string
}

type ExternalUserRoster struct {
	UserID    int64
	Name      string
	PlayerIDs []int64
}

// ExternalLedgerEntry is one raw transfer row. Zero user ids mean the
// counterpart is the market or an account outside the tracked league.
type ExternalLedgerEntry struct {
	PlayerID   int64
	FromUserID int64
	ToUserID   int64
	Amount     int64
	OccurredAt time.Time
}

type ExternalOfficialTeam struct {
	Code   string
	Name   string
	Roster []ExternalOfficialPlayer
}

// ExternalOfficialPlayer names follow the feed's "LASTNAME, FIRSTNAME"
// convention.
type ExternalOfficialPlayer struct {
	Code     string
	Name     string
	TeamCode string
}

type ExternalScheduledGame struct {
	GameCode    int
	RoundNumber int
	HomeCode    string
	AwayCode    string
	Date        time.Time
	Played      bool
}

// ExternalGameHeader carries cumulative scores at the end of each completed
// quarter plus the final score. Live games expose fewer than four quarters
// or a set live flag.
type ExternalGameHeader struct {
	GameCode      int
	Live          bool
	HomeFinal     int
	AwayFinal     int
	HomeByQuarter []int
	AwayByQuarter []int
}

type ExternalBoxScore struct {
	GameCode int
	Lines    []ExternalStatLine
}

type ExternalStatLine struct {
	PlayerCode      string
	PlayerName      string
	TeamCode        string
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
}
