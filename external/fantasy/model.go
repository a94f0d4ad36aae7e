package fantasy

// Payload shapes for the platform's v2 JSON API. Teams and players arrive
// as maps keyed by stringified id; the board is a list of typed items each
// carrying one or more movements.

type competitionEnvelope struct {
	Status int             `json:"status" validate:"required"`
	Data   competitionData `json:"data"`
}

type competitionData struct {
	Teams   map[string]teamPayload   `json:"teams"`
	Players map[string]playerPayload `json:"players"`
	Rounds  []roundPayload           `json:"rounds"`
}

type teamPayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type playerPayload struct {
	ID       int64  `json:"id"`
	TeamID   int64  `json:"teamID"`
	Name     string `json:"name"`
	Position string `json:"position"`
	Price    int64  `json:"price"`
	Country  string `json:"country"`
	Height   int    `json:"height"`
}

type roundPayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type roundGamesEnvelope struct {
	Status int            `json:"status" validate:"required"`
	Data   roundGamesData `json:"data"`
}

type roundGamesData struct {
	ID     int64                `json:"id"`
	Games  []gamePayload        `json:"games"`
	Scores []playerScorePayload `json:"scores"`
}

type gamePayload struct {
	Home      gameSidePayload `json:"home"`
	Away      gameSidePayload `json:"away"`
	Date      int64           `json:"date"`
	Status    string          `json:"status"`
	HomeScore *int            `json:"homeScore"`
	AwayScore *int            `json:"awayScore"`
}

type gameSidePayload struct {
	ID int64 `json:"id"`
}

type playerScorePayload struct {
	PlayerID int64 `json:"player"`
	Points   int   `json:"points"`
}

type boardEnvelope struct {
	Status int                `json:"status" validate:"required"`
	Data   []boardItemPayload `json:"data"`
}

type boardItemPayload struct {
	Type    string                `json:"type"`
	Date    int64                 `json:"date"`
	Content []boardContentPayload `json:"content"`
}

type boardContentPayload struct {
	Player int64              `json:"player"`
	From   *boardPartyPayload `json:"from"`
	To     *boardPartyPayload `json:"to"`
	Amount int64              `json:"amount"`
	Date   int64              `json:"date"`
}

type boardPartyPayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type leagueEnvelope struct {
	Status int        `json:"status" validate:"required"`
	Data   leagueData `json:"data"`
}

type leagueData struct {
	Standings []standingPayload `json:"standings"`
}

type standingPayload struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Players []int64 `json:"players"`
}
