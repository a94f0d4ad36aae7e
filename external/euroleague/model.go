package euroleague

import "encoding/xml"

// Feed shapes. The v1 endpoints speak XML; the box score endpoint speaks
// JSON. Quarter scores arrive as comma separated running totals, e.g.
// "20,41,60,78".

type clubsXML struct {
	XMLName xml.Name  `xml:"clubs"`
	Clubs   []clubXML `xml:"club"`
}

type clubXML struct {
	Code   string          `xml:"code,attr"`
	Name   string          `xml:"name,attr"`
	Roster []rosterItemXML `xml:"roster>player"`
}

type rosterItemXML struct {
	Code string `xml:"code,attr"`
	Name string `xml:"name,attr"`
}

type scheduleXML struct {
	XMLName xml.Name          `xml:"schedule"`
	Items   []scheduleItemXML `xml:"item"`
}

type scheduleItemXML struct {
	GameCode  int    `xml:"gamecode"`
	GameDay   int    `xml:"gameday"`
	HomeCode  string `xml:"homecode"`
	AwayCode  string `xml:"awaycode"`
	Date      string `xml:"date"`
	StartTime string `xml:"startime"`
	Played    bool   `xml:"played"`
}

type gameHeaderXML struct {
	XMLName      xml.Name `xml:"game"`
	Live         bool     `xml:"live"`
	ScoreHome    int      `xml:"scorehome"`
	ScoreAway    int      `xml:"scoreaway"`
	QuartersHome string   `xml:"quarterscoresa"`
	QuartersAway string   `xml:"quarterscoresb"`
	HomeClubCode string   `xml:"codehome"`
	AwayClubCode string   `xml:"codeaway"`
}

type boxScorePayload struct {
	Live  bool               `json:"Live"`
	Stats []teamStatsPayload `json:"Stats" validate:"required"`
}

type teamStatsPayload struct {
	Team         string           `json:"Team"`
	PlayersStats []playerStatsRow `json:"PlayersStats"`
}

type playerStatsRow struct {
	PlayerID             string `json:"Player_ID"`
	Player               string `json:"Player"`
	Minutes              string `json:"Minutes"`
	Points               int    `json:"Points"`
	FieldGoalsMade2      int    `json:"FieldGoalsMade2"`
	FieldGoalsAttempted2 int    `json:"FieldGoalsAttempted2"`
	FieldGoalsMade3      int    `json:"FieldGoalsMade3"`
	FieldGoalsAttempted3 int    `json:"FieldGoalsAttempted3"`
	FreeThrowsMade       int    `json:"FreeThrowsMade"`
	FreeThrowsAttempted  int    `json:"FreeThrowsAttempted"`
	OffensiveRebounds    int    `json:"OffensiveRebounds"`
	DefensiveRebounds    int    `json:"DefensiveRebounds"`
	Assistances          int    `json:"Assistances"`
	Steals               int    `json:"Steals"`
	Turnovers            int    `json:"Turnovers"`
	BlocksFavour         int    `json:"BlocksFavour"`
	BlocksAgainst        int    `json:"BlocksAgainst"`
	FoulsCommited        int    `json:"FoulsCommited"`
}
