package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPosition is returned for an element type outside 1..4.
var ErrInvalidPosition = errors.New("invalid position")

// Position is the FPL element_type code.
type Position int

const (
	Goalkeeper Position = 1
	Defender   Position = 2
	Midfielder Position = 3
	Forward    Position = 4
)

// Positions lists the element types in code order.
var Positions = []Position{Goalkeeper, Defender, Midfielder, Forward}

func (p Position) Valid() bool {
	return p >= Goalkeeper && p <= Forward
}

func (p Position) String() string {
	switch p {
	case Goalkeeper:
		return "GK"
	case Defender:
		return "DEF"
	case Midfielder:
		return "MID"
	case Forward:
		return "FWD"
	default:
		return fmt.Sprintf("Position(%d)", int(p))
	}
}

// CheckPosition wraps ErrInvalidPosition with the offending code.
func CheckPosition(p Position) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidPosition, int(p))
	}
	return nil
}

// Fixture is one entry of /fixtures/. Event is nil while unscheduled.
type Fixture struct {
	ID       int  `json:"id"`
	Event    *int `json:"event"`
	TeamH    int  `json:"team_h"`
	TeamA    int  `json:"team_a"`
	Finished bool `json:"finished"`
}

// HistoryRow is one played fixture from element-summary "history".
type HistoryRow struct {
	Element     int    `json:"element"`
	Fixture     int    `json:"fixture"`
	Minutes     int    `json:"minutes"`
	TotalPoints int    `json:"total_points"`
	WasHome     bool   `json:"was_home"`
	KickoffTime string `json:"kickoff_time"`
}

// PlayerFixture is one upcoming fixture from element-summary "fixtures".
type PlayerFixture struct {
	ID         int  `json:"id"`
	Event      *int `json:"event"`
	TeamH      int  `json:"team_h"`
	TeamA      int  `json:"team_a"`
	IsHome     bool `json:"is_home"`
	Difficulty int  `json:"difficulty"`
}

// ElementSummary is the /element-summary/{id}/ payload.
type ElementSummary struct {
	History  []HistoryRow    `json:"history"`
	Fixtures []PlayerFixture `json:"fixtures"`
}

// Element is a player row from bootstrap-static. The API sends
// points_per_game and selected_by_percent as decimal strings.
type Element struct {
	ID                       int    `json:"id"`
	WebName                  string `json:"web_name"`
	FirstName                string `json:"first_name"`
	SecondName               string `json:"second_name"`
	Team                     int    `json:"team"`
	ElementType              int    `json:"element_type"`
	Status                   string `json:"status"`
	Minutes                  int    `json:"minutes"`
	PointsPerGame            string `json:"points_per_game"`
	SelectedByPercent        string `json:"selected_by_percent"`
	ChanceOfPlayingThisRound *int   `json:"chance_of_playing_this_round"`
}

func (e Element) Position() Position {
	return Position(e.ElementType)
}

func (e Element) Name() string {
	if e.WebName != "" {
		return e.WebName
	}
	return strings.TrimSpace(e.FirstName + " " + e.SecondName)
}

// PPG parses points_per_game; unparsable values read as 0.
func (e Element) PPG() float64 {
	return parseDecimal(e.PointsPerGame)
}

// Ownership returns selected_by_percent as a fraction in [0, 1].
func (e Element) Ownership() float64 {
	return parseDecimal(e.SelectedByPercent) / 100
}

// Bootstrap is the subset of /bootstrap-static/ used here.
type Bootstrap struct {
	Elements     []Element `json:"elements"`
	TotalPlayers int       `json:"total_players"`
}

func parseDecimal(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
