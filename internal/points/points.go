package points

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/fpl-tools/fpl-scorer/internal/model"
)

// Stats is a player's minutes and points summed over one matchweek.
type Stats struct {
	Minutes     int `json:"minutes"`
	TotalPoints int `json:"total_points"`
}

type PlayerPoints struct {
	Element    int            `json:"element"`
	Position   model.Position `json:"position"`
	Minutes    int            `json:"minutes"`
	Points     int            `json:"points"`
	Multiplier int            `json:"multiplier"`
	Total      int            `json:"total"`
}

// Substitution records a bench player replacing a starter who did not play.
type Substitution struct {
	Out int `json:"element_out"`
	In  int `json:"element_in"`
}

type Result struct {
	Matchweek      int            `json:"matchweek"`
	GeneratedAtUTC string         `json:"generated_at_utc"`
	Players        []PlayerPoints `json:"players"`
	Subs           []Substitution `json:"subs"`
	TotalPoints    int            `json:"total_points"`
}

// BuildResult scores the final XI. Captains count double; players with no
// stats count as 0.
func BuildResult(mw int, onField []model.SquadEntry, statsByElement map[int]Stats, subs []Substitution) *Result {
	players := make([]PlayerPoints, 0, len(onField))
	total := 0

	for _, p := range onField {
		st := statsByElement[p.Element]
		mult := 1 + int(p.Captain)
		pp := PlayerPoints{
			Element:    p.Element,
			Position:   p.Position,
			Minutes:    st.Minutes,
			Points:     st.TotalPoints,
			Multiplier: mult,
			Total:      st.TotalPoints * mult,
		}
		players = append(players, pp)
		total += pp.Total
	}
	if subs == nil {
		subs = []Substitution{}
	}

	return &Result{
		Matchweek:      mw,
		GeneratedAtUTC: time.Now().UTC().Format(time.RFC3339),
		Players:        players,
		Subs:           subs,
		TotalPoints:    total,
	}
}

func WriteResult(path string, result *Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}

	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}
