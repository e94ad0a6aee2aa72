package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fpl-tools/fpl-scorer/internal/history"
	"github.com/fpl-tools/fpl-scorer/internal/model"
)

// Squad quota per position in a 15-man squad.
var rosterDivisor = map[model.Position]float64{
	model.Goalkeeper: 2,
	model.Defender:   5,
	model.Midfielder: 5,
	model.Forward:    3,
}

type PositionAverage struct {
	Position     model.Position `json:"position"`
	Label        string         `json:"label"`
	Players      int            `json:"players"`
	Average      float64        `json:"average"`
	RosterDivide float64        `json:"roster_divisor"`
}

type AveragesSummary struct {
	GeneratedAtUTC string            `json:"generated_at_utc"`
	Positions      []PositionAverage `json:"positions"`
}

type PlayerRate struct {
	Element      int            `json:"element"`
	Name         string         `json:"name"`
	Position     model.Position `json:"position"`
	Played       int            `json:"played"`
	Overachieved int            `json:"overachieved"`
	Rate         float64        `json:"rate"`
}

type OverachievementSummary struct {
	StartGW        int                        `json:"start_gw"`
	EndGW          int                        `json:"end_gw"`
	GeneratedAtUTC string                     `json:"generated_at_utc"`
	Averages       map[model.Position]float64 `json:"averages"`
	Players        []PlayerRate               `json:"players"`
}

// HistoryReader is the part of history.Accessor used for rates.
type HistoryReader interface {
	Index(ctx context.Context, start, end int) (*history.FixtureIndex, error)
	History(ctx context.Context, playerID, start, end int, idx *history.FixtureIndex) ([]history.Record, error)
}

// PositionalAverage is the ownership-weighted points-per-game total for pos
// across players with positive points_per_game, divided by the roster
// divisor. It approximates expected squad contribution, not a mean.
func PositionalAverage(elements []model.Element, pos model.Position) (float64, error) {
	avg, _, err := positionalAverage(elements, pos)
	return avg, err
}

func positionalAverage(elements []model.Element, pos model.Position) (float64, int, error) {
	if err := model.CheckPosition(pos); err != nil {
		return 0, 0, err
	}
	sum := 0.0
	n := 0
	for _, e := range elements {
		if e.Position() != pos {
			continue
		}
		ppg := e.PPG()
		if ppg <= 0 {
			continue
		}
		sum += e.Ownership() * ppg
		n++
	}
	return sum / rosterDivisor[pos], n, nil
}

// PositionalAverages computes PositionalAverage for GK, DEF, MID and FWD.
// Other element types in bootstrap are ignored.
func PositionalAverages(elements []model.Element) map[model.Position]float64 {
	out := make(map[model.Position]float64, len(model.Positions))
	for _, pos := range model.Positions {
		avg, _, _ := positionalAverage(elements, pos)
		out[pos] = avg
	}
	return out
}

func BuildAveragesSummary(elements []model.Element) AveragesSummary {
	rows := make([]PositionAverage, 0, len(model.Positions))
	for _, pos := range model.Positions {
		avg, n, _ := positionalAverage(elements, pos)
		rows = append(rows, PositionAverage{
			Position:     pos,
			Label:        pos.String(),
			Players:      n,
			Average:      avg,
			RosterDivide: rosterDivisor[pos],
		})
	}
	return AveragesSummary{
		GeneratedAtUTC: time.Now().UTC().Format(time.RFC3339),
		Positions:      rows,
	}
}

// Overachievement returns the fraction of matches in [start, end] with
// minutes > 0 where the player scored at least averages[pos]. A player with
// no played matches has rate 0. idx may be nil.
func Overachievement(ctx context.Context, acc HistoryReader, playerID int, pos model.Position, averages map[model.Position]float64, start, end int, idx *history.FixtureIndex) (float64, error) {
	played, over, err := overachievement(ctx, acc, playerID, pos, averages, start, end, idx)
	if err != nil {
		return 0, err
	}
	return rate(over, played), nil
}

func overachievement(ctx context.Context, acc HistoryReader, playerID int, pos model.Position, averages map[model.Position]float64, start, end int, idx *history.FixtureIndex) (played int, over int, err error) {
	if err := model.CheckPosition(pos); err != nil {
		return 0, 0, err
	}
	avg, ok := averages[pos]
	if !ok {
		return 0, 0, fmt.Errorf("no average for %s", pos)
	}
	recs, err := acc.History(ctx, playerID, start, end, idx)
	if err != nil {
		return 0, 0, err
	}
	for _, r := range recs {
		if r.Minutes <= 0 {
			continue
		}
		played++
		if float64(r.TotalPoints) >= avg {
			over++
		}
	}
	return played, over, nil
}

// BuildOverachievementSummary rates every id in ids against the positional
// averages of elements, sorted by rate (highest first). One fixture index
// is shared across all players.
func BuildOverachievementSummary(ctx context.Context, acc HistoryReader, elements []model.Element, ids []int, start, end int) (*OverachievementSummary, error) {
	byID := make(map[int]model.Element, len(elements))
	for _, e := range elements {
		byID[e.ID] = e
	}
	averages := PositionalAverages(elements)

	idx, err := acc.Index(ctx, start, end)
	if err != nil {
		return nil, err
	}

	players := make([]PlayerRate, 0, len(ids))
	for _, id := range ids {
		e, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("element %d not in bootstrap", id)
		}
		played, over, err := overachievement(ctx, acc, id, e.Position(), averages, start, end, idx)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", id, err)
		}
		players = append(players, PlayerRate{
			Element:      id,
			Name:         e.Name(),
			Position:     e.Position(),
			Played:       played,
			Overachieved: over,
			Rate:         rate(over, played),
		})
	}

	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Rate != players[j].Rate {
			return players[i].Rate > players[j].Rate
		}
		return players[i].Element < players[j].Element
	})

	return &OverachievementSummary{
		StartGW:        start,
		EndGW:          end,
		GeneratedAtUTC: time.Now().UTC().Format(time.RFC3339),
		Averages:       averages,
		Players:        players,
	}, nil
}

func rate(over, played int) float64 {
	if played == 0 {
		return 0
	}
	return float64(over) / float64(played)
}

// ParseIDs parses a comma-separated list of element ids.
func ParseIDs(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid element id %q: %w", p, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("element id must be > 0: %d", v)
		}
		out = append(out, v)
	}
	return out, nil
}

func WriteSummary(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}
