package main

import (
	"context"
	"fmt"
	"sort"
)

type FixtureDifficultyArgs struct {
	ElementIDs string `json:"element_ids" jsonschema:"Comma-separated element ids (required)"`
	FromMW     int    `json:"from_mw" jsonschema:"First matchweek to look at (required)"`
	Horizon    int    `json:"horizon" jsonschema:"How many matchweeks forward (default 5)"`
}

type FixtureDifficultyOutput struct {
	FromMW  int                     `json:"from_mw"`
	ToMW    int                     `json:"to_mw"`
	Players []FixtureDifficultyItem `json:"players"`
}

type FixtureDifficultyItem struct {
	Rank          int            `json:"rank"`
	ElementID     int            `json:"element_id"`
	Fixtures      int            `json:"fixtures"`
	Blanks        []int          `json:"blanks"`
	Doubles       []int          `json:"doubles"`
	AvgDifficulty float64        `json:"avg_difficulty"`
	Schedule      []FixtureEntry `json:"schedule"`
}

type FixtureEntry struct {
	FixtureID  int    `json:"fixture_id"`
	Matchweek  int    `json:"matchweek"`
	Venue      string `json:"venue"`
	Difficulty int    `json:"difficulty"`
}

// buildFixtureDifficulty ranks players by how kind their next horizon
// matchweeks look: more fixtures first, then lower average difficulty.
func buildFixtureDifficulty(ctx context.Context, b *backend, args FixtureDifficultyArgs) (*FixtureDifficultyOutput, error) {
	ids, err := parseRequiredIDs(args.ElementIDs)
	if err != nil {
		return nil, err
	}
	if args.FromMW <= 0 {
		return nil, fmt.Errorf("from_mw is required")
	}
	h := args.Horizon
	if h <= 0 {
		h = 5
	}
	from := args.FromMW
	to := from + h - 1
	if to > seasonMatchweeks {
		to = seasonMatchweeks
	}
	if from > to {
		return nil, fmt.Errorf("from_mw %d is past the end of the season", from)
	}

	acc := b.history()
	idx, err := acc.Index(ctx, from, to)
	if err != nil {
		return nil, err
	}

	rows := make([]FixtureDifficultyItem, 0, len(ids))
	for _, id := range ids {
		s, err := b.source.ElementSummary(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("element %d fixtures: %w", id, err)
		}
		perMW := make(map[int]int, h)
		item := FixtureDifficultyItem{ElementID: id, Blanks: []int{}, Doubles: []int{}, Schedule: []FixtureEntry{}}
		total := 0
		for _, f := range s.Fixtures {
			mw, ok := idx.Matchweek(f.ID)
			if !ok {
				continue
			}
			venue := "AWAY"
			if f.IsHome {
				venue = "HOME"
			}
			item.Schedule = append(item.Schedule, FixtureEntry{FixtureID: f.ID, Matchweek: mw, Venue: venue, Difficulty: f.Difficulty})
			perMW[mw]++
			total += f.Difficulty
		}
		for mw := from; mw <= to; mw++ {
			switch n := perMW[mw]; {
			case n == 0:
				item.Blanks = append(item.Blanks, mw)
			case n > 1:
				item.Doubles = append(item.Doubles, mw)
			}
		}
		item.Fixtures = len(item.Schedule)
		if item.Fixtures > 0 {
			item.AvgDifficulty = float64(total) / float64(item.Fixtures)
		}
		sort.SliceStable(item.Schedule, func(i, j int) bool {
			return item.Schedule[i].Matchweek < item.Schedule[j].Matchweek
		})
		rows = append(rows, item)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Fixtures != rows[j].Fixtures {
			return rows[i].Fixtures > rows[j].Fixtures
		}
		if rows[i].AvgDifficulty != rows[j].AvgDifficulty {
			return rows[i].AvgDifficulty < rows[j].AvgDifficulty
		}
		return rows[i].ElementID < rows[j].ElementID
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}

	return &FixtureDifficultyOutput{FromMW: from, ToMW: to, Players: rows}, nil
}
