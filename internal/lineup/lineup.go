// Package lineup checks formation legality and scores a squad for a
// matchweek, bringing bench players on for starters who did not play.
package lineup

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fpl-tools/fpl-scorer/internal/history"
	"github.com/fpl-tools/fpl-scorer/internal/model"
	"github.com/fpl-tools/fpl-scorer/internal/points"
)

// CheckLineup reports whether the position counts form a legal XI.
func CheckLineup(gk, def, mid, fwd int) bool {
	if gk+def+mid+fwd != 11 {
		return false
	}
	if gk != 1 || def < 3 || fwd < 1 || mid < 0 {
		return false
	}
	if def > 5 || mid > 5 || fwd > 5 {
		return false
	}
	return true
}

type Counts struct {
	GK  int `json:"gk"`
	DEF int `json:"def"`
	MID int `json:"mid"`
	FWD int `json:"fwd"`
}

func (c Counts) Total() int {
	return c.GK + c.DEF + c.MID + c.FWD
}

func (c Counts) Legal() bool {
	return CheckLineup(c.GK, c.DEF, c.MID, c.FWD)
}

// Count tallies positions, rejecting codes outside 1..4.
func Count(entries []model.SquadEntry) (Counts, error) {
	var c Counts
	for _, e := range entries {
		switch e.Position {
		case model.Goalkeeper:
			c.GK++
		case model.Defender:
			c.DEF++
		case model.Midfielder:
			c.MID++
		case model.Forward:
			c.FWD++
		default:
			return Counts{}, fmt.Errorf("element %d: %w", e.Element, model.CheckPosition(e.Position))
		}
	}
	return c, nil
}

// HistoryReader is the part of history.Accessor the evaluator needs.
type HistoryReader interface {
	Index(ctx context.Context, start, end int) (*history.FixtureIndex, error)
	History(ctx context.Context, playerID, start, end int, idx *history.FixtureIndex) ([]history.Record, error)
}

type Evaluator struct {
	History HistoryReader
	Logger  *zap.Logger
}

func NewEvaluator(h HistoryReader, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{History: h, Logger: logger}
}

// ScoreTeam returns only the total of Score.
func (e *Evaluator) ScoreTeam(ctx context.Context, squad model.Squad, mw int) (int, error) {
	res, err := e.Score(ctx, squad, mw)
	if err != nil {
		return 0, err
	}
	return res.TotalPoints, nil
}

// Score evaluates squad for matchweek mw.
//
// Bench players with no minutes are dropped first. Each starter with no
// minutes is then replaced by the first remaining bench player, in bench
// order, that leaves a legal XI; if none does the slot stays and scores 0.
// A substitute is not re-checked for minutes. Captains score double. The
// caller's squad is never modified.
func (e *Evaluator) Score(ctx context.Context, squad model.Squad, mw int) (*points.Result, error) {
	if _, err := Count(squad); err != nil {
		return nil, err
	}

	idx, err := e.History.Index(ctx, mw, mw)
	if err != nil {
		return nil, err
	}
	stats := make(map[int]points.Stats, len(squad))
	statsFor := func(elementID int) (points.Stats, error) {
		if st, ok := stats[elementID]; ok {
			return st, nil
		}
		recs, err := e.History.History(ctx, elementID, mw, mw, idx)
		if err != nil {
			return points.Stats{}, err
		}
		minutes, pts := history.Sum(recs)
		st := points.Stats{Minutes: minutes, TotalPoints: pts}
		stats[elementID] = st
		return st, nil
	}

	starters, allBench := squad.Split()

	bench := make([]model.SquadEntry, 0, len(allBench))
	for _, b := range allBench {
		st, err := statsFor(b.Element)
		if err != nil {
			return nil, err
		}
		if st.Minutes == 0 {
			continue
		}
		bench = append(bench, b)
	}

	onField := append([]model.SquadEntry(nil), starters...)
	var subs []points.Substitution
	for _, s := range starters {
		st, err := statsFor(s.Element)
		if err != nil {
			return nil, err
		}
		if st.Minutes > 0 || len(bench) == 0 {
			continue
		}
		for i, cand := range bench {
			prospect := withSubstitute(onField, s.Element, cand)
			c, _ := Count(prospect)
			if !c.Legal() {
				continue
			}
			onField = prospect
			bench = append(append([]model.SquadEntry(nil), bench[:i]...), bench[i+1:]...)
			subs = append(subs, points.Substitution{Out: s.Element, In: cand.Element})
			e.Logger.Debug("auto-sub",
				zap.Int("matchweek", mw),
				zap.Int("out", s.Element),
				zap.Int("in", cand.Element))
			break
		}
	}

	for _, p := range onField {
		if _, err := statsFor(p.Element); err != nil {
			return nil, err
		}
	}
	return points.BuildResult(mw, onField, stats, subs), nil
}

// withSubstitute returns a new lineup without the first entry for out and
// with in appended.
func withSubstitute(onField []model.SquadEntry, out int, in model.SquadEntry) []model.SquadEntry {
	next := make([]model.SquadEntry, 0, len(onField))
	removed := false
	for _, p := range onField {
		if !removed && p.Element == out {
			removed = true
			continue
		}
		next = append(next, p)
	}
	return append(next, in)
}
