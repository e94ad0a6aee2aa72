// Package history resolves a player's per-fixture stats into matchweeks and
// restricts them to a matchweek window.
package history

import (
	"context"
	"fmt"

	"github.com/fpl-tools/fpl-scorer/internal/model"
)

// Source supplies raw fixtures and element summaries. fetch.Client and
// snapshot.Source both satisfy it.
type Source interface {
	Fixtures(ctx context.Context) ([]model.Fixture, error)
	ElementSummary(ctx context.Context, elementID int) (*model.ElementSummary, error)
}

// FixtureIndex maps fixture id to matchweek for one window. It is not
// modified after construction.
type FixtureIndex struct {
	start     int
	end       int
	byFixture map[int]int
}

// BuildFixtureIndex keeps every scheduled fixture whose matchweek lies in
// [start, end]. Input order does not matter.
func BuildFixtureIndex(fixtures []model.Fixture, start, end int) *FixtureIndex {
	ix := &FixtureIndex{start: start, end: end, byFixture: make(map[int]int)}
	for _, f := range fixtures {
		if f.Event == nil {
			continue
		}
		mw := *f.Event
		if mw < start || mw > end {
			continue
		}
		ix.byFixture[f.ID] = mw
	}
	return ix
}

func (ix *FixtureIndex) Matchweek(fixtureID int) (int, bool) {
	mw, ok := ix.byFixture[fixtureID]
	return mw, ok
}

func (ix *FixtureIndex) Len() int {
	return len(ix.byFixture)
}

// Window returns the inclusive matchweek range the index was built for.
func (ix *FixtureIndex) Window() (start, end int) {
	return ix.start, ix.end
}

// Record is one fixture a player took part in, with its resolved matchweek.
type Record struct {
	Fixture     int `json:"fixture"`
	Minutes     int `json:"minutes"`
	TotalPoints int `json:"total_points"`
	Matchweek   int `json:"matchweek"`
}

type Accessor struct {
	Source Source
}

func New(src Source) *Accessor {
	return &Accessor{Source: src}
}

// Index fetches all fixtures and indexes those in [start, end].
func (a *Accessor) Index(ctx context.Context, start, end int) (*FixtureIndex, error) {
	fixtures, err := a.Source.Fixtures(ctx)
	if err != nil {
		return nil, fmt.Errorf("fixtures: %w", err)
	}
	return BuildFixtureIndex(fixtures, start, end), nil
}

// History returns the player's records with matchweek in [start, end]. When
// idx is nil one is built for the window.
func (a *Accessor) History(ctx context.Context, playerID, start, end int, idx *FixtureIndex) ([]Record, error) {
	if idx == nil {
		var err error
		if idx, err = a.Index(ctx, start, end); err != nil {
			return nil, err
		}
	}
	summary, err := a.Source.ElementSummary(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("element %d history: %w", playerID, err)
	}

	out := make([]Record, 0, len(summary.History))
	for _, h := range summary.History {
		mw, ok := idx.Matchweek(h.Fixture)
		if !ok || mw < start || mw > end {
			continue
		}
		out = append(out, Record{
			Fixture:     h.Fixture,
			Minutes:     h.Minutes,
			TotalPoints: h.TotalPoints,
			Matchweek:   mw,
		})
	}
	return out, nil
}

// NumFixtures counts the player's upcoming fixtures that fall in matchweek
// mw; blank and double gameweeks give 0 and 2.
func (a *Accessor) NumFixtures(ctx context.Context, playerID, mw int, idx *FixtureIndex) (int, error) {
	if idx == nil {
		var err error
		if idx, err = a.Index(ctx, mw, mw); err != nil {
			return 0, err
		}
	}
	summary, err := a.Source.ElementSummary(ctx, playerID)
	if err != nil {
		return 0, fmt.Errorf("element %d fixtures: %w", playerID, err)
	}
	n := 0
	for _, f := range summary.Fixtures {
		if got, ok := idx.Matchweek(f.ID); ok && got == mw {
			n++
		}
	}
	return n, nil
}

// Sum totals minutes and points over records.
func Sum(records []Record) (minutes, points int) {
	for _, r := range records {
		minutes += r.Minutes
		points += r.TotalPoints
	}
	return minutes, points
}
