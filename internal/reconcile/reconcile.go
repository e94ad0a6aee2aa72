// Package reconcile checks a submitted squad against bootstrap-static.
package reconcile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/fpl-tools/fpl-scorer/internal/lineup"
	"github.com/fpl-tools/fpl-scorer/internal/model"
)

const (
	KindUnknownElement   = "unknown_element"
	KindPositionMismatch = "position_mismatch"
	KindDuplicate        = "duplicate_element"
	KindStarterCount     = "starter_count"
	KindBenchSize        = "bench_size"
	KindFormation        = "formation"
	KindCaptainCount     = "captain_count"
)

const maxBench = 4

type Issue struct {
	Kind     string         `json:"kind"`
	Element  int            `json:"element,omitempty"`
	Declared model.Position `json:"declared,omitempty"`
	Actual   model.Position `json:"actual,omitempty"`
	Detail   string         `json:"detail,omitempty"`
}

type Report struct {
	Matchweek      int           `json:"matchweek"`
	GeneratedAtUTC string        `json:"generated_at_utc"`
	Starters       int           `json:"starters"`
	Bench          int           `json:"bench"`
	Formation      lineup.Counts `json:"formation"`
	Valid          bool          `json:"valid"`
	Issues         []Issue       `json:"issues"`
}

func BuildElementMap(elements []model.Element) map[int]model.Element {
	out := make(map[int]model.Element, len(elements))
	for _, e := range elements {
		out[e.ID] = e
	}
	return out
}

// FillPositions returns a copy of squad with zero positions taken from
// bootstrap. Declared positions are left alone.
func FillPositions(squad model.Squad, elements []model.Element) model.Squad {
	byID := BuildElementMap(elements)
	out := make(model.Squad, len(squad))
	copy(out, squad)
	for i := range out {
		if out[i].Position != 0 {
			continue
		}
		if el, ok := byID[out[i].Element]; ok {
			out[i].Position = el.Position()
		}
	}
	return out
}

func BuildReport(mw int, squad model.Squad, elements []model.Element) *Report {
	byID := BuildElementMap(elements)
	issues := make([]Issue, 0)

	seen := make(map[int]bool, len(squad))
	captains := 0
	for _, e := range squad {
		if seen[e.Element] {
			issues = append(issues, Issue{Kind: KindDuplicate, Element: e.Element})
		}
		seen[e.Element] = true
		if e.Starter && e.Captain != 0 {
			captains++
		}

		el, ok := byID[e.Element]
		if !ok {
			issues = append(issues, Issue{Kind: KindUnknownElement, Element: e.Element})
			continue
		}
		if e.Position != el.Position() {
			issues = append(issues, Issue{
				Kind:     KindPositionMismatch,
				Element:  e.Element,
				Declared: e.Position,
				Actual:   el.Position(),
			})
		}
	}

	onField, bench := squad.Split()
	if len(onField) != 11 {
		issues = append(issues, Issue{Kind: KindStarterCount, Detail: "want 11 starters"})
	}
	if len(bench) > maxBench {
		issues = append(issues, Issue{Kind: KindBenchSize, Detail: "at most 4 substitutes"})
	}
	if captains > 1 {
		issues = append(issues, Issue{Kind: KindCaptainCount, Detail: "at most one captain"})
	}

	counts, err := lineup.Count(onField)
	if err != nil {
		issues = append(issues, Issue{Kind: KindFormation, Detail: err.Error()})
	} else if len(onField) == 11 && !counts.Legal() {
		issues = append(issues, Issue{Kind: KindFormation, Detail: "illegal starting formation"})
	}

	return &Report{
		Matchweek:      mw,
		GeneratedAtUTC: time.Now().UTC().Format(time.RFC3339),
		Starters:       len(onField),
		Bench:          len(bench),
		Formation:      counts,
		Valid:          len(issues) == 0,
		Issues:         issues,
	}
}

func WriteReport(path string, report *Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}

	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}
