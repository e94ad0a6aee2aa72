package points

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fpl-tools/fpl-scorer/internal/model"
)

func entry(elem int, pos model.Position, captain model.Flag) model.SquadEntry {
	return model.SquadEntry{Element: elem, Position: pos, Starter: true, Captain: captain}
}

func TestBuildResult_BasicPoints(t *testing.T) {
	xi := []model.SquadEntry{entry(10, model.Goalkeeper, 0), entry(20, model.Defender, 0)}
	stats := map[int]Stats{
		10: {Minutes: 90, TotalPoints: 6},
		20: {Minutes: 90, TotalPoints: 4},
	}

	r := BuildResult(3, xi, stats, nil)

	if r.TotalPoints != 10 {
		t.Errorf("TotalPoints = %d, want 10", r.TotalPoints)
	}
	if len(r.Players) != 2 {
		t.Errorf("Players len = %d, want 2", len(r.Players))
	}
	if r.Subs == nil {
		t.Error("Subs should be an empty slice, not nil")
	}
}

func TestBuildResult_CaptainDoubles(t *testing.T) {
	stats := map[int]Stats{10: {Minutes: 90, TotalPoints: 6}}

	r := BuildResult(1, []model.SquadEntry{entry(10, model.Midfielder, 1)}, stats, nil)
	if r.TotalPoints != 12 {
		t.Errorf("captain TotalPoints = %d, want 12", r.TotalPoints)
	}
	if r.Players[0].Multiplier != 2 {
		t.Errorf("Multiplier = %d, want 2", r.Players[0].Multiplier)
	}

	r = BuildResult(1, []model.SquadEntry{entry(10, model.Midfielder, 0)}, stats, nil)
	if r.TotalPoints != 6 {
		t.Errorf("non-captain TotalPoints = %d, want 6", r.TotalPoints)
	}
}

func TestBuildResult_MissingStats(t *testing.T) {
	// If no stats exist for a player, treat as 0 points.
	xi := []model.SquadEntry{entry(10, model.Goalkeeper, 0), entry(20, model.Defender, 1)}
	stats := map[int]Stats{10: {Minutes: 90, TotalPoints: 5}}

	r := BuildResult(1, xi, stats, nil)

	if r.TotalPoints != 5 {
		t.Errorf("TotalPoints = %d, want 5 (missing stats = 0)", r.TotalPoints)
	}
}

func TestBuildResult_NegativePoints(t *testing.T) {
	// Red cards and own goals can push a player below zero; captaincy doubles that too.
	stats := map[int]Stats{10: {Minutes: 90, TotalPoints: -2}}
	r := BuildResult(1, []model.SquadEntry{entry(10, model.Defender, 1)}, stats, nil)
	if r.TotalPoints != -4 {
		t.Errorf("TotalPoints = %d, want -4", r.TotalPoints)
	}
}

func TestBuildResult_EmptyXI(t *testing.T) {
	r := BuildResult(1, nil, map[int]Stats{}, nil)
	if r.TotalPoints != 0 || len(r.Players) != 0 {
		t.Errorf("got total=%d players=%d, want 0/0", r.TotalPoints, len(r.Players))
	}
	if r.GeneratedAtUTC == "" {
		t.Error("GeneratedAtUTC should not be empty")
	}
}

func TestWriteResult(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "result.json")

	r := BuildResult(7, []model.SquadEntry{entry(10, model.Goalkeeper, 0)},
		map[int]Stats{10: {TotalPoints: 5}},
		[]Substitution{{Out: 3, In: 10}})

	if err := WriteResult(path, r); err != nil {
		t.Fatalf("WriteResult error: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	content := string(b)
	for _, key := range []string{`"total_points"`, `"multiplier"`, `"element_in"`, `"matchweek": 7`} {
		if !strings.Contains(content, key) {
			t.Errorf("output JSON missing %s", key)
		}
	}
}
