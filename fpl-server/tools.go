package main

import (
	"context"
	"fmt"
	"reflect"
	"regexp"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/fpl-tools/fpl-scorer/internal/history"
	"github.com/fpl-tools/fpl-scorer/internal/lineup"
	"github.com/fpl-tools/fpl-scorer/internal/model"
	"github.com/fpl-tools/fpl-scorer/internal/points"
	"github.com/fpl-tools/fpl-scorer/internal/reconcile"
	"github.com/fpl-tools/fpl-scorer/internal/summary"
)

const seasonMatchweeks = 38

var saveAsPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type ScoreTeamArgs struct {
	Matchweek     int         `json:"matchweek" jsonschema:"Matchweek to score (required)"`
	Squad         model.Squad `json:"squad" jsonschema:"Squad entries: element, position (1-4), starter, captain (0/1 or true/false). Bench order is substitution priority"`
	FillPositions bool        `json:"fill_positions,omitempty" jsonschema:"Take missing positions from bootstrap-static"`
	SaveAs        string      `json:"save_as,omitempty" jsonschema:"Write the result under derived root as scores/{save_as}/gw/{matchweek}.json"`
}

type CheckLineupArgs struct {
	GK  int `json:"gk" jsonschema:"Goalkeepers on the field"`
	DEF int `json:"def" jsonschema:"Defenders on the field"`
	MID int `json:"mid" jsonschema:"Midfielders on the field"`
	FWD int `json:"fwd" jsonschema:"Forwards on the field"`
}

type PlayerHistoryArgs struct {
	ElementID int `json:"element_id" jsonschema:"Player element id (required)"`
	Start     int `json:"start" jsonschema:"First matchweek (default 1)"`
	End       int `json:"end" jsonschema:"Last matchweek (default 38)"`
}

type NumFixturesArgs struct {
	ElementID int `json:"element_id" jsonschema:"Player element id (required)"`
	Matchweek int `json:"matchweek" jsonschema:"Matchweek (required)"`
}

type OverachievementArgs struct {
	ElementIDs string `json:"element_ids" jsonschema:"Comma-separated element ids (required)"`
	Start      int    `json:"start" jsonschema:"First matchweek (default 1)"`
	End        int    `json:"end" jsonschema:"Last matchweek (default 38)"`
}

type SquadCheckArgs struct {
	Matchweek int         `json:"matchweek" jsonschema:"Matchweek the squad is for"`
	Squad     model.Squad `json:"squad" jsonschema:"Squad entries to validate"`
	SaveAs    string      `json:"save_as,omitempty" jsonschema:"Write the report under derived root as squad_check/{save_as}/gw/{matchweek}.json"`
}

type PlayerHistoryOutput struct {
	ElementID int              `json:"element_id"`
	Start     int              `json:"start"`
	End       int              `json:"end"`
	Minutes   int              `json:"minutes"`
	Points    int              `json:"points"`
	Records   []history.Record `json:"records"`
}

type NumFixturesOutput struct {
	ElementID int `json:"element_id"`
	Matchweek int `json:"matchweek"`
	Fixtures  int `json:"fixtures"`
}

type CheckLineupOutput struct {
	Counts lineup.Counts `json:"counts"`
	Total  int           `json:"total"`
	Legal  bool          `json:"legal"`
}

// inputSchema infers the tool schema for T, letting a squad entry's captain
// flag arrive as 0/1 or true/false.
func inputSchema[T any]() *jsonschema.Schema {
	s, err := jsonschema.For[T](&jsonschema.ForOptions{
		TypeSchemas: map[reflect.Type]*jsonschema.Schema{
			reflect.TypeFor[model.Flag](): {
				Types:       []string{"integer", "boolean"},
				Description: "Captain: 0/1 or true/false",
			},
		},
	})
	if err != nil {
		panic(fmt.Sprintf("input schema for %v: %v", reflect.TypeFor[T](), err))
	}
	return s
}

func normalizeWindow(start, end int) (int, int, error) {
	if start <= 0 {
		start = 1
	}
	if end <= 0 {
		end = seasonMatchweeks
	}
	if start > end {
		return 0, 0, fmt.Errorf("start (%d) is after end (%d)", start, end)
	}
	return start, end, nil
}

func checkSaveAs(name string) error {
	if name == "" || saveAsPattern.MatchString(name) {
		return nil
	}
	return fmt.Errorf("save_as must match %s", saveAsPattern)
}

func buildScoreTeam(ctx context.Context, b *backend, args ScoreTeamArgs) (*points.Result, error) {
	if args.Matchweek <= 0 {
		return nil, fmt.Errorf("matchweek is required")
	}
	if len(args.Squad) == 0 {
		return nil, fmt.Errorf("squad is required")
	}
	if err := checkSaveAs(args.SaveAs); err != nil {
		return nil, err
	}
	squad := args.Squad
	if args.FillPositions {
		boot, err := b.bootstrap.BootstrapStatic(ctx)
		if err != nil {
			return nil, err
		}
		squad = reconcile.FillPositions(squad, boot.Elements)
	}

	res, err := b.evaluator().Score(ctx, squad, args.Matchweek)
	if err != nil {
		return nil, err
	}
	if args.SaveAs != "" {
		if path, ok := b.derivedPath("scores/%s/gw/%d.json", args.SaveAs, args.Matchweek); ok {
			if err := points.WriteResult(path, res); err != nil {
				return nil, err
			}
		}
	}
	return res, nil
}

func buildCheckLineup(args CheckLineupArgs) CheckLineupOutput {
	c := lineup.Counts{GK: args.GK, DEF: args.DEF, MID: args.MID, FWD: args.FWD}
	return CheckLineupOutput{Counts: c, Total: c.Total(), Legal: c.Legal()}
}

func buildPlayerHistory(ctx context.Context, b *backend, args PlayerHistoryArgs) (*PlayerHistoryOutput, error) {
	if args.ElementID <= 0 {
		return nil, fmt.Errorf("element_id is required")
	}
	start, end, err := normalizeWindow(args.Start, args.End)
	if err != nil {
		return nil, err
	}
	recs, err := b.history().History(ctx, args.ElementID, start, end, nil)
	if err != nil {
		return nil, err
	}
	minutes, pts := history.Sum(recs)
	return &PlayerHistoryOutput{
		ElementID: args.ElementID,
		Start:     start,
		End:       end,
		Minutes:   minutes,
		Points:    pts,
		Records:   recs,
	}, nil
}

func buildNumFixtures(ctx context.Context, b *backend, args NumFixturesArgs) (*NumFixturesOutput, error) {
	if args.ElementID <= 0 {
		return nil, fmt.Errorf("element_id is required")
	}
	if args.Matchweek <= 0 {
		return nil, fmt.Errorf("matchweek is required")
	}
	n, err := b.history().NumFixtures(ctx, args.ElementID, args.Matchweek, nil)
	if err != nil {
		return nil, err
	}
	return &NumFixturesOutput{ElementID: args.ElementID, Matchweek: args.Matchweek, Fixtures: n}, nil
}

func buildPositionalAverages(ctx context.Context, b *backend) (*summary.AveragesSummary, error) {
	boot, err := b.bootstrap.BootstrapStatic(ctx)
	if err != nil {
		return nil, err
	}
	out := summary.BuildAveragesSummary(boot.Elements)
	return &out, nil
}

func parseRequiredIDs(s string) ([]int, error) {
	ids, err := summary.ParseIDs(s)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("element_ids is required")
	}
	return ids, nil
}

func buildOverachievement(ctx context.Context, b *backend, args OverachievementArgs) (*summary.OverachievementSummary, error) {
	ids, err := parseRequiredIDs(args.ElementIDs)
	if err != nil {
		return nil, err
	}
	start, end, err := normalizeWindow(args.Start, args.End)
	if err != nil {
		return nil, err
	}
	boot, err := b.bootstrap.BootstrapStatic(ctx)
	if err != nil {
		return nil, err
	}
	out, err := summary.BuildOverachievementSummary(ctx, b.history(), boot.Elements, ids, start, end)
	if err != nil {
		return nil, err
	}
	if path, ok := b.derivedPath("summary/overachievement/%d_%d.json", start, end); ok {
		if err := summary.WriteSummary(path, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func buildSquadCheck(ctx context.Context, b *backend, args SquadCheckArgs) (*reconcile.Report, error) {
	if len(args.Squad) == 0 {
		return nil, fmt.Errorf("squad is required")
	}
	if err := checkSaveAs(args.SaveAs); err != nil {
		return nil, err
	}
	boot, err := b.bootstrap.BootstrapStatic(ctx)
	if err != nil {
		return nil, err
	}
	report := reconcile.BuildReport(args.Matchweek, args.Squad, boot.Elements)
	if args.SaveAs != "" {
		if path, ok := b.derivedPath("squad_check/%s/gw/%d.json", args.SaveAs, args.Matchweek); ok {
			if err := reconcile.WriteReport(path, report); err != nil {
				return nil, err
			}
		}
	}
	return report, nil
}
