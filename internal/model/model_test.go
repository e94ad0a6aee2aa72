package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestFlagUnmarshal(t *testing.T) {
	cases := map[string]Flag{
		`true`:  1,
		`false`: 0,
		`null`:  0,
		`0`:     0,
		`1`:     1,
		`2`:     1,
	}
	for in, want := range cases {
		var f Flag
		if err := json.Unmarshal([]byte(in), &f); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if f != want {
			t.Fatalf("unmarshal %s: got %d want %d", in, f, want)
		}
	}

	var f Flag
	if err := json.Unmarshal([]byte(`"yes"`), &f); err == nil {
		t.Fatalf("expected error for string flag")
	}
}

func TestPosition(t *testing.T) {
	for i, p := range Positions {
		if int(p) != i+1 || !p.Valid() {
			t.Fatalf("position %d: got %d valid=%v", i, p, p.Valid())
		}
	}
	if Position(5).Valid() || Position(0).Valid() {
		t.Fatalf("expected 0 and 5 to be invalid")
	}
	if got := Midfielder.String(); got != "MID" {
		t.Fatalf("String: got %q", got)
	}
	err := CheckPosition(Position(7))
	if !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("CheckPosition: got %v", err)
	}
	if err := CheckPosition(Forward); err != nil {
		t.Fatalf("CheckPosition(Forward): %v", err)
	}
}

func TestElementParsing(t *testing.T) {
	raw := `{"id":7,"web_name":"Saka","team":1,"element_type":3,
		"points_per_game":"6.2","selected_by_percent":"45.5","chance_of_playing_this_round":null}`
	var e Element
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Position() != Midfielder {
		t.Fatalf("position: got %v", e.Position())
	}
	if e.PPG() != 6.2 {
		t.Fatalf("ppg: got %v", e.PPG())
	}
	if e.Ownership() != 0.455 {
		t.Fatalf("ownership: got %v", e.Ownership())
	}
	if e.Name() != "Saka" {
		t.Fatalf("name: got %q", e.Name())
	}

	blank := Element{FirstName: "Bukayo", SecondName: "Saka", PointsPerGame: "n/a"}
	if blank.Name() != "Bukayo Saka" || blank.PPG() != 0 {
		t.Fatalf("fallbacks: name=%q ppg=%v", blank.Name(), blank.PPG())
	}
}

func TestSquadSplit(t *testing.T) {
	raw := `[
		{"element":1,"position":1,"starter":true,"captain":0},
		{"element":2,"position":2,"starter":false,"captain":0},
		{"element":3,"position":3,"starter":true,"captain":true},
		{"element":4,"position":4,"starter":false,"captain":0}
	]`
	var sq Squad
	if err := json.Unmarshal([]byte(raw), &sq); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	onField, bench := sq.Split()
	if len(onField) != 2 || onField[0].Element != 1 || onField[1].Element != 3 {
		t.Fatalf("onField: %+v", onField)
	}
	if len(bench) != 2 || bench[0].Element != 2 || bench[1].Element != 4 {
		t.Fatalf("bench: %+v", bench)
	}
	if onField[1].Captain != 1 {
		t.Fatalf("captain: got %d", onField[1].Captain)
	}

	onField[0].Element = 99
	if sq[0].Element != 1 {
		t.Fatalf("Split must not alias the squad")
	}

	ids := sq.Elements()
	if len(ids) != 4 || ids[3] != 4 {
		t.Fatalf("elements: %v", ids)
	}
}
