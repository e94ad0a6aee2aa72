package model

import (
	"bytes"
	"fmt"
	"strconv"
)

// Flag is a 0/1 marker that decodes from either a JSON bool or number.
type Flag int

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch string(b) {
	case "true":
		*f = 1
		return nil
	case "false", "null":
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("flag: %w", err)
	}
	if n != 0 {
		n = 1
	}
	*f = Flag(n)
	return nil
}

// SquadEntry is one player in a fantasy squad for a matchweek.
type SquadEntry struct {
	Element  int      `json:"element"`
	Position Position `json:"position"`
	Starter  bool     `json:"starter"`
	Captain  Flag     `json:"captain,omitempty"`
}

// Squad keeps caller order; bench order decides substitution priority.
type Squad []SquadEntry

// Split returns copies of the starting XI and the bench, order preserved.
func (s Squad) Split() (onField []SquadEntry, bench []SquadEntry) {
	onField = make([]SquadEntry, 0, 11)
	bench = make([]SquadEntry, 0, 4)
	for _, e := range s {
		if e.Starter {
			onField = append(onField, e)
		} else {
			bench = append(bench, e)
		}
	}
	return onField, bench
}

// Elements returns every player id in squad order.
func (s Squad) Elements() []int {
	out := make([]int, 0, len(s))
	for _, e := range s {
		out = append(out, e.Element)
	}
	return out
}
