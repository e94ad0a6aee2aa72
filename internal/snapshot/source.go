package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fpl-tools/fpl-scorer/internal/fetch"
	"github.com/fpl-tools/fpl-scorer/internal/history"
	"github.com/fpl-tools/fpl-scorer/internal/model"
	"github.com/fpl-tools/fpl-scorer/internal/store"
)

// Latest returns the path of the newest dated cache file in st, by the
// date in its name.
func Latest(st *store.JSONStore) (string, error) {
	names, err := st.Glob(filePrefix + "*")
	if err != nil {
		return "", err
	}
	best := ""
	var bestAt time.Time
	for _, n := range names {
		t, ok := ParseFileName(n)
		if !ok {
			continue
		}
		if best == "" || t.After(bestAt) {
			best, bestAt = n, t
		}
	}
	if best == "" {
		return "", fmt.Errorf("no snapshot in %s: %w", st.Root, os.ErrNotExist)
	}
	return st.Path(best), nil
}

// Load reads a cache file into element id -> raw element-summary. Null
// entries are kept; Source reports them as not found.
func Load(path string) (map[int]json.RawMessage, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out map[int]json.RawMessage
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return out, nil
}

// Source serves element summaries from a loaded snapshot. Fixtures, and
// elements absent from the snapshot, come from Fallback.
type Source struct {
	Entries  map[int]json.RawMessage
	Fallback history.Source
}

func (s *Source) Fixtures(ctx context.Context) ([]model.Fixture, error) {
	if s.Fallback == nil {
		return nil, fmt.Errorf("snapshot has no fixtures: %w", fetch.ErrUnavailable)
	}
	return s.Fallback.Fixtures(ctx)
}

func (s *Source) ElementSummary(ctx context.Context, elementID int) (*model.ElementSummary, error) {
	raw, ok := s.Entries[elementID]
	if !ok {
		if s.Fallback == nil {
			return nil, fmt.Errorf("element %d not in snapshot: %w", elementID, fetch.ErrNotFound)
		}
		return s.Fallback.ElementSummary(ctx, elementID)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("element %d: %w", elementID, fetch.ErrNotFound)
	}
	var out model.ElementSummary
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("element %d snapshot: %w: %v", elementID, fetch.ErrUnavailable, err)
	}
	return &out, nil
}
