// Package snapshot writes the dated element-summary cache file and reads it
// back as a history source.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fpl-tools/fpl-scorer/internal/fetch"
	"github.com/fpl-tools/fpl-scorer/internal/store"
)

const (
	DefaultDir = "FPLjsons"
	filePrefix = "jsons-"
	dateLayout = "01-02-2006"
)

// FileName is the cache file name for the calendar date of t.
func FileName(t time.Time) string {
	return filePrefix + t.Format(dateLayout)
}

// ParseFileName extracts the date from a cache file name.
func ParseFileName(name string) (time.Time, bool) {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, filePrefix) {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, strings.TrimPrefix(base, filePrefix))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Fetcher returns the raw /element-summary/{id}/ body.
type Fetcher interface {
	ElementSummaryRaw(ctx context.Context, elementID int, force bool) ([]byte, error)
}

// Mirror receives a copy of every written cache file.
type Mirror interface {
	Put(ctx context.Context, key string, body []byte) error
}

type Collector struct {
	Fetcher Fetcher
	Store   *store.JSONStore
	Mirror  Mirror
	Now     func() time.Time
	Logger  *zap.Logger
}

func NewCollector(f Fetcher, dir string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		Fetcher: f,
		Store:   store.NewJSONStore(dir),
		Now:     time.Now,
		Logger:  logger,
	}
}

type Run struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	Players    int       `json:"players"`
	Missing    []int     `json:"missing"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Collect fetches every id fresh and writes {"<id>": <element-summary>}
// to one dated file. Ids the API does not know are stored as null; any other
// failure aborts the run without writing.
func (c *Collector) Collect(ctx context.Context, ids []int) (*Run, error) {
	run := &Run{ID: uuid.NewString(), StartedAt: c.Now(), Missing: []int{}}
	log := c.Logger.With(zap.String("run_id", run.ID))
	log.Info("collect started", zap.Int("players", len(ids)))

	entries := make(map[int]json.RawMessage, len(ids))
	for _, id := range ids {
		raw, err := c.Fetcher.ElementSummaryRaw(ctx, id, true)
		if errors.Is(err, fetch.ErrNotFound) {
			log.Warn("unknown element", zap.Int("element", id))
			entries[id] = nil
			run.Missing = append(run.Missing, id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("collect element %d: %w", id, err)
		}
		if !json.Valid(raw) {
			return nil, fmt.Errorf("collect element %d: %w: invalid JSON", id, fetch.ErrUnavailable)
		}
		entries[id] = raw
	}

	body, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	name := FileName(run.StartedAt)
	if err := c.Store.WriteRaw(name, body, false); err != nil {
		return nil, err
	}
	run.Path = c.Store.Path(name)
	run.Players = len(entries)

	if c.Mirror != nil {
		if err := c.Mirror.Put(ctx, name, body); err != nil {
			return run, fmt.Errorf("mirror %s: %w", name, err)
		}
	}

	run.FinishedAt = c.Now()
	log.Info("collect finished",
		zap.String("path", run.Path),
		zap.Int("players", run.Players),
		zap.Int("missing", len(run.Missing)),
		zap.Duration("duration", run.FinishedAt.Sub(run.StartedAt)))
	return run, nil
}
