package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fpl-tools/fpl-scorer/internal/fetch"
	"github.com/fpl-tools/fpl-scorer/internal/history"
	"github.com/fpl-tools/fpl-scorer/internal/lineup"
	"github.com/fpl-tools/fpl-scorer/internal/model"
	"github.com/fpl-tools/fpl-scorer/internal/snapshot"
	"github.com/fpl-tools/fpl-scorer/internal/store"
)

type ServerConfig struct {
	RawRoot      string
	DerivedRoot  string
	WriteDerived bool
	// SnapshotDir, when set, serves element summaries from the newest
	// collector file there before asking the API.
	SnapshotDir string
	Live        bool
	Refresh     bool
	// CacheTTL is how long a cached API body is served before it is
	// fetched again. Zero never expires.
	CacheTTL time.Duration
	SleepMS  int
	BaseURL  string
}

type bootstrapper interface {
	BootstrapStatic(ctx context.Context) (*model.Bootstrap, error)
}

// backend is what the tools read from.
type backend struct {
	cfg       ServerConfig
	source    history.Source
	bootstrap bootstrapper
	logger    *zap.Logger
}

func newBackend(cfg ServerConfig, logger *zap.Logger) (*backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := fetch.NewClient(store.NewJSONStore(cfg.RawRoot))
	client.Sleep = time.Duration(cfg.SleepMS) * time.Millisecond
	client.UseCache = !cfg.Live
	client.DisableWrite = cfg.Live
	client.Refresh = cfg.Refresh
	client.MaxAge = cfg.CacheTTL
	client.Logger = logger.Named("fetch")
	if cfg.BaseURL != "" {
		client.BaseURL = cfg.BaseURL
	}

	b := &backend{cfg: cfg, source: client, bootstrap: client, logger: logger}
	if cfg.SnapshotDir == "" {
		return b, nil
	}

	path, err := snapshot.Latest(store.NewJSONStore(cfg.SnapshotDir))
	if err != nil {
		return nil, err
	}
	entries, err := snapshot.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Info("serving snapshot", zap.String("path", path), zap.Int("players", len(entries)))
	b.source = &snapshot.Source{Entries: entries, Fallback: client}
	return b, nil
}

func (b *backend) history() *history.Accessor {
	return history.New(b.source)
}

func (b *backend) evaluator() *lineup.Evaluator {
	return lineup.NewEvaluator(b.history(), b.logger.Named("lineup"))
}

func (b *backend) derivedPath(format string, args ...any) (string, bool) {
	if !b.cfg.WriteDerived || b.cfg.DerivedRoot == "" {
		return "", false
	}
	return filepath.Join(b.cfg.DerivedRoot, fmt.Sprintf(format, args...)), true
}
