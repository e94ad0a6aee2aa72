package main

import (
	"encoding/json"
	"flag"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/fpl-tools/fpl-scorer/internal/snapshot"
	"github.com/fpl-tools/fpl-scorer/internal/store"
	"github.com/fpl-tools/fpl-scorer/internal/summary"
)

type Inventory struct {
	GeneratedAtUTC string   `json:"generated_at_utc"`
	RawRoot        string   `json:"raw_root"`
	SnapshotDir    string   `json:"snapshot_dir"`
	Sources        []Source `json:"sources"`
}

type Source struct {
	Name         string  `json:"name"`
	FilesScanned int     `json:"files_scanned"`
	Skipped      int     `json:"skipped"`
	Fields       []Field `json:"fields"`
}

type Field struct {
	Path  string   `json:"path"`
	Types []string `json:"types"`
}

type target struct {
	name  string
	st    *store.JSONStore
	glob  string
	limit int
}

func main() {
	var (
		rawRoot     = flag.String("raw-root", "data/raw", "root directory for raw JSON")
		snapshotDir = flag.String("snapshot-dir", snapshot.DefaultDir, "collector output directory")
		outPath     = flag.String("out", "data/derived/schema_inventory.json", "output path")
		maxFiles    = flag.Int("max-files", 0, "max files per source (0 = no limit)")
	)
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	raw := store.NewJSONStore(*rawRoot)
	snaps := store.NewJSONStore(*snapshotDir)
	targets := []target{
		{"fixtures", raw, "fixtures/fixtures.json", *maxFiles},
		{"bootstrap-static", raw, "bootstrap/bootstrap-static.json", *maxFiles},
		{"element-summary", raw, "element-summary/*.json", *maxFiles},
		{"snapshot", snaps, "jsons-*", *maxFiles},
	}

	inv := Inventory{
		GeneratedAtUTC: time.Now().UTC().Format(time.RFC3339),
		RawRoot:        *rawRoot,
		SnapshotDir:    *snapshotDir,
		Sources:        make([]Source, 0, len(targets)),
	}
	for _, tg := range targets {
		src, err := scan(tg)
		if err != nil {
			logger.Warn("scan failed", zap.String("source", tg.name), zap.Error(err))
			continue
		}
		if src.FilesScanned == 0 {
			logger.Info("no files", zap.String("source", tg.name), zap.String("glob", tg.st.Path(tg.glob)))
			continue
		}
		inv.Sources = append(inv.Sources, *src)
	}

	if err := summary.WriteSummary(*outPath, inv); err != nil {
		logger.Fatal("write inventory", zap.Error(err))
	}
	logger.Info("wrote inventory", zap.String("path", *outPath), zap.Int("sources", len(inv.Sources)))
}

func scan(tg target) (*Source, error) {
	files, err := tg.st.Glob(tg.glob)
	if err != nil {
		return nil, err
	}
	if tg.limit > 0 && len(files) > tg.limit {
		files = files[:tg.limit]
	}

	schema := make(schemaMap)
	src := &Source{Name: tg.name}
	for _, f := range files {
		b, err := tg.st.ReadRaw(f)
		if err != nil {
			src.Skipped++
			continue
		}
		var v any
		if err := json.Unmarshal(b, &v); err != nil {
			src.Skipped++
			continue
		}
		schema.walk(v, "$")
		src.FilesScanned++
	}
	src.Fields = schema.fields()
	return src, nil
}

type schemaMap map[string]map[string]struct{}

// walk records the JSON type at every path. Object keys that are element
// ids, as in collector files, collapse to "*".
func (s schemaMap) walk(v any, path string) {
	switch x := v.(type) {
	case map[string]any:
		s.add(path, "object")
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			seg := k
			if _, err := strconv.Atoi(k); err == nil {
				seg = "*"
			}
			s.walk(x[k], path+"."+seg)
		}
	case []any:
		s.add(path, "array")
		for _, item := range x {
			s.walk(item, path+"[]")
		}
		if len(x) == 0 {
			s.add(path+"[]", "unknown")
		}
	case string:
		s.add(path, "string")
	case bool:
		s.add(path, "bool")
	case float64:
		s.add(path, "number")
	case nil:
		s.add(path, "null")
	}
}

func (s schemaMap) add(path, typ string) {
	set, ok := s[path]
	if !ok {
		set = make(map[string]struct{})
		s[path] = set
	}
	set[typ] = struct{}{}
}

func (s schemaMap) fields() []Field {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out := make([]Field, 0, len(paths))
	for _, p := range paths {
		types := make([]string, 0, len(s[p]))
		for t := range s[p] {
			types = append(types, t)
		}
		sort.Strings(types)
		out = append(out, Field{Path: p, Types: types})
	}
	return out
}
