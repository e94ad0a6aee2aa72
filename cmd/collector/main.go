package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fpl-tools/fpl-scorer/internal/fetch"
	"github.com/fpl-tools/fpl-scorer/internal/schedule"
	"github.com/fpl-tools/fpl-scorer/internal/snapshot"
	"github.com/fpl-tools/fpl-scorer/internal/store"
	"github.com/fpl-tools/fpl-scorer/internal/summary"
)

type config struct {
	OutDir     string
	RawRoot    string
	Spec       string
	Location   string
	Players    string
	SleepMS    int
	RunOnStart bool
	Once       bool
	S3Bucket   string
	S3Prefix   string
	Debug      bool
}

func main() {
	_ = godotenv.Load()

	var cfg config
	flag.StringVar(&cfg.OutDir, "out", envOr("FPL_JSON_DIR", snapshot.DefaultDir), "directory for dated element-summary files")
	flag.StringVar(&cfg.RawRoot, "raw-root", envOr("FPL_RAW_ROOT", ""), "also cache raw bodies here (empty = off)")
	flag.StringVar(&cfg.Spec, "schedule", envOr("FPL_COLLECT_SCHEDULE", schedule.DefaultSpec), "cron spec for collection runs")
	flag.StringVar(&cfg.Location, "tz", envOr("FPL_COLLECT_TZ", "Local"), "time zone for the schedule")
	flag.StringVar(&cfg.Players, "players", envOr("FPL_PLAYERS", ""), "comma-separated element ids (empty = built-in list)")
	flag.IntVar(&cfg.SleepMS, "sleep-ms", envInt("FPL_SLEEP_MS", 250), "sleep between requests in ms")
	flag.BoolVar(&cfg.RunOnStart, "run-on-start", envBool("FPL_RUN_ON_START", false), "collect once at startup")
	flag.BoolVar(&cfg.Once, "once", false, "collect once and exit")
	flag.StringVar(&cfg.S3Bucket, "s3-bucket", envOr("FPL_S3_BUCKET", ""), "mirror files to this bucket (empty = off)")
	flag.StringVar(&cfg.S3Prefix, "s3-prefix", envOr("FPL_S3_PREFIX", "fpljsons"), "key prefix inside the bucket")
	flag.BoolVar(&cfg.Debug, "debug", envBool("FPL_DEBUG", false), "development logging")
	flag.Parse()

	logger := newLogger(cfg.Debug)
	defer logger.Sync()

	ids := defaultPlayerIDs
	if cfg.Players != "" {
		parsed, err := summary.ParseIDs(cfg.Players)
		if err != nil {
			logger.Fatal("invalid -players", zap.Error(err))
		}
		ids = parsed
	}

	loc, err := time.LoadLocation(cfg.Location)
	if err != nil {
		logger.Fatal("invalid -tz", zap.String("tz", cfg.Location), zap.Error(err))
	}

	var raw *store.JSONStore
	if cfg.RawRoot != "" {
		raw = store.NewJSONStore(cfg.RawRoot)
	}
	client := fetch.NewClient(raw)
	client.Sleep = time.Duration(cfg.SleepMS) * time.Millisecond
	client.PrettyWrite = true
	client.Logger = logger.Named("fetch")

	collector := snapshot.NewCollector(client, cfg.OutDir, logger.Named("snapshot"))
	if cfg.S3Bucket != "" {
		mirror, err := snapshot.NewS3Mirror(context.Background(), cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			logger.Fatal("load AWS config", zap.Error(err))
		}
		collector.Mirror = mirror
	}

	job := func(ctx context.Context) error {
		_, err := collector.Collect(ctx, ids)
		return err
	}

	sched := schedule.New(loc, logger.Named("schedule"))
	if cfg.Once {
		if err := sched.RunNow("collect", job); err != nil {
			logger.Fatal("collection failed", zap.Error(err))
		}
		return
	}

	entry, err := sched.Add(cfg.Spec, "collect", job)
	if err != nil {
		logger.Fatal("invalid -schedule", zap.String("spec", cfg.Spec), zap.Error(err))
	}
	if cfg.RunOnStart {
		go func() { _ = sched.Trigger("collect") }()
	}

	sched.Start()
	logger.Info("collector started",
		zap.Int("players", len(ids)),
		zap.String("out", cfg.OutDir),
		zap.Time("next_run", sched.Next(entry)))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sched.Stop(ctx)
}

func newLogger(debug bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}
