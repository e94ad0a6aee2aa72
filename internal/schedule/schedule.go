// Package schedule runs jobs on cron specs, one run of a job at a time.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSpec fires at midnight between Saturday and Sunday.
const DefaultSpec = "@weekly"

// ErrUnknownJob is returned by Trigger for a name that was never added.
var ErrUnknownJob = errors.New("schedule: unknown job")

// Job is one unit of scheduled work. The context carries the job timeout.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron   *cron.Cron
	parser cron.Parser
	logger *zap.Logger
	chain  cron.Chain

	mu   sync.Mutex
	jobs map[string]cron.Job

	Timeout time.Duration
}

func New(loc *time.Location, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
		),
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		logger:  logger,
		chain:   cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		jobs:    make(map[string]cron.Job),
		Timeout: 30 * time.Minute,
	}
}

// Add registers job under spec and name. A tick is skipped while a previous
// run of the same job, scheduled or triggered, is still going.
func (s *Scheduler) Add(spec, name string, job Job) (cron.EntryID, error) {
	sched, err := s.parser.Parse(spec)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; ok {
		return 0, fmt.Errorf("schedule: job %q already added", name)
	}
	wrapped := s.chain.Then(cron.FuncJob(func() { _ = s.run(name, job) }))
	s.jobs[name] = wrapped
	id := s.cron.Schedule(sched, wrapped)
	s.logger.Info("job registered", zap.String("job", name), zap.String("spec", spec))
	return id, nil
}

// RunNow runs job once on the calling goroutine, outside any schedule.
func (s *Scheduler) RunNow(name string, job Job) error {
	return s.run(name, job)
}

// Trigger runs the added job name once on the calling goroutine. It returns
// at once without running if that job is already in progress. Failures are
// logged, not returned.
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	job.Run()
	return nil
}

func (s *Scheduler) run(name string, job Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		s.logger.Error("job failed", zap.String("job", name), zap.Error(err))
		return err
	}
	s.logger.Info("job finished", zap.String("job", name), zap.Duration("duration", time.Since(start)))
	return nil
}

// Next reports when entry id fires next; zero if it is unknown or the
// scheduler is not running.
func (s *Scheduler) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts new runs and waits for running ones, up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("stop timed out with a job still running")
	}
}

type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
