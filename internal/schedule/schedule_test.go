package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAdd_RejectsBadSpec(t *testing.T) {
	s := New(time.UTC, nil)
	_, err := s.Add("every tuesday", "collect", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestWeeklyNextRun(t *testing.T) {
	s := New(time.UTC, nil)
	id, err := s.Add(DefaultSpec, "collect", func(context.Context) error { return nil })
	require.NoError(t, err)

	s.Start()
	defer s.Stop(context.Background())

	var next time.Time
	require.Eventually(t, func() bool {
		next = s.Next(id)
		return !next.IsZero()
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, time.Sunday, next.Weekday())
	assert.Equal(t, 0, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.True(t, next.After(time.Now()))
	assert.True(t, next.Sub(time.Now()) <= 7*24*time.Hour)
}

func TestRunNow_LogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := New(time.UTC, zap.New(core))
	boom := errors.New("upstream down")

	err := s.RunNow("collect", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	failed := logs.FilterMessage("job failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "collect", failed[0].ContextMap()["job"])
}

func TestRunNow_AppliesTimeout(t *testing.T) {
	s := New(time.UTC, nil)
	s.Timeout = 20 * time.Millisecond

	err := s.RunNow("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScheduledRunsDoNotOverlap(t *testing.T) {
	s := New(time.UTC, nil)
	var running, maxRunning, runs int32
	_, err := s.Add("@every 1s", "slow", func(context.Context) error {
		n := atomic.AddInt32(&running, 1)
		defer atomic.AddInt32(&running, -1)
		for {
			m := atomic.LoadInt32(&maxRunning)
			if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
				break
			}
		}
		atomic.AddInt32(&runs, 1)
		time.Sleep(1500 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)

	s.Start()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(1200 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	s.Stop(ctx)

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxRunning))
}

func TestTrigger_SkipsWhileRunning(t *testing.T) {
	s := New(time.UTC, nil)
	var runs int32
	release := make(chan struct{})
	_, err := s.Add(DefaultSpec, "collect", func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		<-release
		return nil
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Trigger("collect") }()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, 5*time.Millisecond)

	// Returns without starting a second run.
	require.NoError(t, s.Trigger("collect"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))

	close(release)
	require.NoError(t, <-done)

	require.NoError(t, s.Trigger("collect"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&runs))
}

func TestTrigger_BlocksScheduledTick(t *testing.T) {
	s := New(time.UTC, nil)
	var runs int32
	release := make(chan struct{})
	_, err := s.Add("@every 1s", "collect", func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		<-release
		return nil
	})
	require.NoError(t, err)

	s.Start()
	go func() { _ = s.Trigger("collect") }()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, 5*time.Millisecond)

	// At least one tick lands while the triggered run holds the job.
	time.Sleep(1300 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestTrigger_UnknownJob(t *testing.T) {
	s := New(time.UTC, nil)
	assert.ErrorIs(t, s.Trigger("collect"), ErrUnknownJob)
}

func TestAdd_RejectsDuplicateName(t *testing.T) {
	s := New(time.UTC, nil)
	noop := func(context.Context) error { return nil }
	_, err := s.Add(DefaultSpec, "collect", noop)
	require.NoError(t, err)
	_, err = s.Add("@daily", "collect", noop)
	assert.Error(t, err)
}
