package scrapejob

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startup-roles/backend/internal/domain"
	"github.com/startup-roles/backend/internal/runstate"
	"github.com/startup-roles/backend/internal/scraper"
)

type blockingRunner struct {
	release chan struct{}
	calls   atomic.Int32
	err     error
	panics  bool
}

func (b *blockingRunner) RunAll(ctx context.Context, extractors []scraper.Extractor) (*domain.RunSummary, error) {
	b.calls.Add(1)
	if b.panics {
		panic("boom")
	}
	if b.release != nil {
		select {
		case <-b.release:
		case <-ctx.Done():
			return &domain.RunSummary{}, ctx.Err()
		}
	}
	return &domain.RunSummary{TotalJobs: 7, SuccessCount: 2, FailureCount: 1}, b.err
}

func waitForStatus(t *testing.T, s *Service, want domain.RunStatus) *domain.ScrapeRun {
	t.Helper()
	var last *domain.ScrapeRun
	require.Eventually(t, func() bool {
		run, err := s.Status(context.Background())
		if err != nil {
			return false
		}
		last = run
		return run.Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return last
}

func TestTriggerRunsInBackground(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	s := New(runner, nil, runstate.NewLocal(), Config{}, nil)
	defer s.Shutdown()

	run, err := s.Trigger(context.Background(), "api")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusStarted, run.Status)
	assert.Equal(t, "api", run.Trigger)

	status, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, run.ID, status.ID)

	close(runner.release)
	done := waitForStatus(t, s, domain.RunStatusCompleted)
	assert.Equal(t, run.ID, done.ID)
	require.NotNil(t, done.Summary)
	assert.Equal(t, 7, done.Summary.TotalJobs)
	assert.NotNil(t, done.FinishedAt)
	assert.Equal(t, domain.RunStatusStarted, run.Status, "returned run is a snapshot")
}

func TestTriggerRejectsConcurrentRun(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	s := New(runner, nil, runstate.NewLocal(), Config{}, nil)
	defer s.Shutdown()

	_, err := s.Trigger(context.Background(), "api")
	require.NoError(t, err)

	_, err = s.Trigger(context.Background(), "api")
	assert.ErrorIs(t, err, domain.ErrRunInProgress)

	close(runner.release)
	waitForStatus(t, s, domain.RunStatusCompleted)

	_, err = s.Trigger(context.Background(), "api")
	require.NoError(t, err)
	waitForStatus(t, s, domain.RunStatusCompleted)
	assert.Equal(t, int32(2), runner.calls.Load())
}

func TestRunRecordsFailure(t *testing.T) {
	runner := &blockingRunner{err: domain.ErrStoreUnavailable}
	s := New(runner, nil, runstate.NewLocal(), Config{}, nil)

	run, err := s.Run(context.Background(), "cli")
	require.Error(t, err)
	assert.Equal(t, domain.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, "store unavailable")

	last, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, last.Status)

	// the lock was released
	runner.err = nil
	run, err = s.Run(context.Background(), "cli")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, run.Status)
}

func TestRunRecoversPanic(t *testing.T) {
	s := New(&blockingRunner{panics: true}, nil, runstate.NewLocal(), Config{}, nil)

	run, err := s.Run(context.Background(), "cli")
	require.Error(t, err)
	assert.Equal(t, domain.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, "boom")
}

func TestRunTimeout(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	s := New(runner, nil, runstate.NewLocal(), Config{Timeout: 20 * time.Millisecond}, nil)

	run, err := s.Run(context.Background(), "cli")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, domain.RunStatusFailed, run.Status)
}

func TestShutdownCancelsBackgroundRun(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	s := New(runner, nil, runstate.NewLocal(), Config{}, nil)

	_, err := s.Trigger(context.Background(), "api")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return runner.calls.Load() == 1 }, time.Second, time.Millisecond)

	s.Shutdown()

	last, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, last.Status)
	assert.Equal(t, context.Canceled.Error(), last.Error)
}
