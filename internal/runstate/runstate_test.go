package runstate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startup-roles/backend/internal/domain"
)

func newRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, "test"), mr
}

func sampleRun() *domain.ScrapeRun {
	finished := time.Date(2026, 3, 10, 12, 5, 0, 0, time.UTC)
	return &domain.ScrapeRun{
		ID:         uuid.New(),
		Status:     domain.RunStatusCompleted,
		Trigger:    "api",
		StartedAt:  time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		FinishedAt: &finished,
		Summary:    &domain.RunSummary{TotalJobs: 12, SuccessCount: 3, FailureCount: 1},
	}
}

func TestRedisLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedis(t)

	require.NoError(t, r.Acquire(ctx, "first", time.Minute))
	assert.ErrorIs(t, r.Acquire(ctx, "second", time.Minute), domain.ErrRunInProgress)
	assert.Equal(t, "first", mustGet(t, mr, "test:lock"))

	assert.ErrorIs(t, r.Release(ctx, "second"), ErrLockNotHeld)
	require.NoError(t, r.Release(ctx, "first"))
	require.NoError(t, r.Acquire(ctx, "second", time.Minute))
}

func TestRedisLockExpires(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedis(t)

	require.NoError(t, r.Acquire(ctx, "crashed", time.Minute))
	mr.FastForward(2 * time.Minute)

	require.NoError(t, r.Acquire(ctx, "next", time.Minute))
	assert.ErrorIs(t, r.Release(ctx, "crashed"), ErrLockNotHeld)
}

func TestRedisLastRun(t *testing.T) {
	ctx := context.Background()
	r, _ := newRedis(t)

	_, err := r.LastRun(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	run := sampleRun()
	require.NoError(t, r.SaveRun(ctx, run))

	got, err := r.LastRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, domain.RunStatusCompleted, got.Status)
	require.NotNil(t, got.Summary)
	assert.Equal(t, 12, got.Summary.TotalJobs)
	assert.True(t, run.FinishedAt.Equal(*got.FinishedAt))
}

func TestRedisUnavailable(t *testing.T) {
	r, mr := newRedis(t)
	mr.Close()

	err := r.Acquire(context.Background(), "x", time.Minute)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrRunInProgress)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = client.Close()

	_, err = NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestLocalLock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l := NewLocal()
	l.now = func() time.Time { return now }

	require.NoError(t, l.Acquire(ctx, "first", time.Minute))
	assert.ErrorIs(t, l.Acquire(ctx, "second", time.Minute), domain.ErrRunInProgress)
	assert.ErrorIs(t, l.Release(ctx, "second"), ErrLockNotHeld)
	require.NoError(t, l.Release(ctx, "first"))

	require.NoError(t, l.Acquire(ctx, "second", time.Minute))
	now = now.Add(2 * time.Minute)
	require.NoError(t, l.Acquire(ctx, "third", time.Minute))
}

func TestLocalLastRunIsACopy(t *testing.T) {
	ctx := context.Background()
	l := NewLocal()

	_, err := l.LastRun(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	run := sampleRun()
	require.NoError(t, l.SaveRun(ctx, run))
	run.Status = domain.RunStatusFailed

	got, err := l.LastRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, got.Status)
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
