package reconcile_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/startup-roles/backend/internal/domain"
	"github.com/startup-roles/backend/internal/reconcile"
	"github.com/startup-roles/backend/internal/store/memory"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
}

func record(company, title, source, id string) domain.Extracted {
	return domain.Extracted{
		Role: domain.RoleRecord{
			CompanyName: company,
			RoleTitle:   title,
			RoleLevel:   domain.RoleLevelMid,
			RoleType:    domain.DefaultRoleType,
			WorkMode:    domain.WorkModeRemote,
			Location:    "Remote",
		},
		Source: domain.SourceRecord{
			Source:         source,
			SourceRoleID:   id,
			SourceURL:      "https://" + source + ".example/jobs",
			ApplicationURL: "https://" + source + ".example/jobs/" + id,
		},
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	clk := newClock()
	r := reconcile.New(st, zap.NewNop()).WithClock(clk.Now)

	rec := record("Acme", "Backend Engineer", "ycombinator", "1")

	first, err := r.Upsert(ctx, rec)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.True(t, first.SourceCreated)

	clk.Advance(time.Hour)
	second, err := r.Upsert(ctx, rec)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.False(t, second.SourceCreated)
	assert.Equal(t, first.RoleID, second.RoleID)

	got, err := st.GetRole(ctx, first.RoleID)
	require.NoError(t, err)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, clk.Now(), got.LastSeenAt)
	assert.Equal(t, clk.Now().Add(-time.Hour), got.FirstSeenAt)
	assert.Equal(t, clk.Now(), got.Sources[0].LastSeenAt)
	assert.Equal(t, clk.Now(), got.Sources[0].LastScrapedAt)
	assert.Equal(t, domain.ScrapeStatusSuccess, got.Sources[0].ScrapeStatus)

	_, total, err := st.ListRoles(ctx, domain.RoleFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestUpsertIdentity(t *testing.T) {
	ctx := context.Background()
	r := reconcile.New(memory.New(), nil)

	a, err := r.Upsert(ctx, record("Acme", "Backend Engineer", "ycombinator", "1"))
	require.NoError(t, err)
	b, err := r.Upsert(ctx, record("Acme", "Backend Engineer", "ycombinator", "2"))
	require.NoError(t, err)
	c, err := r.Upsert(ctx, record("Acme", "Frontend Engineer", "ycombinator", "3"))
	require.NoError(t, err)
	d, err := r.Upsert(ctx, record("acme", "Backend Engineer", "ycombinator", "4"))
	require.NoError(t, err)

	assert.Equal(t, a.RoleID, b.RoleID, "same identity merges even under a new link")
	assert.True(t, b.SourceCreated)
	assert.NotEqual(t, a.RoleID, c.RoleID)
	assert.NotEqual(t, a.RoleID, d.RoleID, "identity matching is case-sensitive")
}

func TestUpsertAccumulatesSources(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	r := reconcile.New(st, nil)

	yc, err := r.Upsert(ctx, record("Acme", "Backend Engineer", "YC", "yc-1"))
	require.NoError(t, err)
	a16z, err := r.Upsert(ctx, record("Acme", "Backend Engineer", "a16z", "a-9"))
	require.NoError(t, err)

	assert.Equal(t, yc.RoleID, a16z.RoleID)
	assert.False(t, a16z.Created)
	assert.True(t, a16z.SourceCreated)

	got, err := st.GetRole(ctx, yc.RoleID)
	require.NoError(t, err)
	require.Len(t, got.Sources, 2)
	assert.Equal(t, "YC", got.Sources[0].Source)
	assert.Equal(t, "a16z", got.Sources[1].Source)
}

func TestUpsertFirstWriteWinsForContent(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	r := reconcile.New(st, nil)

	rich := record("Acme", "Backend Engineer", "a16z", "1")
	rich.Role.CompensationText = "USD 150,000 - 180,000"
	rich.Role.Industry = "Fintech"
	out, err := r.Upsert(ctx, rich)
	require.NoError(t, err)

	poor := record("Acme", "Backend Engineer", "board", "x")
	poor.Role.CompensationText = "Not specified"
	_, err = r.Upsert(ctx, poor)
	require.NoError(t, err)

	got, err := st.GetRole(ctx, out.RoleID)
	require.NoError(t, err)
	assert.Equal(t, "USD 150,000 - 180,000", got.CompensationText)
	assert.Equal(t, "Fintech", got.Industry)
}

func TestUpsertRefreshesSourceSighting(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	clk := newClock()
	r := reconcile.New(st, nil).WithClock(clk.Now)

	rec := record("Acme", "Backend Engineer", "wellfound", "77")
	_, err := r.Upsert(ctx, rec)
	require.NoError(t, err)

	clk.Advance(24 * time.Hour)
	rec.Source.ApplicationURL = "https://wellfound.example/jobs/77?v=2"
	rec.Source.RawPayload = []byte(`{"v":2}`)
	_, err = r.Upsert(ctx, rec)
	require.NoError(t, err)

	src, err := st.FindSourceByIdentity(ctx, "wellfound", "77")
	require.NoError(t, err)
	assert.Equal(t, "https://wellfound.example/jobs/77?v=2", src.ApplicationURL)
	assert.JSONEq(t, `{"v":2}`, string(src.RawPayload))
	assert.Equal(t, clk.Now(), src.LastSeenAt)
}

func TestRoleLastSeenNeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	clk := newClock()
	r := reconcile.New(st, nil).WithClock(clk.Now)

	out, err := r.Upsert(ctx, record("Acme", "Backend Engineer", "yc", "1"))
	require.NoError(t, err)
	latest := clk.Now()

	clk.Advance(-time.Hour)
	_, err = r.Upsert(ctx, record("Acme", "Backend Engineer", "yc", "1"))
	require.NoError(t, err)

	got, err := st.GetRole(ctx, out.RoleID)
	require.NoError(t, err)
	assert.Equal(t, latest, got.LastSeenAt)
	for _, s := range got.Sources {
		assert.False(t, s.LastSeenAt.After(got.LastSeenAt))
	}
}

func TestUpsertRejectsIncompleteRecords(t *testing.T) {
	r := reconcile.New(memory.New(), nil)
	for _, rec := range []domain.Extracted{
		record("  ", "Backend Engineer", "yc", "1"),
		record("Acme", "", "yc", "1"),
		record("Acme", "Backend Engineer", "", "1"),
		record("Acme", "Backend Engineer", "yc", ""),
	} {
		_, err := r.Upsert(context.Background(), rec)
		assert.ErrorIs(t, err, reconcile.ErrIncompleteRecord)
	}
}

// racingStore hides the first role from lookups, so CreateRole conflicts as if
// another writer inserted it in between.
type racingStore struct {
	*memory.Store
	hidden bool
}

func (s *racingStore) FindRoleByIdentity(ctx context.Context, company, title string) (*domain.Role, error) {
	if s.hidden {
		s.hidden = false
		return nil, domain.ErrNotFound
	}
	return s.Store.FindRoleByIdentity(ctx, company, title)
}

func TestUpsertRecoversFromCreateConflict(t *testing.T) {
	ctx := context.Background()
	st := &racingStore{Store: memory.New()}
	r := reconcile.New(st, nil)

	winner, err := r.Upsert(ctx, record("Acme", "Backend Engineer", "yc", "1"))
	require.NoError(t, err)

	st.hidden = true
	loser, err := r.Upsert(ctx, record("Acme", "Backend Engineer", "a16z", "2"))
	require.NoError(t, err)
	assert.False(t, loser.Created)
	assert.True(t, loser.SourceCreated)
	assert.Equal(t, winner.RoleID, loser.RoleID)
}

func TestConcurrentUpsertsCreateOneRole(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	r := reconcile.New(st, nil)

	const writers = 32
	ids := make([]uuid.UUID, writers)
	var created int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := r.Upsert(ctx, record("Acme", "Backend Engineer", "yc", "same"))
			assert.NoError(t, err)
			ids[i] = out.RoleID
			if out.Created {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, created)
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	got, err := st.GetRole(ctx, ids[0])
	require.NoError(t, err)
	assert.Len(t, got.Sources, 1)
}

type failingStore struct {
	*memory.Store
	err error
}

func (s *failingStore) UpsertSource(context.Context, domain.SourceUpsert) (*domain.RoleSource, error) {
	return nil, s.err
}

func TestUpsertWrapsStoreErrors(t *testing.T) {
	boom := errors.New("connection refused")
	r := reconcile.New(&failingStore{Store: memory.New(), err: boom}, nil)

	_, err := r.Upsert(context.Background(), record("Acme", "Backend Engineer", "yc", "1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "upsert source")
}

func TestRetitledPostingStaysWithOwningRole(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	clk := newClock()
	r := reconcile.New(st, nil).WithClock(clk.Now)

	first, err := r.Upsert(ctx, record("Acme", "Backend Engineer", "yc", "123"))
	require.NoError(t, err)

	clk.Advance(24 * time.Hour)
	second, err := r.Upsert(ctx, record("Acme", "Senior Backend Engineer", "yc", "123"))
	require.NoError(t, err)
	assert.Equal(t, first.RoleID, second.RoleID)
	assert.False(t, second.Created)
	assert.False(t, second.SourceCreated)

	_, err = st.FindRoleByIdentity(ctx, "Acme", "Senior Backend Engineer")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := st.GetRole(ctx, first.RoleID)
	require.NoError(t, err)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, clk.Now(), got.LastSeenAt)
	assert.False(t, got.Sources[0].LastSeenAt.After(got.LastSeenAt))

	roles, total, err := st.ListRoles(ctx, domain.RoleFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	for _, role := range roles {
		withSources, err := st.GetRole(ctx, role.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, withSources.Sources, "role %s has no sources", role.RoleTitle)
	}
}

// lateSourceStore hides a source from one lookup, as if another writer bound it
// to a different role between the lookup and the upsert.
type lateSourceStore struct {
	*memory.Store
	hidden bool
}

func (s *lateSourceStore) FindSourceByIdentity(ctx context.Context, source, id string) (*domain.RoleSource, error) {
	if s.hidden {
		s.hidden = false
		return nil, domain.ErrNotFound
	}
	return s.Store.FindSourceByIdentity(ctx, source, id)
}

func TestUpsertFollowsSourceBoundByConcurrentWriter(t *testing.T) {
	ctx := context.Background()
	st := &lateSourceStore{Store: memory.New()}
	clk := newClock()
	r := reconcile.New(st, nil).WithClock(clk.Now)

	owner, err := r.Upsert(ctx, record("Acme", "Backend Engineer", "yc", "123"))
	require.NoError(t, err)

	clk.Advance(time.Hour)
	st.hidden = true
	out, err := r.Upsert(ctx, record("Acme", "Staff Backend Engineer", "yc", "123"))
	require.NoError(t, err)
	assert.Equal(t, owner.RoleID, out.RoleID)
	assert.False(t, out.SourceCreated)

	got, err := st.GetRole(ctx, owner.RoleID)
	require.NoError(t, err)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, clk.Now(), got.LastSeenAt)
	assert.Equal(t, got.LastSeenAt, got.Sources[0].LastSeenAt)
}
