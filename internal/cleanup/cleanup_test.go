package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startup-roles/backend/internal/domain"
	"github.com/startup-roles/backend/internal/store/memory"
	"github.com/startup-roles/backend/internal/validity"
)

var seenAt = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *memory.Store, company, title, link string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	role, err := s.CreateRole(ctx, domain.RoleRecord{CompanyName: company, RoleTitle: title}, seenAt)
	require.NoError(t, err)
	_, err = s.UpsertSource(ctx, domain.SourceUpsert{
		TrackerRoleID: role.ID,
		SourceRecord: domain.SourceRecord{
			Source:         "test",
			SourceRoleID:   link,
			SourceURL:      "https://board.example.com",
			ApplicationURL: link,
		},
		SeenAt:       seenAt,
		ScrapeStatus: domain.ScrapeStatusSuccess,
	})
	require.NoError(t, err)
	return role.ID
}

type countingObserver struct{ n []int }

func (c *countingObserver) ObserveDeactivated(n int) { c.n = append(c.n, n) }

func TestRunDeactivatesInvalidRoles(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	keep := seed(t, s, "Acme", "Senior Backend Engineer", "https://acme.com/jobs/123")
	blocked := seed(t, s, "Acme", "Sign up for job alerts", "https://acme.com/jobs/alerts")
	relative := seed(t, s, "Globex", "Platform Engineer II", "/jobs/9")

	obs := &countingObserver{}
	report, err := New(s, validity.Default(), obs, nil).Run(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Checked)
	assert.Equal(t, 1, report.Kept)
	assert.Equal(t, 2, report.Deactivated)
	assert.Zero(t, report.Failed)
	assert.Equal(t, []int{2}, obs.n)

	checks := map[uuid.UUID]string{}
	for _, r := range report.Rejected {
		checks[r.ID] = r.Check
	}
	assert.Equal(t, validity.CheckTitleBlocklist, checks[blocked])
	assert.Equal(t, validity.CheckLinkFormat, checks[relative])

	active, err := s.ActiveRoles(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, keep, active[0].ID)

	// deactivated roles never come back on a second pass
	report, err = New(s, nil, nil, nil).Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Zero(t, report.Deactivated)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	seed(t, s, "Acme", "Sign up for job alerts", "https://acme.com/jobs/alerts")

	obs := &countingObserver{}
	report, err := New(s, nil, obs, nil).Run(ctx, true)
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Deactivated)
	assert.Empty(t, obs.n)

	active, err := s.ActiveRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

type failingStore struct {
	*memory.Store
	listErr       error
	deactivateErr error
}

func (f *failingStore) ActiveRoles(ctx context.Context) ([]domain.ActiveRole, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Store.ActiveRoles(ctx)
}

func (f *failingStore) DeactivateRole(ctx context.Context, id uuid.UUID) error {
	if f.deactivateErr != nil {
		return f.deactivateErr
	}
	return f.Store.DeactivateRole(ctx, id)
}

func TestRunContinuesAfterDeactivateFailure(t *testing.T) {
	mem := memory.New()
	seed(t, mem, "Acme", "Sign up for job alerts", "https://acme.com/jobs/alerts")
	seed(t, mem, "Globex", "Platform Engineer II", "/jobs/9")

	s := &failingStore{Store: mem, deactivateErr: errors.New("connection reset")}
	report, err := New(s, nil, nil, nil).Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Failed)
	assert.Zero(t, report.Deactivated)
	for _, r := range report.Rejected {
		assert.Equal(t, "connection reset", r.Err)
	}
}

func TestRunListFailure(t *testing.T) {
	s := &failingStore{Store: memory.New(), listErr: domain.ErrStoreUnavailable}
	_, err := New(s, nil, nil, nil).Run(context.Background(), false)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
