package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/startup-roles/backend/internal/domain"
	"github.com/startup-roles/backend/internal/reconcile"
)

func TestMigrationURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/roles?sslmode=disable", MigrationURL("postgres://u:p@db:5432/roles?sslmode=disable"))
	assert.Equal(t, "pgx5://u@db/roles", MigrationURL("postgresql://u@db/roles"))
	assert.Equal(t, "pgx5://already", MigrationURL("pgx5://already"))
}

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrationFiles, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.EqualValues(t, 1, first)

	up, _, err := src.ReadUp(first)
	require.NoError(t, err)
	up.Close()
	down, _, err := src.ReadDown(first)
	require.NoError(t, err)
	down.Close()
}

func TestListWhere(t *testing.T) {
	where, args := listWhere(domain.RoleFilters{})
	assert.Equal(t, "is_active = TRUE", where)
	assert.Empty(t, args)

	where, args = listWhere(domain.RoleFilters{
		WorkMode:  domain.WorkModeRemote,
		RoleLevel: domain.RoleLevelSenior,
		Industry:  "Fintech",
		Search:    " 50%_off ",
	})
	assert.Equal(t, "is_active = TRUE AND work_mode = $1 AND role_level = $2 AND industry = $3 AND "+
		"(company_name ILIKE $4 OR role_title ILIKE $4 OR COALESCE(industry, '') ILIKE $4)", where)
	assert.Equal(t, []any{domain.WorkModeRemote, domain.RoleLevelSenior, "Fintech", `%50\%\_off%`}, args)
}

// TestStoreAgainstDatabase runs when TEST_DATABASE_URL points at a disposable database.
func TestStoreAgainstDatabase(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	log := zap.NewNop()

	require.NoError(t, Migrate(url, log))

	pool, err := NewPool(ctx, url, 4)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE tracker_roles CASCADE`)
	require.NoError(t, err)
	st := New(pool)
	defer st.Close()

	now := time.Now().UTC().Truncate(time.Microsecond)
	r := reconcile.New(st, log).WithClock(func() time.Time { return now })

	rec := domain.Extracted{
		Role: domain.RoleRecord{
			CompanyName: "Acme", RoleTitle: "Backend Engineer",
			RoleLevel: domain.RoleLevelMid, WorkMode: domain.WorkModeRemote, PostingDate: now,
		},
		Source: domain.SourceRecord{Source: "yc", SourceRoleID: "1", SourceURL: "https://yc.test", ApplicationURL: "https://acme.test/jobs/1"},
	}
	first, err := r.Upsert(ctx, rec)
	require.NoError(t, err)
	assert.True(t, first.Created)

	_, err = st.CreateRole(ctx, rec.Role, now)
	assert.ErrorIs(t, err, domain.ErrConflict)

	rec.Source = domain.SourceRecord{Source: "a16z", SourceRoleID: "9", SourceURL: "https://a16z.test", ApplicationURL: "https://acme.test/jobs/9"}
	second, err := r.Upsert(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, first.RoleID, second.RoleID)
	assert.True(t, second.SourceCreated)

	got, err := st.GetRole(ctx, first.RoleID)
	require.NoError(t, err)
	assert.Len(t, got.Sources, 2)
	assert.Equal(t, domain.DefaultRoleType, got.RoleType)

	roles, total, err := st.ListRoles(ctx, domain.RoleFilters{Search: "acme"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, roles, 1)

	active, err := st.ActiveRoles(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.NoError(t, st.DeactivateRole(ctx, active[0].ID))

	_, total, err = st.ListRoles(ctx, domain.RoleFilters{})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = st.FindSourceByIdentity(ctx, "nope", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
