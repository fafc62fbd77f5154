// Package postgres persists roles and their sources with pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/startup-roles/backend/internal/domain"
	"github.com/startup-roles/backend/internal/store"
)

var _ store.Store = (*Store)(nil)

// NewPool creates and verifies a pgxpool connection pool.
func NewPool(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return pool, nil
}

// Store implements store.Store on tracker_roles / tracker_role_sources.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an open pool
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

const roleColumns = `id, company_name, COALESCE(company_domain, ''), COALESCE(industry, ''),
	COALESCE(funding_stage, ''), role_title, role_level, role_type, work_mode, COALESCE(location, ''),
	COALESCE(compensation_text, ''), salary_min, salary_max, COALESCE(salary_currency, ''), offers_equity,
	COALESCE(company_description, ''), COALESCE(role_description, ''), posting_date, closing_date,
	is_active, first_seen_at, last_seen_at, created_at, updated_at`

const sourceColumns = `id, tracker_role_id, source, source_role_id, source_url, application_url,
	last_seen_at, last_scraped_at, scrape_status, raw_payload`

func scanRole(row pgx.Row) (*domain.Role, error) {
	var r domain.Role
	err := row.Scan(
		&r.ID, &r.CompanyName, &r.CompanyDomain, &r.Industry,
		&r.FundingStage, &r.RoleTitle, &r.RoleLevel, &r.RoleType, &r.WorkMode, &r.Location,
		&r.CompensationText, &r.SalaryMin, &r.SalaryMax, &r.SalaryCurrency, &r.OffersEquity,
		&r.CompanyDescription, &r.RoleDescription, &r.PostingDate, &r.ClosingDate,
		&r.IsActive, &r.FirstSeenAt, &r.LastSeenAt, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanSource(row pgx.Row) (*domain.RoleSource, error) {
	var src domain.RoleSource
	var raw []byte
	if err := row.Scan(
		&src.ID, &src.TrackerRoleID, &src.Source, &src.SourceRoleID, &src.SourceURL, &src.ApplicationURL,
		&src.LastSeenAt, &src.LastScrapedAt, &src.ScrapeStatus, &raw,
	); err != nil {
		return nil, err
	}
	src.RawPayload = raw
	return &src, nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *Store) FindRoleByIdentity(ctx context.Context, companyName, roleTitle string) (*domain.Role, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM tracker_roles WHERE company_name = $1 AND role_title = $2`,
		companyName, roleTitle)
	r, err := scanRole(row)
	if err != nil {
		return nil, notFound(err)
	}
	return r, nil
}

// CreateRole inserts a role; a lost race on the identity constraint yields domain.ErrConflict.
func (s *Store) CreateRole(ctx context.Context, rec domain.RoleRecord, seenAt time.Time) (*domain.Role, error) {
	roleType := rec.RoleType
	if roleType == "" {
		roleType = domain.DefaultRoleType
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO tracker_roles (
			id, company_name, company_domain, industry, funding_stage, role_title, role_level,
			role_type, work_mode, location, compensation_text, salary_min, salary_max,
			salary_currency, offers_equity, company_description, role_description,
			posting_date, closing_date, is_active, first_seen_at, last_seen_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19,
			TRUE, $20, $20, $20, $20
		)
		ON CONFLICT (company_name, role_title) DO NOTHING
		RETURNING `+roleColumns,
		uuid.New(), rec.CompanyName, nullable(rec.CompanyDomain), nullable(rec.Industry),
		nullable(rec.FundingStage), rec.RoleTitle, rec.RoleLevel, roleType, rec.WorkMode,
		nullable(rec.Location), nullable(rec.CompensationText), rec.SalaryMin, rec.SalaryMax,
		nullable(rec.SalaryCurrency), rec.OffersEquity, nullable(rec.CompanyDescription),
		nullable(rec.RoleDescription), rec.PostingDate, rec.ClosingDate, seenAt,
	)
	r, err := scanRole(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("insert role: %w", err)
	}
	return r, nil
}

func (s *Store) TouchRoleLastSeen(ctx context.Context, id uuid.UUID, seenAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tracker_roles
		SET last_seen_at = GREATEST(last_seen_at, $2), updated_at = NOW()
		WHERE id = $1`, id, seenAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) FindSourceByIdentity(ctx context.Context, source, sourceRoleID string) (*domain.RoleSource, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+sourceColumns+` FROM tracker_role_sources WHERE source = $1 AND source_role_id = $2`,
		source, sourceRoleID)
	src, err := scanSource(row)
	if err != nil {
		return nil, notFound(err)
	}
	return src, nil
}

// UpsertSource keeps tracker_role_id and source_url from the first sighting.
func (s *Store) UpsertSource(ctx context.Context, up domain.SourceUpsert) (*domain.RoleSource, error) {
	var raw []byte
	if len(up.RawPayload) > 0 {
		raw = up.RawPayload
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO tracker_role_sources (
			id, tracker_role_id, source, source_role_id, source_url, application_url,
			last_seen_at, last_scraped_at, scrape_status, raw_payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8, $9)
		ON CONFLICT (source, source_role_id) DO UPDATE SET
			last_seen_at    = GREATEST(tracker_role_sources.last_seen_at, EXCLUDED.last_seen_at),
			last_scraped_at = EXCLUDED.last_scraped_at,
			application_url = EXCLUDED.application_url,
			scrape_status   = EXCLUDED.scrape_status,
			raw_payload     = EXCLUDED.raw_payload
		RETURNING `+sourceColumns,
		uuid.New(), up.TrackerRoleID, up.Source, up.SourceRoleID, up.SourceURL, up.ApplicationURL,
		up.SeenAt, up.ScrapeStatus, raw,
	)
	src, err := scanSource(row)
	if err != nil {
		return nil, fmt.Errorf("upsert source: %w", err)
	}
	return src, nil
}

// listWhere builds the shared WHERE clause of the catalog queries.
func listWhere(f domain.RoleFilters) (string, []any) {
	clauses := []string{"is_active = TRUE"}
	var args []any
	add := func(clause string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if f.WorkMode != "" {
		add("work_mode = $%d", f.WorkMode)
	}
	if f.RoleLevel != "" {
		add("role_level = $%d", f.RoleLevel)
	}
	if f.Industry != "" {
		add("industry = $%d", f.Industry)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(company_name ILIKE $%d OR role_title ILIKE $%d OR COALESCE(industry, '') ILIKE $%d)", n, n, n))
	}
	return strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *Store) ListRoles(ctx context.Context, filters domain.RoleFilters) ([]domain.Role, int, error) {
	filters.Normalize()
	where, args := listWhere(filters)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tracker_roles WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count roles: %w", err)
	}

	args = append(args, filters.Limit, filters.Offset())
	query := fmt.Sprintf(`SELECT %s FROM tracker_roles WHERE %s
		ORDER BY posting_date DESC, last_seen_at DESC, id
		LIMIT $%d OFFSET $%d`, roleColumns, where, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	roles := make([]domain.Role, 0, filters.Limit)
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, *r)
	}
	return roles, total, rows.Err()
}

func (s *Store) GetRole(ctx context.Context, id uuid.UUID) (*domain.RoleWithSources, error) {
	r, err := scanRole(s.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM tracker_roles WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+sourceColumns+` FROM tracker_role_sources WHERE tracker_role_id = $1 ORDER BY last_seen_at DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	out := &domain.RoleWithSources{Role: *r, Sources: []domain.RoleSource{}}
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		out.Sources = append(out.Sources, *src)
	}
	return out, rows.Err()
}

// ActiveRoles pairs each active role with the application link of its most recently seen source.
func (s *Store) ActiveRoles(ctx context.Context) ([]domain.ActiveRole, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.company_name, r.role_title, COALESCE(src.application_url, '')
		FROM tracker_roles r
		LEFT JOIN LATERAL (
			SELECT application_url FROM tracker_role_sources
			WHERE tracker_role_id = r.id
			ORDER BY last_seen_at DESC
			LIMIT 1
		) src ON TRUE
		WHERE r.is_active = TRUE
		ORDER BY r.id`)
	if err != nil {
		return nil, fmt.Errorf("list active roles: %w", err)
	}
	defer rows.Close()

	var out []domain.ActiveRole
	for rows.Next() {
		var ar domain.ActiveRole
		if err := rows.Scan(&ar.ID, &ar.CompanyName, &ar.RoleTitle, &ar.ApplicationURL); err != nil {
			return nil, fmt.Errorf("scan active role: %w", err)
		}
		out = append(out, ar)
	}
	return out, rows.Err()
}

func (s *Store) DeactivateRole(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tracker_roles SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
