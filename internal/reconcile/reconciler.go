// Package reconcile merges extracted records into the Role / RoleSource identity model.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/startup-roles/backend/internal/domain"
)

// Store is the persistence surface the reconciler needs. Implementations must
// enforce uniqueness on both identity keys.
type Store interface {
	// FindRoleByIdentity returns domain.ErrNotFound when no role matches
	FindRoleByIdentity(ctx context.Context, companyName, roleTitle string) (*domain.Role, error)

	// CreateRole returns domain.ErrConflict when the identity already exists
	CreateRole(ctx context.Context, rec domain.RoleRecord, seenAt time.Time) (*domain.Role, error)

	// TouchRoleLastSeen never moves last_seen_at backwards
	TouchRoleLastSeen(ctx context.Context, id uuid.UUID, seenAt time.Time) error

	// FindSourceByIdentity returns domain.ErrNotFound when no source matches
	FindSourceByIdentity(ctx context.Context, source, sourceRoleID string) (*domain.RoleSource, error)

	// UpsertSource creates the source or refreshes its sighting fields
	UpsertSource(ctx context.Context, up domain.SourceUpsert) (*domain.RoleSource, error)

	Ping(ctx context.Context) error
}

// ErrIncompleteRecord rejects records missing an identity field
var ErrIncompleteRecord = errors.New("record is missing an identity field")

// Outcome reports what an Upsert did
type Outcome struct {
	RoleID        uuid.UUID
	Created       bool
	SourceCreated bool
}

// Reconciler applies extracted records to a Store.
type Reconciler struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// New creates a reconciler
func New(store Store, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{store: store, logger: logger, now: time.Now}
}

// WithClock replaces the time source
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// Upsert finds or creates the Role for rec, then creates or refreshes its RoleSource.
// Role content is first-write-wins; later sightings only move last_seen_at.
// A known source stays with the role that owns it, so a retitled posting
// refreshes that role instead of opening a new one.
func (r *Reconciler) Upsert(ctx context.Context, rec domain.Extracted) (Outcome, error) {
	if strings.TrimSpace(rec.Role.CompanyName) == "" || strings.TrimSpace(rec.Role.RoleTitle) == "" ||
		rec.Source.Source == "" || rec.Source.SourceRoleID == "" {
		return Outcome{}, ErrIncompleteRecord
	}

	// One timestamp for the role touch and the source upsert keeps role.last_seen_at >= source.last_seen_at.
	now := r.now().UTC()

	var out Outcome
	existing, err := r.store.FindSourceByIdentity(ctx, rec.Source.Source, rec.Source.SourceRoleID)
	switch {
	case err == nil:
		out.RoleID = existing.TrackerRoleID
		if err := r.store.TouchRoleLastSeen(ctx, existing.TrackerRoleID, now); err != nil {
			return out, fmt.Errorf("touch owning role: %w", err)
		}
	case errors.Is(err, domain.ErrNotFound):
		role, created, err := r.findOrCreateRole(ctx, rec.Role, now)
		if err != nil {
			return Outcome{}, err
		}
		out = Outcome{RoleID: role.ID, Created: created, SourceCreated: true}
	default:
		return Outcome{}, fmt.Errorf("find source: %w", err)
	}

	src, err := r.store.UpsertSource(ctx, domain.SourceUpsert{
		TrackerRoleID: out.RoleID,
		SourceRecord:  rec.Source,
		SeenAt:        now,
		ScrapeStatus:  domain.ScrapeStatusSuccess,
	})
	if err != nil {
		return out, fmt.Errorf("upsert source: %w", err)
	}

	// A concurrent writer inserted the source first and bound it to another role.
	if src.TrackerRoleID != out.RoleID {
		r.logger.Debug("Source owned by another role, following owner",
			zap.String("source", rec.Source.Source),
			zap.String("source_role_id", rec.Source.SourceRoleID),
		)
		out.RoleID = src.TrackerRoleID
		out.SourceCreated = false
		if err := r.store.TouchRoleLastSeen(ctx, src.TrackerRoleID, now); err != nil {
			return out, fmt.Errorf("touch owning role: %w", err)
		}
	}
	return out, nil
}

func (r *Reconciler) findOrCreateRole(ctx context.Context, rec domain.RoleRecord, now time.Time) (*domain.Role, bool, error) {
	role, err := r.store.FindRoleByIdentity(ctx, rec.CompanyName, rec.RoleTitle)
	if err == nil {
		return role, false, r.touch(ctx, role, now)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, fmt.Errorf("find role: %w", err)
	}

	role, err = r.store.CreateRole(ctx, rec, now)
	if err == nil {
		return role, true, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return nil, false, fmt.Errorf("create role: %w", err)
	}

	// Another writer created the identity between our lookup and insert.
	r.logger.Debug("Role create lost a race, using winner",
		zap.String("company", rec.CompanyName),
		zap.String("title", rec.RoleTitle),
	)
	role, err = r.store.FindRoleByIdentity(ctx, rec.CompanyName, rec.RoleTitle)
	if err != nil {
		return nil, false, fmt.Errorf("refetch role after conflict: %w", err)
	}
	return role, false, r.touch(ctx, role, now)
}

func (r *Reconciler) touch(ctx context.Context, role *domain.Role, now time.Time) error {
	if err := r.store.TouchRoleLastSeen(ctx, role.ID, now); err != nil {
		return fmt.Errorf("touch role: %w", err)
	}
	return nil
}
