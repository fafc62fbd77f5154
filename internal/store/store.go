// Package store defines the read side of role persistence shared by the API and the CLI.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/startup-roles/backend/internal/domain"
	"github.com/startup-roles/backend/internal/reconcile"
)

// Catalog serves the public role listing. Only active roles are listed.
type Catalog interface {
	ListRoles(ctx context.Context, filters domain.RoleFilters) ([]domain.Role, int, error)
	GetRole(ctx context.Context, id uuid.UUID) (*domain.RoleWithSources, error)
}

// Store is everything a backend provides: reconciliation writes, catalog reads
// and the cleanup operations.
type Store interface {
	reconcile.Store
	Catalog
	ActiveRoles(ctx context.Context) ([]domain.ActiveRole, error)
	DeactivateRole(ctx context.Context, id uuid.UUID) error
	Close()
}
