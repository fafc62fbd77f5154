// Package memory is an in-process Store used by tests and `scraper run --store memory`.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/startup-roles/backend/internal/domain"
	"github.com/startup-roles/backend/internal/store"
)

var _ store.Store = (*Store)(nil)

type roleKey struct{ company, title string }

type sourceKey struct{ source, id string }

// Store keeps roles and sources in maps guarded by one mutex. Returned values are copies.
type Store struct {
	mu            sync.RWMutex
	roles         map[uuid.UUID]*domain.Role
	roleIndex     map[roleKey]uuid.UUID
	sources       map[uuid.UUID]*domain.RoleSource
	sourceIndex   map[sourceKey]uuid.UUID
	sourcesByRole map[uuid.UUID][]uuid.UUID
}

// New creates an empty store
func New() *Store {
	return &Store{
		roles:         make(map[uuid.UUID]*domain.Role),
		roleIndex:     make(map[roleKey]uuid.UUID),
		sources:       make(map[uuid.UUID]*domain.RoleSource),
		sourceIndex:   make(map[sourceKey]uuid.UUID),
		sourcesByRole: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() {}

func (s *Store) FindRoleByIdentity(_ context.Context, companyName, roleTitle string) (*domain.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.roleIndex[roleKey{companyName, roleTitle}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r := *s.roles[id]
	return &r, nil
}

func (s *Store) CreateRole(_ context.Context, rec domain.RoleRecord, seenAt time.Time) (*domain.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := roleKey{rec.CompanyName, rec.RoleTitle}
	if _, exists := s.roleIndex[key]; exists {
		return nil, domain.ErrConflict
	}
	role := &domain.Role{
		ID:          uuid.New(),
		RoleRecord:  rec,
		IsActive:    true,
		FirstSeenAt: seenAt,
		LastSeenAt:  seenAt,
		CreatedAt:   seenAt,
		UpdatedAt:   seenAt,
	}
	if role.RoleType == "" {
		role.RoleType = domain.DefaultRoleType
	}
	s.roles[role.ID] = role
	s.roleIndex[key] = role.ID

	r := *role
	return &r, nil
}

func (s *Store) TouchRoleLastSeen(_ context.Context, id uuid.UUID, seenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[id]
	if !ok {
		return domain.ErrNotFound
	}
	if seenAt.After(role.LastSeenAt) {
		role.LastSeenAt = seenAt
		role.UpdatedAt = seenAt
	}
	return nil
}

func (s *Store) FindSourceByIdentity(_ context.Context, source, sourceRoleID string) (*domain.RoleSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.sourceIndex[sourceKey{source, sourceRoleID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	src := *s.sources[id]
	return &src, nil
}

func (s *Store) UpsertSource(_ context.Context, up domain.SourceUpsert) (*domain.RoleSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sourceKey{up.Source, up.SourceRoleID}
	if id, ok := s.sourceIndex[key]; ok {
		src := s.sources[id]
		if up.SeenAt.After(src.LastSeenAt) {
			src.LastSeenAt = up.SeenAt
		}
		src.LastScrapedAt = up.SeenAt
		src.ApplicationURL = up.ApplicationURL
		src.ScrapeStatus = up.ScrapeStatus
		src.RawPayload = up.RawPayload
		out := *src
		return &out, nil
	}

	if _, ok := s.roles[up.TrackerRoleID]; !ok {
		return nil, domain.ErrNotFound
	}
	src := &domain.RoleSource{
		ID:             uuid.New(),
		TrackerRoleID:  up.TrackerRoleID,
		Source:         up.Source,
		SourceRoleID:   up.SourceRoleID,
		SourceURL:      up.SourceURL,
		ApplicationURL: up.ApplicationURL,
		LastSeenAt:     up.SeenAt,
		LastScrapedAt:  up.SeenAt,
		ScrapeStatus:   up.ScrapeStatus,
		RawPayload:     up.RawPayload,
	}
	s.sources[src.ID] = src
	s.sourceIndex[key] = src.ID
	s.sourcesByRole[up.TrackerRoleID] = append(s.sourcesByRole[up.TrackerRoleID], src.ID)

	out := *src
	return &out, nil
}

// ListRoles filters active roles, newest posting first.
func (s *Store) ListRoles(_ context.Context, filters domain.RoleFilters) ([]domain.Role, int, error) {
	filters.Normalize()
	search := strings.ToLower(strings.TrimSpace(filters.Search))

	s.mu.RLock()
	matched := make([]domain.Role, 0, len(s.roles))
	for _, r := range s.roles {
		if !r.IsActive {
			continue
		}
		if filters.WorkMode != "" && r.WorkMode != filters.WorkMode {
			continue
		}
		if filters.RoleLevel != "" && r.RoleLevel != filters.RoleLevel {
			continue
		}
		if filters.Industry != "" && r.Industry != filters.Industry {
			continue
		}
		if search != "" && !matchesSearch(r, search) {
			continue
		}
		matched = append(matched, *r)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.PostingDate.Equal(b.PostingDate) {
			return a.PostingDate.After(b.PostingDate)
		}
		if !a.LastSeenAt.Equal(b.LastSeenAt) {
			return a.LastSeenAt.After(b.LastSeenAt)
		}
		return a.ID.String() < b.ID.String()
	})

	total := len(matched)
	start := filters.Offset()
	if start >= total {
		return []domain.Role{}, total, nil
	}
	end := start + filters.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func matchesSearch(r *domain.Role, search string) bool {
	return strings.Contains(strings.ToLower(r.CompanyName), search) ||
		strings.Contains(strings.ToLower(r.RoleTitle), search) ||
		strings.Contains(strings.ToLower(r.Industry), search)
}

func (s *Store) GetRole(_ context.Context, id uuid.UUID) (*domain.RoleWithSources, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.roles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := &domain.RoleWithSources{Role: *role, Sources: make([]domain.RoleSource, 0, len(s.sourcesByRole[id]))}
	for _, sid := range s.sourcesByRole[id] {
		out.Sources = append(out.Sources, *s.sources[sid])
	}
	return out, nil
}

// ActiveRoles pairs each active role with the application link of its most recently seen source.
func (s *Store) ActiveRoles(context.Context) ([]domain.ActiveRole, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ActiveRole, 0, len(s.roles))
	for id, r := range s.roles {
		if !r.IsActive {
			continue
		}
		ar := domain.ActiveRole{ID: id, CompanyName: r.CompanyName, RoleTitle: r.RoleTitle}
		var latest time.Time
		for _, sid := range s.sourcesByRole[id] {
			src := s.sources[sid]
			if ar.ApplicationURL == "" || src.LastSeenAt.After(latest) {
				ar.ApplicationURL = src.ApplicationURL
				latest = src.LastSeenAt
			}
		}
		out = append(out, ar)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *Store) DeactivateRole(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[id]
	if !ok {
		return domain.ErrNotFound
	}
	role.IsActive = false
	role.UpdatedAt = time.Now().UTC()
	return nil
}
