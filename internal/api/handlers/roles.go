package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/startup-roles/backend/internal/domain"
)

// RoleCatalog is the read side of the role store
type RoleCatalog interface {
	ListRoles(ctx context.Context, filters domain.RoleFilters) ([]domain.Role, int, error)
	GetRole(ctx context.Context, id uuid.UUID) (*domain.RoleWithSources, error)
}

// RoleHandler serves the public role listing
type RoleHandler struct {
	catalog RoleCatalog
}

// NewRoleHandler creates a new role handler
func NewRoleHandler(catalog RoleCatalog) *RoleHandler {
	return &RoleHandler{catalog: catalog}
}

// List handles GET /api/jobs
func (h *RoleHandler) List(c *fiber.Ctx) error {
	filters := domain.RoleFilters{
		Industry: filterValue(c.Query("industry")),
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", domain.DefaultPageLimit),
	}

	if v := filterValue(c.Query("work_mode")); v != "" {
		mode, ok := parseWorkMode(v)
		if !ok {
			return invalidFilter(c, "work_mode", v)
		}
		filters.WorkMode = mode
	}
	if v := filterValue(c.Query("role_level")); v != "" {
		level, ok := parseRoleLevel(v)
		if !ok {
			return invalidFilter(c, "role_level", v)
		}
		filters.RoleLevel = level
	}
	filters.Normalize()

	roles, total, err := h.catalog.ListRoles(c.UserContext(), filters)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "list_failed",
			"message": "Failed to fetch jobs",
		})
	}
	if roles == nil {
		roles = []domain.Role{}
	}

	return c.JSON(domain.RoleListResponse{
		Jobs:       roles,
		Pagination: domain.NewPagination(filters.Page, filters.Limit, total),
	})
}

// Get handles GET /api/jobs/:id
func (h *RoleHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_request",
			"message": "Invalid job ID",
		})
	}

	role, err := h.catalog.GetRole(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "not_found",
			"message": "Job not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "get_failed",
			"message": "Failed to fetch job",
		})
	}

	return c.JSON(role)
}

// filterValue treats "all" as no filter
func filterValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "all") {
		return ""
	}
	return v
}

func parseWorkMode(v string) (domain.WorkMode, bool) {
	for _, m := range []domain.WorkMode{domain.WorkModeRemote, domain.WorkModeHybrid, domain.WorkModeOnsite} {
		if strings.EqualFold(v, string(m)) {
			return m, true
		}
	}
	return "", false
}

func parseRoleLevel(v string) (domain.RoleLevel, bool) {
	for _, l := range []domain.RoleLevel{domain.RoleLevelEntry, domain.RoleLevelMid, domain.RoleLevelSenior} {
		if strings.EqualFold(v, string(l)) {
			return l, true
		}
	}
	return "", false
}

func invalidFilter(c *fiber.Ctx, name, value string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "invalid_request",
		"message": "Unknown " + name + " \"" + value + "\"",
	})
}
