package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/startup-roles/backend/internal/domain"
)

// ScrapeService starts runs and reports on them
type ScrapeService interface {
	Trigger(ctx context.Context, trigger string) (*domain.ScrapeRun, error)
	Status(ctx context.Context) (*domain.ScrapeRun, error)
}

// ScrapeHandler exposes the scrape trigger
type ScrapeHandler struct {
	service ScrapeService
}

// NewScrapeHandler creates a new scrape handler
func NewScrapeHandler(service ScrapeService) *ScrapeHandler {
	return &ScrapeHandler{service: service}
}

// Trigger handles POST /api/scrape
func (h *ScrapeHandler) Trigger(c *fiber.Ctx) error {
	run, err := h.service.Trigger(c.UserContext(), "api")
	if errors.Is(err, domain.ErrRunInProgress) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "run_in_progress",
			"message": "A scrape run is already in progress",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "scrape_failed",
			"message": "Failed to start scraping",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Scraping started in background",
		"status":  run.Status,
		"run_id":  run.ID,
	})
}

// Status handles GET /api/scrape/status
func (h *ScrapeHandler) Status(c *fiber.Ctx) error {
	run, err := h.service.Status(c.UserContext())
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "not_found",
			"message": "No scrape run has been recorded",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "status_failed",
			"message": "Failed to read scrape status",
		})
	}
	return c.JSON(run)
}
