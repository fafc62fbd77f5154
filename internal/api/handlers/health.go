package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

const version = "1.0.0"

var errNoStore = errors.New("store not configured")

// Pinger checks a dependency
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck reports liveness along with the store status
func HealthCheck(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbStatus := "healthy"
		if err := ping(c, db); err != nil {
			dbStatus = "unavailable"
		}

		return c.JSON(fiber.Map{
			"status":    "healthy",
			"version":   version,
			"db_status": dbStatus,
		})
	}
}

// ReadinessCheck returns whether the service is ready to accept traffic
func ReadinessCheck(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := ping(c, db); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not_ready",
				"reason": "Database not reachable",
			})
		}

		return c.JSON(fiber.Map{
			"status": "ready",
		})
	}
}

// Root returns basic API info
func Root() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"name":    "Startup Roles API",
			"version": version,
			"jobs":    "/api/jobs",
			"health":  "/health",
			"ready":   "/ready",
			"metrics": "/metrics",
		})
	}
}

func ping(c *fiber.Ctx, db Pinger) error {
	if db == nil {
		return errNoStore
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	return db.Ping(ctx)
}
