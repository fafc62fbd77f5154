package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/startup-roles/backend/internal/api/handlers"
	"github.com/startup-roles/backend/internal/api/middleware"
	"github.com/startup-roles/backend/internal/config"
	"github.com/startup-roles/backend/internal/metrics"
)

// Dependencies holds all service dependencies for handlers
type Dependencies struct {
	DB      handlers.Pinger
	Catalog handlers.RoleCatalog
	Scrape  handlers.ScrapeService
	Metrics *metrics.Metrics
}

// NewApp builds the fiber app with middleware and routes installed
func NewApp(cfg *config.Config, deps *Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Startup Roles API v1",
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		DisableStartupMessage: !cfg.Server.Debug,
		ErrorHandler:          ErrorHandler,
	})

	middleware.Setup(app, cfg, deps.Metrics)
	SetupRoutes(app, deps)
	return app
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Health check routes (no prefix)
	app.Get("/health", handlers.HealthCheck(deps.DB))
	app.Get("/ready", handlers.ReadinessCheck(deps.DB))
	app.Get("/", handlers.Root())
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	api := app.Group("/api")

	// Roles
	jobs := api.Group("/jobs")
	roleHandler := handlers.NewRoleHandler(deps.Catalog)
	jobs.Get("/", roleHandler.List)
	jobs.Get("/:id", roleHandler.Get)

	// Scraping
	if deps.Scrape != nil {
		scrape := api.Group("/scrape")
		scrapeHandler := handlers.NewScrapeHandler(deps.Scrape)
		scrape.Post("/", scrapeHandler.Trigger)
		scrape.Get("/status", scrapeHandler.Status)
	}
}
