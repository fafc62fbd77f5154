package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/startup-roles/backend/internal/config"
	"github.com/startup-roles/backend/internal/metrics"
	"github.com/startup-roles/backend/pkg/logger"
)

// Setup configures all middleware for the application. m may be nil.
func Setup(app *fiber.App, cfg *config.Config, m *metrics.Metrics) {
	// Recovery middleware (panic handler)
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.Server.Debug,
	}))

	app.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return uuid.New().String()
		},
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: joinOrWildcard(cfg.CORS.AllowedOrigins),
		AllowMethods: joinOrWildcard(cfg.CORS.AllowedMethods),
		AllowHeaders: joinOrWildcard(cfg.CORS.AllowedHeaders),
		MaxAge:       cfg.CORS.MaxAge,
	}))

	// Probes and scrapes are never rate limited
	if cfg.RateLimit.Enabled {
		app.Use(limiter.New(limiter.Config{
			Next:       isProbe,
			Max:        cfg.RateLimit.RequestsPerMinute,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error":   "rate_limit_exceeded",
					"message": "Too many requests. Please try again later.",
				})
			},
		}))
	}

	app.Use(RequestLogger(logger.Named("http"), cfg.Server.Debug))
	app.Use(RequestMetrics(m))
}

// RequestLogger logs failed and slow requests, and every request in debug mode
func RequestLogger(log *zap.Logger, debug bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		fields := []zap.Field{
			zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("ip", c.IP()),
		}
		if debug {
			fields = append(fields, zap.String("user_agent", c.Get(fiber.HeaderUserAgent)))
		}

		switch {
		case status >= 500:
			log.Error("Server error", fields...)
		case status >= 400:
			log.Warn("Client error", fields...)
		case duration > 2*time.Second:
			log.Warn("Slow request", fields...)
		case debug:
			log.Debug("Request completed", fields...)
		}

		return err
	}
}

// RequestMetrics counts requests per matched route and sets X-Process-Time
func RequestMetrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)
		c.Set("X-Process-Time", duration.String())

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		// unmatched paths end on the middleware's own "/" route
		route := c.Route().Path
		if route == "/" && c.Path() != "/" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Method(), route, status, duration)
		return err
	}
}

func isProbe(c *fiber.Ctx) bool {
	switch c.Path() {
	case "/health", "/ready", "/metrics":
		return true
	}
	return false
}

func joinOrWildcard(values []string) string {
	if len(values) == 0 {
		return "*"
	}
	return strings.Join(values, ",")
}
