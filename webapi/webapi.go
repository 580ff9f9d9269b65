// Package webapi provides the HTTP surface of the core banking services.
// It is organized into sub-packages:
// - ledger: account ledger primitives
// - account: account sync boundary
// - transfer: transfer orchestrator
package webapi

import (
	"errors"
	"strings"
	"time"

	_ "github.com/amirasaad/corebank/docs"
	"github.com/amirasaad/corebank/pkg/app"
	accountweb "github.com/amirasaad/corebank/webapi/account"
	"github.com/amirasaad/corebank/webapi/common"
	ledgerweb "github.com/amirasaad/corebank/webapi/ledger"
	transferweb "github.com/amirasaad/corebank/webapi/transfer"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		AppName: "corebank",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Request failed", err)
		},
	})
	fiberApp.Get("/swagger/*", swagger.New(swagger.Config{
		TryItOutEnabled:      true,
		PersistAuthorization: true,
	}))

	maxRequests, window := 100, time.Minute
	if a.Config != nil && a.Config.RateLimit != nil {
		maxRequests, window = a.Config.RateLimit.MaxRequests, a.Config.RateLimit.Window
	}
	// Uses X-Forwarded-For header when behind a proxy
	// Falls back to X-Real-IP or direct IP if needed
	fiberApp.Use(limiter.New(limiter.Config{
		Max:        maxRequests,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				// Take the first IP in the chain
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	}))
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	fiberApp.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	ledgerweb.Routes(fiberApp, a.Ledger, a.Config)
	accountweb.Routes(fiberApp, a.Sync, a.Config)
	transferweb.Routes(fiberApp, a.Transfers, a.Config)
	return fiberApp
}
