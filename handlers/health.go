package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/elearning-api/utils/response"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	HealthCheck() error
}

// HandleCheckHealth handles GET /ping
func HandleCheckHealth(store HealthChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := store.HealthCheck(); err != nil {
			return response.ServiceUnavailable(c, "Database unavailable")
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
