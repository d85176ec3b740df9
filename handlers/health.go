package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/classbridge-api/database"
	"github.com/sahilchouksey/classbridge-api/utils/response"
)

// HandleCheckHealth reports liveness and database reachability
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	if err := store.HealthCheck(); err != nil {
		return response.ServiceUnavailable(c, "Database unreachable")
	}

	return response.Success(c, fiber.Map{"status": "ok"})
}
