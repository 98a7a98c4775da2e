package handlers

import (
	"github.com/ad-match/site/recommend"
	"github.com/gofiber/fiber/v2"
)

// HandleHealth reports ok once the engine has built its index
func HandleHealth(c *fiber.Ctx) error {
	state := recommend.Uninitialized
	if engine != nil {
		state = engine.State()
	}

	health := fiber.Map{
		"status": "ok",
		"state":  state.String(),
	}
	if state != recommend.Ready {
		health["status"] = "unavailable"
		c.Status(fiber.StatusServiceUnavailable)
	}
	return c.JSON(health)
}

// HandleStatus returns the engine status snapshot
func HandleStatus(c *fiber.Ctx) error {
	if engine == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "recommendation engine not configured")
	}
	return c.JSON(engine.Status())
}
