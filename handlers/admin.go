package handlers

import (
	"github.com/gofiber/fiber/v2"
)

func HandleEmbeddingCacheStats(c *fiber.Ctx) error {
	ec, ok := getEmbeddingCache()
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "embedding cache is disabled")
	}
	return c.JSON(ec.Stats())
}

func HandleClearEmbeddingCache(c *fiber.Ctx) error {
	ec, ok := getEmbeddingCache()
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "embedding cache is disabled")
	}
	ec.Clear()
	return c.JSON(fiber.Map{"status": "cleared"})
}
