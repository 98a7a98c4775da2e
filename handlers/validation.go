package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ad-match/site/recommend"
	"github.com/gofiber/fiber/v2"
)

// ParseCount reads the "k" query parameter, falling back to the default count.
// Range checks are left to the engine.
func ParseCount(c *fiber.Ctx) (int, error) {
	raw := strings.TrimSpace(c.Query("k"))
	if raw == "" {
		return defaultCount, nil
	}
	k, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: k must be an integer, got %q", recommend.ErrQueryValidation, raw)
	}
	return k, nil
}

// ParseQuery returns the trimmed "q" query parameter
func ParseQuery(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Query("q"))
}

// PathParam returns the decoded value of a route parameter
func PathParam(c *fiber.Ctx, name string) (string, error) {
	v, err := url.PathUnescape(c.Params(name))
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid %s: %v", name, err))
	}
	return v, nil
}
