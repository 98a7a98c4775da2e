package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/ad-match/site/recommend"
	"github.com/ad-match/site/ui"
	"github.com/gofiber/fiber/v2"
)

// StatusCode maps an error to the HTTP status it is reported with
func StatusCode(err error) int {
	var e *fiber.Error
	switch {
	case errors.As(err, &e):
		return e.Code
	case errors.Is(err, recommend.ErrQueryValidation):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler reports errors as JSON under /api and as an HTML page elsewhere
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := StatusCode(err)
	if code >= fiber.StatusInternalServerError {
		log.Printf("[http] %s %s failed: %v", ctx.Method(), ctx.Path(), err)
	}

	if strings.HasPrefix(ctx.Path(), "/api/") {
		return ctx.Status(code).JSON(fiber.Map{"error": err.Error()})
	}

	ctx.Status(code)
	return render(ctx, ui.ErrorPage(code, err.Error()))
}
