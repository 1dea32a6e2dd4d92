package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/counselorcorner/storefront_be/internal/store"
)

type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func validationFail(c *fiber.Ctx, errs FieldErrors) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "validation error",
		"errors":  errs,
	})
}

// storeFail maps accessor errors onto the response taxonomy. Upstream
// detail stays in the server log, never in the body.
func storeFail(c *fiber.Ctx, err error, notFoundMsg string) error {
	if notFoundMsg == "" {
		notFoundMsg = "not found"
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": notFoundMsg,
		})
	case errors.Is(err, store.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "conflicting write, try again",
		})
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("store error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "internal error",
		})
	}
}
