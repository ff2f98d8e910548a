package controllers

import (
	"errors"

	"fieldops_go/services"

	"github.com/gofiber/fiber/v2"
)

// respondServiceError maps a services error to its HTTP status. Anything that
// is not a *services.ServiceError is treated as an internal error.
func respondServiceError(c *fiber.Ctx, err error) error {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		return c.Status(svcErr.StatusCode()).JSON(fiber.Map{
			"error": svcErr.Message,
			"kind":  svcErr.Kind,
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}
