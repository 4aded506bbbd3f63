package controllers

import (
	"github.com/automate/orgs-server/lifecycle"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

var kindStatus = map[lifecycle.Kind]int{
	lifecycle.KindInvalid:               fiber.StatusBadRequest,
	lifecycle.KindAlreadyExists:         fiber.StatusConflict,
	lifecycle.KindNotFound:              fiber.StatusNotFound,
	lifecycle.KindForbidden:             fiber.StatusForbidden,
	lifecycle.KindInvalidCredentials:    fiber.StatusUnauthorized,
	lifecycle.KindInternalInconsistency: fiber.StatusInternalServerError,
	lifecycle.KindUnavailable:           fiber.StatusServiceUnavailable,
	lifecycle.KindInternal:              fiber.StatusInternalServerError,
}

func statusOf(kind lifecycle.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// lifecycleError renders a lifecycle failure as {"error", "kind"}.
func lifecycleError(c *fiber.Ctx, err error) error {
	kind := lifecycle.KindOf(err)
	status := statusOf(kind)

	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("kind", kind.String()).Str("path", c.Path()).Msg("Lifecycle operation failed")
	}

	return c.Status(status).JSON(fiber.Map{
		"error": lifecycle.Message(err),
		"kind":  kind.String(),
	})
}
