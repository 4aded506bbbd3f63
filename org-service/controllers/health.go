package controllers

import (
	"github.com/automate/orgs-server/utils-go"
	"github.com/gofiber/fiber/v2"
)

func RegisterHealthController(r *utils.Router) {
	r.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Organization Management Service is running",
		})
	})
}
