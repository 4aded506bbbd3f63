package controllers

import (
	"github.com/automate/orgs-server/lifecycle"
	"github.com/automate/orgs-server/utils-go"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
)

type AuthController struct {
	fx.In

	Manager *lifecycle.Manager
}

func RegisterAuthController(r *utils.Router, c AuthController) {
	r.Post("/admin/login", c.login)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *AuthController) login(c *fiber.Ctx) error {
	req := new(loginRequest)
	if err := utils.StandardBodyParse(c, req); err != nil {
		return err
	}

	token, err := r.Manager.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return lifecycleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(token)
}
