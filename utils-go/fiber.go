package utils

import (
	"errors"
	"strings"

	"github.com/automate/orgs-server/credentials"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const (
	authScheme   = "Bearer"
	principalKey = "principal"
)

type Router struct {
	fiber.Router
}

func GetDefaultRouter(app *fiber.App) *Router {
	temp := app.Group("")
	return &Router{Router: temp}
}

type JwtMiddlewareConfig struct {
	Credentials *credentials.Service
	// Optional lets requests without an Authorization header through without a principal.
	// A header that is present must still carry a valid token.
	Optional bool
}

// Protected verifies the bearer token and stores its principal in the request locals.
func Protected(config JwtMiddlewareConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get(fiber.HeaderAuthorization)
		if len(auth) == 0 && config.Optional {
			return c.Next()
		}

		l := len(authScheme)
		if len(auth) <= l+1 || !strings.EqualFold(auth[:l], authScheme) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":             "access_denied",
				"error_description": "Missing or malformed JWT",
			})
		}

		principal, err := config.Credentials.VerifyToken(strings.TrimSpace(auth[l+1:]))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":             "access_denied",
				"error_description": err.Error(),
			})
		}

		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// PrincipalFrom returns the principal Protected stored, or nil.
func PrincipalFrom(c *fiber.Ctx) *credentials.Principal {
	p, _ := c.Locals(principalKey).(*credentials.Principal)
	return p
}

func StandardError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

func StandardInternalError(c *fiber.Ctx, err error) error {
	log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}

func StandardCouldNotParse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Could not parse request",
	})
}

// StandardBodyParse parses and validates the request body into out. The returned error is
// meant to be handed back to fiber, ErrorHandler turns it into the response.
func StandardBodyParse(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Could not parse request")
	}
	return Validate(out)
}

func StandardQueryParse(c *fiber.Ctx, out interface{}) error {
	if err := c.QueryParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Could not parse request")
	}
	return Validate(out)
}

// ErrorHandler renders errors that handlers return instead of writing a response.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Invalid request",
			"kind":   "invalid",
			"fields": validationErr.Errors,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return StandardError(c, fiberErr.Code, fiberErr.Message)
	}

	return StandardInternalError(c, err)
}
