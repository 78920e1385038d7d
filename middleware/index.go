package middleware

import (
	"errors"
	"strings"

	"bakery_manager/constants"
	"bakery_manager/helper"
	"bakery_manager/utils"

	"github.com/gofiber/fiber/v2"
)

func tokenFromRequest(c *fiber.Ctx) string {
	token := c.Cookies(constants.COOKIE_ACCESS_TOKEN)
	if token == "" {
		auth := c.Get(fiber.HeaderAuthorization)
		if strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	return token
}

// Protected rejects requests without a valid access token.
func Protected(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := tokenFromRequest(c)
		if token == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.LOGIN_REQUIRED, errors.New("no token"))
		}

		jwtToken, err := helper.ParseToken(secret, token)
		if err != nil || !jwtToken.Valid {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid token", err)
		}

		c.Locals("user", jwtToken)
		return c.Next()
	}
}

// OptionalJWT attaches the token when one is present and valid; guests pass through.
func OptionalJWT(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := tokenFromRequest(c)
		if token == "" {
			return c.Next()
		}

		jwtToken, err := helper.ParseToken(secret, token)
		if err == nil && jwtToken.Valid {
			c.Locals("user", jwtToken)
		}
		return c.Next()
	}
}

// AdminOnly must run after Protected.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !helper.IsAdmin(c) {
			return utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, errors.New("not admin"))
		}
		return c.Next()
	}
}
