package middleware

import (
	"cinema_ticketing/constants"
	"cinema_ticketing/helper"
	"cinema_ticketing/model"
	"cinema_ticketing/utils"
	"errors"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Protected reads the access token from the access_token cookie or the
// Authorization header and stores its claims under Locals("claims").
func Protected(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies("access_token")

		if token == "" {
			// check header Authorization: Bearer xxx
			auth := c.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if token == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", errors.New("no token"))
		}

		claim, err := helper.ParseToken(secret, token)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid token", err)
		}

		c.Locals("claims", claim)
		return c.Next()
	}
}

// RequireRole must run after Protected.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claim, ok := Claims(c)
		if !ok {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.UNAUTHORIZED, nil)
		}
		if !slices.Contains(roles, claim.Role) {
			return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, nil)
		}
		return c.Next()
	}
}

func Claims(c *fiber.Ctx) (model.TokenClaim, bool) {
	claim, ok := c.Locals("claims").(model.TokenClaim)
	return claim, ok
}
