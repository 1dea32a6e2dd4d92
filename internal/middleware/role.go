package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// RequireRoles fails closed: no user, or a user whose groups satisfy none
// of the allowed roles, does not get through. Superadmin implicitly
// satisfies every role (see idp.User.HasRole). Evaluated on every request;
// nothing is cached beyond the token's own lifetime.
func RequireRoles(allowed ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "authentication required",
			})
		}
		for _, role := range allowed {
			if user.HasRole(role) {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "forbidden: insufficient role",
		})
	}
}
