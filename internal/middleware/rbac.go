package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sahayak-labs/paathshala-api/internal/utils"
)

// RequireRole rejects requests whose authenticated role is not one of the
// allowed roles. Mounted after JWTProtected, which binds "user_role".
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		normalized := strings.ToLower(strings.TrimSpace(role))
		if normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		role = strings.ToLower(strings.TrimSpace(role))
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
