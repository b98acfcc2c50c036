package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RequireCronSecret guards operator endpoints with "Authorization: Bearer
// <CRON_SECRET>". With no secret configured every request is let through,
// which is how local development runs.
func (m *Middleware) RequireCronSecret() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !m.IsOperator(c) {
			m.log.TraceFromContext(c.UserContext()).
				Function("RequireCronSecret").
				Info("rejected request with missing or wrong bearer token", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		return c.Next()
	}
}

// IsOperator reports whether the request carries the CRON_SECRET bearer. It
// is true for every request when no secret is configured.
func (m *Middleware) IsOperator(c *fiber.Ctx) bool {
	secret := m.Config.CronSecret
	if secret == "" {
		return true
	}

	token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
	return ok && subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}

func bearerToken(header string) (string, bool) {
	tokenParts := strings.Split(strings.TrimSpace(header), " ")
	if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
		return "", false
	}
	if tokenParts[1] == "" {
		return "", false
	}
	return tokenParts[1], true
}
