// middleware/sse_auth.go
package middleware

import (
	"log"
	"strings"

	"game-lobby-system/services"

	"github.com/gofiber/fiber/v2"
)

// SSEAuthMiddleware validates the `token` query param via the auth service.
// Browser EventSource connections cannot set headers, so the gateway passes
// SSE requests through and the token rides the query string instead.
//
// Usage:
//
//	app.Get("/games/:id/events", middleware.SSEAuthMiddleware(authClient), streamService.StreamGame)
func SSEAuthMiddleware(authClient *services.AuthServiceClient) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := strings.TrimSpace(c.Query("token"))
		if accessToken == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Missing token in query",
			})
		}

		resp, err := authClient.ValidateToken(accessToken)
		if err != nil {
			log.Printf("[SSEAuth] ❌ Validation failed for %s: %v", c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		c.Locals("user_id", resp.UserID)
		c.Locals("user_roles", resp.Roles)

		return c.Next()
	}
}
