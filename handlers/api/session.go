package api

import (
	"strings"

	"miracmail/middleware"

	"github.com/gofiber/fiber/v2"
	fsession "github.com/gofiber/fiber/v2/middleware/session"
)

// SessionMiddleware authenticates API requests. A request may carry either
// the cookie session or a Bearer JWT minted at login; both resolve to the
// mail service token, stored in the request context for handlers.
func SessionMiddleware(store *fsession.Store, jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
			mailToken, err := ParseToken(strings.TrimPrefix(auth, "Bearer "), jwtSecret)
			if err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid or expired token",
				})
			}
			c.Locals(middleware.TokenContextKey, mailToken)
			return c.Next()
		}

		sess, err := store.Get(c)
		if err != nil || !middleware.CanEnter(sess) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}
		token, _ := sess.Get(middleware.SessionTokenKey).(string)
		c.Locals(middleware.TokenContextKey, token)
		return c.Next()
	}
}

// ContextToken returns the mail service token placed by the guard or the
// session middleware, or "" when the request is unauthenticated.
func ContextToken(c *fiber.Ctx) string {
	token, _ := c.Locals(middleware.TokenContextKey).(string)
	return token
}
