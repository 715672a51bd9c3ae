package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	fsession "github.com/gofiber/fiber/v2/middleware/session"
)

// SessionTokenKey is the cookie-session key the mail service token lives
// under. It is the only durable client state; mailbox and draft are rebuilt
// each browsing session.
const SessionTokenKey = "token"

// TokenContextKey is where the guard places the token for handlers.
const TokenContextKey = "token"

// CanEnter is the route-guard predicate: a protected view may be entered iff
// the session holds a token. Token validity against the service is not
// checked here.
func CanEnter(sess *fsession.Session) bool {
	if sess == nil {
		return false
	}
	token, _ := sess.Get(SessionTokenKey).(string)
	return token != ""
}

// RouteGuard gates navigation to authenticated views. Unauthenticated
// browsers are redirected to the login view before any protected content is
// produced; API-style requests get a 401 instead of a redirect.
func RouteGuard(store *fsession.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil || !CanEnter(sess) {
			if isAPIRequest(c) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Authentication required",
				})
			}
			return c.Redirect("/login")
		}

		token, _ := sess.Get(SessionTokenKey).(string)
		c.Locals(TokenContextKey, token)
		return c.Next()
	}
}

// isAPIRequest reports whether the request expects a JSON response rather
// than a rendered page.
func isAPIRequest(c *fiber.Ctx) bool {
	if c.Get("HX-Request") != "" {
		return true
	}
	return strings.HasPrefix(c.Path(), "/api")
}
