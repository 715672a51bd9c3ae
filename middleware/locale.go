package middleware

import (
	"strings"

	"miracmail/utils"

	"github.com/gofiber/fiber/v2"
)

var supportedLanguages = map[string]bool{"en": true, "es": true}

// LocaleMiddleware detects the user's language from the query string, a
// cookie or the Accept-Language header (in that order) and stores a
// localizer in the request context.
func LocaleMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lang := c.Query("lang")
		if lang == "" {
			lang = c.Cookies("lang")
		}
		if lang == "" {
			accept := c.Get("Accept-Language")
			for supported := range supportedLanguages {
				if strings.HasPrefix(accept, supported) {
					lang = supported
					break
				}
			}
		}
		if !supportedLanguages[lang] {
			lang = "en"
		}

		c.Locals("localizer", utils.GetLocalizer(lang))
		c.Locals("lang", lang)

		return c.Next()
	}
}
