package api

import (
	"miracmail/utils"

	"github.com/gofiber/fiber/v2"
)

// I18nHandler handles i18n-related requests
type I18nHandler struct{}

// GetTranslations returns translations for the client-side JavaScript
func (h *I18nHandler) GetTranslations(c *fiber.Ctx) error {
	lang := c.Params("lang")
	if lang != "en" && lang != "es" {
		lang = "en"
	}

	localizer := utils.GetLocalizer(lang)

	translations := map[string]string{
		"message_sent_success": utils.T(localizer, "message_sent_success"),
		"message_send_failed":  utils.T(localizer, "message_send_failed"),
		"mailbox_loading":      utils.T(localizer, "mailbox_loading"),
		"mailbox_empty":        utils.T(localizer, "mailbox_empty"),
		"mailbox_load_failed":  utils.T(localizer, "mailbox_load_failed"),
		"error_network":        utils.T(localizer, "error_network"),
		"error_session":        utils.T(localizer, "error_session"),
		"compose_discarded":    utils.T(localizer, "compose_discarded"),
	}

	return c.JSON(translations)
}
