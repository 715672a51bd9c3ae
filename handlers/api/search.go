package api

import (
	"miracmail/config"
	"miracmail/mailbox"
	"miracmail/models"

	"github.com/gofiber/fiber/v2"
)

// SearchHandler filters the currently held folder collection. Search is a
// pure, local operation; it never refetches.
type SearchHandler struct {
	registry *Registry
	config   *config.Config
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(registry *Registry, cfg *config.Config) *SearchHandler {
	return &SearchHandler{registry: registry, config: cfg}
}

// SearchRequest represents a search request
type SearchRequest struct {
	Query  string `json:"query"`
	Folder string `json:"folder"`
}

// HandleSearch filters the held collection of a folder by a query.
func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	var req SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request",
		})
	}

	folder := models.Folder(req.Folder)
	if req.Folder == "" {
		folder = models.FolderInbox
	}
	if !folder.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown folder",
		})
	}

	state := h.registry.Acquire(ContextToken(c))
	snap := state.Mailbox(folder).Snapshot()

	matches := mailbox.Filter(snap.Emails, req.Query)
	if matches == nil {
		matches = []models.Email{}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"query":   req.Query,
		"folder":  string(folder),
		"count":   len(matches),
		"emails":  matches,
	})
}
