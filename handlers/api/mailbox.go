package api

import (
	"miracmail/config"
	"miracmail/mailbox"
	"miracmail/models"
	"miracmail/utils"

	"github.com/gofiber/fiber/v2"
)

// MailboxHandler serves folder contents as JSON for HTMX refreshes and the
// search box.
type MailboxHandler struct {
	registry *Registry
	config   *config.Config
}

// NewMailboxHandler creates a new mailbox handler
func NewMailboxHandler(registry *Registry, cfg *config.Config) *MailboxHandler {
	return &MailboxHandler{registry: registry, config: cfg}
}

// folderView is the wire form of a mailbox snapshot.
type folderView struct {
	State  string         `json:"state"`
	Folder string         `json:"folder"`
	Stale  bool           `json:"stale"`
	Error  string         `json:"error,omitempty"`
	Count  int            `json:"count"`
	Emails []models.Email `json:"emails"`
}

func snapshotView(snap mailbox.Snapshot, query string) folderView {
	emails := mailbox.Filter(snap.Emails, query)
	if emails == nil {
		emails = []models.Email{}
	}
	view := folderView{
		State:  string(snap.State),
		Folder: string(snap.Folder),
		Stale:  snap.Stale,
		Count:  len(emails),
		Emails: emails,
	}
	if snap.Err != nil {
		view.Error = snap.Err.Error()
	}
	return view
}

// HandleFolderEmails reloads a folder and returns its (optionally filtered)
// messages. A failed load still returns the previously held messages,
// flagged stale, alongside the error indicator; the caller decides whether
// to retry. A 401 from the service follows the configured logout policy.
func (h *MailboxHandler) HandleFolderEmails(c *fiber.Ctx) error {
	folder := models.Folder(c.Params("name"))
	if !folder.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown folder",
		})
	}

	token := ContextToken(c)
	state := h.registry.Acquire(token)
	store := state.Mailbox(folder)

	err := store.Load(c.Context(), folder)
	if err != nil && utils.IsKind(err, utils.KindAuth) && h.config.Auth.LogoutOnUnauthorized {
		h.registry.Drop(token)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":        "Session expired",
			"force_logout": true,
		})
	}

	return c.JSON(snapshotView(store.Snapshot(), c.Query("q")))
}

// HandleFolderState returns the current snapshot without touching the
// network, for polling clients.
func (h *MailboxHandler) HandleFolderState(c *fiber.Ctx) error {
	folder := models.Folder(c.Params("name"))
	if !folder.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown folder",
		})
	}
	state := h.registry.Acquire(ContextToken(c))
	return c.JSON(snapshotView(state.Mailbox(folder).Snapshot(), c.Query("q")))
}
