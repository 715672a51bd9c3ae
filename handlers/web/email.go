// handlers/web/email.go
package web

import (
	"html/template"
	"time"

	"miracmail/client"
	"miracmail/config"
	"miracmail/handlers/api"
	"miracmail/mailbox"
	"miracmail/middleware"
	"miracmail/models"
	"miracmail/session"
	"miracmail/utils"

	"github.com/gofiber/fiber/v2"
	fsession "github.com/gofiber/fiber/v2/middleware/session"
)

type EmailHandler struct {
	store    *fsession.Store
	config   *config.Config
	client   *client.Client
	registry *api.Registry
}

func NewEmailHandler(store *fsession.Store, cfg *config.Config, c *client.Client, registry *api.Registry) *EmailHandler {
	return &EmailHandler{
		store:    store,
		config:   cfg,
		client:   c,
		registry: registry,
	}
}

// emailRow is one list entry in a folder view.
type emailRow struct {
	ID       string
	Address  string
	Subject  string
	Preview  string
	Date     string
	Selected bool
}

// HandleInbox renders the inbox page
func (h *EmailHandler) HandleInbox(c *fiber.Ctx) error {
	return h.renderFolder(c, models.FolderInbox)
}

// HandleSent renders the sent page
func (h *EmailHandler) HandleSent(c *fiber.Ctx) error {
	return h.renderFolder(c, models.FolderSent)
}

// renderFolder loads a folder on view entry and renders it. A failed load
// keeps the previously held messages on screen next to an error banner; a
// 401 follows the configured logout policy.
func (h *EmailHandler) renderFolder(c *fiber.Ctx, folder models.Folder) error {
	token := api.ContextToken(c)
	if token == "" {
		return c.Redirect("/login")
	}

	sess, err := h.store.Get(c)
	if err != nil {
		return c.Status(500).SendString("Session error")
	}

	state := h.registry.Acquire(token)
	mbox := state.Mailbox(folder)

	loadErr := mbox.Load(c.Context(), folder)
	if loadErr != nil && utils.IsKind(loadErr, utils.KindAuth) && h.config.Auth.LogoutOnUnauthorized {
		return h.forceLogout(c, sess, token)
	}

	profile, profileErr := h.profile(c, sess)
	if profileErr != nil {
		if utils.IsKind(profileErr, utils.KindAuth) && h.config.Auth.LogoutOnUnauthorized {
			return h.forceLogout(c, sess, token)
		}
		// The page still works without the user chip.
		utils.Log.Warn("Failed to fetch user profile: %v", profileErr)
	}

	snap := mbox.Snapshot()
	query := c.Query("q")
	selected := ""
	if snap.Selected != nil {
		selected = snap.Selected.ID
	}

	rows := make([]emailRow, 0, len(snap.Emails))
	for _, e := range mailbox.Filter(snap.Emails, query) {
		rows = append(rows, emailRow{
			ID:       e.ID,
			Address:  folder.AddressField(&e),
			Subject:  e.Subject,
			Preview:  utils.Preview(e.Text, e.HTML, 120),
			Date:     e.CreatedAt.Format("Jan 02, 2006 15:04"),
			Selected: e.ID == selected,
		})
	}

	apiToken, err := api.GenerateToken(token, h.config.JWT.Secret, time.Hour)
	if err != nil {
		utils.Log.Error("Failed to mint API token: %v", err)
	}

	data := fiber.Map{
		"Folder":    string(folder),
		"State":     string(snap.State),
		"Stale":     snap.Stale,
		"Emails":    rows,
		"Count":     len(rows),
		"Query":     query,
		"Token":     apiToken,
		"CSRFToken": middleware.GenerateCSRFToken(c),
	}
	if snap.Err != nil {
		data["Error"] = errorMessage(snap.Err)
	}
	if profile != nil {
		data["User"] = profile
	}

	return c.Render("mailbox", data)
}

// HandleEmailView renders a single selected message as a partial. Selecting
// an id that is not in the current collection renders nothing selected.
func (h *EmailHandler) HandleEmailView(c *fiber.Ctx) error {
	token := api.ContextToken(c)
	folder := models.Folder(c.Query("folder", string(models.FolderInbox)))
	if !folder.Valid() {
		folder = models.FolderInbox
	}

	state := h.registry.Acquire(token)
	email := state.Mailbox(folder).Select(c.Params("id"))
	if email == nil {
		return c.Status(404).Render("partials/email_view", fiber.Map{
			"NotFound": true,
		}, "layouts/empty")
	}

	var body template.HTML
	if email.HTML != "" {
		body = template.HTML(utils.SanitizeHTML(email.HTML))
	}

	return c.Render("partials/email_view", fiber.Map{
		"ID":      email.ID,
		"Address": folder.AddressField(email),
		"Subject": email.Subject,
		"Text":    email.Text,
		"HTML":    body,
		"Date":    email.CreatedAt.Format("Jan 02, 2006 15:04"),
	}, "layouts/empty")
}

// profile returns the signed-in user, fetched lazily once per browsing
// session and then kept in the cookie session.
func (h *EmailHandler) profile(c *fiber.Ctx, sess *fsession.Session) (*models.UserProfile, error) {
	if name, ok := sess.Get("user_name").(string); ok && name != "" {
		email, _ := sess.Get("user_email").(string)
		return &models.UserProfile{Name: name, Email: email}, nil
	}

	mgr := session.NewManager(h.client, &cookieTokenStore{sess: sess}, h.config.Mail.DomainSuffix)
	profile, err := mgr.FetchProfile(c.Context())
	if err != nil {
		return nil, err
	}

	sess.Set("user_name", profile.Name)
	sess.Set("user_email", profile.Email)
	if err := sess.Save(); err != nil {
		utils.Log.Warn("Failed to save session: %v", err)
	}
	return profile, nil
}

// forceLogout destroys the session after the service rejected its token.
func (h *EmailHandler) forceLogout(c *fiber.Ctx, sess *fsession.Session, token string) error {
	utils.Log.Info("Session token rejected by the mail service, signing out")
	h.registry.Drop(token)
	if err := sess.Destroy(); err != nil {
		utils.Log.Warn("Failed to destroy session: %v", err)
	}
	return c.Redirect("/login")
}
