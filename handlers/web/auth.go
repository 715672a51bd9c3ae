// handlers/web/auth.go
package web

import (
	"errors"
	"strings"

	"miracmail/client"
	"miracmail/config"
	"miracmail/handlers/api"
	"miracmail/middleware"
	"miracmail/session"
	"miracmail/utils"

	"github.com/gofiber/fiber/v2"
	fsession "github.com/gofiber/fiber/v2/middleware/session"
)

type AuthHandler struct {
	store    *fsession.Store
	config   *config.Config
	client   *client.Client
	registry *api.Registry
}

// NewAuthHandler creates a new instance of AuthHandler
func NewAuthHandler(store *fsession.Store, cfg *config.Config, c *client.Client, registry *api.Registry) *AuthHandler {
	return &AuthHandler{
		store:    store,
		config:   cfg,
		client:   c,
		registry: registry,
	}
}

func (h *AuthHandler) manager(sess *fsession.Session) *session.Manager {
	return session.NewManager(h.client, &cookieTokenStore{sess: sess}, h.config.Mail.DomainSuffix)
}

// ShowLogin renders the login page
func (h *AuthHandler) ShowLogin(c *fiber.Ctx) error {
	if sess, err := h.store.Get(c); err == nil && middleware.CanEnter(sess) {
		return c.Redirect("/inbox")
	}
	return c.Render("login", fiber.Map{
		"CSRFToken": middleware.GenerateCSRFToken(c),
	})
}

// HandleLogin processes the login form
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	sess, err := h.store.Get(c)
	if err != nil {
		return c.Status(500).SendString("Session error")
	}

	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")

	if email == "" || password == "" {
		return c.Status(400).Render("login", fiber.Map{
			"Error":     "Email and password are required",
			"Email":     email,
			"CSRFToken": middleware.GenerateCSRFToken(c),
		})
	}

	if err := h.manager(sess).Login(c.Context(), email, password); err != nil {
		utils.Log.Warn("Login failed for %s: %v", email, err)
		return c.Status(errorStatus(err)).Render("login", fiber.Map{
			"Error":     errorMessage(err),
			"Email":     email,
			"CSRFToken": middleware.GenerateCSRFToken(c),
		})
	}

	utils.Log.Info("User signed in: %s", email)
	return c.Redirect("/inbox")
}

// ShowRegister renders the registration page
func (h *AuthHandler) ShowRegister(c *fiber.Ctx) error {
	if sess, err := h.store.Get(c); err == nil && middleware.CanEnter(sess) {
		return c.Redirect("/inbox")
	}
	return c.Render("register", fiber.Map{
		"DomainSuffix": h.config.Mail.DomainSuffix,
		"CSRFToken":    middleware.GenerateCSRFToken(c),
	})
}

// HandleRegister processes the registration form. The organizational
// address check runs locally before the service is contacted.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	sess, err := h.store.Get(c)
	if err != nil {
		return c.Status(500).SendString("Session error")
	}

	name := strings.TrimSpace(c.FormValue("name"))
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")

	if name == "" || email == "" || password == "" {
		return c.Status(400).Render("register", fiber.Map{
			"Error":        "Name, email and password are required",
			"Name":         name,
			"Email":        email,
			"DomainSuffix": h.config.Mail.DomainSuffix,
			"CSRFToken":    middleware.GenerateCSRFToken(c),
		})
	}

	if err := h.manager(sess).Register(c.Context(), name, email, password); err != nil {
		utils.Log.Warn("Registration failed for %s: %v", email, err)
		return c.Status(errorStatus(err)).Render("register", fiber.Map{
			"Error":        errorMessage(err),
			"Name":         name,
			"Email":        email,
			"DomainSuffix": h.config.Mail.DomainSuffix,
			"CSRFToken":    middleware.GenerateCSRFToken(c),
		})
	}

	utils.Log.Info("User registered: %s", email)
	return c.Redirect("/inbox")
}

// HandleLogout clears the session and the per-session state. No call to the
// mail service is made.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if sess, err := h.store.Get(c); err == nil {
		if token, _ := sess.Get(middleware.SessionTokenKey).(string); token != "" {
			h.registry.Drop(token)
		}
		h.manager(sess).Logout()
	}
	return c.Redirect("/login")
}

func errorStatus(err error) int {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return 500
}

func errorMessage(err error) string {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Something went wrong. Please try again."
}
