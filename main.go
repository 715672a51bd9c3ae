package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"miracmail/client"
	"miracmail/config"
	"miracmail/handlers/api"
	"miracmail/handlers/web"
	"miracmail/middleware"
	"miracmail/storage"
	"miracmail/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fsession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"
	"github.com/gofiber/websocket/v2"
)

// isAPIRequest reports whether a request expects JSON rather than a page.
func isAPIRequest(c *fiber.Ctx) bool {
	if c == nil {
		return false
	}
	if c.Get("HX-Request") != "" {
		return true
	}
	return strings.HasPrefix(c.Path(), "/api")
}

func main() {
	utils.Log.Info("Initializing MiracMail web client...")

	cfg, err := config.Load("config.toml")
	if err != nil {
		utils.Log.Error("Failed to load config: %v", err)
		return
	}

	if err := utils.InitI18n(); err != nil {
		utils.Log.Error("Failed to initialize i18n: %v", err)
	}

	sessionStorage, err := storage.NewFileStorage(cfg.Session.Folder, cfg.Session.EncryptionKey)
	if err != nil {
		utils.Log.Error("Failed to initialize session storage: %v", err)
		return
	}

	store := fsession.New(fsession.Config{
		Storage:        sessionStorage,
		Expiration:     cfg.Session.Expiration(),
		KeyLookup:      "cookie:" + cfg.Session.CookieName,
		CookieSecure:   false, // Set to true in production with HTTPS
		CookieHTTPOnly: true,
	})

	// Template engine
	engine := html.New("./templates", ".html")
	engine.AddFunc("lower", strings.ToLower)
	engine.AddFunc("upper", strings.ToUpper)
	engine.AddFunc("trim", strings.TrimSpace)
	engine.AddFunc("t", func(messageID string) string {
		return utils.T(utils.Localizer, messageID)
	})
	engine.AddFunc("formatDate", func(t time.Time) string {
		return t.Format("Jan 02, 2006 15:04")
	})

	app := fiber.New(fiber.Config{
		Views:       engine,
		ViewsLayout: "layouts/main",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			var appErr *utils.AppError
			if errors.As(err, &appErr) {
				code = appErr.Code
				utils.Log.Error("Application error: %v", appErr)
			} else if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			if isAPIRequest(c) {
				return c.Status(code).JSON(fiber.Map{
					"error": err.Error(),
				})
			}

			return c.Status(code).Render("error", fiber.Map{
				"Error": err.Error(),
				"Code":  code,
			})
		},
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		ReferrerPolicy:     "no-referrer",
	}))
	app.Use(middleware.LocaleMiddleware())
	app.Use(middleware.RateLimiter(100, time.Minute))

	// Serve static files
	app.Static("/assets", "./assets", fiber.Static{
		Compress:      true,
		CacheDuration: 24 * time.Hour,
	})

	mailClient := client.NewClient(cfg.Mail)
	registry := api.NewRegistry(mailClient)

	// Web handlers
	authHandler := web.NewAuthHandler(store, cfg, mailClient, registry)
	emailHandler := web.NewEmailHandler(store, cfg, mailClient, registry)

	// API handlers
	mailboxHandler := api.NewMailboxHandler(registry, cfg)
	searchHandler := api.NewSearchHandler(registry, cfg)
	composeHandler := api.NewComposeHandler(registry, cfg)
	eventsHandler := api.NewEventsHandler(registry)
	i18nHandler := &api.I18nHandler{}

	// Public routes. Form posts go through the double-submit CSRF check
	// against the token the matching GET embedded.
	app.Get("/login", authHandler.ShowLogin)
	app.Post("/login", middleware.CSRFProtection(), authHandler.HandleLogin)
	app.Get("/register", authHandler.ShowRegister)
	app.Post("/register", middleware.CSRFProtection(), authHandler.HandleRegister)
	app.Get("/logout", authHandler.HandleLogout)

	// Protected views
	protected := app.Group("", middleware.RouteGuard(store))
	protected.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/inbox")
	})
	protected.Get("/inbox", emailHandler.HandleInbox)
	protected.Get("/sent", emailHandler.HandleSent)

	// API routes
	apiRoutes := app.Group("/api", api.SessionMiddleware(store, cfg.JWT.Secret), middleware.CSRFProtection())
	{
		apiRoutes.Get("/folder/:name/emails", mailboxHandler.HandleFolderEmails)
		apiRoutes.Get("/folder/:name/state", mailboxHandler.HandleFolderState)
		apiRoutes.Post("/search", searchHandler.HandleSearch)

		apiRoutes.Get("/email/:id", emailHandler.HandleEmailView)

		apiRoutes.Post("/compose", composeHandler.HandleSubmit)
		apiRoutes.Put("/compose/field", composeHandler.HandleUpdateField)
		apiRoutes.Get("/compose", composeHandler.HandleDraft)
		apiRoutes.Delete("/compose", composeHandler.HandleDiscard)

		apiRoutes.Get("/events/:name", eventsHandler.HandleSSE)
		apiRoutes.Get("/i18n/:lang", i18nHandler.GetTranslations)
	}

	// Websocket route for live snapshot updates
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/folder/:name", api.SessionMiddleware(store, cfg.JWT.Secret), eventsHandler.HandleWebsocket())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Any path that matched nothing is treated as unauthenticated territory:
	// browsers go to the login view, API callers get a 404.
	app.Use(func(c *fiber.Ctx) error {
		if isAPIRequest(c) {
			return c.Status(404).JSON(fiber.Map{
				"error": "Not found",
			})
		}
		return c.Redirect("/login")
	})

	utils.Log.Info("Starting server on port %d...", cfg.Server.Port)
	if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		utils.Log.Error("Error starting server: %v", err)
	}
}
