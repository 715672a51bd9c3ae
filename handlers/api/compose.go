package api

import (
	"errors"

	"miracmail/compose"
	"miracmail/config"
	"miracmail/models"
	"miracmail/utils"

	"github.com/gofiber/fiber/v2"
)

// ComposeHandler drives the compose workflow over JSON.
type ComposeHandler struct {
	registry *Registry
	config   *config.Config
}

// NewComposeHandler creates a new compose handler
func NewComposeHandler(registry *Registry, cfg *config.Config) *ComposeHandler {
	return &ComposeHandler{registry: registry, config: cfg}
}

// HandleSubmit applies the posted fields to the draft and submits it. On
// success the draft is cleared and the compose surface should close; on
// failure the draft survives untouched so the user can retry.
func (h *ComposeHandler) HandleSubmit(c *fiber.Ctx) error {
	var draft models.Draft
	if err := c.BodyParser(&draft); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request",
		})
	}

	state := h.registry.Acquire(ContextToken(c))
	wf := state.Compose()
	wf.SetDraft(draft)

	if err := wf.Submit(c.Context()); err != nil {
		if errors.Is(err, compose.ErrSubmitInFlight) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		var appErr *utils.AppError
		code := fiber.StatusInternalServerError
		if errors.As(err, &appErr) {
			code = appErr.Code
		}
		utils.Log.Warn("Send failed: %v", err)
		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	utils.Log.Info("Email sent: to=%s subject=%s", draft.To, draft.Subject)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Email sent successfully",
	})
}

// fieldUpdate is one draft field edit.
type fieldUpdate struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HandleUpdateField replaces one draft field while editing.
func (h *ComposeHandler) HandleUpdateField(c *fiber.Ctx) error {
	var update fieldUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request",
		})
	}

	state := h.registry.Acquire(ContextToken(c))
	wf := state.Compose()
	wf.UpdateField(update.Name, update.Value)

	snap := wf.Snapshot()
	return c.JSON(fiber.Map{
		"success": true,
		"state":   string(snap.State),
		"draft":   snap.Draft,
	})
}

// HandleDraft returns the current workflow snapshot.
func (h *ComposeHandler) HandleDraft(c *fiber.Ctx) error {
	state := h.registry.Acquire(ContextToken(c))
	snap := state.Compose().Snapshot()

	view := fiber.Map{
		"state": string(snap.State),
		"draft": snap.Draft,
	}
	if snap.Err != nil {
		view["error"] = snap.Err.Error()
	}
	return c.JSON(view)
}

// HandleDiscard clears the draft and exits the workflow.
func (h *ComposeHandler) HandleDiscard(c *fiber.Ctx) error {
	state := h.registry.Acquire(ContextToken(c))
	state.Compose().Discard()
	return c.JSON(fiber.Map{
		"success": true,
	})
}
