package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"miracmail/middleware"
	"miracmail/models"
	"miracmail/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/valyala/fasthttp"
)

// EventsHandler streams mailbox snapshot transitions to the browser so list
// views re-render on load/error without polling.
type EventsHandler struct {
	registry *Registry
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(registry *Registry) *EventsHandler {
	return &EventsHandler{registry: registry}
}

// HandleSSE streams snapshots for one folder as Server-Sent Events.
func (h *EventsHandler) HandleSSE(c *fiber.Ctx) error {
	folder := models.Folder(c.Params("name"))
	if !folder.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown folder",
		})
	}

	state := h.registry.Acquire(ContextToken(c))
	store := state.Mailbox(folder)
	subID, snapshots := store.Subscribe()

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	utils.Log.Debug("SSE subscriber connected: %s folder=%s", subID, folder)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer store.Unsubscribe(subID)

		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case snap, ok := <-snapshots:
				if !ok {
					return
				}
				data, err := json.Marshal(snapshotView(snap, ""))
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "data: %s\n\n", data)
				if err := w.Flush(); err != nil {
					return
				}
			case <-ticker.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))

	return nil
}

// HandleWebsocket streams snapshots for one folder over a websocket. The
// route must run behind the session middleware so the token is in Locals.
func (h *EventsHandler) HandleWebsocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		folder := models.Folder(conn.Params("name"))
		token, _ := conn.Locals(middleware.TokenContextKey).(string)
		if !folder.Valid() || token == "" {
			conn.Close()
			return
		}

		state := h.registry.Acquire(token)
		store := state.Mailbox(folder)
		subID, snapshots := store.Subscribe()
		defer store.Unsubscribe(subID)

		// Detect the peer going away.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		if err := conn.WriteJSON(snapshotView(store.Snapshot(), "")); err != nil {
			return
		}
		for {
			select {
			case snap, ok := <-snapshots:
				if !ok {
					return
				}
				if err := conn.WriteJSON(snapshotView(snap, "")); err != nil {
					return
				}
			case <-closed:
				return
			}
		}
	})
}
