package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rosterforge/roster-core/internal/storage"
)

// ChangeBusHandler streams the change bus as Server-Sent Events,
// generalized from the teacher's EventsHandler.GetEvents in
// internal/api/events.go from per-user task events to per-org roster
// change events (spec §6 "Change bus").
type ChangeBusHandler struct {
	bus *storage.Bus
}

func NewChangeBusHandler(bus *storage.Bus) *ChangeBusHandler {
	return &ChangeBusHandler{bus: bus}
}

// Stream handles GET /events (SSE).
func (h *ChangeBusHandler) Stream(c *gin.Context) {
	caller, err := GetCallerIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	keepAlive := 30
	if s := c.Query("keep_alive"); s != "" {
		if ka, err := strconv.Atoi(s); err == nil && ka > 0 && ka <= 300 {
			keepAlive = ka
		}
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	eventChan, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()

	h.sendSSEEvent(c, "connected", map[string]interface{}{
		"org_id":     caller.OrgID,
		"timestamp":  time.Now(),
		"keep_alive": keepAlive,
	})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	ticker := time.NewTicker(time.Duration(keepAlive) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-eventChan:
			if !ok {
				h.sendSSEEvent(c, "disconnected", map[string]interface{}{"reason": "service_shutdown"})
				return
			}
			if event.OrgID != caller.OrgID {
				continue
			}
			h.sendSSEEvent(c, event.Type, event)

		case <-ticker.C:
			h.sendSSEEvent(c, "ping", map[string]interface{}{
				"timestamp":           time.Now(),
				"active_subscribers":  h.bus.ActiveSubscribers(),
			})
		}

		if f, ok := c.Writer.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func (h *ChangeBusHandler) sendSSEEvent(c *gin.Context, eventType string, data interface{}) {
	eventID := fmt.Sprintf("%d", time.Now().UnixNano())

	jsonData, err := json.Marshal(data)
	if err != nil {
		c.Writer.Write([]byte("event: error\n"))
		c.Writer.Write([]byte(fmt.Sprintf("id: %s\n", eventID)))
		c.Writer.Write([]byte("data: {\"error\":\"failed to marshal event data\"}\n\n"))
		return
	}

	c.Writer.Write([]byte(fmt.Sprintf("event: %s\n", eventType)))
	c.Writer.Write([]byte(fmt.Sprintf("id: %s\n", eventID)))
	c.Writer.Write([]byte(fmt.Sprintf("data: %s\n\n", jsonData)))
}
