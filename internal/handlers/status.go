// Package handlers exposes the sync engine's state on a local HTTP surface:
// health, metrics, the derived contact list, pending requests, and the
// timeline of the selected chat. The presentation layer renders from these
// routes and drives chat selection, sends, and request resolution through
// them.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"click-client/internal/api"
	"click-client/internal/channels"
	"click-client/internal/contacts"
	"click-client/internal/models"
	"click-client/internal/requests"
	"click-client/internal/session"
	"click-client/internal/timeline"
)

// StatusHandler serves the engine's local control surface.
type StatusHandler struct {
	session   *session.Session
	registry  *channels.Registry
	directory *contacts.Directory
	workflow  *requests.Workflow
	timeline  *timeline.Timeline
}

// NewStatusHandler builds a StatusHandler.
func NewStatusHandler(sess *session.Session, registry *channels.Registry, directory *contacts.Directory, workflow *requests.Workflow, tl *timeline.Timeline) *StatusHandler {
	return &StatusHandler{
		session:   sess,
		registry:  registry,
		directory: directory,
		workflow:  workflow,
		timeline:  tl,
	}
}

// Register wires the handler's routes.
func (h *StatusHandler) Register(router *gin.Engine) {
	router.GET("/healthz", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/state", h.State)
	router.GET("/contacts", h.ListContacts)
	router.POST("/contacts/refresh", h.RefreshContacts)
	router.GET("/requests", h.ListRequests)
	router.POST("/requests", h.SendRequest)
	router.POST("/requests/:request_id/accept", h.AcceptRequest)
	router.POST("/requests/:request_id/decline", h.DeclineRequest)
	router.POST("/chats/:chat_id/select", h.SelectChat)
	router.GET("/chat/messages", h.ListMessages)
	router.POST("/chat/messages", h.SendMessage)
}

// Health reports liveness and session readiness.
func (h *StatusHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "session_ready": h.session.Ready()})
}

// State summarizes the engine for debugging dashboards.
func (h *StatusHandler) State(c *gin.Context) {
	identity, _ := h.session.Identity()
	chat, selected := h.timeline.Selected()

	channelKeys := map[string]string{}
	for kind, key := range h.registry.Active() {
		channelKeys[string(kind)] = key
	}

	state := gin.H{
		"session_ready":    h.session.Ready(),
		"username":         identity.Username,
		"channels":         channelKeys,
		"contacts":         len(h.directory.Contacts()),
		"pending_requests": len(h.workflow.Pending()),
	}
	if selected {
		state["selected_chat"] = chat.ID
		state["timeline_length"] = len(h.timeline.Messages())
	}
	c.JSON(http.StatusOK, state)
}

// ListContacts returns the derived contact list.
func (h *StatusHandler) ListContacts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"contacts": h.directory.Contacts()})
}

// RefreshContacts forces a contact refresh.
func (h *StatusHandler) RefreshContacts(c *gin.Context) {
	if err := h.directory.Refresh(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": h.directory.Contacts()})
}

// ListRequests returns the pending-request snapshot, refreshing it first.
func (h *StatusHandler) ListRequests(c *gin.Context) {
	if err := h.workflow.Refresh(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": h.workflow.Pending()})
}

// SendRequest sends a friend request.
func (h *StatusHandler) SendRequest(c *gin.Context) {
	var req struct {
		ToUsername string `json:"to_username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.workflow.Send(c.Request.Context(), req.ToUsername); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// AcceptRequest resolves a pending request into a chat and a contact.
func (h *StatusHandler) AcceptRequest(c *gin.Context) {
	request, ok := h.workflow.Find(c.Param("request_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": requests.ErrUnknownRequest.Error()})
		return
	}

	if err := h.workflow.Accept(c.Request.Context(), request); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": h.directory.Contacts()})
}

// DeclineRequest deletes a pending request without side effects.
func (h *StatusHandler) DeclineRequest(c *gin.Context) {
	request, ok := h.workflow.Find(c.Param("request_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": requests.ErrUnknownRequest.Error()})
		return
	}

	if err := h.workflow.Decline(c.Request.Context(), request); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SelectChat makes the chat active and loads its history.
func (h *StatusHandler) SelectChat(c *gin.Context) {
	chatID := c.Param("chat_id")
	chat := models.Chat{ID: chatID}
	if contact, ok := h.directory.Find(chatID); ok {
		identity, _ := h.session.Identity()
		chat.Participants = []string{identity.Username, contact.Username}
	}

	if err := h.timeline.Select(c.Request.Context(), chat); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": h.timeline.Messages()})
}

// ListMessages returns the selected chat's timeline.
func (h *StatusHandler) ListMessages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"messages": h.timeline.Messages()})
}

// SendMessage sends a message in the selected chat. A transient persistence
// failure still returns the optimistically appended timeline along with the
// notice.
func (h *StatusHandler) SendMessage(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.timeline.Send(c.Request.Context(), req.Text)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"messages": h.timeline.Messages()})
	case errors.Is(err, api.ErrUnauthorized), errors.Is(err, api.ErrNotReady):
		writeError(c, err)
	case errors.Is(err, timeline.ErrNoChatSelected):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusAccepted, gin.H{"messages": h.timeline.Messages(), "notice": err.Error()})
	}
}

// writeError maps engine errors onto the local HTTP surface. An invalidated
// session surfaces as 401 so the presentation layer returns to login.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session invalidated"})
	case errors.Is(err, api.ErrNotReady):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session not established"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
