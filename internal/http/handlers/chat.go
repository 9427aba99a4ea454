package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mocky70025/eventplatform-real-sub003/internal/http/response"
	"github.com/mocky70025/eventplatform-real-sub003/internal/services"
	"github.com/mocky70025/eventplatform-real-sub003/internal/sse"
)

type ChatHandler struct {
	chat services.ChatService
	hub  *sse.Hub
}

func NewChatHandler(chat services.ChatService, hub *sse.Hub) *ChatHandler {
	return &ChatHandler{chat: chat, hub: hub}
}

// POST /applications/:id/messages
func (h *ChatHandler) Send(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	appID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	m, err := h.chat.Send(c.Request.Context(), userID, appID, req.Body)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"message": m})
}

// GET /applications/:id/messages
func (h *ChatHandler) History(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	appID, ok := pathID(c, "id")
	if !ok {
		return
	}

	list, err := h.chat.History(c.Request.Context(), userID, appID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"messages": list})
}

// GET /applications/:id/stream: live chat over SSE. The connection also
// carries the caller's own notification channel.
func (h *ChatHandler) Stream(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	appID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.chat.Authorize(c.Request.Context(), userID, appID); err != nil {
		response.RespondServiceError(c, err)
		return
	}

	client := h.hub.NewClient(userID)
	h.hub.Subscribe(client, sse.ChatChannel(appID))
	h.hub.Subscribe(client, sse.NotificationChannel(userID))

	h.hub.Stream(c.Writer, c.Request, client)
}
