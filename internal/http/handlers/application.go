package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mocky70025/eventplatform-real-sub003/internal/http/response"
	"github.com/mocky70025/eventplatform-real-sub003/internal/services"
)

type ApplicationHandler struct {
	applications services.ApplicationService
}

func NewApplicationHandler(applications services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

// POST /events/:id/applications
func (h *ApplicationHandler) Apply(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	a, err := h.applications.Apply(c.Request.Context(), userID, eventID, req.Message)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"application": a})
}

// GET /applications/mine
func (h *ApplicationHandler) ListOwn(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	list, err := h.applications.ListOwn(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"applications": list})
}

// GET /events/:id/applications
func (h *ApplicationHandler) ListForEvent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}

	list, err := h.applications.ListForEvent(c.Request.Context(), userID, eventID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"applications": list})
}

// POST /applications/:id/approve
func (h *ApplicationHandler) Approve(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	appID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.applications.Approve(c.Request.Context(), userID, appID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "approved"})
}

// POST /applications/:id/reject
func (h *ApplicationHandler) Reject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	appID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	if err := h.applications.Reject(c.Request.Context(), userID, appID, req.Reason); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "rejected"})
}
