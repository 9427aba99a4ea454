package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mocky70025/eventplatform-real-sub003/internal/http/response"
	"github.com/mocky70025/eventplatform-real-sub003/internal/repos"
	"github.com/mocky70025/eventplatform-real-sub003/internal/services"
)

// AdminHandler groups the admin-only surface: tenant listings, organizer
// approval, event review, document review, and the action log.
type AdminHandler struct {
	tenants   services.TenantService
	events    services.EventService
	documents services.DocumentService
	adminLogs repos.AdminLogRepo
}

func NewAdminHandler(
	tenants services.TenantService,
	events services.EventService,
	documents services.DocumentService,
	adminLogs repos.AdminLogRepo,
) *AdminHandler {
	return &AdminHandler{
		tenants:   tenants,
		events:    events,
		documents: documents,
		adminLogs: adminLogs,
	}
}

// GET /admin/organizers
func (h *AdminHandler) ListOrganizers(c *gin.Context) {
	list, err := h.tenants.ListOrganizers(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"organizers": list})
}

// GET /admin/exhibitors
func (h *AdminHandler) ListExhibitors(c *gin.Context) {
	list, err := h.tenants.ListExhibitors(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"exhibitors": list})
}

// POST /admin/organizers/:id/approve
func (h *AdminHandler) ApproveOrganizer(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	organizerID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.tenants.ApproveOrganizer(c.Request.Context(), actorID, organizerID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "approved"})
}

// GET /admin/events/pending
func (h *AdminHandler) ListPendingEvents(c *gin.Context) {
	list, err := h.events.ListPending(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"events": list})
}

// POST /admin/events/:id/publish
func (h *AdminHandler) PublishEvent(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.events.Publish(c.Request.Context(), actorID, eventID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "published"})
}

// POST /admin/events/:id/reject
func (h *AdminHandler) RejectEvent(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	if err := h.events.Reject(c.Request.Context(), actorID, eventID, req.Reason); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "rejected"})
}

// GET /admin/documents/pending
func (h *AdminHandler) ListPendingDocuments(c *gin.Context) {
	list, err := h.documents.ListPendingReview(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"documents": list})
}

// POST /admin/documents/:id/review
func (h *AdminHandler) ReviewDocument(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	documentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Approve bool   `json:"approve"`
		Note    string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	if err := h.documents.Review(c.Request.Context(), actorID, documentID, req.Approve, req.Note); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "reviewed"})
}

// GET /admin/logs?limit=N
func (h *AdminHandler) ListLogs(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	list, err := h.adminLogs.List(c.Request.Context(), limit)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"logs": list})
}
