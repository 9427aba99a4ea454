package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mocky70025/eventplatform-real-sub003/internal/http/response"
	"github.com/mocky70025/eventplatform-real-sub003/internal/services"
)

type TenantHandler struct {
	tenants services.TenantService
}

func NewTenantHandler(tenants services.TenantService) *TenantHandler {
	return &TenantHandler{tenants: tenants}
}

// POST /organizers
func (h *TenantHandler) RegisterOrganizer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var in services.OrganizerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	org, err := h.tenants.RegisterOrganizer(c.Request.Context(), userID, in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"organizer": org})
}

// GET /organizers/me
func (h *TenantHandler) GetOwnOrganizer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	org, err := h.tenants.GetOrganizerByUser(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"organizer": org})
}

// PUT /organizers/me
func (h *TenantHandler) UpdateOwnOrganizer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var in services.OrganizerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	org, err := h.tenants.UpdateOrganizer(c.Request.Context(), userID, in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"organizer": org})
}

// POST /exhibitors
func (h *TenantHandler) RegisterExhibitor(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var in services.ExhibitorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	ex, err := h.tenants.RegisterExhibitor(c.Request.Context(), userID, in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"exhibitor": ex})
}

// GET /exhibitors/me
func (h *TenantHandler) GetOwnExhibitor(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ex, err := h.tenants.GetExhibitorByUser(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"exhibitor": ex})
}

// PUT /exhibitors/me
func (h *TenantHandler) UpdateOwnExhibitor(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var in services.ExhibitorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	ex, err := h.tenants.UpdateExhibitor(c.Request.Context(), userID, in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"exhibitor": ex})
}
