package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mocky70025/eventplatform-real-sub003/internal/http/response"
	"github.com/mocky70025/eventplatform-real-sub003/internal/services"
)

// 10 MB cap on uploaded document images.
const maxDocumentSize = 10 << 20

type DocumentHandler struct {
	documents services.DocumentService
}

func NewDocumentHandler(documents services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// POST /documents: multipart upload, "file" plus a "kind" field.
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("file field required"))
		return
	}
	if fileHeader.Size > maxDocumentSize {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "too_large", errors.New("file exceeds 10MB"))
		return
	}

	kind := c.PostForm("kind")
	if kind == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("kind field required"))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	defer f.Close()

	doc, err := h.documents.Upload(c.Request.Context(), userID, services.DocumentUpload{
		Kind:        kind,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        f,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"document": doc})
}

// GET /documents/mine
func (h *DocumentHandler) ListOwn(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	list, err := h.documents.ListOwn(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"documents": list})
}
