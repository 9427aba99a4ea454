package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mocky70025/eventplatform-real-sub003/internal/http/response"
	"github.com/mocky70025/eventplatform-real-sub003/internal/middleware"
)

// currentUserID pulls the authenticated user out of the request context.
// Routes behind RequireAuth always have one; a miss is a wiring bug.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("no session"))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("malformed session"))
		return uuid.Nil, false
	}
	return id, true
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("malformed "+name))
		return uuid.Nil, false
	}
	return id, true
}
