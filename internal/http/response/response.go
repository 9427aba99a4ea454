package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mocky70025/eventplatform-real-sub003/internal/services"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondServiceError maps the service error vocabulary onto HTTP
// statuses so handlers don't repeat the switch.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, services.ErrForbidden):
		RespondError(c, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, services.ErrProfileExists),
		errors.Is(err, services.ErrAlreadyApplied),
		errors.Is(err, services.ErrAlreadyDecided):
		RespondError(c, http.StatusConflict, "conflict", err)
	case errors.Is(err, services.ErrNotApproved),
		errors.Is(err, services.ErrEventNotPublished),
		errors.Is(err, services.ErrInvalidTransition):
		RespondError(c, http.StatusUnprocessableEntity, "invalid_state", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
