package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/carebook/scheduling-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func NewSuccessResponse(data interface{}) Response {
	return Response{Status: "success", Data: data}
}

func NewErrorResponse(message string) Response {
	return Response{Status: "error", Message: message}
}

// RespondError maps the error taxonomy onto HTTP statuses. Unknown errors
// surface as a generic 500 without leaking internals.
func RespondError(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)

	status := http.StatusInternalServerError
	message := "internal server error"

	switch code {
	case apperrors.ErrConflict:
		status = http.StatusConflict
		message = err.Error()
	case apperrors.ErrInvalidTransition, apperrors.ErrBadRequest, apperrors.ErrNotEligible:
		status = http.StatusBadRequest
		message = err.Error()
	case apperrors.ErrNotFound:
		status = http.StatusNotFound
		message = err.Error()
	case apperrors.ErrUnavailable:
		status = http.StatusServiceUnavailable
		message = "service temporarily unavailable, please retry"
	case apperrors.ErrUnauthorized:
		status = http.StatusUnauthorized
		message = "unauthorized"
	case apperrors.ErrForbidden:
		status = http.StatusForbidden
		message = err.Error()
	}

	c.JSON(status, NewErrorResponse(message))
}
