package handler

import (
	"errors"
	"net/http"

	"github.com/Aaditya7171/event-platform/internal/domain"
	"github.com/Aaditya7171/event-platform/pkg/response"
	"github.com/gin-gonic/gin"
)

// writeDomainError maps service errors onto the response envelope
func writeDomainError(c *gin.Context, err error, fallback string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, response.ValidationFailed(map[string]string{ve.Field: ve.Message}))
	case errors.Is(err, domain.ErrEventNotFound):
		c.JSON(http.StatusNotFound, response.NotFound("Event not found"))
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, response.Conflict(response.ErrCodeConflict, err.Error()))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, response.InternalError(fallback))
	}
}
