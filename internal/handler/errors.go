package handler

import (
	"errors"
	"net/http"

	"companion-server/internal/models"

	"github.com/gin-gonic/gin"
)

// errorResponse is the uniform error body of the API.
type errorResponse struct {
	Error string `json:"error"`
}

// respondError maps service sentinels to HTTP statuses in one place.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, models.ErrStoryNotFound),
		errors.Is(err, models.ErrPersonaNotFound),
		errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, models.ErrTurnInProgress),
		errors.Is(err, models.ErrProgressConflict):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, models.ErrGenerationFailed):
		status = http.StatusBadGateway
		message = models.ErrGenerationFailed.Error()
	case errors.Is(err, models.ErrPersistenceUnavailable):
		status = http.StatusServiceUnavailable
		message = models.ErrPersistenceUnavailable.Error()
	case errors.Is(err, models.ErrForbidden):
		status = http.StatusForbidden
		message = models.ErrForbidden.Error()
	case errors.Is(err, models.ErrUnauthorized):
		status = http.StatusUnauthorized
		message = models.ErrUnauthorized.Error()
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrBadRequest):
		status = http.StatusBadRequest
		message = err.Error()
	}

	if status == http.StatusInternalServerError {
		// Internals stay in the logs, not in the response body.
		_ = c.Error(err)
	}
	c.JSON(status, errorResponse{Error: message})
}
