package handlers

import (
	"errors"
	"net/http"

	domain "event-registration/internal/domain/registration"

	"github.com/gin-gonic/gin"
)

// APIResponse is the platform's standard response envelope
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// respondError maps domain errors to HTTP statuses and the envelope.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrInvalidCredential):
		status = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, domain.ErrRegistrationNotFound), errors.Is(err, domain.ErrEventNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, domain.ErrAlreadyRegistered), errors.Is(err, domain.ErrCapacityExceeded):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, domain.ErrIdempotencyMisuse):
		status = http.StatusUnprocessableEntity
		message = err.Error()
	case errors.Is(err, domain.ErrOracleUnavailable):
		status = http.StatusServiceUnavailable
		message = err.Error()
	}

	c.JSON(status, APIResponse{
		Success: false,
		Message: message,
	})
}
