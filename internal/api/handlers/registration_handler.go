package handlers

import (
	"net/http"

	"event-registration/internal/api/middleware"
	domain "event-registration/internal/domain/registration"
	"event-registration/internal/service"
	"event-registration/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegistrationHandler handles admission-related HTTP requests
type RegistrationHandler struct {
	admissionService *service.AdmissionService
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(admissionService *service.AdmissionService) *RegistrationHandler {
	return &RegistrationHandler{
		admissionService: admissionService,
	}
}

// Register handles POST /api/v1/registrations
func (h *RegistrationHandler) Register(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)

	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid request format",
			Errors:  err.Error(),
		})
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Validation failed",
			Errors:  validator.FormatValidationError(err),
		})
		return
	}

	idempotencyKey := c.GetString("idempotency_key")
	registration, err := h.admissionService.Register(c.Request.Context(), principal, req.EventID, idempotencyKey)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: "Successfully registered",
		Data:    registration,
	})
}

// Cancel handles DELETE /api/v1/registrations/:id
func (h *RegistrationHandler) Cancel(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)

	registrationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid registration id",
		})
		return
	}

	registration, err := h.admissionService.Cancel(c.Request.Context(), principal, registrationID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Registration cancelled",
		Data:    registration,
	})
}

// MyRegistrations handles GET /api/v1/registrations/my
func (h *RegistrationHandler) MyRegistrations(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)

	registrations, err := h.admissionService.MyRegistrations(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "My registrations",
		Data:    registrations,
	})
}

// EventRegistrations handles GET /api/v1/registrations/event/:event_id
func (h *RegistrationHandler) EventRegistrations(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)

	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid event id",
		})
		return
	}

	registrations, err := h.admissionService.EventRegistrations(c.Request.Context(), principal, eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Event registrations",
		Data:    registrations,
	})
}

// Ticket handles GET /api/v1/registrations/:id/ticket
func (h *RegistrationHandler) Ticket(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)

	registrationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid registration id",
		})
		return
	}

	registration, err := h.admissionService.Ticket(c.Request.Context(), principal, registrationID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Ticket",
		Data:    registration,
	})
}

// CancelAllForEvent handles POST /internal/events/:event_id/cancel-all,
// invoked by the event catalog when an event is deleted. Admin only.
func (h *RegistrationHandler) CancelAllForEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid event id",
		})
		return
	}

	cancelled, err := h.admissionService.CancelAllForEvent(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Registrations cancelled",
		Data:    gin.H{"cancelled": cancelled},
	})
}
