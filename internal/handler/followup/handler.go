package followup

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carebook/scheduling-api/internal/handler"
	"github.com/carebook/scheduling-api/internal/middleware"
	"github.com/carebook/scheduling-api/internal/model"
	appointmentService "github.com/carebook/scheduling-api/internal/service/appointment"
	followupService "github.com/carebook/scheduling-api/internal/service/followup"
	apperrors "github.com/carebook/scheduling-api/pkg/errors"
)

type Handler struct {
	service *followupService.Service
	appts   *appointmentService.Service
}

func NewHandler(service *followupService.Service, appts *appointmentService.Service) *Handler {
	return &Handler{service: service, appts: appts}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	followups := r.Group("/follow-ups", middleware.RequireRole(model.RoleDoctor))
	{
		followups.GET("/due", h.DueReminders)
		followups.POST("/:id/dispatch", h.Dispatch)
	}
}

// DueReminders lists the calling doctor's matured, unsent follow-ups.
func (h *Handler) DueReminders(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil || identity.DoctorID == nil {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("doctor identity required"))
		return
	}

	due, err := h.service.DueReminders(c.Request.Context(), identity.DoctorID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(due))
}

// Dispatch manually triggers one reminder for an appointment the calling
// doctor owns. Racing the periodic scan is safe; the loser of the
// conditional update reports success without re-sending.
func (h *Handler) Dispatch(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil || identity.DoctorID == nil {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("doctor identity required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	appt, err := h.appts.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if appt.DoctorID != *identity.DoctorID {
		handler.RespondError(c, apperrors.Forbidden("appointment belongs to another doctor"))
		return
	}

	if err := h.service.Dispatch(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"dispatched": true}))
}
