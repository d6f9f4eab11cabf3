package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carebook/scheduling-api/internal/handler"
	"github.com/carebook/scheduling-api/internal/middleware"
	"github.com/carebook/scheduling-api/internal/model"
	appointmentService "github.com/carebook/scheduling-api/internal/service/appointment"
	bookingService "github.com/carebook/scheduling-api/internal/service/booking"
	apperrors "github.com/carebook/scheduling-api/pkg/errors"
)

type Handler struct {
	booking  *bookingService.Service
	appts    *appointmentService.Service
	validate *validator.Validate
}

func NewHandler(booking *bookingService.Service, appts *appointmentService.Service) *Handler {
	return &Handler{
		booking:  booking,
		appts:    appts,
		validate: validator.New(),
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appts := r.Group("/appointments")
	{
		appts.POST("", middleware.RequireRole(model.RolePatient), h.CreateAppointment)
		appts.GET("", h.ListAppointments)
		appts.GET("/:id", h.GetAppointment)
		appts.POST("/:id/confirm", middleware.RequireRole(model.RoleDoctor), h.ConfirmAppointment)
		appts.POST("/:id/reject", middleware.RequireRole(model.RoleDoctor), h.RejectAppointment)
		appts.POST("/:id/cancel", h.CancelAppointment)
		appts.POST("/:id/complete", middleware.RequireRole(model.RoleDoctor), h.CompleteAppointment)
		appts.POST("/:id/follow-up", middleware.RequireRole(model.RoleDoctor), h.SetFollowUp)
	}
}

// CreateAppointment books a published slot when slot_id is given, otherwise
// an ad-hoc window on the doctor's calendar.
func (h *Handler) CreateAppointment(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil || identity.PatientID == nil {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("patient identity required"))
		return
	}

	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	var (
		appt *model.Appointment
		err  error
	)
	if req.SlotID != nil {
		appt, err = h.booking.Reserve(c.Request.Context(), *req.SlotID, *identity.PatientID, req.Type, req.Notes)
	} else {
		if req.DoctorID == uuid.Nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("doctor_id is required for direct booking"))
			return
		}
		appt, err = h.booking.ReserveDirect(c.Request.Context(), *identity.PatientID, &req)
	}
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(appt))
}

func (h *Handler) GetAppointment(c *gin.Context) {
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

	if !h.canRead(c, appt) {
		handler.RespondError(c, apperrors.Forbidden("appointment belongs to another user"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appt))
}

// ListAppointments scopes to the caller's own appointments.
func (h *Handler) ListAppointments(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	filters := &model.AppointmentFilters{}
	switch {
	case identity.DoctorID != nil:
		filters.DoctorID = *identity.DoctorID
	case identity.PatientID != nil:
		filters.PatientID = *identity.PatientID
	default:
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("doctor or patient identity required"))
		return
	}

	if status := c.Query("status"); status != "" {
		filters.Status = model.AppointmentStatus(status)
	}

	appointments, err := h.appts.List(c.Request.Context(), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) ConfirmAppointment(c *gin.Context) {
	appt, ok := h.loadOwnedByDoctor(c)
	if !ok {
		return
	}

	confirmed, err := h.appts.Confirm(c.Request.Context(), appt.ID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(confirmed))
}

func (h *Handler) RejectAppointment(c *gin.Context) {
	appt, ok := h.loadOwnedByDoctor(c)
	if !ok {
		return
	}

	var req model.CancelAppointmentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
	}

	rejected, err := h.appts.Reject(c.Request.Context(), appt.ID, req.Reason)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(rejected))
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
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
	if !h.owns(identity, appt) {
		handler.RespondError(c, apperrors.Forbidden("appointment belongs to another user"))
		return
	}

	var req model.CancelAppointmentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
	}

	cancelled, err := h.appts.Cancel(c.Request.Context(), id, identity.UserID, req.Reason)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(cancelled))
}

func (h *Handler) CompleteAppointment(c *gin.Context) {
	appt, ok := h.loadOwnedByDoctor(c)
	if !ok {
		return
	}

	var req model.CompleteAppointmentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
	}

	completed, err := h.appts.Complete(c.Request.Context(), appt.ID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(completed))
}

func (h *Handler) SetFollowUp(c *gin.Context) {
	appt, ok := h.loadOwnedByDoctor(c)
	if !ok {
		return
	}

	var req model.SetFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.appts.SetFollowUp(c.Request.Context(), appt.ID, req.FollowUpDate)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

// loadOwnedByDoctor parses the id, loads the appointment and verifies the
// calling doctor owns it; on failure it has already written the response.
func (h *Handler) loadOwnedByDoctor(c *gin.Context) (*model.Appointment, bool) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil || identity.DoctorID == nil {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("doctor identity required"))
		return nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return nil, false
	}

	appt, err := h.appts.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return nil, false
	}
	if appt.DoctorID != *identity.DoctorID {
		handler.RespondError(c, apperrors.Forbidden("appointment belongs to another doctor"))
		return nil, false
	}
	return appt, true
}

func (h *Handler) canRead(c *gin.Context, appt *model.Appointment) bool {
	return h.owns(middleware.IdentityFromContext(c), appt)
}

func (h *Handler) owns(identity *model.Identity, appt *model.Appointment) bool {
	if identity == nil {
		return false
	}
	if identity.DoctorID != nil && *identity.DoctorID == appt.DoctorID {
		return true
	}
	if identity.PatientID != nil && *identity.PatientID == appt.PatientID {
		return true
	}
	return identity.Role == model.RoleAdmin
}
