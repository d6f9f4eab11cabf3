package slot

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carebook/scheduling-api/internal/handler"
	"github.com/carebook/scheduling-api/internal/middleware"
	"github.com/carebook/scheduling-api/internal/model"
	slotService "github.com/carebook/scheduling-api/internal/service/slot"
)

type Handler struct {
	service  *slotService.Service
	validate *validator.Validate
}

func NewHandler(service *slotService.Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	slots := r.Group("/slots")
	{
		slots.GET("", h.ListSlots)
		slots.POST("", middleware.RequireRole(model.RoleDoctor), h.CreateSlot)
		slots.POST("/generate", middleware.RequireRole(model.RoleDoctor), h.GenerateSlots)
		slots.PUT("/:id", middleware.RequireRole(model.RoleDoctor), h.UpdateSlot)
		slots.DELETE("/:id", middleware.RequireRole(model.RoleDoctor), h.DeleteSlot)
	}
}

func (h *Handler) GenerateSlots(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil || identity.DoctorID == nil {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("doctor identity required"))
		return
	}

	var req model.GenerateSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	req.DoctorID = *identity.DoctorID

	if err := h.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.service.GenerateSlots(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(result))
}

func (h *Handler) CreateSlot(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil || identity.DoctorID == nil {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("doctor identity required"))
		return
	}

	var req model.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	req.DoctorID = *identity.DoctorID

	if err := h.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	slot, err := h.service.CreateSlot(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(slot))
}

func (h *Handler) ListSlots(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Query("doctor_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	filters := &model.SlotFilters{DoctorID: doctorID}

	if status := c.Query("status"); status != "" {
		filters.Status = model.SlotStatus(status)
	} else {
		filters.Status = model.SlotStatusAvailable
	}
	if date := c.Query("start_date"); date != "" {
		t, err := time.Parse(time.RFC3339, date)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid start_date"))
			return
		}
		filters.StartDate = t
	}
	if date := c.Query("end_date"); date != "" {
		t, err := time.Parse(time.RFC3339, date)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid end_date"))
			return
		}
		filters.EndDate = t
	}

	slots, err := h.service.ListSlots(c.Request.Context(), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(slots))
}

func (h *Handler) UpdateSlot(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil || identity.DoctorID == nil {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("doctor identity required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid slot ID"))
		return
	}

	var req model.UpdateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	slot, err := h.service.UpdateSlot(c.Request.Context(), id, *identity.DoctorID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(slot))
}

func (h *Handler) DeleteSlot(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil || identity.DoctorID == nil {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("doctor identity required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid slot ID"))
		return
	}

	if err := h.service.DeleteSlot(c.Request.Context(), id, *identity.DoctorID); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
