package blockeddate

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carebook/scheduling-api/internal/handler"
	"github.com/carebook/scheduling-api/internal/middleware"
	"github.com/carebook/scheduling-api/internal/model"
	blockedService "github.com/carebook/scheduling-api/internal/service/blockeddate"
)

type Handler struct {
	service  *blockedService.Service
	validate *validator.Validate
}

func NewHandler(service *blockedService.Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	dates := r.Group("/blocked-dates", middleware.RequireRole(model.RoleDoctor))
	{
		dates.POST("", h.Block)
		dates.GET("", h.List)
		dates.DELETE("/:id", h.Unblock)
	}
}

func (h *Handler) Block(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil || identity.DoctorID == nil {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("doctor identity required"))
		return
	}

	var req model.BlockDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	bd, err := h.service.Block(c.Request.Context(), *identity.DoctorID, req.Date, req.Reason)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(bd))
}

func (h *Handler) List(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil || identity.DoctorID == nil {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("doctor identity required"))
		return
	}

	dates, err := h.service.List(c.Request.Context(), *identity.DoctorID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(dates))
}

func (h *Handler) Unblock(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil || identity.DoctorID == nil {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("doctor identity required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid blocked date ID"))
		return
	}

	if err := h.service.Unblock(c.Request.Context(), id, *identity.DoctorID); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
