package history

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carebook/scheduling-api/internal/handler"
	"github.com/carebook/scheduling-api/internal/middleware"
	historyService "github.com/carebook/scheduling-api/internal/service/history"
)

type Handler struct {
	service *historyService.Service
}

func NewHandler(service *historyService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/patient-history", h.List)
}

// List returns the caller's own history for patients; doctors read a given
// patient's history via the patient_id query parameter.
func (h *Handler) List(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	var patientID uuid.UUID
	switch {
	case identity.PatientID != nil:
		patientID = *identity.PatientID
	case identity.DoctorID != nil:
		id, err := uuid.Parse(c.Query("patient_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("patient_id is required"))
			return
		}
		patientID = id
	default:
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("doctor or patient identity required"))
		return
	}

	records, err := h.service.ForPatient(c.Request.Context(), patientID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(records))
}
