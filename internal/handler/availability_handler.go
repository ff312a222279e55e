package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carelink/clinic-api/internal/models"
	"github.com/carelink/clinic-api/internal/service"
	appErrors "github.com/carelink/clinic-api/pkg/errors"
	"github.com/carelink/clinic-api/pkg/response"
)

// AvailabilityHandler wires HTTP endpoints to the availability service.
type AvailabilityHandler struct {
	service *service.AvailabilityService
}

// NewAvailabilityHandler creates a new handler.
func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// Get godoc
// @Summary Get weekly availability
// @Description Return a doctor's full weekly slot grid
// @Tags Availability
// @Produce json
// @Param uid path string true "Doctor UID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /doctors/{uid}/availability [get]
func (h *AvailabilityHandler) Get(c *gin.Context) {
	grid, err := h.service.Get(c.Request.Context(), c.Param("uid"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"availability": grid}, nil)
}

// Replace godoc
// @Summary Replace weekly availability
// @Description Overwrite the authenticated doctor's full weekly slot grid
// @Tags Availability
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.ReplaceAvailabilityRequest true "Weekly grid"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /doctors/availability [put]
func (h *AvailabilityHandler) Replace(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.ReplaceAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}

	grid, err := h.service.Replace(c.Request.Context(), claims.UID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"availability": grid}, nil)
}

// Check godoc
// @Summary Check day availability
// @Description Return the open slots a doctor has on one day, or the reason none are bookable
// @Tags Availability
// @Produce json
// @Param uid path string true "Doctor UID"
// @Param day query string true "Lowercase weekday name"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /doctors/{uid}/check-availability [get]
func (h *AvailabilityHandler) Check(c *gin.Context) {
	day := models.Weekday(c.Query("day"))

	status, err := h.service.CheckDay(c.Request.Context(), c.Param("uid"), day)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, status, nil)
}
