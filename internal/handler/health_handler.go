package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carelink/clinic-api/internal/models"
	"github.com/carelink/clinic-api/internal/service"
	appErrors "github.com/carelink/clinic-api/pkg/errors"
	"github.com/carelink/clinic-api/pkg/response"
)

// HealthHandler wires HTTP endpoints to the health tracking service.
type HealthHandler struct {
	service *service.HealthService
}

// NewHealthHandler creates a new handler.
func NewHealthHandler(svc *service.HealthService) *HealthHandler {
	return &HealthHandler{service: svc}
}

// TrackGoal godoc
// @Summary Track daily metrics
// @Description Record one day of health metrics; repeat submissions for the same date merge
// @Tags Health
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.HealthGoalRequest true "Daily metrics"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /health-tracking/goals [post]
func (h *HealthHandler) TrackGoal(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.HealthGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid health goal payload"))
		return
	}

	goal, err := h.service.TrackGoal(c.Request.Context(), claims.UID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, goal, nil)
}

// ListGoals godoc
// @Summary List tracked days
// @Tags Health
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /health-tracking/goals [get]
func (h *HealthHandler) ListGoals(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	goals, err := h.service.ListGoals(c.Request.Context(), claims.UID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, goals, nil)
}

// AddTest godoc
// @Summary Record a medical test
// @Tags Health
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.MedicalTestRequest true "Test payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /health-tracking/medical-tests [post]
func (h *HealthHandler) AddTest(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.MedicalTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid medical test payload"))
		return
	}

	test, err := h.service.AddTest(c.Request.Context(), claims.UID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, test)
}

// ListTests godoc
// @Summary List medical tests
// @Tags Health
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /health-tracking/medical-tests [get]
func (h *HealthHandler) ListTests(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	tests, err := h.service.ListTests(c.Request.Context(), claims.UID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, tests, nil)
}

// AddCheckup godoc
// @Summary Record a preventive checkup
// @Tags Health
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.PreventiveCheckupRequest true "Checkup payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /health-tracking/checkups [post]
func (h *HealthHandler) AddCheckup(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.PreventiveCheckupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid checkup payload"))
		return
	}

	checkup, err := h.service.AddCheckup(c.Request.Context(), claims.UID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, checkup)
}

// ListCheckups godoc
// @Summary List preventive checkups
// @Tags Health
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /health-tracking/checkups [get]
func (h *HealthHandler) ListCheckups(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	checkups, err := h.service.ListCheckups(c.Request.Context(), claims.UID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, checkups, nil)
}

// Summary godoc
// @Summary Patient health summary
// @Description Aggregate a patient's tracked history for the doctor view
// @Tags Health
// @Produce json
// @Security BearerAuth
// @Param uid path string true "Patient UID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /patients/{uid}/health-summary [get]
func (h *HealthHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), c.Param("uid"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}
