package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carelink/clinic-api/internal/models"
	"github.com/carelink/clinic-api/internal/service"
	appErrors "github.com/carelink/clinic-api/pkg/errors"
	"github.com/carelink/clinic-api/pkg/response"
)

// DoctorHandler wires HTTP endpoints to the doctor service.
type DoctorHandler struct {
	service *service.DoctorService
}

// NewDoctorHandler creates a new handler.
func NewDoctorHandler(svc *service.DoctorService) *DoctorHandler {
	return &DoctorHandler{service: svc}
}

// Register godoc
// @Summary Register doctor
// @Description Create a doctor account and return the first token pair
// @Tags Doctors
// @Accept json
// @Produce json
// @Param payload body models.RegisterDoctorRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /doctors/register [post]
func (h *DoctorHandler) Register(c *gin.Context) {
	var req models.RegisterDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	doctor, tokens, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"doctor": doctor, "tokens": tokens})
}

// Login godoc
// @Summary Doctor login
// @Description Authenticate a doctor by email and password
// @Tags Doctors
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /doctors/login [post]
func (h *DoctorHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	doctor, tokens, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"doctor": doctor, "tokens": tokens}, nil)
}

// GetProfile godoc
// @Summary Doctor profile
// @Description Return the authenticated doctor's profile
// @Tags Doctors
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /doctors/profile [get]
func (h *DoctorHandler) GetProfile(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	doctor, err := h.service.GetProfile(c.Request.Context(), claims.UID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, doctor, nil)
}

// UpdateProfile godoc
// @Summary Update doctor profile
// @Description Apply a partial profile update for the authenticated doctor
// @Tags Doctors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.UpdateDoctorProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /doctors/profile [put]
func (h *DoctorHandler) UpdateProfile(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateDoctorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}

	doctor, err := h.service.UpdateProfile(c.Request.Context(), claims.UID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, doctor, nil)
}

// ToggleStatus godoc
// @Summary Toggle online status
// @Description Flip the authenticated doctor's online flag
// @Tags Doctors
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /doctors/toggle-status [post]
func (h *DoctorHandler) ToggleStatus(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	active, err := h.service.ToggleStatus(c.Request.Context(), claims.UID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"is_active": active}, nil)
}

// List godoc
// @Summary List doctors
// @Description Public doctor directory
// @Tags Doctors
// @Produce json
// @Param active query bool false "Only doctors currently online"
// @Success 200 {object} response.Envelope
// @Router /doctors [get]
func (h *DoctorHandler) List(c *gin.Context) {
	filter := models.DoctorFilter{ActiveOnly: c.Query("active") == "true"}

	doctors, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, doctors, nil)
}
