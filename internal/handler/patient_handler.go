package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carelink/clinic-api/internal/models"
	"github.com/carelink/clinic-api/internal/service"
	appErrors "github.com/carelink/clinic-api/pkg/errors"
	"github.com/carelink/clinic-api/pkg/response"
)

// PatientHandler wires HTTP endpoints to the patient service.
type PatientHandler struct {
	service *service.PatientService
}

// NewPatientHandler creates a new handler.
func NewPatientHandler(svc *service.PatientService) *PatientHandler {
	return &PatientHandler{service: svc}
}

// Register godoc
// @Summary Register patient
// @Description Create a patient account and return the first token pair
// @Tags Patients
// @Accept json
// @Produce json
// @Param payload body models.RegisterPatientRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /patients/register [post]
func (h *PatientHandler) Register(c *gin.Context) {
	var req models.RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	patient, tokens, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"patient": patient, "tokens": tokens})
}

// Login godoc
// @Summary Patient login
// @Description Authenticate a patient by email and password
// @Tags Patients
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /patients/login [post]
func (h *PatientHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	patient, tokens, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"patient": patient, "tokens": tokens}, nil)
}

// GetProfile godoc
// @Summary Patient profile
// @Description Return the authenticated patient's profile
// @Tags Patients
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /patients/profile [get]
func (h *PatientHandler) GetProfile(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	patient, err := h.service.GetProfile(c.Request.Context(), claims.UID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, patient, nil)
}

// UpdateProfile godoc
// @Summary Update patient profile
// @Description Apply a partial profile update for the authenticated patient
// @Tags Patients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.UpdatePatientProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /patients/profile [put]
func (h *PatientHandler) UpdateProfile(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdatePatientProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}

	patient, err := h.service.UpdateProfile(c.Request.Context(), claims.UID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, patient, nil)
}
