package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carelink/clinic-api/internal/models"
	"github.com/carelink/clinic-api/internal/service"
	appErrors "github.com/carelink/clinic-api/pkg/errors"
	"github.com/carelink/clinic-api/pkg/response"
)

// BookingHandler wires HTTP endpoints to the booking coordinator.
type BookingHandler struct {
	service *service.BookingService
	exports *service.ExportService
}

// NewBookingHandler creates a new handler. exports may be nil when report
// downloads are disabled.
func NewBookingHandler(svc *service.BookingService, exports *service.ExportService) *BookingHandler {
	return &BookingHandler{service: svc, exports: exports}
}

// Book godoc
// @Summary Book an appointment
// @Description Claim a slot in the doctor's grid and record the appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body models.BookAppointmentRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /appointments [post]
func (h *BookingHandler) Book(c *gin.Context) {
	var req models.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}

	// Booking is open to unauthenticated callers; a patient token links the
	// booking to the profile for later enrichment.
	if claims, ok := currentClaims(c); ok && claims.Role == models.RolePatient {
		uid := claims.UID
		req.PatientUID = &uid
	}

	appointment, err := h.service.Book(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"booking_id": appointment.BookingID, "appointment": appointment})
}

// Cancel godoc
// @Summary Cancel an appointment
// @Description Release the booked slot and mark the appointment cancelled; repeat calls are no-ops
// @Tags Appointments
// @Produce json
// @Param bookingId path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /appointments/{bookingId}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	appointment, err := h.service.Cancel(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, appointment, nil)
}

// List godoc
// @Summary List appointments
// @Description Return the authenticated doctor's appointments, newest first
// @Tags Appointments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /doctors/appointments [get]
func (h *BookingHandler) List(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	appointments, err := h.service.ListForDoctor(c.Request.Context(), claims.UID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, appointments, nil)
}

// ListForPatient godoc
// @Summary List own appointments
// @Description Return the authenticated patient's bookings, newest first
// @Tags Appointments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /patients/appointments [get]
func (h *BookingHandler) ListForPatient(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	appointments, err := h.service.ListForPatient(c.Request.Context(), claims.UID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, appointments, nil)
}

// Export godoc
// @Summary Export appointment report
// @Description Download the authenticated doctor's appointments as CSV or PDF
// @Tags Appointments
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /doctors/appointments/export [get]
func (h *BookingHandler) Export(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled"))
		return
	}

	format := service.ReportFormat(c.DefaultQuery("format", string(service.ReportFormatCSV)))

	payload, contentType, err := h.exports.AppointmentReport(c.Request.Context(), claims.UID, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("appointments-%s.%s", time.Now().UTC().Format("2006-01-02"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
