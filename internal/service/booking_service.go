package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carelink/clinic-api/internal/models"
	appErrors "github.com/carelink/clinic-api/pkg/errors"
)

type bookingSlotStore interface {
	ClaimSlot(ctx context.Context, doctorUID string, day models.Weekday, start, end, patientEmail, bookingID string) error
	ReleaseSlot(ctx context.Context, doctorUID string, day models.Weekday, start, end, bookingID string) error
}

type bookingDoctorRepository interface {
	FindByUID(ctx context.Context, uid string) (*models.Doctor, error)
}

type bookingAppointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	FindByBookingID(ctx context.Context, bookingID string) (*models.Appointment, error)
	MarkCancelled(ctx context.Context, bookingID string, cancelledAt time.Time) error
	ListByDoctor(ctx context.Context, doctorUID string) ([]models.AppointmentDetail, error)
	ListByPatient(ctx context.Context, patientUID string) ([]models.Appointment, error)
}

type bookingMetricsRecorder interface {
	RecordBookingOutcome(outcome string)
	ObserveDBQuery(label string, duration time.Duration)
}

// Booking outcome labels recorded on every attempt.
const (
	BookingOutcomeConfirmed    = "confirmed"
	BookingOutcomeConflict     = "conflict"
	BookingOutcomeFailed       = "failed"
	BookingOutcomeInconsistent = "inconsistent"
)

// BookingService coordinates the two-sided state change of a booking: the
// slot claim in the availability grid and the appointment ledger record. The
// claim happens first and no record is written on claim failure. A record
// write failure after a successful claim triggers a compensating release, and
// a failed compensation surfaces as INCONSISTENT_STATE so the orphaned claim
// is never silently lost.
type BookingService struct {
	slots        bookingSlotStore
	doctors      bookingDoctorRepository
	appointments bookingAppointmentRepository
	metrics      bookingMetricsRecorder
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewBookingService constructs a BookingService. metrics may be nil.
func NewBookingService(slots bookingSlotStore, doctors bookingDoctorRepository, appointments bookingAppointmentRepository, metrics bookingMetricsRecorder, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &BookingService{
		slots:        slots,
		doctors:      doctors,
		appointments: appointments,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
	}
}

// Book claims the requested slot and writes the appointment record.
func (s *BookingService) Book(ctx context.Context, req models.BookAppointmentRequest) (*models.Appointment, error) {
	appointment, err := s.book(ctx, req)
	s.recordOutcome(err)
	return appointment, err
}

func (s *BookingService) book(ctx context.Context, req models.BookAppointmentRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	if !models.ValidWeekday(req.Day) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid day value")
	}

	doctor, err := s.doctors.FindByUID(ctx, req.DoctorUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doctor")
	}
	if !doctor.IsActive {
		return nil, appErrors.Clone(appErrors.ErrDoctorOffline, "")
	}

	bookingID := uuid.NewString()

	if err := s.slots.ClaimSlot(ctx, req.DoctorUID, req.Day, req.StartTime, req.EndTime, req.PatientEmail, bookingID); err != nil {
		return nil, err
	}

	appointment := &models.Appointment{
		BookingID:    bookingID,
		DoctorUID:    doctor.UID,
		DoctorName:   doctor.FullName(),
		PatientUID:   req.PatientUID,
		PatientName:  req.PatientName,
		PatientEmail: req.PatientEmail,
		PatientPhone: req.PatientPhone,
		Day:          req.Day,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Reason:       req.Reason,
		Status:       models.AppointmentConfirmed,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.appointments.Create(ctx, appointment); err != nil {
		s.logger.Error("appointment write failed after slot claim, compensating",
			zap.String("booking_id", bookingID),
			zap.String("doctor_uid", req.DoctorUID),
			zap.Error(err))

		if relErr := s.slots.ReleaseSlot(ctx, req.DoctorUID, req.Day, req.StartTime, req.EndTime, bookingID); relErr != nil {
			s.logger.Error("compensating release failed, slot is orphaned",
				zap.String("booking_id", bookingID),
				zap.String("doctor_uid", req.DoctorUID),
				zap.Error(relErr))
			return nil, appErrors.Wrap(err, appErrors.ErrInconsistentState.Code, appErrors.ErrInconsistentState.Status, appErrors.ErrInconsistentState.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record appointment")
	}

	return appointment, nil
}

// Cancel releases the booked slot and flips the appointment to cancelled.
// Calling it again for the same booking is a no-op success: the release does
// not match any slot and the record is already cancelled.
func (s *BookingService) Cancel(ctx context.Context, bookingID string) (*models.Appointment, error) {
	appointment, err := s.appointments.FindByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}

	if err := s.slots.ReleaseSlot(ctx, appointment.DoctorUID, appointment.Day, appointment.StartTime, appointment.EndTime, bookingID); err != nil {
		// The record still reflects the cancellation even when the grid is
		// desynced, so a broken slot never blocks the patient from
		// cancelling.
		s.logger.Warn("slot release failed during cancellation",
			zap.String("booking_id", bookingID),
			zap.String("doctor_uid", appointment.DoctorUID),
			zap.Error(err))
	}

	now := time.Now().UTC()
	if err := s.appointments.MarkCancelled(ctx, bookingID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update appointment")
	}

	appointment.Status = models.AppointmentCancelled
	if appointment.CancelledAt == nil {
		appointment.CancelledAt = &now
	}
	return appointment, nil
}

// ListForDoctor returns the doctor's appointments, newest first, enriched
// with registered patient profiles where the booking carries a patient UID.
func (s *BookingService) ListForDoctor(ctx context.Context, doctorUID string) ([]models.AppointmentDetail, error) {
	start := time.Now()
	details, err := s.appointments.ListByDoctor(ctx, doctorUID)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("appointments_by_doctor", time.Since(start))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	return details, nil
}

// ListForPatient returns the patient's own bookings, newest first.
func (s *BookingService) ListForPatient(ctx context.Context, patientUID string) ([]models.Appointment, error) {
	start := time.Now()
	appointments, err := s.appointments.ListByPatient(ctx, patientUID)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("appointments_by_patient", time.Since(start))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	return appointments, nil
}

func (s *BookingService) recordOutcome(err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case err == nil:
		s.metrics.RecordBookingOutcome(BookingOutcomeConfirmed)
	default:
		appErr := appErrors.FromError(err)
		switch appErr.Code {
		case appErrors.ErrInconsistentState.Code:
			s.metrics.RecordBookingOutcome(BookingOutcomeInconsistent)
		case appErrors.ErrSlotAlreadyBooked.Code, appErrors.ErrDoctorOffline.Code,
			appErrors.ErrDayNotConfigured.Code, appErrors.ErrDayUnavailable.Code,
			appErrors.ErrTooManyConflicts.Code, appErrors.ErrLockContention.Code:
			s.metrics.RecordBookingOutcome(BookingOutcomeConflict)
		default:
			s.metrics.RecordBookingOutcome(BookingOutcomeFailed)
		}
	}
}
