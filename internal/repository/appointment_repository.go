package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carelink/clinic-api/internal/models"
)

const appointmentColumns = `booking_id, doctor_uid, doctor_name, patient_uid, patient_name, patient_email,
patient_phone, day, start_time, end_time, reason, status, created_at, cancelled_at`

// AppointmentRepository handles persistence of the appointment ledger.
// Records are append-plus-status-flip only; nothing is ever deleted.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs the repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// Create inserts a confirmed appointment record.
func (r *AppointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	const query = `INSERT INTO appointments (booking_id, doctor_uid, doctor_name, patient_uid, patient_name,
patient_email, patient_phone, day, start_time, end_time, reason, status, created_at)
VALUES (:booking_id, :doctor_uid, :doctor_name, :patient_uid, :patient_name, :patient_email, :patient_phone,
:day, :start_time, :end_time, :reason, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, appointment); err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// FindByBookingID returns the appointment for a booking.
func (r *AppointmentRepository) FindByBookingID(ctx context.Context, bookingID string) (*models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE booking_id = $1`, appointmentColumns)
	var appointment models.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, bookingID); err != nil {
		return nil, err
	}
	return &appointment, nil
}

// MarkCancelled flips the status to cancelled and stamps cancelled_at. The
// flip is idempotent: cancelling an already cancelled appointment keeps the
// original cancellation time.
func (r *AppointmentRepository) MarkCancelled(ctx context.Context, bookingID string, cancelledAt time.Time) error {
	const query = `UPDATE appointments SET status = $2, cancelled_at = COALESCE(cancelled_at, $3)
WHERE booking_id = $1`
	res, err := r.db.ExecContext(ctx, query, bookingID, models.AppointmentCancelled, cancelledAt)
	if err != nil {
		return fmt.Errorf("cancel appointment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel appointment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByPatient returns a patient's own bookings newest first.
func (r *AppointmentRepository) ListByPatient(ctx context.Context, patientUID string) ([]models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE patient_uid = $1 ORDER BY created_at DESC`, appointmentColumns)
	var appointments []models.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, patientUID); err != nil {
		return nil, fmt.Errorf("list patient appointments: %w", err)
	}
	return appointments, nil
}

// ListByDoctor returns a doctor's appointments newest first, each enriched
// with the registered patient's profile when the booking carries a patient
// UID.
func (r *AppointmentRepository) ListByDoctor(ctx context.Context, doctorUID string) ([]models.AppointmentDetail, error) {
	const query = `SELECT a.booking_id, a.doctor_uid, a.doctor_name, a.patient_uid, a.patient_name,
a.patient_email, a.patient_phone, a.day, a.start_time, a.end_time, a.reason, a.status, a.created_at,
a.cancelled_at,
p.uid AS enriched_uid, p.first_name AS enriched_first_name, p.last_name AS enriched_last_name,
p.email AS enriched_email, p.phone_number AS enriched_phone, p.date_of_birth AS enriched_dob,
p.address AS enriched_address, p.emergency_contact AS enriched_emergency
FROM appointments a
LEFT JOIN patients p ON p.uid = a.patient_uid
WHERE a.doctor_uid = $1
ORDER BY a.created_at DESC`

	rows, err := r.db.QueryxContext(ctx, query, doctorUID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var details []models.AppointmentDetail
	for rows.Next() {
		var row struct {
			models.Appointment
			EnrichedUID       *string `db:"enriched_uid"`
			EnrichedFirstName *string `db:"enriched_first_name"`
			EnrichedLastName  *string `db:"enriched_last_name"`
			EnrichedEmail     *string `db:"enriched_email"`
			EnrichedPhone     *string `db:"enriched_phone"`
			EnrichedDOB       *string `db:"enriched_dob"`
			EnrichedAddress   *string `db:"enriched_address"`
			EnrichedEmergency *string `db:"enriched_emergency"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}

		detail := models.AppointmentDetail{Appointment: row.Appointment}
		if row.EnrichedUID != nil {
			detail.PatientDetails = &models.PatientDetails{
				UID:              deref(row.EnrichedUID),
				Name:             deref(row.EnrichedFirstName) + " " + deref(row.EnrichedLastName),
				Email:            deref(row.EnrichedEmail),
				PhoneNumber:      deref(row.EnrichedPhone),
				DateOfBirth:      deref(row.EnrichedDOB),
				Address:          deref(row.EnrichedAddress),
				EmergencyContact: deref(row.EnrichedEmergency),
			}
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}
	return details, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
