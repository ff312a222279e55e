package models

import "time"

// AppointmentStatus is the one-way appointment lifecycle.
type AppointmentStatus string

const (
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Appointment is the ledger record for a booked slot. Records are never
// deleted; cancellation only flips the status and stamps cancelled_at.
type Appointment struct {
	BookingID    string            `db:"booking_id" json:"booking_id"`
	DoctorUID    string            `db:"doctor_uid" json:"doctor_uid"`
	DoctorName   string            `db:"doctor_name" json:"doctor_name"`
	PatientUID   *string           `db:"patient_uid" json:"patient_uid,omitempty"`
	PatientName  string            `db:"patient_name" json:"patient_name"`
	PatientEmail string            `db:"patient_email" json:"patient_email"`
	PatientPhone string            `db:"patient_phone" json:"patient_phone"`
	Day          Weekday           `db:"day" json:"day"`
	StartTime    string            `db:"start_time" json:"start_time"`
	EndTime      string            `db:"end_time" json:"end_time"`
	Reason       string            `db:"reason" json:"reason"`
	Status       AppointmentStatus `db:"status" json:"status"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	CancelledAt  *time.Time        `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

// AppointmentDetail is an appointment optionally enriched with the registered
// patient's profile fields.
type AppointmentDetail struct {
	Appointment
	PatientDetails *PatientDetails `json:"patient_details,omitempty"`
}
