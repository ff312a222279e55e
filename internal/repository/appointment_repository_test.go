package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/clinic-api/internal/models"
)

func newAppointmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAppointmentRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newAppointmentRepoMock(t)
	defer cleanup()

	repo := NewAppointmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO appointments")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	appointment := &models.Appointment{
		BookingID:    "bk-1",
		DoctorUID:    "doc-1",
		DoctorName:   "Ada Lovelace",
		PatientName:  "Grace Hopper",
		PatientEmail: "grace@example.com",
		PatientPhone: "+15550001",
		Day:          models.Monday,
		StartTime:    "09:00",
		EndTime:      "10:00",
		Reason:       "checkup",
		Status:       models.AppointmentConfirmed,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), appointment))

	rows := sqlmock.NewRows([]string{
		"booking_id", "doctor_uid", "doctor_name", "patient_uid", "patient_name", "patient_email",
		"patient_phone", "day", "start_time", "end_time", "reason", "status", "created_at", "cancelled_at",
	}).AddRow("bk-1", "doc-1", "Ada Lovelace", nil, "Grace Hopper", "grace@example.com",
		"+15550001", "monday", "09:00", "10:00", "checkup", "confirmed", time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT booking_id, doctor_uid, doctor_name")).
		WithArgs("bk-1").
		WillReturnRows(rows)

	found, err := repo.FindByBookingID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, "bk-1", found.BookingID)
	assert.Equal(t, models.AppointmentConfirmed, found.Status)
	assert.Nil(t, found.CancelledAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryFindByBookingIDNotFound(t *testing.T) {
	db, mock, cleanup := newAppointmentRepoMock(t)
	defer cleanup()

	repo := NewAppointmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT booking_id, doctor_uid, doctor_name")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByBookingID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAppointmentRepositoryMarkCancelled(t *testing.T) {
	db, mock, cleanup := newAppointmentRepoMock(t)
	defer cleanup()

	repo := NewAppointmentRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE appointments SET status = $2, cancelled_at = COALESCE(cancelled_at, $3)")).
		WithArgs("bk-1", string(models.AppointmentCancelled), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkCancelled(context.Background(), "bk-1", now))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE appointments SET status = $2, cancelled_at = COALESCE(cancelled_at, $3)")).
		WithArgs("missing", string(models.AppointmentCancelled), now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.MarkCancelled(context.Background(), "missing", now), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryListByPatient(t *testing.T) {
	db, mock, cleanup := newAppointmentRepoMock(t)
	defer cleanup()

	repo := NewAppointmentRepository(db)
	patientUID := "pat-1"
	rows := sqlmock.NewRows([]string{
		"booking_id", "doctor_uid", "doctor_name", "patient_uid", "patient_name", "patient_email",
		"patient_phone", "day", "start_time", "end_time", "reason", "status", "created_at", "cancelled_at",
	}).AddRow("bk-1", "doc-1", "Ada Lovelace", patientUID, "Grace Hopper", "grace@example.com",
		"+15550001", "monday", "09:00", "10:00", "checkup", "confirmed", time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM appointments WHERE patient_uid = $1 ORDER BY created_at DESC")).
		WithArgs(patientUID).
		WillReturnRows(rows)

	appointments, err := repo.ListByPatient(context.Background(), patientUID)
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, "bk-1", appointments[0].BookingID)
	require.NotNil(t, appointments[0].PatientUID)
	assert.Equal(t, patientUID, *appointments[0].PatientUID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryListByDoctor(t *testing.T) {
	db, mock, cleanup := newAppointmentRepoMock(t)
	defer cleanup()

	repo := NewAppointmentRepository(db)
	patientUID := "pat-1"
	rows := sqlmock.NewRows([]string{
		"booking_id", "doctor_uid", "doctor_name", "patient_uid", "patient_name", "patient_email",
		"patient_phone", "day", "start_time", "end_time", "reason", "status", "created_at", "cancelled_at",
		"enriched_uid", "enriched_first_name", "enriched_last_name", "enriched_email", "enriched_phone",
		"enriched_dob", "enriched_address", "enriched_emergency",
	}).
		AddRow("bk-2", "doc-1", "Ada Lovelace", patientUID, "Grace Hopper", "grace@example.com",
			"+15550001", "monday", "10:00", "11:00", "followup", "confirmed", time.Now(), nil,
			patientUID, "Grace", "Hopper", "grace@example.com", "+15550001", "1985-12-09", "1 Main St", "+15550002").
		AddRow("bk-1", "doc-1", "Ada Lovelace", nil, "Walk In", "walkin@example.com",
			"+15550003", "monday", "09:00", "10:00", "checkup", "cancelled", time.Now(), time.Now(),
			nil, nil, nil, nil, nil, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN patients p ON p.uid = a.patient_uid")).
		WithArgs("doc-1").
		WillReturnRows(rows)

	details, err := repo.ListByDoctor(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, details, 2)

	require.NotNil(t, details[0].PatientDetails)
	assert.Equal(t, "Grace Hopper", details[0].PatientDetails.Name)
	assert.Equal(t, patientUID, details[0].PatientDetails.UID)

	assert.Nil(t, details[1].PatientDetails)
	assert.Equal(t, models.AppointmentCancelled, details[1].Status)
	assert.NotNil(t, details[1].CancelledAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
