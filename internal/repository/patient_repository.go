package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carelink/clinic-api/internal/models"
)

const patientColumns = `uid, email, password_hash, first_name, last_name, phone_number, date_of_birth,
address, emergency_contact, profile_picture, created_at, updated_at`

// PatientRepository handles persistence of patient accounts.
type PatientRepository struct {
	db *sqlx.DB
}

// NewPatientRepository constructs the repository.
func NewPatientRepository(db *sqlx.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// Create inserts a new patient row.
func (r *PatientRepository) Create(ctx context.Context, patient *models.Patient) error {
	const query = `INSERT INTO patients (uid, email, password_hash, first_name, last_name, phone_number,
date_of_birth, address, emergency_contact, profile_picture, created_at, updated_at)
VALUES (:uid, :email, :password_hash, :first_name, :last_name, :phone_number, :date_of_birth, :address,
:emergency_contact, :profile_picture, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, patient); err != nil {
		return fmt.Errorf("create patient: %w", err)
	}
	return nil
}

// FindByUID returns a patient by its UID.
func (r *PatientRepository) FindByUID(ctx context.Context, uid string) (*models.Patient, error) {
	query := fmt.Sprintf(`SELECT %s FROM patients WHERE uid = $1`, patientColumns)
	var patient models.Patient
	if err := r.db.GetContext(ctx, &patient, query, uid); err != nil {
		return nil, err
	}
	return &patient, nil
}

// FindByEmail returns a patient by email.
func (r *PatientRepository) FindByEmail(ctx context.Context, email string) (*models.Patient, error) {
	query := fmt.Sprintf(`SELECT %s FROM patients WHERE email = $1`, patientColumns)
	var patient models.Patient
	if err := r.db.GetContext(ctx, &patient, query, email); err != nil {
		return nil, err
	}
	return &patient, nil
}

// ExistsByEmail reports whether a patient with the email is already registered.
func (r *PatientRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM patients WHERE email = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("check patient email: %w", err)
	}
	return exists, nil
}

// UpdateProfile writes the mutable profile fields.
func (r *PatientRepository) UpdateProfile(ctx context.Context, patient *models.Patient) error {
	const query = `UPDATE patients SET first_name = :first_name, last_name = :last_name,
phone_number = :phone_number, date_of_birth = :date_of_birth, address = :address,
emergency_contact = :emergency_contact, profile_picture = :profile_picture, updated_at = :updated_at
WHERE uid = :uid`
	patient.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, query, patient); err != nil {
		return fmt.Errorf("update patient profile: %w", err)
	}
	return nil
}
