package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carelink/clinic-api/internal/models"
)

const doctorColumns = `uid, email, password_hash, first_name, last_name, phone_number, specialization,
license_number, years_of_experience, bio, profile_picture, is_verified, is_active, availability, version,
created_at, updated_at`

// DoctorRepository handles persistence of doctors and their availability
// grids. The grid is stored as a JSONB document on the doctors row; the
// version column guards compare-and-swap updates.
type DoctorRepository struct {
	db *sqlx.DB
}

// NewDoctorRepository constructs the repository.
func NewDoctorRepository(db *sqlx.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

// Create inserts a new doctor row.
func (r *DoctorRepository) Create(ctx context.Context, doctor *models.Doctor) error {
	const query = `INSERT INTO doctors (uid, email, password_hash, first_name, last_name, phone_number,
specialization, license_number, years_of_experience, bio, profile_picture, is_verified, is_active,
availability, version, created_at, updated_at)
VALUES (:uid, :email, :password_hash, :first_name, :last_name, :phone_number, :specialization,
:license_number, :years_of_experience, :bio, :profile_picture, :is_verified, :is_active, :availability,
:version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doctor); err != nil {
		return fmt.Errorf("create doctor: %w", err)
	}
	return nil
}

// FindByUID returns a doctor by its UID.
func (r *DoctorRepository) FindByUID(ctx context.Context, uid string) (*models.Doctor, error) {
	query := fmt.Sprintf(`SELECT %s FROM doctors WHERE uid = $1`, doctorColumns)
	var doctor models.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, uid); err != nil {
		return nil, err
	}
	return &doctor, nil
}

// FindByEmail returns a doctor by email.
func (r *DoctorRepository) FindByEmail(ctx context.Context, email string) (*models.Doctor, error) {
	query := fmt.Sprintf(`SELECT %s FROM doctors WHERE email = $1`, doctorColumns)
	var doctor models.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, email); err != nil {
		return nil, err
	}
	return &doctor, nil
}

// ExistsByEmail reports whether a doctor with the email is already registered.
func (r *DoctorRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM doctors WHERE email = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("check doctor email: %w", err)
	}
	return exists, nil
}

// List returns doctors, optionally restricted to active ones.
func (r *DoctorRepository) List(ctx context.Context, filter models.DoctorFilter) ([]models.Doctor, error) {
	query := fmt.Sprintf(`SELECT %s FROM doctors`, doctorColumns)
	if filter.ActiveOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY created_at DESC`

	var doctors []models.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query); err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

// UpdateProfile writes the mutable profile fields.
func (r *DoctorRepository) UpdateProfile(ctx context.Context, doctor *models.Doctor) error {
	const query = `UPDATE doctors SET first_name = :first_name, last_name = :last_name,
phone_number = :phone_number, specialization = :specialization, license_number = :license_number,
years_of_experience = :years_of_experience, bio = :bio, profile_picture = :profile_picture,
is_active = :is_active, updated_at = :updated_at WHERE uid = :uid`
	doctor.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, query, doctor); err != nil {
		return fmt.Errorf("update doctor profile: %w", err)
	}
	return nil
}

// SetActive flips the doctor's online/offline flag.
func (r *DoctorRepository) SetActive(ctx context.Context, uid string, active bool) error {
	const query = `UPDATE doctors SET is_active = $2, updated_at = $3 WHERE uid = $1`
	if _, err := r.db.ExecContext(ctx, query, uid, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set doctor active: %w", err)
	}
	return nil
}

// GetAvailability reads the current grid together with its version stamp.
func (r *DoctorRepository) GetAvailability(ctx context.Context, uid string) (models.WeeklyAvailability, int64, error) {
	const query = `SELECT availability, version FROM doctors WHERE uid = $1`
	var row struct {
		Availability models.WeeklyAvailability `db:"availability"`
		Version      int64                     `db:"version"`
	}
	if err := r.db.GetContext(ctx, &row, query, uid); err != nil {
		return nil, 0, err
	}
	return row.Availability, row.Version, nil
}

// CompareAndSwapAvailability persists the grid only when the version stamp is
// unchanged since the read. It returns false without error when another write
// won the race.
func (r *DoctorRepository) CompareAndSwapAvailability(ctx context.Context, uid string, grid models.WeeklyAvailability, version int64) (bool, error) {
	const query = `UPDATE doctors SET availability = $2, version = version + 1, updated_at = $3
WHERE uid = $1 AND version = $4`
	res, err := r.db.ExecContext(ctx, query, uid, grid, time.Now().UTC(), version)
	if err != nil {
		return false, fmt.Errorf("cas availability: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cas availability rows: %w", err)
	}
	return affected == 1, nil
}

// ReplaceAvailability overwrites the grid unconditionally. Administrative
// schedule edits are operator-driven, so last writer wins is acceptable here.
func (r *DoctorRepository) ReplaceAvailability(ctx context.Context, uid string, grid models.WeeklyAvailability) error {
	const query = `UPDATE doctors SET availability = $2, version = version + 1, updated_at = $3 WHERE uid = $1`
	res, err := r.db.ExecContext(ctx, query, uid, grid, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("replace availability: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace availability rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
