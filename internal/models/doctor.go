package models

import "time"

// Doctor represents a provider stored in the doctors table. The availability
// grid lives on the row as a JSONB document guarded by the version column.
type Doctor struct {
	UID               string             `db:"uid" json:"uid"`
	Email             string             `db:"email" json:"email"`
	PasswordHash      string             `db:"password_hash" json:"-"`
	FirstName         string             `db:"first_name" json:"first_name"`
	LastName          string             `db:"last_name" json:"last_name"`
	PhoneNumber       string             `db:"phone_number" json:"phone_number"`
	Specialization    string             `db:"specialization" json:"specialization"`
	LicenseNumber     string             `db:"license_number" json:"license_number"`
	YearsOfExperience int                `db:"years_of_experience" json:"years_of_experience"`
	Bio               string             `db:"bio" json:"bio"`
	ProfilePicture    string             `db:"profile_picture" json:"profile_picture"`
	IsVerified        bool               `db:"is_verified" json:"is_verified"`
	IsActive          bool               `db:"is_active" json:"is_active"`
	Availability      WeeklyAvailability `db:"availability" json:"availability"`
	Version           int64              `db:"version" json:"-"`
	CreatedAt         time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `db:"updated_at" json:"updated_at"`
}

// FullName joins the doctor's first and last names.
func (d *Doctor) FullName() string {
	return d.FirstName + " " + d.LastName
}

// DoctorFilter captures filtering criteria for listing doctors.
type DoctorFilter struct {
	ActiveOnly bool
}
