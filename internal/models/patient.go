package models

import "time"

// Patient represents a patient account stored in the patients table.
type Patient struct {
	UID              string    `db:"uid" json:"uid"`
	Email            string    `db:"email" json:"email"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	FirstName        string    `db:"first_name" json:"first_name"`
	LastName         string    `db:"last_name" json:"last_name"`
	PhoneNumber      string    `db:"phone_number" json:"phone_number"`
	DateOfBirth      string    `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Address          string    `db:"address" json:"address"`
	EmergencyContact string    `db:"emergency_contact" json:"emergency_contact"`
	ProfilePicture   string    `db:"profile_picture" json:"profile_picture"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins the patient's first and last names.
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// PatientDetails is the enrichment block attached to appointments when the
// booking can be linked back to a registered patient.
type PatientDetails struct {
	UID              string `json:"uid"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	PhoneNumber      string `json:"phone_number"`
	DateOfBirth      string `json:"date_of_birth,omitempty"`
	Address          string `json:"address,omitempty"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
}
