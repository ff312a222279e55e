package models

// RegisterDoctorRequest is the payload for doctor signup.
type RegisterDoctorRequest struct {
	Email             string `json:"email" validate:"required,email"`
	Password          string `json:"password" validate:"required,min=8"`
	FirstName         string `json:"first_name" validate:"required"`
	LastName          string `json:"last_name" validate:"required"`
	PhoneNumber       string `json:"phone_number"`
	Specialization    string `json:"specialization" validate:"required"`
	LicenseNumber     string `json:"license_number" validate:"required"`
	YearsOfExperience int    `json:"years_of_experience" validate:"gte=0"`
	Bio               string `json:"bio"`
}

// RegisterPatientRequest is the payload for patient signup.
type RegisterPatientRequest struct {
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required,min=8"`
	FirstName        string `json:"first_name" validate:"required"`
	LastName         string `json:"last_name" validate:"required"`
	PhoneNumber      string `json:"phone_number"`
	DateOfBirth      string `json:"date_of_birth"`
	Address          string `json:"address"`
	EmergencyContact string `json:"emergency_contact"`
}

// LoginRequest is the shared login payload for both account types.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest exchanges a refresh token for a new token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh" validate:"required"`
}

// UpdateDoctorProfileRequest carries a partial profile update. Nil fields are
// left untouched.
type UpdateDoctorProfileRequest struct {
	FirstName         *string `json:"first_name,omitempty"`
	LastName          *string `json:"last_name,omitempty"`
	PhoneNumber       *string `json:"phone_number,omitempty"`
	Specialization    *string `json:"specialization,omitempty"`
	YearsOfExperience *int    `json:"years_of_experience,omitempty" validate:"omitempty,gte=0"`
	Bio               *string `json:"bio,omitempty"`
	ProfilePicture    *string `json:"profile_picture,omitempty"`
}

// UpdatePatientProfileRequest carries a partial profile update. Nil fields are
// left untouched.
type UpdatePatientProfileRequest struct {
	FirstName        *string `json:"first_name,omitempty"`
	LastName         *string `json:"last_name,omitempty"`
	PhoneNumber      *string `json:"phone_number,omitempty"`
	DateOfBirth      *string `json:"date_of_birth,omitempty"`
	Address          *string `json:"address,omitempty"`
	EmergencyContact *string `json:"emergency_contact,omitempty"`
	ProfilePicture   *string `json:"profile_picture,omitempty"`
}

// ReplaceAvailabilityRequest replaces a doctor's full weekly grid. An empty
// grid is legal and clears every configured day.
type ReplaceAvailabilityRequest struct {
	Availability WeeklyAvailability `json:"availability" validate:"dive"`
}

// BookAppointmentRequest is the booking payload. PatientUID is filled from the
// token when the caller is a registered patient.
type BookAppointmentRequest struct {
	DoctorUID    string  `json:"doctor_uid" validate:"required"`
	Day          Weekday `json:"day" validate:"required"`
	StartTime    string  `json:"start_time" validate:"required,hhmm"`
	EndTime      string  `json:"end_time" validate:"required,hhmm"`
	PatientName  string  `json:"patient_name" validate:"required"`
	PatientEmail string  `json:"patient_email" validate:"required,email"`
	PatientPhone string  `json:"patient_phone"`
	Reason       string  `json:"reason"`
	PatientUID   *string `json:"-"`
}

// HealthGoalRequest records one day of tracked metrics.
type HealthGoalRequest struct {
	Date             string  `json:"date" validate:"required,datetime=2006-01-02"`
	StepsTaken       int     `json:"steps_taken" validate:"gte=0"`
	HoursSleep       float64 `json:"hours_sleep" validate:"gte=0"`
	WaterIntake      float64 `json:"water_intake" validate:"gte=0"`
	CaloriesConsumed int     `json:"calories_consumed" validate:"gte=0"`
	ExerciseMinutes  int     `json:"exercise_minutes" validate:"gte=0"`
	Notes            string  `json:"notes"`
}

// MedicalTestRequest records a test result.
type MedicalTestRequest struct {
	TestName   string `json:"test_name" validate:"required"`
	TestDate   string `json:"test_date" validate:"required,datetime=2006-01-02"`
	TestResult string `json:"test_result" validate:"required"`
	DoctorName string `json:"doctor_name"`
	Notes      string `json:"notes"`
	FileURL    string `json:"file_url" validate:"omitempty,url"`
}

// PreventiveCheckupRequest records a preventive visit.
type PreventiveCheckupRequest struct {
	CheckupType     string `json:"checkup_type" validate:"required"`
	CheckupDate     string `json:"checkup_date" validate:"required,datetime=2006-01-02"`
	DoctorName      string `json:"doctor_name"`
	Findings        string `json:"findings"`
	NextCheckupDate string `json:"next_checkup_date" validate:"omitempty,datetime=2006-01-02"`
	Notes           string `json:"notes"`
}
