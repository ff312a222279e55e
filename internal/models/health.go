package models

import "time"

// HealthGoal is one day of self-reported metrics for a patient. Rows are
// keyed by (patient_uid, date) and upserted, so re-submitting a day merges
// into the existing record.
type HealthGoal struct {
	PatientUID       string    `db:"patient_uid" json:"patient_uid"`
	Date             string    `db:"date" json:"date"`
	StepsTaken       int       `db:"steps_taken" json:"steps_taken"`
	HoursSleep       float64   `db:"hours_sleep" json:"hours_sleep"`
	WaterIntake      float64   `db:"water_intake" json:"water_intake"`
	CaloriesConsumed int       `db:"calories_consumed" json:"calories_consumed"`
	ExerciseMinutes  int       `db:"exercise_minutes" json:"exercise_minutes"`
	Notes            string    `db:"notes" json:"notes"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// MedicalTest is a recorded test result for a patient.
type MedicalTest struct {
	TestID     string    `db:"test_id" json:"test_id"`
	PatientUID string    `db:"patient_uid" json:"patient_uid"`
	TestName   string    `db:"test_name" json:"test_name"`
	TestDate   string    `db:"test_date" json:"test_date"`
	TestResult string    `db:"test_result" json:"test_result"`
	DoctorName string    `db:"doctor_name" json:"doctor_name"`
	Notes      string    `db:"notes" json:"notes"`
	FileURL    string    `db:"file_url" json:"file_url"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// PreventiveCheckup is a recorded preventive visit for a patient.
type PreventiveCheckup struct {
	CheckupID       string    `db:"checkup_id" json:"checkup_id"`
	PatientUID      string    `db:"patient_uid" json:"patient_uid"`
	CheckupType     string    `db:"checkup_type" json:"checkup_type"`
	CheckupDate     string    `db:"checkup_date" json:"checkup_date"`
	DoctorName      string    `db:"doctor_name" json:"doctor_name"`
	Findings        string    `db:"findings" json:"findings"`
	NextCheckupDate string    `db:"next_checkup_date" json:"next_checkup_date,omitempty"`
	Notes           string    `db:"notes" json:"notes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// HealthSummary aggregates a patient's tracked history for the doctor view.
type HealthSummary struct {
	PatientInfo      PatientDetails      `json:"patient_info"`
	TotalDaysTracked int                 `json:"total_days_tracked"`
	AvgStepsPerDay   float64             `json:"avg_steps_per_day"`
	AvgSleepHours    float64             `json:"avg_sleep_hours"`
	TotalTests       int                 `json:"total_medical_tests"`
	TotalCheckups    int                 `json:"total_preventive_checkups"`
	RecentTracking   []HealthGoal        `json:"recent_tracking"`
	MedicalTests     []MedicalTest       `json:"medical_tests"`
	Checkups         []PreventiveCheckup `json:"preventive_checkups"`
}
