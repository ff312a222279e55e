package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carelink/clinic-api/internal/models"
)

// HealthRepository handles persistence of health tracking records.
type HealthRepository struct {
	db *sqlx.DB
}

// NewHealthRepository constructs the repository.
func NewHealthRepository(db *sqlx.DB) *HealthRepository {
	return &HealthRepository{db: db}
}

// UpsertGoal inserts or merges a day of tracked metrics for a patient.
func (r *HealthRepository) UpsertGoal(ctx context.Context, goal *models.HealthGoal) error {
	const query = `INSERT INTO health_goals (patient_uid, date, steps_taken, hours_sleep, water_intake,
calories_consumed, exercise_minutes, notes, updated_at)
VALUES (:patient_uid, :date, :steps_taken, :hours_sleep, :water_intake, :calories_consumed,
:exercise_minutes, :notes, :updated_at)
ON CONFLICT (patient_uid, date) DO UPDATE
SET steps_taken = EXCLUDED.steps_taken,
    hours_sleep = EXCLUDED.hours_sleep,
    water_intake = EXCLUDED.water_intake,
    calories_consumed = EXCLUDED.calories_consumed,
    exercise_minutes = EXCLUDED.exercise_minutes,
    notes = EXCLUDED.notes,
    updated_at = EXCLUDED.updated_at`
	goal.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, query, goal); err != nil {
		return fmt.Errorf("upsert health goal: %w", err)
	}
	return nil
}

// FindGoalByDate returns one day of tracked metrics.
func (r *HealthRepository) FindGoalByDate(ctx context.Context, patientUID, date string) (*models.HealthGoal, error) {
	const query = `SELECT patient_uid, date, steps_taken, hours_sleep, water_intake, calories_consumed,
exercise_minutes, notes, updated_at FROM health_goals WHERE patient_uid = $1 AND date = $2`
	var goal models.HealthGoal
	if err := r.db.GetContext(ctx, &goal, query, patientUID, date); err != nil {
		return nil, err
	}
	return &goal, nil
}

// ListGoals returns all tracked days for a patient, newest first.
func (r *HealthRepository) ListGoals(ctx context.Context, patientUID string) ([]models.HealthGoal, error) {
	const query = `SELECT patient_uid, date, steps_taken, hours_sleep, water_intake, calories_consumed,
exercise_minutes, notes, updated_at FROM health_goals WHERE patient_uid = $1 ORDER BY date DESC`
	var goals []models.HealthGoal
	if err := r.db.SelectContext(ctx, &goals, query, patientUID); err != nil {
		return nil, fmt.Errorf("list health goals: %w", err)
	}
	return goals, nil
}

// CreateTest inserts a medical test record.
func (r *HealthRepository) CreateTest(ctx context.Context, test *models.MedicalTest) error {
	const query = `INSERT INTO medical_tests (test_id, patient_uid, test_name, test_date, test_result,
doctor_name, notes, file_url, created_at)
VALUES (:test_id, :patient_uid, :test_name, :test_date, :test_result, :doctor_name, :notes, :file_url,
:created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, test); err != nil {
		return fmt.Errorf("create medical test: %w", err)
	}
	return nil
}

// ListTests returns a patient's medical tests, newest test date first.
func (r *HealthRepository) ListTests(ctx context.Context, patientUID string) ([]models.MedicalTest, error) {
	const query = `SELECT test_id, patient_uid, test_name, test_date, test_result, doctor_name, notes,
file_url, created_at FROM medical_tests WHERE patient_uid = $1 ORDER BY test_date DESC`
	var tests []models.MedicalTest
	if err := r.db.SelectContext(ctx, &tests, query, patientUID); err != nil {
		return nil, fmt.Errorf("list medical tests: %w", err)
	}
	return tests, nil
}

// CreateCheckup inserts a preventive checkup record.
func (r *HealthRepository) CreateCheckup(ctx context.Context, checkup *models.PreventiveCheckup) error {
	const query = `INSERT INTO preventive_checkups (checkup_id, patient_uid, checkup_type, checkup_date,
doctor_name, findings, next_checkup_date, notes, created_at)
VALUES (:checkup_id, :patient_uid, :checkup_type, :checkup_date, :doctor_name, :findings,
:next_checkup_date, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, checkup); err != nil {
		return fmt.Errorf("create checkup: %w", err)
	}
	return nil
}

// ListCheckups returns a patient's preventive checkups, newest first.
func (r *HealthRepository) ListCheckups(ctx context.Context, patientUID string) ([]models.PreventiveCheckup, error) {
	const query = `SELECT checkup_id, patient_uid, checkup_type, checkup_date, doctor_name, findings,
next_checkup_date, notes, created_at FROM preventive_checkups WHERE patient_uid = $1
ORDER BY checkup_date DESC`
	var checkups []models.PreventiveCheckup
	if err := r.db.SelectContext(ctx, &checkups, query, patientUID); err != nil {
		return nil, fmt.Errorf("list checkups: %w", err)
	}
	return checkups, nil
}
