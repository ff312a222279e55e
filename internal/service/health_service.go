package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carelink/clinic-api/internal/models"
	appErrors "github.com/carelink/clinic-api/pkg/errors"
)

const summaryRecentDays = 7

type healthRepository interface {
	UpsertGoal(ctx context.Context, goal *models.HealthGoal) error
	FindGoalByDate(ctx context.Context, patientUID, date string) (*models.HealthGoal, error)
	ListGoals(ctx context.Context, patientUID string) ([]models.HealthGoal, error)
	CreateTest(ctx context.Context, test *models.MedicalTest) error
	ListTests(ctx context.Context, patientUID string) ([]models.MedicalTest, error)
	CreateCheckup(ctx context.Context, checkup *models.PreventiveCheckup) error
	ListCheckups(ctx context.Context, patientUID string) ([]models.PreventiveCheckup, error)
}

type healthPatientRepository interface {
	FindByUID(ctx context.Context, uid string) (*models.Patient, error)
}

// HealthService records and aggregates patient health tracking data.
type HealthService struct {
	repo      healthRepository
	patients  healthPatientRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHealthService constructs a HealthService.
func NewHealthService(repo healthRepository, patients healthPatientRepository, validate *validator.Validate, logger *zap.Logger) *HealthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &HealthService{repo: repo, patients: patients, validator: validate, logger: logger}
}

// TrackGoal records one day of metrics. Submitting the same date twice merges
// into the existing row.
func (s *HealthService) TrackGoal(ctx context.Context, patientUID string, req models.HealthGoalRequest) (*models.HealthGoal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid health goal payload")
	}

	goal := &models.HealthGoal{
		PatientUID:       patientUID,
		Date:             req.Date,
		StepsTaken:       req.StepsTaken,
		HoursSleep:       req.HoursSleep,
		WaterIntake:      req.WaterIntake,
		CaloriesConsumed: req.CaloriesConsumed,
		ExerciseMinutes:  req.ExerciseMinutes,
		Notes:            req.Notes,
	}
	if err := s.repo.UpsertGoal(ctx, goal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store health goal")
	}

	stored, err := s.repo.FindGoalByDate(ctx, patientUID, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read back health goal")
	}
	return stored, nil
}

// ListGoals returns all tracked days for the patient, newest first.
func (s *HealthService) ListGoals(ctx context.Context, patientUID string) ([]models.HealthGoal, error) {
	goals, err := s.repo.ListGoals(ctx, patientUID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list health goals")
	}
	return goals, nil
}

// AddTest records a medical test result.
func (s *HealthService) AddTest(ctx context.Context, patientUID string, req models.MedicalTestRequest) (*models.MedicalTest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid medical test payload")
	}

	test := &models.MedicalTest{
		TestID:     uuid.NewString(),
		PatientUID: patientUID,
		TestName:   req.TestName,
		TestDate:   req.TestDate,
		TestResult: req.TestResult,
		DoctorName: req.DoctorName,
		Notes:      req.Notes,
		FileURL:    req.FileURL,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.CreateTest(ctx, test); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store medical test")
	}
	return test, nil
}

// ListTests returns the patient's medical tests.
func (s *HealthService) ListTests(ctx context.Context, patientUID string) ([]models.MedicalTest, error) {
	tests, err := s.repo.ListTests(ctx, patientUID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list medical tests")
	}
	return tests, nil
}

// AddCheckup records a preventive checkup.
func (s *HealthService) AddCheckup(ctx context.Context, patientUID string, req models.PreventiveCheckupRequest) (*models.PreventiveCheckup, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid checkup payload")
	}

	checkup := &models.PreventiveCheckup{
		CheckupID:       uuid.NewString(),
		PatientUID:      patientUID,
		CheckupType:     req.CheckupType,
		CheckupDate:     req.CheckupDate,
		DoctorName:      req.DoctorName,
		Findings:        req.Findings,
		NextCheckupDate: req.NextCheckupDate,
		Notes:           req.Notes,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.repo.CreateCheckup(ctx, checkup); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store checkup")
	}
	return checkup, nil
}

// ListCheckups returns the patient's preventive checkups.
func (s *HealthService) ListCheckups(ctx context.Context, patientUID string) ([]models.PreventiveCheckup, error) {
	checkups, err := s.repo.ListCheckups(ctx, patientUID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list checkups")
	}
	return checkups, nil
}

// Summary aggregates the patient's full tracked history for the doctor view.
func (s *HealthService) Summary(ctx context.Context, patientUID string) (*models.HealthSummary, error) {
	patient, err := s.patients.FindByUID(ctx, patientUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "patient not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load patient")
	}

	goals, err := s.repo.ListGoals(ctx, patientUID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list health goals")
	}
	tests, err := s.repo.ListTests(ctx, patientUID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list medical tests")
	}
	checkups, err := s.repo.ListCheckups(ctx, patientUID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list checkups")
	}

	summary := &models.HealthSummary{
		PatientInfo: models.PatientDetails{
			UID:              patient.UID,
			Name:             patient.FullName(),
			Email:            patient.Email,
			PhoneNumber:      patient.PhoneNumber,
			DateOfBirth:      patient.DateOfBirth,
			Address:          patient.Address,
			EmergencyContact: patient.EmergencyContact,
		},
		TotalDaysTracked: len(goals),
		TotalTests:       len(tests),
		TotalCheckups:    len(checkups),
		MedicalTests:     tests,
		Checkups:         checkups,
	}

	if len(goals) > 0 {
		var steps, sleep float64
		for _, g := range goals {
			steps += float64(g.StepsTaken)
			sleep += g.HoursSleep
		}
		summary.AvgStepsPerDay = steps / float64(len(goals))
		summary.AvgSleepHours = sleep / float64(len(goals))
	}

	recent := goals
	if len(recent) > summaryRecentDays {
		recent = recent[:summaryRecentDays]
	}
	summary.RecentTracking = recent

	return summary, nil
}
