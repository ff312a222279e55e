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

type patientRepository interface {
	Create(ctx context.Context, patient *models.Patient) error
	FindByUID(ctx context.Context, uid string) (*models.Patient, error)
	FindByEmail(ctx context.Context, email string) (*models.Patient, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, patient *models.Patient) error
}

// PatientService covers patient account lifecycle.
type PatientService struct {
	repo      patientRepository
	auth      *AuthService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPatientService constructs a PatientService.
func NewPatientService(repo patientRepository, auth *AuthService, validate *validator.Validate, logger *zap.Logger) *PatientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &PatientService{repo: repo, auth: auth, validator: validate, logger: logger}
}

// Register creates a patient account and signs the first token pair.
func (s *PatientService) Register(ctx context.Context, req models.RegisterPatientRequest) (*models.Patient, *models.TokenPair, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if exists {
		return nil, nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	now := time.Now().UTC()
	patient := &models.Patient{
		UID:              uuid.NewString(),
		Email:            req.Email,
		PasswordHash:     hash,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		PhoneNumber:      req.PhoneNumber,
		DateOfBirth:      req.DateOfBirth,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create patient")
	}

	tokens, err := s.auth.IssueTokenPair(patient.UID, patient.Email, models.RolePatient)
	if err != nil {
		return nil, nil, err
	}
	return patient, tokens, nil
}

// Login authenticates a patient and returns a fresh token pair.
func (s *PatientService) Login(ctx context.Context, req models.LoginRequest) (*models.Patient, *models.TokenPair, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	patient, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load patient")
	}

	if !s.auth.CheckPassword(patient.PasswordHash, req.Password) {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	tokens, err := s.auth.IssueTokenPair(patient.UID, patient.Email, models.RolePatient)
	if err != nil {
		return nil, nil, err
	}
	return patient, tokens, nil
}

// GetProfile returns the patient's full record.
func (s *PatientService) GetProfile(ctx context.Context, uid string) (*models.Patient, error) {
	patient, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "patient not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load patient")
	}
	return patient, nil
}

// UpdateProfile applies a partial profile update.
func (s *PatientService) UpdateProfile(ctx context.Context, uid string, req models.UpdatePatientProfileRequest) (*models.Patient, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	patient, err := s.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		patient.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		patient.LastName = *req.LastName
	}
	if req.PhoneNumber != nil {
		patient.PhoneNumber = *req.PhoneNumber
	}
	if req.DateOfBirth != nil {
		patient.DateOfBirth = *req.DateOfBirth
	}
	if req.Address != nil {
		patient.Address = *req.Address
	}
	if req.EmergencyContact != nil {
		patient.EmergencyContact = *req.EmergencyContact
	}
	if req.ProfilePicture != nil {
		patient.ProfilePicture = *req.ProfilePicture
	}
	patient.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateProfile(ctx, patient); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return patient, nil
}
