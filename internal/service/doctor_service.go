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

const (
	doctorListCacheKey     = "doctors:list"
	doctorListCachePattern = "doctors:*"
)

type doctorRepository interface {
	Create(ctx context.Context, doctor *models.Doctor) error
	FindByUID(ctx context.Context, uid string) (*models.Doctor, error)
	FindByEmail(ctx context.Context, email string) (*models.Doctor, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, filter models.DoctorFilter) ([]models.Doctor, error)
	UpdateProfile(ctx context.Context, doctor *models.Doctor) error
	SetActive(ctx context.Context, uid string, active bool) error
}

// DoctorService covers doctor account lifecycle: registration, login, profile
// management and the online/offline toggle that gates booking.
type DoctorService struct {
	repo      doctorRepository
	auth      *AuthService
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	listTTL   time.Duration
}

// NewDoctorService constructs a DoctorService. cache may be nil.
func NewDoctorService(repo doctorRepository, auth *AuthService, cache *CacheService, validate *validator.Validate, logger *zap.Logger, listTTL time.Duration) *DoctorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &DoctorService{repo: repo, auth: auth, cache: cache, validator: validate, logger: logger, listTTL: listTTL}
}

// Register creates a doctor account with an empty weekly grid and signs the
// first token pair. New accounts start online.
func (s *DoctorService) Register(ctx context.Context, req models.RegisterDoctorRequest) (*models.Doctor, *models.TokenPair, error) {
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
	doctor := &models.Doctor{
		UID:               uuid.NewString(),
		Email:             req.Email,
		PasswordHash:      hash,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		PhoneNumber:       req.PhoneNumber,
		Specialization:    req.Specialization,
		LicenseNumber:     req.LicenseNumber,
		YearsOfExperience: req.YearsOfExperience,
		Bio:               req.Bio,
		IsActive:          true,
		Availability:      models.WeeklyAvailability{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, doctor); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create doctor")
	}

	tokens, err := s.auth.IssueTokenPair(doctor.UID, doctor.Email, models.RoleDoctor)
	if err != nil {
		return nil, nil, err
	}

	s.invalidateListCache(ctx)
	return doctor, tokens, nil
}

// Login authenticates a doctor and returns a fresh token pair.
func (s *DoctorService) Login(ctx context.Context, req models.LoginRequest) (*models.Doctor, *models.TokenPair, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	doctor, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doctor")
	}

	if !s.auth.CheckPassword(doctor.PasswordHash, req.Password) {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	tokens, err := s.auth.IssueTokenPair(doctor.UID, doctor.Email, models.RoleDoctor)
	if err != nil {
		return nil, nil, err
	}
	return doctor, tokens, nil
}

// GetProfile returns the doctor's full record.
func (s *DoctorService) GetProfile(ctx context.Context, uid string) (*models.Doctor, error) {
	doctor, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doctor")
	}
	return doctor, nil
}

// UpdateProfile applies a partial profile update.
func (s *DoctorService) UpdateProfile(ctx context.Context, uid string, req models.UpdateDoctorProfileRequest) (*models.Doctor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	doctor, err := s.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		doctor.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		doctor.LastName = *req.LastName
	}
	if req.PhoneNumber != nil {
		doctor.PhoneNumber = *req.PhoneNumber
	}
	if req.Specialization != nil {
		doctor.Specialization = *req.Specialization
	}
	if req.YearsOfExperience != nil {
		doctor.YearsOfExperience = *req.YearsOfExperience
	}
	if req.Bio != nil {
		doctor.Bio = *req.Bio
	}
	if req.ProfilePicture != nil {
		doctor.ProfilePicture = *req.ProfilePicture
	}
	doctor.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateProfile(ctx, doctor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	s.invalidateListCache(ctx)
	return doctor, nil
}

// ToggleStatus flips the doctor's online flag and returns the new state.
// Offline doctors stay listed and keep their grid, but reject new bookings.
func (s *DoctorService) ToggleStatus(ctx context.Context, uid string) (bool, error) {
	doctor, err := s.GetProfile(ctx, uid)
	if err != nil {
		return false, err
	}

	next := !doctor.IsActive
	if err := s.repo.SetActive(ctx, uid, next); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}

	s.invalidateListCache(ctx)
	return next, nil
}

// List returns all doctors for the public directory, optionally from cache.
func (s *DoctorService) List(ctx context.Context, filter models.DoctorFilter) ([]models.Doctor, error) {
	cacheKey := doctorListCacheKey
	if filter.ActiveOnly {
		cacheKey += ":active"
	}

	var cached []models.Doctor
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	doctors, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list doctors")
	}

	if err := s.cache.Set(ctx, cacheKey, doctors, s.listTTL); err != nil {
		s.logger.Warn("failed to cache doctor list", zap.Error(err))
	}
	return doctors, nil
}

func (s *DoctorService) invalidateListCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, doctorListCachePattern); err != nil {
		s.logger.Warn("failed to invalidate doctor list cache", zap.Error(err))
	}
}
