package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/carelink/clinic-api/internal/models"
	appErrors "github.com/carelink/clinic-api/pkg/errors"
	"github.com/carelink/clinic-api/pkg/lock"
)

type availabilityDoctorRepository interface {
	FindByUID(ctx context.Context, uid string) (*models.Doctor, error)
	GetAvailability(ctx context.Context, uid string) (models.WeeklyAvailability, int64, error)
	CompareAndSwapAvailability(ctx context.Context, uid string, grid models.WeeklyAvailability, version int64) (bool, error)
	ReplaceAvailability(ctx context.Context, uid string, grid models.WeeklyAvailability) error
}

// AvailabilityConfig tunes the slot claim path and day-check caching.
type AvailabilityConfig struct {
	ClaimRetries int
	CheckTTL     time.Duration
}

type claimMetricsRecorder interface {
	RecordClaimRetry()
}

// AvailabilityService owns every mutation of a doctor's weekly slot grid. All
// writes go through an optimistic compare-and-swap on the row's version
// column, optionally serialised further by a per-doctor lock so concurrent
// claims on one doctor rarely hit the retry path at all. Doctors never share
// state, so operations on different doctors proceed fully in parallel.
type AvailabilityService struct {
	repo      availabilityDoctorRepository
	locker    lock.Locker
	metrics   claimMetricsRecorder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	config    AvailabilityConfig
}

// NewAvailabilityService constructs an AvailabilityService. A nil locker
// disables per-doctor locking and relies on CAS retries alone; metrics and
// cache may also be nil.
func NewAvailabilityService(repo availabilityDoctorRepository, locker lock.Locker, metrics claimMetricsRecorder, cacheSvc *CacheService, validate *validator.Validate, logger *zap.Logger, config AvailabilityConfig) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if config.ClaimRetries <= 0 {
		config.ClaimRetries = 3
	}
	if config.CheckTTL <= 0 {
		config.CheckTTL = time.Minute
	}
	return &AvailabilityService{repo: repo, locker: locker, metrics: metrics, cache: cacheSvc, validator: validate, logger: logger, config: config}
}

// Get returns the doctor's full weekly grid, booked slots included.
func (s *AvailabilityService) Get(ctx context.Context, doctorUID string) (models.WeeklyAvailability, error) {
	grid, _, err := s.repo.GetAvailability(ctx, doctorUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	return grid, nil
}

// Replace overwrites the doctor's whole weekly grid. Existing bookings on the
// old grid are discarded along with it; appointment records stay untouched.
func (s *AvailabilityService) Replace(ctx context.Context, doctorUID string, req models.ReplaceAvailabilityRequest) (models.WeeklyAvailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	for _, day := range req.Availability {
		if !models.ValidWeekday(day.Day) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid day %q", day.Day))
		}
	}
	if req.Availability.HasDuplicateDays() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "availability lists the same day more than once")
	}

	if err := s.repo.ReplaceAvailability(ctx, doctorUID, req.Availability); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store availability")
	}
	s.invalidateCheckCache(ctx, doctorUID)
	return req.Availability, nil
}

// CheckDay reports the open slots a doctor has on one day. An offline doctor
// or an unconfigured day is not an error, just an unavailable status with an
// explanatory message.
func (s *AvailabilityService) CheckDay(ctx context.Context, doctorUID string, day models.Weekday) (*models.DayStatus, error) {
	if !models.ValidWeekday(day) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid day %q", day))
	}

	cacheKey := checkCacheKey(doctorUID, day)
	if s.cache.Enabled() {
		var cached models.DayStatus
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	doctor, err := s.repo.FindByUID(ctx, doctorUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doctor")
	}

	status := &models.DayStatus{UID: doctorUID, Day: day}
	if !doctor.IsActive {
		status.Message = "doctor is currently offline"
		return status, nil
	}

	dayIdx := doctor.Availability.FindDay(day)
	if dayIdx < 0 {
		status.Message = fmt.Sprintf("doctor has no availability configured for %s", day)
		return s.cacheDayStatus(ctx, cacheKey, status), nil
	}
	entry := doctor.Availability[dayIdx]
	if !entry.IsAvailable {
		status.Message = fmt.Sprintf("doctor is not available on %s", day)
		return s.cacheDayStatus(ctx, cacheKey, status), nil
	}

	open := make([]models.TimeSlot, 0, len(entry.TimeSlots))
	for _, slot := range entry.TimeSlots {
		if slot.IsAvailable {
			open = append(open, models.TimeSlot{
				StartTime:   slot.StartTime,
				EndTime:     slot.EndTime,
				IsAvailable: true,
			})
		}
	}
	if len(open) == 0 {
		status.Message = fmt.Sprintf("all slots on %s are booked", day)
		return s.cacheDayStatus(ctx, cacheKey, status), nil
	}

	status.IsAvailable = true
	status.TimeSlots = open
	return s.cacheDayStatus(ctx, cacheKey, status), nil
}

func (s *AvailabilityService) cacheDayStatus(ctx context.Context, key string, status *models.DayStatus) *models.DayStatus {
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, status, s.config.CheckTTL); err != nil {
			s.logger.Debug("day status cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return status
}

func checkCacheKey(doctorUID string, day models.Weekday) string {
	return fmt.Sprintf("availability:check:%s:%s", doctorUID, day)
}

func (s *AvailabilityService) invalidateCheckCache(ctx context.Context, doctorUID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, "availability:check:"+doctorUID+":*"); err != nil {
		s.logger.Debug("day status cache invalidation failed", zap.String("doctor_uid", doctorUID), zap.Error(err))
	}
}

// ClaimSlot atomically marks one slot as booked. Grid-shape failures (day not
// configured, slot missing, already booked) surface immediately; only a lost
// compare-and-swap race is retried, and exhausting the retry budget reports
// TOO_MANY_CONFLICTS without having written anything.
func (s *AvailabilityService) ClaimSlot(ctx context.Context, doctorUID string, day models.Weekday, start, end, patientEmail, bookingID string) error {
	return s.withDoctorLock(ctx, doctorUID, func(ctx context.Context) error {
		for attempt := 0; attempt < s.config.ClaimRetries; attempt++ {
			grid, version, err := s.repo.GetAvailability(ctx, doctorUID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
				}
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
			}

			updated, err := grid.Claim(day, start, end, patientEmail, bookingID)
			if err != nil {
				return err
			}

			swapped, err := s.repo.CompareAndSwapAvailability(ctx, doctorUID, updated, version)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store availability")
			}
			if swapped {
				s.invalidateCheckCache(ctx, doctorUID)
				return nil
			}

			if s.metrics != nil {
				s.metrics.RecordClaimRetry()
			}
			s.logger.Debug("slot claim lost version race, retrying",
				zap.String("doctor_uid", doctorUID),
				zap.Int("attempt", attempt+1))
		}
		return appErrors.Clone(appErrors.ErrTooManyConflicts, "")
	})
}

// ReleaseSlot frees the slot holding the given booking. Releasing a slot that
// no longer carries the booking ID is a no-op, which makes cancellation safe
// to repeat and keeps an independently rebooked slot intact.
func (s *AvailabilityService) ReleaseSlot(ctx context.Context, doctorUID string, day models.Weekday, start, end, bookingID string) error {
	return s.withDoctorLock(ctx, doctorUID, func(ctx context.Context) error {
		for attempt := 0; attempt < s.config.ClaimRetries; attempt++ {
			grid, version, err := s.repo.GetAvailability(ctx, doctorUID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
				}
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
			}

			updated, changed := grid.Release(day, start, end, bookingID)
			if !changed {
				return nil
			}

			swapped, err := s.repo.CompareAndSwapAvailability(ctx, doctorUID, updated, version)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store availability")
			}
			if swapped {
				s.invalidateCheckCache(ctx, doctorUID)
				return nil
			}

			if s.metrics != nil {
				s.metrics.RecordClaimRetry()
			}
			s.logger.Debug("slot release lost version race, retrying",
				zap.String("doctor_uid", doctorUID),
				zap.Int("attempt", attempt+1))
		}
		return appErrors.Clone(appErrors.ErrTooManyConflicts, "")
	})
}

func (s *AvailabilityService) withDoctorLock(ctx context.Context, doctorUID string, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	err := s.locker.WithLock(ctx, "doctor:"+doctorUID, fn)
	if errors.Is(err, lock.ErrNotAcquired) {
		return appErrors.Clone(appErrors.ErrLockContention, "")
	}
	return err
}
