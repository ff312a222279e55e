package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carelink/clinic-api/internal/models"
	appErrors "github.com/carelink/clinic-api/pkg/errors"
)

type memoryAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[string]*models.Appointment
	failCreates  int
}

func newMemoryAppointmentRepo() *memoryAppointmentRepo {
	return &memoryAppointmentRepo{appointments: make(map[string]*models.Appointment)}
}

func (m *memoryAppointmentRepo) Create(ctx context.Context, appointment *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreates > 0 {
		m.failCreates--
		return errors.New("write failed")
	}
	copied := *appointment
	m.appointments[appointment.BookingID] = &copied
	return nil
}

func (m *memoryAppointmentRepo) FindByBookingID(ctx context.Context, bookingID string) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[bookingID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (m *memoryAppointmentRepo) MarkCancelled(ctx context.Context, bookingID string, cancelledAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[bookingID]
	if !ok {
		return sql.ErrNoRows
	}
	a.Status = models.AppointmentCancelled
	if a.CancelledAt == nil {
		a.CancelledAt = &cancelledAt
	}
	return nil
}

func (m *memoryAppointmentRepo) ListByDoctor(ctx context.Context, doctorUID string) ([]models.AppointmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []models.AppointmentDetail
	for _, a := range m.appointments {
		if a.DoctorUID == doctorUID {
			list = append(list, models.AppointmentDetail{Appointment: *a})
		}
	}
	return list, nil
}

func (m *memoryAppointmentRepo) ListByPatient(ctx context.Context, patientUID string) ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []models.Appointment
	for _, a := range m.appointments {
		if a.PatientUID != nil && *a.PatientUID == patientUID {
			list = append(list, *a)
		}
	}
	return list, nil
}

type failingSlotStore struct {
	claimErr   error
	releaseErr error
	claims     int
	releases   int
}

func (f *failingSlotStore) ClaimSlot(ctx context.Context, doctorUID string, day models.Weekday, start, end, patientEmail, bookingID string) error {
	f.claims++
	return f.claimErr
}

func (f *failingSlotStore) ReleaseSlot(ctx context.Context, doctorUID string, day models.Weekday, start, end, bookingID string) error {
	f.releases++
	return f.releaseErr
}

func bookingRequest() models.BookAppointmentRequest {
	return models.BookAppointmentRequest{
		DoctorUID:    "d1",
		Day:          models.Monday,
		StartTime:    "09:00",
		EndTime:      "10:00",
		PatientName:  "Alice",
		PatientEmail: "alice@x.com",
		Reason:       "checkup",
	}
}

func newBookingFixture(t *testing.T) (*BookingService, *memoryDoctorRepo, *memoryAppointmentRepo) {
	t.Helper()
	doctors := newMemoryDoctorRepo(testDoctor("d1"))
	appointments := newMemoryAppointmentRepo()
	slots := newTestAvailabilityService(doctors)
	svc := NewBookingService(slots, doctors, appointments, nil, NewValidator(), zap.NewNop())
	return svc, doctors, appointments
}

func TestBookThenConflictThenRebookAfterCancel(t *testing.T) {
	svc, doctors, _ := newBookingFixture(t)

	first, err := svc.Book(context.Background(), bookingRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, first.BookingID)
	assert.Equal(t, models.AppointmentConfirmed, first.Status)
	assert.Equal(t, "Ada Lovelace", first.DoctorName)

	// identical attempt before cancellation conflicts
	_, err = svc.Book(context.Background(), bookingRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotAlreadyBooked.Code, appErrors.FromError(err).Code)

	cancelled, err := svc.Cancel(context.Background(), first.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	// slot free again, third attempt gets a fresh booking id
	second, err := svc.Book(context.Background(), bookingRequest())
	require.NoError(t, err)
	assert.NotEqual(t, first.BookingID, second.BookingID)

	grid, _, err := doctors.GetAvailability(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, second.BookingID, grid[0].TimeSlots[0].BookingID)
}

func TestBookOfflineDoctor(t *testing.T) {
	svc, doctors, appointments := newBookingFixture(t)
	doctors.doctors["d1"].IsActive = false

	_, err := svc.Book(context.Background(), bookingRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDoctorOffline.Code, appErrors.FromError(err).Code)
	assert.Empty(t, appointments.appointments)
}

func TestBookUnknownDoctor(t *testing.T) {
	svc, _, _ := newBookingFixture(t)

	req := bookingRequest()
	req.DoctorUID = "missing"
	_, err := svc.Book(context.Background(), req)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBookDayNotConfiguredIsConflictNotNotFound(t *testing.T) {
	svc, _, appointments := newBookingFixture(t)

	req := bookingRequest()
	req.Day = models.Sunday
	_, err := svc.Book(context.Background(), req)
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDayNotConfigured.Code, appErr.Code)
	assert.NotEqual(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Empty(t, appointments.appointments, "no record on claim failure")
}

func TestBookCompensatesWhenRecordWriteFails(t *testing.T) {
	svc, doctors, appointments := newBookingFixture(t)
	appointments.failCreates = 1

	_, err := svc.Book(context.Background(), bookingRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)

	// the compensating release freed the claimed slot
	grid, _, gridErr := doctors.GetAvailability(context.Background(), "d1")
	require.NoError(t, gridErr)
	assert.True(t, grid[0].TimeSlots[0].IsAvailable)
	assert.Empty(t, grid[0].TimeSlots[0].BookingID)

	// and the slot is bookable again
	_, err = svc.Book(context.Background(), bookingRequest())
	require.NoError(t, err)
}

func TestBookInconsistentStateWhenCompensationFails(t *testing.T) {
	doctors := newMemoryDoctorRepo(testDoctor("d1"))
	appointments := newMemoryAppointmentRepo()
	appointments.failCreates = 1
	slots := &failingSlotStore{releaseErr: errors.New("redis down")}
	svc := NewBookingService(slots, doctors, appointments, nil, NewValidator(), zap.NewNop())

	_, err := svc.Book(context.Background(), bookingRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInconsistentState.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 1, slots.claims)
	assert.Equal(t, 1, slots.releases)
}

func TestCancelIdempotent(t *testing.T) {
	svc, _, _ := newBookingFixture(t)

	booked, err := svc.Book(context.Background(), bookingRequest())
	require.NoError(t, err)

	first, err := svc.Cancel(context.Background(), booked.BookingID)
	require.NoError(t, err)
	require.NotNil(t, first.CancelledAt)

	second, err := svc.Cancel(context.Background(), booked.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCancelled, second.Status)
	assert.Equal(t, first.CancelledAt.Unix(), second.CancelledAt.Unix(), "cancelled_at must not move on repeat cancellation")
}

func TestCancelUnknownBooking(t *testing.T) {
	svc, _, _ := newBookingFixture(t)

	_, err := svc.Cancel(context.Background(), "nope")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCancelProceedsWhenReleaseFails(t *testing.T) {
	doctors := newMemoryDoctorRepo(testDoctor("d1"))
	appointments := newMemoryAppointmentRepo()
	appointments.appointments["b1"] = &models.Appointment{
		BookingID: "b1",
		DoctorUID: "d1",
		Day:       models.Monday,
		StartTime: "09:00",
		EndTime:   "10:00",
		Status:    models.AppointmentConfirmed,
		CreatedAt: time.Now().UTC(),
	}
	slots := &failingSlotStore{releaseErr: errors.New("grid desynced")}
	svc := NewBookingService(slots, doctors, appointments, nil, NewValidator(), zap.NewNop())

	cancelled, err := svc.Cancel(context.Background(), "b1")
	require.NoError(t, err, "a broken grid must not block cancellation")
	assert.Equal(t, models.AppointmentCancelled, cancelled.Status)
}

func TestConcurrentBookingsSingleWinner(t *testing.T) {
	svc, _, appointments := newBookingFixture(t)

	const workers = 12
	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Book(context.Background(), bookingRequest())
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range results {
		if err == nil {
			successes++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Len(t, appointments.appointments, 1)
}

func TestBookValidation(t *testing.T) {
	svc, _, _ := newBookingFixture(t)

	req := bookingRequest()
	req.StartTime = "9am"
	_, err := svc.Book(context.Background(), req)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = bookingRequest()
	req.Day = "holiday"
	_, err = svc.Book(context.Background(), req)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = bookingRequest()
	req.PatientEmail = "not-an-email"
	_, err = svc.Book(context.Background(), req)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestListForPatientReturnsOwnBookingsOnly(t *testing.T) {
	svc, _, _ := newBookingFixture(t)

	patientUID := "p1"
	req := bookingRequest()
	req.PatientUID = &patientUID
	mine, err := svc.Book(context.Background(), req)
	require.NoError(t, err)

	// walk-in booking on the second slot carries no patient UID
	walkIn := bookingRequest()
	walkIn.StartTime = "10:00"
	walkIn.EndTime = "11:00"
	_, err = svc.Book(context.Background(), walkIn)
	require.NoError(t, err)

	list, err := svc.ListForPatient(context.Background(), patientUID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.BookingID, list[0].BookingID)

	other, err := svc.ListForPatient(context.Background(), "p2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

// TestRandomizedBookCancelKeepsGridConsistent drives a long random sequence of
// bookings and cancellations, occasionally making the appointment write fail so
// the compensation path runs, then checks that the slot grid and the
// appointment records agree: every confirmed appointment holds exactly the slot
// its booking ID occupies, and no cancelled booking holds one.
func TestRandomizedBookCancelKeepsGridConsistent(t *testing.T) {
	svc, doctors, appointments := newBookingFixture(t)

	rng := rand.New(rand.NewSource(1))
	slots := [][2]string{{"09:00", "10:00"}, {"10:00", "11:00"}}
	var issued []string

	for i := 0; i < 400; i++ {
		if rng.Intn(3) < 2 {
			pick := slots[rng.Intn(len(slots))]
			req := bookingRequest()
			req.StartTime = pick[0]
			req.EndTime = pick[1]
			if rng.Intn(5) == 0 {
				appointments.mu.Lock()
				appointments.failCreates = 1
				appointments.mu.Unlock()
			}
			appointment, err := svc.Book(context.Background(), req)
			if err == nil {
				issued = append(issued, appointment.BookingID)
			}
		} else if len(issued) > 0 {
			svc.Cancel(context.Background(), issued[rng.Intn(len(issued))])
		}
	}

	grid, _, err := doctors.GetAvailability(context.Background(), "d1")
	require.NoError(t, err)

	booked := make(map[string]string)
	for _, day := range grid {
		for _, slot := range day.TimeSlots {
			if !slot.IsAvailable {
				require.NotEmpty(t, slot.BookingID, "an occupied slot must name its booking")
				booked[slot.BookingID] = slot.StartTime + "-" + slot.EndTime
			}
		}
	}

	var confirmed int
	appointments.mu.Lock()
	defer appointments.mu.Unlock()
	for id, a := range appointments.appointments {
		slotKey := fmt.Sprintf("%s-%s", a.StartTime, a.EndTime)
		switch a.Status {
		case models.AppointmentConfirmed:
			confirmed++
			assert.Equal(t, slotKey, booked[id], "confirmed booking %s must hold its slot", id)
		case models.AppointmentCancelled:
			assert.NotContains(t, booked, id, "cancelled booking %s must not hold a slot", id)
		}
	}
	assert.Len(t, booked, confirmed, "every occupied slot must match a confirmed appointment")
}
