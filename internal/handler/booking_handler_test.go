package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carelink/clinic-api/internal/middleware"
	"github.com/carelink/clinic-api/internal/models"
	"github.com/carelink/clinic-api/internal/service"
	appErrors "github.com/carelink/clinic-api/pkg/errors"
)

type stubSlotStore struct {
	mu     sync.Mutex
	slots  map[string]string
	claims map[string]string
}

func newStubSlotStore(pairs ...string) *stubSlotStore {
	s := &stubSlotStore{slots: make(map[string]string), claims: make(map[string]string)}
	for _, p := range pairs {
		s.slots[p] = ""
	}
	return s
}

func slotKey(day models.Weekday, start, end string) string {
	return string(day) + "|" + start + "|" + end
}

func (s *stubSlotStore) ClaimSlot(ctx context.Context, doctorUID string, day models.Weekday, start, end, patientEmail, bookingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := slotKey(day, start, end)
	if _, ok := s.slots[key]; !ok {
		return appErrors.Clone(appErrors.ErrSlotNotFound, "")
	}
	if s.claims[key] != "" {
		return appErrors.Clone(appErrors.ErrSlotAlreadyBooked, "")
	}
	s.claims[key] = bookingID
	return nil
}

func (s *stubSlotStore) ReleaseSlot(ctx context.Context, doctorUID string, day models.Weekday, start, end, bookingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := slotKey(day, start, end)
	if s.claims[key] == bookingID {
		s.claims[key] = ""
	}
	return nil
}

type stubDoctorFinder struct {
	doctors map[string]*models.Doctor
}

func (s *stubDoctorFinder) FindByUID(ctx context.Context, uid string) (*models.Doctor, error) {
	if d, ok := s.doctors[uid]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

type stubAppointmentStore struct {
	mu      sync.Mutex
	records map[string]*models.Appointment
}

func newStubAppointmentStore() *stubAppointmentStore {
	return &stubAppointmentStore{records: make(map[string]*models.Appointment)}
}

func (s *stubAppointmentStore) Create(ctx context.Context, appointment *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *appointment
	s.records[appointment.BookingID] = &copied
	return nil
}

func (s *stubAppointmentStore) FindByBookingID(ctx context.Context, bookingID string) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.records[bookingID]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubAppointmentStore) MarkCancelled(ctx context.Context, bookingID string, cancelledAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.records[bookingID]
	if !ok {
		return sql.ErrNoRows
	}
	a.Status = models.AppointmentCancelled
	if a.CancelledAt == nil {
		a.CancelledAt = &cancelledAt
	}
	return nil
}

func (s *stubAppointmentStore) ListByDoctor(ctx context.Context, doctorUID string) ([]models.AppointmentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var details []models.AppointmentDetail
	for _, a := range s.records {
		if a.DoctorUID == doctorUID {
			details = append(details, models.AppointmentDetail{Appointment: *a})
		}
	}
	return details, nil
}

func (s *stubAppointmentStore) ListByPatient(ctx context.Context, patientUID string) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.Appointment
	for _, a := range s.records {
		if a.PatientUID != nil && *a.PatientUID == patientUID {
			list = append(list, *a)
		}
	}
	return list, nil
}

func newBookingHandlerFixture() (*BookingHandler, *stubSlotStore, *stubAppointmentStore) {
	slots := newStubSlotStore(slotKey(models.Monday, "09:00", "10:00"))
	doctors := &stubDoctorFinder{doctors: map[string]*models.Doctor{
		"doc-1": {UID: "doc-1", FirstName: "Ada", LastName: "Lovelace", IsActive: true},
	}}
	appointments := newStubAppointmentStore()
	svc := service.NewBookingService(slots, doctors, appointments, nil, service.NewValidator(), zap.NewNop())
	return NewBookingHandler(svc, nil), slots, appointments
}

func bookingBody(t *testing.T) *bytes.Reader {
	body, err := json.Marshal(models.BookAppointmentRequest{
		DoctorUID:    "doc-1",
		Day:          models.Monday,
		StartTime:    "09:00",
		EndTime:      "10:00",
		PatientName:  "Grace Hopper",
		PatientEmail: "grace@example.com",
	})
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (map[string]interface{}, *appErrors.Error) {
	var envelope struct {
		Data  map[string]interface{} `json:"data"`
		Error *appErrors.Error       `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Data, envelope.Error
}

func TestBookingHandlerBookAndCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, slots, _ := newBookingHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/appointments", bookingBody(t))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Book(c)
	require.Equal(t, http.StatusCreated, w.Code)
	data, _ := decodeEnvelope(t, w)
	bookingID, ok := data["booking_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, bookingID)
	assert.Equal(t, bookingID, slots.claims[slotKey(models.Monday, "09:00", "10:00")])

	cancel := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		req, _ := http.NewRequest(http.MethodPost, "/appointments/"+bookingID+"/cancel", nil)
		c.Request = req
		c.Params = gin.Params{{Key: "bookingId", Value: bookingID}}
		handler.Cancel(c)
		return w
	}

	first := cancel()
	require.Equal(t, http.StatusOK, first.Code)
	assert.Empty(t, slots.claims[slotKey(models.Monday, "09:00", "10:00")])

	// cancelling again is still a success
	second := cancel()
	require.Equal(t, http.StatusOK, second.Code)
}

func TestBookingHandlerBookConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, _ := newBookingHandlerFixture()

	book := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		req, _ := http.NewRequest(http.MethodPost, "/appointments", bookingBody(t))
		req.Header.Set("Content-Type", "application/json")
		c.Request = req
		handler.Book(c)
		return w
	}

	require.Equal(t, http.StatusCreated, book().Code)

	w := book()
	require.Equal(t, http.StatusConflict, w.Code)
	_, envErr := decodeEnvelope(t, w)
	require.NotNil(t, envErr)
	assert.Equal(t, appErrors.ErrSlotAlreadyBooked.Code, envErr.Code)
}

func TestBookingHandlerBookInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, _ := newBookingHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/appointments", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Book(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandlerListForPatient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, appointments := newBookingHandlerFixture()

	patientUID := "pat-1"
	appointments.records["bk-1"] = &models.Appointment{
		BookingID:  "bk-1",
		DoctorUID:  "doc-1",
		PatientUID: &patientUID,
		Day:        models.Monday,
		StartTime:  "09:00",
		EndTime:    "10:00",
		Status:     models.AppointmentConfirmed,
	}
	appointments.records["bk-2"] = &models.Appointment{
		BookingID: "bk-2",
		DoctorUID: "doc-1",
		Day:       models.Monday,
		StartTime: "10:00",
		EndTime:   "11:00",
		Status:    models.AppointmentConfirmed,
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/patients/appointments", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UID: patientUID, Role: models.RolePatient})

	handler.ListForPatient(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []models.Appointment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "bk-1", envelope.Data[0].BookingID)

	// no token, no listing
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/patients/appointments", nil)
	handler.ListForPatient(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookingHandlerCancelUnknown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, _ := newBookingHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/appointments/missing/cancel", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "bookingId", Value: "missing"}}

	handler.Cancel(c)
	require.Equal(t, http.StatusNotFound, w.Code)
	_, envErr := decodeEnvelope(t, w)
	require.NotNil(t, envErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, envErr.Code)
}
