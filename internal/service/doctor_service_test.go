package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carelink/clinic-api/internal/models"
	appErrors "github.com/carelink/clinic-api/pkg/errors"
)

type mockDoctorAccountRepo struct {
	doctors map[string]*models.Doctor
}

func newMockDoctorAccountRepo() *mockDoctorAccountRepo {
	return &mockDoctorAccountRepo{doctors: make(map[string]*models.Doctor)}
}

func (m *mockDoctorAccountRepo) Create(ctx context.Context, doctor *models.Doctor) error {
	m.doctors[doctor.UID] = doctor
	return nil
}

func (m *mockDoctorAccountRepo) FindByUID(ctx context.Context, uid string) (*models.Doctor, error) {
	if d, ok := m.doctors[uid]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDoctorAccountRepo) FindByEmail(ctx context.Context, email string) (*models.Doctor, error) {
	for _, d := range m.doctors {
		if d.Email == email {
			copied := *d
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockDoctorAccountRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.FindByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (m *mockDoctorAccountRepo) List(ctx context.Context, filter models.DoctorFilter) ([]models.Doctor, error) {
	var list []models.Doctor
	for _, d := range m.doctors {
		if filter.ActiveOnly && !d.IsActive {
			continue
		}
		list = append(list, *d)
	}
	return list, nil
}

func (m *mockDoctorAccountRepo) UpdateProfile(ctx context.Context, doctor *models.Doctor) error {
	if _, ok := m.doctors[doctor.UID]; !ok {
		return sql.ErrNoRows
	}
	m.doctors[doctor.UID] = doctor
	return nil
}

func (m *mockDoctorAccountRepo) SetActive(ctx context.Context, uid string, active bool) error {
	d, ok := m.doctors[uid]
	if !ok {
		return sql.ErrNoRows
	}
	d.IsActive = active
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func registerDoctorRequest() models.RegisterDoctorRequest {
	return models.RegisterDoctorRequest{
		Email:          "doc@x.com",
		Password:       "longenough",
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Specialization: "cardiology",
		LicenseNumber:  "LIC-42",
	}
}

func newTestDoctorService() (*DoctorService, *mockDoctorAccountRepo) {
	repo := newMockDoctorAccountRepo()
	svc := NewDoctorService(repo, newTestAuthService(), nil, NewValidator(), zap.NewNop(), time.Minute)
	return svc, repo
}

func TestDoctorRegisterAndLogin(t *testing.T) {
	svc, repo := newTestDoctorService()

	doctor, tokens, err := svc.Register(context.Background(), registerDoctorRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, doctor.UID)
	assert.True(t, doctor.IsActive, "new accounts start online")
	assert.NotNil(t, doctor.Availability)
	assert.Empty(t, doctor.Availability, "grid starts empty")
	assert.NotEmpty(t, tokens.Access)
	assert.NotEqual(t, "longenough", repo.doctors[doctor.UID].PasswordHash)

	_, loginTokens, err := svc.Login(context.Background(), models.LoginRequest{Email: "doc@x.com", Password: "longenough"})
	require.NoError(t, err)
	assert.NotEmpty(t, loginTokens.Access)

	_, _, err = svc.Login(context.Background(), models.LoginRequest{Email: "doc@x.com", Password: "wrong"})
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestDoctorRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestDoctorService()

	_, _, err := svc.Register(context.Background(), registerDoctorRequest())
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), registerDoctorRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestDoctorToggleStatus(t *testing.T) {
	svc, repo := newTestDoctorService()

	doctor, _, err := svc.Register(context.Background(), registerDoctorRequest())
	require.NoError(t, err)

	active, err := svc.ToggleStatus(context.Background(), doctor.UID)
	require.NoError(t, err)
	assert.False(t, active)
	assert.False(t, repo.doctors[doctor.UID].IsActive)

	active, err = svc.ToggleStatus(context.Background(), doctor.UID)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestDoctorListActiveFilter(t *testing.T) {
	svc, _ := newTestDoctorService()

	first, _, err := svc.Register(context.Background(), registerDoctorRequest())
	require.NoError(t, err)

	second := registerDoctorRequest()
	second.Email = "doc2@x.com"
	_, _, err = svc.Register(context.Background(), second)
	require.NoError(t, err)

	_, err = svc.ToggleStatus(context.Background(), first.UID)
	require.NoError(t, err)

	all, err := svc.List(context.Background(), models.DoctorFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := svc.List(context.Background(), models.DoctorFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestDoctorUpdateProfilePartial(t *testing.T) {
	svc, _ := newTestDoctorService()

	doctor, _, err := svc.Register(context.Background(), registerDoctorRequest())
	require.NoError(t, err)

	bio := "20 years of practice"
	updated, err := svc.UpdateProfile(context.Background(), doctor.UID, models.UpdateDoctorProfileRequest{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, bio, updated.Bio)
	assert.Equal(t, "Ada", updated.FirstName, "unset fields stay put")
}
