package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/clinic-api/internal/models"
)

func newDoctorRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func testGridJSON(t *testing.T) ([]byte, models.WeeklyAvailability) {
	grid := models.WeeklyAvailability{
		{
			Day:         models.Monday,
			IsAvailable: true,
			TimeSlots: []models.TimeSlot{
				{StartTime: "09:00", EndTime: "10:00", IsAvailable: true},
			},
		},
	}
	raw, err := json.Marshal(grid)
	require.NoError(t, err)
	return raw, grid
}

func TestDoctorRepositoryGetAvailability(t *testing.T) {
	db, mock, cleanup := newDoctorRepoMock(t)
	defer cleanup()

	repo := NewDoctorRepository(db)
	raw, want := testGridJSON(t)
	rows := sqlmock.NewRows([]string{"availability", "version"}).AddRow(raw, int64(4))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT availability, version FROM doctors WHERE uid = $1")).
		WithArgs("doc-1").
		WillReturnRows(rows)

	grid, version, err := repo.GetAvailability(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)
	assert.Equal(t, want, grid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorRepositoryGetAvailabilityNotFound(t *testing.T) {
	db, mock, cleanup := newDoctorRepoMock(t)
	defer cleanup()

	repo := NewDoctorRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT availability, version FROM doctors WHERE uid = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, _, err := repo.GetAvailability(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDoctorRepositoryCompareAndSwapAvailability(t *testing.T) {
	db, mock, cleanup := newDoctorRepoMock(t)
	defer cleanup()

	repo := NewDoctorRepository(db)
	_, grid := testGridJSON(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE doctors SET availability = $2, version = version + 1")).
		WithArgs("doc-1", sqlmock.AnyArg(), sqlmock.AnyArg(), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	swapped, err := repo.CompareAndSwapAvailability(context.Background(), "doc-1", grid, 4)
	require.NoError(t, err)
	assert.True(t, swapped)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE doctors SET availability = $2, version = version + 1")).
		WithArgs("doc-1", sqlmock.AnyArg(), sqlmock.AnyArg(), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	swapped, err = repo.CompareAndSwapAvailability(context.Background(), "doc-1", grid, 4)
	require.NoError(t, err)
	assert.False(t, swapped)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorRepositoryReplaceAvailability(t *testing.T) {
	db, mock, cleanup := newDoctorRepoMock(t)
	defer cleanup()

	repo := NewDoctorRepository(db)
	_, grid := testGridJSON(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE doctors SET availability = $2, version = version + 1, updated_at = $3 WHERE uid = $1")).
		WithArgs("doc-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.ReplaceAvailability(context.Background(), "doc-1", grid))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE doctors SET availability = $2, version = version + 1, updated_at = $3 WHERE uid = $1")).
		WithArgs("missing", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.ReplaceAvailability(context.Background(), "missing", grid), sql.ErrNoRows)
}

func TestDoctorRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newDoctorRepoMock(t)
	defer cleanup()

	repo := NewDoctorRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM doctors WHERE email = $1)")).
		WithArgs("ada@carelink.dev").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByEmail(context.Background(), "ada@carelink.dev")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDoctorRepositorySetActive(t *testing.T) {
	db, mock, cleanup := newDoctorRepoMock(t)
	defer cleanup()

	repo := NewDoctorRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE doctors SET is_active = $2, updated_at = $3 WHERE uid = $1")).
		WithArgs("doc-1", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetActive(context.Background(), "doc-1", false))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newDoctorRepoMock(t)
	defer cleanup()

	repo := NewDoctorRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO doctors")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	now := time.Now().UTC()
	doctor := &models.Doctor{
		UID:            "doc-1",
		Email:          "ada@carelink.dev",
		PasswordHash:   "hash",
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Specialization: "cardiology",
		IsActive:       true,
		Availability:   models.WeeklyAvailability{},
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, repo.Create(context.Background(), doctor))
	require.NoError(t, mock.ExpectationsWereMet())
}
