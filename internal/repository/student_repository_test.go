package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStudentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentRepositoryGetProfile(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"user_id", "university_id", "assigned_counsellor_id", "application_id", "referral_code", "created_at", "updated_at"}).
		AddRow("student-1", "uni-1", "counsellor-1", "APP-001", "FRIEND-42", now, now)
	mock.ExpectQuery("SELECT user_id, university_id, assigned_counsellor_id, application_id, referral_code, created_at, updated_at").
		WithArgs("student-1").
		WillReturnRows(rows)

	profile, err := repo.GetProfile(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, "student-1", profile.UserID)
	require.NotNil(t, profile.AssignedCounsellorID)
	assert.Equal(t, "counsellor-1", *profile.AssignedCounsellorID)
	assert.Equal(t, "FRIEND-42", profile.ReferralCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryGetProfileNotFound(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT user_id, university_id, assigned_counsellor_id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetProfile(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
