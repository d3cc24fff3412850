package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/unifyi-dev/admissions-crm-api/internal/models"
)

func newWalkinRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestWalkinRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newWalkinRepoMock(t)
	defer cleanup()

	repo := NewWalkinRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO walkin_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	counsellorID := "counsellor-1"
	walkin := &models.WalkinRequest{
		StudentID:            "student-1",
		AssignedCounsellorID: &counsellorID,
		VisitDate:            time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC),
		VisitTime:            "10:00 AM",
		NumberOfPersons:      2,
		Reason:               "campus tour",
	}
	require.NoError(t, repo.Create(context.Background(), walkin))
	require.NotEmpty(t, walkin.ID)
	require.Equal(t, models.WalkinStatusRequested, walkin.Status)
	require.False(t, walkin.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWalkinRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newWalkinRepoMock(t)
	defer cleanup()

	repo := NewWalkinRepository(db)
	rows := sqlmock.NewRows([]string{"id", "student_id", "assigned_counsellor_id", "visit_date", "visit_time", "number_of_persons", "reason", "status", "counsellor_note", "created_at", "updated_at"}).
		AddRow("w1", "student-1", "counsellor-1", time.Now(), "10:00 AM", 2, "campus tour", "requested", nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, assigned_counsellor_id")).
		WithArgs("counsellor-1", "requested", "approved").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.WalkinFilter{
		CounsellorID: "counsellor-1",
		Status:       []models.WalkinStatus{models.WalkinStatusRequested, models.WalkinStatusApproved},
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "w1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWalkinRepositoryUpdateStatusGuard(t *testing.T) {
	db, mock, cleanup := newWalkinRepoMock(t)
	defer cleanup()

	repo := NewWalkinRepository(db)
	note := "see you then"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE walkin_requests SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	err := repo.UpdateStatus(context.Background(), DecideWalkinParams{
		ID:             "w1",
		ExpectedStatus: models.WalkinStatusRequested,
		Status:         models.WalkinStatusApproved,
		CounsellorNote: &note,
		UpdatedAt:      time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	// Zero rows means the status moved under the caller.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE walkin_requests SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.UpdateStatus(context.Background(), DecideWalkinParams{
		ID:             "w1",
		ExpectedStatus: models.WalkinStatusRequested,
		Status:         models.WalkinStatusApproved,
		UpdatedAt:      time.Now().UTC(),
	})
	require.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestWalkinRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newWalkinRepoMock(t)
	defer cleanup()

	repo := NewWalkinRepository(db)
	rows := sqlmock.NewRows([]string{"requested", "approved", "modified", "rejected"}).
		AddRow(3, 1, 2, 0)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER")).
		WithArgs("counsellor-1").
		WillReturnRows(rows)

	counts, err := repo.CountByStatus(context.Background(), "counsellor-1")
	require.NoError(t, err)
	require.Equal(t, 3, counts.Requested)
	require.Equal(t, 2, counts.Modified)
	require.NoError(t, mock.ExpectationsWereMet())
}
