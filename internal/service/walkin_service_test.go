package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unifyi-dev/admissions-crm-api/internal/dto"
	"github.com/unifyi-dev/admissions-crm-api/internal/models"
	"github.com/unifyi-dev/admissions-crm-api/internal/repository"
	appErrors "github.com/unifyi-dev/admissions-crm-api/pkg/errors"
)

type walkinRepoStub struct {
	walkins  map[string]*models.WalkinRequest
	filter   models.WalkinFilter
	afterGet func()
}

func newWalkinRepoStub() *walkinRepoStub {
	return &walkinRepoStub{walkins: make(map[string]*models.WalkinRequest)}
}

func (m *walkinRepoStub) Create(ctx context.Context, walkin *models.WalkinRequest) error {
	if walkin.ID == "" {
		walkin.ID = "walkin-1"
	}
	m.walkins[walkin.ID] = walkin
	return nil
}

func (m *walkinRepoStub) GetByID(ctx context.Context, id string) (*models.WalkinRequest, error) {
	if walkin, ok := m.walkins[id]; ok {
		copy := *walkin
		if m.afterGet != nil {
			m.afterGet()
			m.afterGet = nil
		}
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *walkinRepoStub) List(ctx context.Context, filter models.WalkinFilter) ([]models.WalkinRequest, error) {
	m.filter = filter
	result := make([]models.WalkinRequest, 0, len(m.walkins))
	for _, walkin := range m.walkins {
		result = append(result, *walkin)
	}
	return result, nil
}

func (m *walkinRepoStub) UpdateStatus(ctx context.Context, params repository.DecideWalkinParams) error {
	walkin, ok := m.walkins[params.ID]
	if !ok || walkin.Status != params.ExpectedStatus {
		return sql.ErrNoRows
	}
	walkin.Status = params.Status
	walkin.CounsellorNote = params.CounsellorNote
	walkin.UpdatedAt = params.UpdatedAt
	if params.VisitDate != nil {
		walkin.VisitDate = *params.VisitDate
	}
	if params.VisitTime != nil {
		walkin.VisitTime = *params.VisitTime
	}
	return nil
}

type profileStub struct {
	profiles map[string]*models.StudentProfile
}

func (p *profileStub) GetProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	if profile, ok := p.profiles[userID]; ok {
		return profile, nil
	}
	return nil, sql.ErrNoRows
}

type walkinAuditStub struct {
	logs []*models.AuditLog
}

func (a *walkinAuditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func strPtr(s string) *string { return &s }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func newWalkinServiceForTest(repo *walkinRepoStub, cfg WalkinServiceConfig) (*WalkinService, *walkinAuditStub) {
	profiles := &profileStub{profiles: map[string]*models.StudentProfile{
		"student-1": {UserID: "student-1", AssignedCounsellorID: strPtr("counsellor-1")},
		"student-2": {UserID: "student-2"},
	}}
	audit := &walkinAuditStub{}
	svc := NewWalkinService(repo, profiles, audit, nil, cfg, WithWalkinClock(fixedClock(testNow)))
	return svc, audit
}

func TestWalkinServiceSubmit(t *testing.T) {
	repo := newWalkinRepoStub()
	svc, audit := newWalkinServiceForTest(repo, WalkinServiceConfig{})

	walkin, err := svc.Submit(context.Background(), "student-1", dto.CreateWalkinRequest{
		VisitDate:       "2026-03-15",
		VisitTime:       "10:30 AM",
		NumberOfPersons: 2,
		Reason:          "campus tour",
	})
	require.NoError(t, err)
	require.Equal(t, models.WalkinStatusRequested, walkin.Status)
	require.Equal(t, "counsellor-1", *walkin.AssignedCounsellorID)
	require.Nil(t, walkin.CounsellorNote)
	require.Len(t, audit.logs, 1)
}

func TestWalkinServiceSubmitValidation(t *testing.T) {
	repo := newWalkinRepoStub()
	svc, _ := newWalkinServiceForTest(repo, WalkinServiceConfig{})

	cases := []struct {
		name string
		req  dto.CreateWalkinRequest
	}{
		{"missing date", dto.CreateWalkinRequest{VisitTime: "10:00", NumberOfPersons: 1, Reason: "tour"}},
		{"bad date format", dto.CreateWalkinRequest{VisitDate: "15-03-2026", VisitTime: "10:00", NumberOfPersons: 1, Reason: "tour"}},
		{"past date", dto.CreateWalkinRequest{VisitDate: "2026-03-09", VisitTime: "10:00", NumberOfPersons: 1, Reason: "tour"}},
		{"zero persons", dto.CreateWalkinRequest{VisitDate: "2026-03-15", VisitTime: "10:00", NumberOfPersons: 0, Reason: "tour"}},
		{"missing reason", dto.CreateWalkinRequest{VisitDate: "2026-03-15", VisitTime: "10:00", NumberOfPersons: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), "student-1", tc.req)
			require.Error(t, err)
			require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestWalkinServiceSubmitSameDayAllowed(t *testing.T) {
	repo := newWalkinRepoStub()
	svc, _ := newWalkinServiceForTest(repo, WalkinServiceConfig{})

	_, err := svc.Submit(context.Background(), "student-1", dto.CreateWalkinRequest{
		VisitDate:       "2026-03-10",
		VisitTime:       "04:00 PM",
		NumberOfPersons: 1,
		Reason:          "late visit today",
	})
	require.NoError(t, err)
}

func TestWalkinServiceSubmitRequiresCounsellor(t *testing.T) {
	repo := newWalkinRepoStub()
	svc, _ := newWalkinServiceForTest(repo, WalkinServiceConfig{})

	_, err := svc.Submit(context.Background(), "student-2", dto.CreateWalkinRequest{
		VisitDate:       "2026-03-15",
		VisitTime:       "10:00",
		NumberOfPersons: 1,
		Reason:          "tour",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestWalkinServiceAvailability(t *testing.T) {
	repo := newWalkinRepoStub()
	repo.walkins["w1"] = &models.WalkinRequest{
		ID: "w1", StudentID: "student-1", Status: models.WalkinStatusRequested,
	}
	svc, _ := newWalkinServiceForTest(repo, WalkinServiceConfig{})

	availability, err := svc.Availability(context.Background(), "student-1")
	require.NoError(t, err)
	require.True(t, availability.CanSubmit)
	require.False(t, availability.AwaitingAssignment)
	require.Equal(t, 1, availability.OutstandingRequests)

	availability, err = svc.Availability(context.Background(), "student-2")
	require.NoError(t, err)
	require.False(t, availability.CanSubmit)
	require.True(t, availability.AwaitingAssignment)
}

func TestWalkinServiceListMineBadges(t *testing.T) {
	repo := newWalkinRepoStub()
	repo.walkins["w1"] = &models.WalkinRequest{
		ID: "w1", StudentID: "student-1", Status: models.WalkinStatusRequested,
	}
	svc, _ := newWalkinServiceForTest(repo, WalkinServiceConfig{})

	items, err := svc.ListMine(context.Background(), "student-1", dto.WalkinQuery{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, dto.WalkinBadgePending, items[0].Badge)
	require.Equal(t, "student-1", repo.filter.StudentID)
}

func seedWalkin(repo *walkinRepoStub, status models.WalkinStatus) *models.WalkinRequest {
	walkin := &models.WalkinRequest{
		ID:                   "w1",
		StudentID:            "student-1",
		AssignedCounsellorID: strPtr("counsellor-1"),
		VisitDate:            time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC),
		VisitTime:            "10:00 AM",
		NumberOfPersons:      2,
		Reason:               "campus tour",
		Status:               status,
	}
	repo.walkins[walkin.ID] = walkin
	return walkin
}

func TestWalkinServiceDecideApprove(t *testing.T) {
	repo := newWalkinRepoStub()
	seedWalkin(repo, models.WalkinStatusRequested)
	svc, audit := newWalkinServiceForTest(repo, WalkinServiceConfig{})

	walkin, err := svc.Decide(context.Background(), "counsellor-1", "w1", dto.DecideWalkinRequest{
		Status:         models.WalkinStatusApproved,
		CounsellorNote: "see you then",
	})
	require.NoError(t, err)
	require.Equal(t, models.WalkinStatusApproved, walkin.Status)
	require.Equal(t, "see you then", *walkin.CounsellorNote)
	require.Len(t, audit.logs, 1)
}

func TestWalkinServiceDecideForbiddenForOtherCounsellor(t *testing.T) {
	repo := newWalkinRepoStub()
	seedWalkin(repo, models.WalkinStatusRequested)
	svc, _ := newWalkinServiceForTest(repo, WalkinServiceConfig{})

	_, err := svc.Decide(context.Background(), "counsellor-2", "w1", dto.DecideWalkinRequest{
		Status: models.WalkinStatusApproved,
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestWalkinServiceDecideModifyRequiresNewSlot(t *testing.T) {
	repo := newWalkinRepoStub()
	seedWalkin(repo, models.WalkinStatusRequested)
	svc, _ := newWalkinServiceForTest(repo, WalkinServiceConfig{})

	_, err := svc.Decide(context.Background(), "counsellor-1", "w1", dto.DecideWalkinRequest{
		Status:         models.WalkinStatusModified,
		CounsellorNote: "slot clash",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestWalkinServiceDecideModifyReplacesSlot(t *testing.T) {
	repo := newWalkinRepoStub()
	seedWalkin(repo, models.WalkinStatusRequested)
	svc, _ := newWalkinServiceForTest(repo, WalkinServiceConfig{})

	walkin, err := svc.Decide(context.Background(), "counsellor-1", "w1", dto.DecideWalkinRequest{
		Status:         models.WalkinStatusModified,
		CounsellorNote: "slot clash, moved",
		VisitDate:      "2026-03-20",
		VisitTime:      "02:00 PM",
	})
	require.NoError(t, err)
	require.Equal(t, models.WalkinStatusModified, walkin.Status)
	require.Equal(t, "2026-03-20", walkin.VisitDate.Format("2006-01-02"))
	require.Equal(t, "02:00 PM", walkin.VisitTime)
}

func TestWalkinServiceDecideApprovedCanStillBeModified(t *testing.T) {
	repo := newWalkinRepoStub()
	seedWalkin(repo, models.WalkinStatusApproved)
	svc, _ := newWalkinServiceForTest(repo, WalkinServiceConfig{})

	walkin, err := svc.Decide(context.Background(), "counsellor-1", "w1", dto.DecideWalkinRequest{
		Status:    models.WalkinStatusModified,
		VisitDate: "2026-03-21",
		VisitTime: "11:00 AM",
	})
	require.NoError(t, err)
	require.Equal(t, models.WalkinStatusModified, walkin.Status)
}

func TestWalkinServiceDecideRejectedIsTerminal(t *testing.T) {
	repo := newWalkinRepoStub()
	seedWalkin(repo, models.WalkinStatusRejected)
	svc, _ := newWalkinServiceForTest(repo, WalkinServiceConfig{})

	for _, action := range []models.WalkinStatus{
		models.WalkinStatusApproved,
		models.WalkinStatusModified,
		models.WalkinStatusRejected,
	} {
		_, err := svc.Decide(context.Background(), "counsellor-1", "w1", dto.DecideWalkinRequest{
			Status:    action,
			VisitDate: "2026-03-21",
			VisitTime: "11:00 AM",
		})
		require.Error(t, err)
		require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	}
}

func TestWalkinServiceDecideRemodifyGatedByConfig(t *testing.T) {
	repo := newWalkinRepoStub()
	seedWalkin(repo, models.WalkinStatusModified)
	svc, _ := newWalkinServiceForTest(repo, WalkinServiceConfig{})

	req := dto.DecideWalkinRequest{
		Status:    models.WalkinStatusModified,
		VisitDate: "2026-03-22",
		VisitTime: "09:00 AM",
	}
	_, err := svc.Decide(context.Background(), "counsellor-1", "w1", req)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	repo = newWalkinRepoStub()
	seedWalkin(repo, models.WalkinStatusModified)
	svc, _ = newWalkinServiceForTest(repo, WalkinServiceConfig{AllowRemodify: true})

	walkin, err := svc.Decide(context.Background(), "counsellor-1", "w1", req)
	require.NoError(t, err)
	require.Equal(t, models.WalkinStatusModified, walkin.Status)
}

func TestWalkinServiceDecideConflictOnStaleRead(t *testing.T) {
	repo := newWalkinRepoStub()
	seedWalkin(repo, models.WalkinStatusRequested)
	svc, _ := newWalkinServiceForTest(repo, WalkinServiceConfig{})

	// Another counsellor session settles the request between this caller's
	// read and write; the expected-status guard in the write catches it.
	repo.afterGet = func() {
		repo.walkins["w1"].Status = models.WalkinStatusRejected
	}
	_, err := svc.Decide(context.Background(), "counsellor-1", "w1", dto.DecideWalkinRequest{
		Status: models.WalkinStatusApproved,
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestWalkinServiceDecideUnknownStatusSurfaces(t *testing.T) {
	repo := newWalkinRepoStub()
	walkin := seedWalkin(repo, models.WalkinStatus("archived"))
	svc, _ := newWalkinServiceForTest(repo, WalkinServiceConfig{})

	_, err := svc.Decide(context.Background(), "counsellor-1", walkin.ID, dto.DecideWalkinRequest{
		Status: models.WalkinStatusApproved,
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnknownStatus.Code, appErrors.FromError(err).Code)
}
