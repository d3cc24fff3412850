package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unifyi-dev/admissions-crm-api/internal/dto"
	"github.com/unifyi-dev/admissions-crm-api/internal/models"
	appErrors "github.com/unifyi-dev/admissions-crm-api/pkg/errors"
)

type queryRepoStub struct {
	queries  map[string]*models.Query
	messages map[string][]models.QueryMessage
}

func newQueryRepoStub() *queryRepoStub {
	return &queryRepoStub{
		queries:  make(map[string]*models.Query),
		messages: make(map[string][]models.QueryMessage),
	}
}

func (m *queryRepoStub) Create(ctx context.Context, query *models.Query, first *models.QueryMessage) error {
	if query.ID == "" {
		query.ID = "query-1"
	}
	first.QueryID = query.ID
	m.queries[query.ID] = query
	m.messages[query.ID] = append(m.messages[query.ID], *first)
	return nil
}

func (m *queryRepoStub) GetByID(ctx context.Context, id string) (*models.Query, error) {
	if query, ok := m.queries[id]; ok {
		copy := *query
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *queryRepoStub) ListForStudent(ctx context.Context, studentID string) ([]models.Query, error) {
	result := make([]models.Query, 0)
	for _, query := range m.queries {
		if query.StudentID == studentID {
			result = append(result, *query)
		}
	}
	return result, nil
}

func (m *queryRepoStub) ListForCounsellor(ctx context.Context, counsellorID string, statuses []models.QueryStatus) ([]models.Query, error) {
	result := make([]models.Query, 0)
	for _, query := range m.queries {
		if query.AssignedCounsellorID == nil || *query.AssignedCounsellorID != counsellorID {
			continue
		}
		if len(statuses) > 0 {
			match := false
			for _, status := range statuses {
				if query.Status == status {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		result = append(result, *query)
	}
	return result, nil
}

func (m *queryRepoStub) ListMessages(ctx context.Context, queryID string) ([]models.QueryMessage, error) {
	return m.messages[queryID], nil
}

func (m *queryRepoStub) AppendMessage(ctx context.Context, message *models.QueryMessage, newStatus models.QueryStatus) error {
	query, ok := m.queries[message.QueryID]
	if !ok || query.Status == models.QueryStatusClosed {
		return sql.ErrNoRows
	}
	query.Status = newStatus
	m.messages[message.QueryID] = append(m.messages[message.QueryID], *message)
	return nil
}

func (m *queryRepoStub) UpdateStatus(ctx context.Context, id string, expected, next models.QueryStatus) error {
	query, ok := m.queries[id]
	if !ok || query.Status != expected {
		return sql.ErrNoRows
	}
	query.Status = next
	return nil
}

func (m *queryRepoStub) Stats(ctx context.Context, counsellorID string) (*models.QueryStats, error) {
	stats := &models.QueryStats{}
	for _, query := range m.queries {
		if query.AssignedCounsellorID == nil || *query.AssignedCounsellorID != counsellorID {
			continue
		}
		stats.Total++
		switch query.Status {
		case models.QueryStatusPending:
			stats.Pending++
		case models.QueryStatusAnswered:
			stats.Answered++
		case models.QueryStatusClosed:
			stats.Closed++
		}
	}
	return stats, nil
}

func newQueryServiceForTest(repo *queryRepoStub) *QueryService {
	profiles := &profileStub{profiles: map[string]*models.StudentProfile{
		"student-1": {UserID: "student-1", AssignedCounsellorID: strPtr("counsellor-1")},
	}}
	return NewQueryService(repo, profiles, nil)
}

func studentClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleStudent}
}

func counsellorClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleCounsellor}
}

func TestQueryServiceCreateRoutesToAssignedCounsellor(t *testing.T) {
	repo := newQueryRepoStub()
	svc := newQueryServiceForTest(repo)

	query, err := svc.Create(context.Background(), "student-1", dto.CreateQueryRequest{
		Subject: "Hostel fees",
		Message: "Are hostel fees included?",
	})
	require.NoError(t, err)
	require.Equal(t, models.QueryStatusPending, query.Status)
	require.Equal(t, "counsellor-1", *query.AssignedCounsellorID)
	require.Len(t, repo.messages[query.ID], 1)
	require.Equal(t, models.RoleStudent, repo.messages[query.ID][0].SenderRole)
}

func TestQueryServiceReplyFlipsStatusByRole(t *testing.T) {
	repo := newQueryRepoStub()
	svc := newQueryServiceForTest(repo)

	query, err := svc.Create(context.Background(), "student-1", dto.CreateQueryRequest{
		Subject: "Hostel fees",
		Message: "Are hostel fees included?",
	})
	require.NoError(t, err)

	_, err = svc.Reply(context.Background(), query.ID, counsellorClaims("counsellor-1"), dto.ReplyQueryRequest{
		Message: "Yes, they are.",
	})
	require.NoError(t, err)
	require.Equal(t, models.QueryStatusAnswered, repo.queries[query.ID].Status)

	_, err = svc.Reply(context.Background(), query.ID, studentClaims("student-1"), dto.ReplyQueryRequest{
		Message: "One more thing...",
	})
	require.NoError(t, err)
	require.Equal(t, models.QueryStatusPending, repo.queries[query.ID].Status)
}

func TestQueryServiceReplyToClosedThread(t *testing.T) {
	repo := newQueryRepoStub()
	svc := newQueryServiceForTest(repo)

	query, err := svc.Create(context.Background(), "student-1", dto.CreateQueryRequest{
		Subject: "Hostel fees",
		Message: "Are hostel fees included?",
	})
	require.NoError(t, err)
	repo.queries[query.ID].Status = models.QueryStatusClosed

	_, err = svc.Reply(context.Background(), query.ID, studentClaims("student-1"), dto.ReplyQueryRequest{
		Message: "hello?",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestQueryServiceThreadAuthorization(t *testing.T) {
	repo := newQueryRepoStub()
	svc := newQueryServiceForTest(repo)

	query, err := svc.Create(context.Background(), "student-1", dto.CreateQueryRequest{
		Subject: "Hostel fees",
		Message: "Are hostel fees included?",
	})
	require.NoError(t, err)

	_, _, err = svc.Thread(context.Background(), query.ID, studentClaims("student-2"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, _, err = svc.Thread(context.Background(), query.ID, counsellorClaims("counsellor-2"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, messages, err := svc.Thread(context.Background(), query.ID, counsellorClaims("counsellor-1"))
	require.NoError(t, err)
	require.Len(t, messages, 1)
}

func TestQueryServiceCloseOnlyByCounsellorSide(t *testing.T) {
	repo := newQueryRepoStub()
	svc := newQueryServiceForTest(repo)

	query, err := svc.Create(context.Background(), "student-1", dto.CreateQueryRequest{
		Subject: "Hostel fees",
		Message: "Are hostel fees included?",
	})
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), query.ID, studentClaims("student-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	closed, err := svc.Close(context.Background(), query.ID, counsellorClaims("counsellor-1"))
	require.NoError(t, err)
	require.Equal(t, models.QueryStatusClosed, closed.Status)

	_, err = svc.Close(context.Background(), query.ID, counsellorClaims("counsellor-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestQueryServiceStats(t *testing.T) {
	repo := newQueryRepoStub()
	svc := newQueryServiceForTest(repo)

	for i, status := range []models.QueryStatus{
		models.QueryStatusPending, models.QueryStatusPending,
		models.QueryStatusAnswered, models.QueryStatusClosed,
	} {
		id := string(rune('a' + i))
		repo.queries[id] = &models.Query{
			ID: id, StudentID: "student-1",
			AssignedCounsellorID: strPtr("counsellor-1"),
			Status:               status,
		}
	}

	stats, err := svc.Stats(context.Background(), "counsellor-1")
	require.NoError(t, err)
	require.Equal(t, 4, stats.Total)
	require.Equal(t, 2, stats.Pending)
	require.Equal(t, 1, stats.Answered)
	require.Equal(t, 1, stats.Closed)
}
