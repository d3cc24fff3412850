package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unifyi-dev/admissions-crm-api/internal/dto"
	"github.com/unifyi-dev/admissions-crm-api/internal/models"
	appErrors "github.com/unifyi-dev/admissions-crm-api/pkg/errors"
	"github.com/unifyi-dev/admissions-crm-api/pkg/jobs"
	"github.com/unifyi-dev/admissions-crm-api/pkg/mailer"
)

type commRepoStub struct {
	mu     sync.Mutex
	comms  map[string]*models.Communication
	result chan struct{}
}

func newCommRepoStub() *commRepoStub {
	return &commRepoStub{
		comms:  make(map[string]*models.Communication),
		result: make(chan struct{}, 1),
	}
}

func (m *commRepoStub) Create(ctx context.Context, comm *models.Communication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if comm.ID == "" {
		comm.ID = "comm-1"
	}
	copy := *comm
	m.comms[comm.ID] = &copy
	return nil
}

func (m *commRepoStub) GetByID(ctx context.Context, id string) (*models.Communication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *m.comms[id]
	return &copy, nil
}

func (m *commRepoStub) List(ctx context.Context, limit, offset int) ([]models.Communication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]models.Communication, 0, len(m.comms))
	for _, comm := range m.comms {
		result = append(result, *comm)
	}
	return result, nil
}

func (m *commRepoStub) UpdateDeliveryResult(ctx context.Context, id string, successful, failed int, status models.CommunicationStatus) error {
	m.mu.Lock()
	comm := m.comms[id]
	comm.Successful = successful
	comm.Failed = failed
	comm.Status = status
	m.mu.Unlock()
	m.result <- struct{}{}
	return nil
}

type universityStoreStub struct {
	universities []models.University
}

func (u *universityStoreStub) ListActive(ctx context.Context) ([]models.University, error) {
	return u.universities, nil
}

func (u *universityStoreStub) ListByIDs(ctx context.Context, ids []string) ([]models.University, error) {
	result := make([]models.University, 0, len(ids))
	for _, uni := range u.universities {
		for _, id := range ids {
			if uni.ID == id {
				result = append(result, uni)
			}
		}
	}
	return result, nil
}

func testUniversities() *universityStoreStub {
	return &universityStoreStub{universities: []models.University{
		{ID: "uni-1", Name: "North Campus", Email: "north@example.edu"},
		{ID: "uni-2", Name: "South Campus", Email: "south@example.edu"},
		{ID: "uni-3", Name: "East Campus", Email: "east@example.edu"},
	}}
}

func newCommServiceForTest(t *testing.T, repo *commRepoStub, mail mailer.Mailer) *CommunicationService {
	t.Helper()
	svc := NewCommunicationService(repo, testUniversities(), mail, &walkinAuditStub{}, nil,
		jobs.QueueConfig{Workers: 1, BufferSize: 4})
	svc.StartDispatch(context.Background())
	t.Cleanup(svc.StopDispatch)
	return svc
}

func waitForDispatch(t *testing.T, repo *commRepoStub) {
	t.Helper()
	select {
	case <-repo.result:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch did not complete")
	}
}

func TestCommunicationServiceSendToAll(t *testing.T) {
	repo := newCommRepoStub()
	sent := make([]string, 0, 3)
	var mu sync.Mutex
	mail := mailer.Func(func(to, subject, body string) error {
		mu.Lock()
		sent = append(sent, to)
		mu.Unlock()
		return nil
	})
	svc := newCommServiceForTest(t, repo, mail)

	comm, err := svc.Send(context.Background(), dto.SendCommunicationRequest{
		Subject:   "Open day",
		Message:   "<p>Join us</p>",
		SendToAll: true,
	}, "admin-1")
	require.NoError(t, err)
	require.Equal(t, 3, comm.TotalRecipients)

	waitForDispatch(t, repo)
	stored, err := repo.GetByID(context.Background(), comm.ID)
	require.NoError(t, err)
	require.Equal(t, models.CommunicationStatusSent, stored.Status)
	require.Equal(t, 3, stored.Successful)
	require.Equal(t, 0, stored.Failed)
	mu.Lock()
	require.Len(t, sent, 3)
	mu.Unlock()
}

func TestCommunicationServiceSendPartialFailure(t *testing.T) {
	repo := newCommRepoStub()
	mail := mailer.Func(func(to, subject, body string) error {
		if to == "south@example.edu" {
			return fmt.Errorf("mailbox unavailable")
		}
		return nil
	})
	svc := newCommServiceForTest(t, repo, mail)

	comm, err := svc.Send(context.Background(), dto.SendCommunicationRequest{
		Subject:   "Open day",
		Message:   "<p>Join us</p>",
		SendToAll: true,
	}, "admin-1")
	require.NoError(t, err)

	waitForDispatch(t, repo)
	stored, err := repo.GetByID(context.Background(), comm.ID)
	require.NoError(t, err)
	require.Equal(t, models.CommunicationStatusPartial, stored.Status)
	require.Equal(t, 2, stored.Successful)
	require.Equal(t, 1, stored.Failed)
}

func TestCommunicationServiceSendAllFailures(t *testing.T) {
	repo := newCommRepoStub()
	mail := mailer.Func(func(to, subject, body string) error {
		return fmt.Errorf("smtp down")
	})
	svc := newCommServiceForTest(t, repo, mail)

	comm, err := svc.Send(context.Background(), dto.SendCommunicationRequest{
		Subject:       "Open day",
		Message:       "<p>Join us</p>",
		UniversityIDs: []string{"uni-1", "uni-3"},
	}, "admin-1")
	require.NoError(t, err)
	require.Equal(t, 2, comm.TotalRecipients)

	waitForDispatch(t, repo)
	stored, err := repo.GetByID(context.Background(), comm.ID)
	require.NoError(t, err)
	require.Equal(t, models.CommunicationStatusFailed, stored.Status)
	require.Equal(t, 0, stored.Successful)
	require.Equal(t, 2, stored.Failed)
}

func TestCommunicationServiceSendValidation(t *testing.T) {
	repo := newCommRepoStub()
	svc := newCommServiceForTest(t, repo, mailer.Func(func(to, subject, body string) error { return nil }))

	cases := []dto.SendCommunicationRequest{
		{Message: "body", SendToAll: true},
		{Subject: "subj", SendToAll: true},
		{Subject: "subj", Message: "body"},
	}
	for _, req := range cases {
		_, err := svc.Send(context.Background(), req, "admin-1")
		require.Error(t, err)
		require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestCommunicationServiceExportHistory(t *testing.T) {
	repo := newCommRepoStub()
	repo.comms["comm-9"] = &models.Communication{
		ID:              "comm-9",
		Subject:         "Open day",
		SentBy:          "admin-1",
		TotalRecipients: 3,
		Successful:      3,
		Status:          models.CommunicationStatusSent,
		CreatedAt:       time.Now().UTC(),
	}
	svc := newCommServiceForTest(t, repo, mailer.Func(func(to, subject, body string) error { return nil }))

	csv, err := svc.ExportHistory(context.Background(), dto.CommunicationQuery{})
	require.NoError(t, err)
	require.Contains(t, string(csv), "Open day")
	require.Contains(t, string(csv), "Subject")
}
