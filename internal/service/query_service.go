package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/unifyi-dev/admissions-crm-api/internal/dto"
	"github.com/unifyi-dev/admissions-crm-api/internal/models"
	appErrors "github.com/unifyi-dev/admissions-crm-api/pkg/errors"
)

type queryStore interface {
	Create(ctx context.Context, query *models.Query, first *models.QueryMessage) error
	GetByID(ctx context.Context, id string) (*models.Query, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.Query, error)
	ListForCounsellor(ctx context.Context, counsellorID string, statuses []models.QueryStatus) ([]models.Query, error)
	ListMessages(ctx context.Context, queryID string) ([]models.QueryMessage, error)
	AppendMessage(ctx context.Context, message *models.QueryMessage, newStatus models.QueryStatus) error
	UpdateStatus(ctx context.Context, id string, expected, next models.QueryStatus) error
	Stats(ctx context.Context, counsellorID string) (*models.QueryStats, error)
}

// QueryService manages question threads between students and their assigned
// counsellors. A counsellor reply marks the thread answered; a student
// follow-up flips it back to pending. Closed threads reject further replies.
type QueryService struct {
	repo     queryStore
	profiles studentProfileReader
	logger   *zap.Logger
}

// NewQueryService constructs the service.
func NewQueryService(repo queryStore, profiles studentProfileReader, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{repo: repo, profiles: profiles, logger: logger}
}

// Create opens a thread on behalf of a student. The thread is routed to the
// student's assigned counsellor when one exists.
func (s *QueryService) Create(ctx context.Context, studentID string, req dto.CreateQueryRequest) (*models.Query, error) {
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject is required")
	}
	body := strings.TrimSpace(req.Message)
	if body == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "message is required")
	}

	query := &models.Query{
		StudentID: studentID,
		Subject:   subject,
		Status:    models.QueryStatusPending,
	}
	profile, err := s.profiles.GetProfile(ctx, studentID)
	switch {
	case err == nil:
		query.AssignedCounsellorID = profile.AssignedCounsellorID
	case errors.Is(err, sql.ErrNoRows):
		// unrouted thread; an admin assigns it later
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}

	first := &models.QueryMessage{
		SenderID:   studentID,
		SenderRole: models.RoleStudent,
		Body:       body,
	}
	if err := s.repo.Create(ctx, query, first); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create query")
	}
	return query, nil
}

// ListMine returns the student's own threads.
func (s *QueryService) ListMine(ctx context.Context, studentID string) ([]models.Query, error) {
	queries, err := s.repo.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list queries")
	}
	return queries, nil
}

// ListAssigned returns threads routed to the counsellor, optionally filtered
// by status.
func (s *QueryService) ListAssigned(ctx context.Context, counsellorID string, statuses []models.QueryStatus) ([]models.Query, error) {
	for _, status := range statuses {
		switch status {
		case models.QueryStatusPending, models.QueryStatusAnswered, models.QueryStatusClosed:
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status filter: "+string(status))
		}
	}
	queries, err := s.repo.ListForCounsellor(ctx, counsellorID, statuses)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list queries")
	}
	return queries, nil
}

// Thread returns a thread with its full message history, enforcing that the
// caller participates in it.
func (s *QueryService) Thread(ctx context.Context, queryID string, actor *models.JWTClaims) (*models.Query, []models.QueryMessage, error) {
	query, err := s.authorize(ctx, queryID, actor)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.repo.ListMessages(ctx, queryID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list messages")
	}
	return query, messages, nil
}

// Reply appends a message. Counsellor replies mark the thread answered;
// student replies reopen it to pending.
func (s *QueryService) Reply(ctx context.Context, queryID string, actor *models.JWTClaims, req dto.ReplyQueryRequest) (*models.QueryMessage, error) {
	body := strings.TrimSpace(req.Message)
	if body == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "message is required")
	}

	query, err := s.authorize(ctx, queryID, actor)
	if err != nil {
		return nil, err
	}
	if query.Status == models.QueryStatusClosed {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "thread is closed")
	}

	newStatus := models.QueryStatusPending
	if actor.Role == models.RoleCounsellor || actor.Role == models.RoleAdmin || actor.Role == models.RoleSuperAdmin {
		newStatus = models.QueryStatusAnswered
	}

	message := &models.QueryMessage{
		QueryID:    queryID,
		SenderID:   actor.UserID,
		SenderRole: actor.Role,
		Body:       body,
	}
	if err := s.repo.AppendMessage(ctx, message, newStatus); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "thread was closed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append reply")
	}
	return message, nil
}

// Close marks an answered or pending thread closed. Only the counsellor side
// closes threads.
func (s *QueryService) Close(ctx context.Context, queryID string, actor *models.JWTClaims) (*models.Query, error) {
	query, err := s.authorize(ctx, queryID, actor)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleStudent {
		return nil, appErrors.ErrForbidden
	}
	if query.Status == models.QueryStatusClosed {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "thread is already closed")
	}
	if err := s.repo.UpdateStatus(ctx, queryID, query.Status, models.QueryStatusClosed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "thread changed concurrently; refresh and retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close thread")
	}
	query.Status = models.QueryStatusClosed
	return query, nil
}

// Stats recomputes thread counts per status for the counsellor view.
func (s *QueryService) Stats(ctx context.Context, counsellorID string) (*models.QueryStats, error) {
	stats, err := s.repo.Stats(ctx, counsellorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute query stats")
	}
	return stats, nil
}

func (s *QueryService) authorize(ctx context.Context, queryID string, actor *models.JWTClaims) (*models.Query, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	query, err := s.repo.GetByID(ctx, queryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load query")
	}
	switch actor.Role {
	case models.RoleStudent:
		if query.StudentID != actor.UserID {
			return nil, appErrors.ErrForbidden
		}
	case models.RoleCounsellor:
		if query.AssignedCounsellorID == nil || *query.AssignedCounsellorID != actor.UserID {
			return nil, appErrors.ErrForbidden
		}
	case models.RoleAdmin, models.RoleSuperAdmin:
	default:
		return nil, appErrors.ErrForbidden
	}
	return query, nil
}
