package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unifyi-dev/admissions-crm-api/internal/dto"
	"github.com/unifyi-dev/admissions-crm-api/internal/models"
	"github.com/unifyi-dev/admissions-crm-api/internal/repository"
	appErrors "github.com/unifyi-dev/admissions-crm-api/pkg/errors"
)

type walkinStore interface {
	Create(ctx context.Context, walkin *models.WalkinRequest) error
	GetByID(ctx context.Context, id string) (*models.WalkinRequest, error)
	List(ctx context.Context, filter models.WalkinFilter) ([]models.WalkinRequest, error)
	UpdateStatus(ctx context.Context, params repository.DecideWalkinParams) error
}

type studentProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*models.StudentProfile, error)
}

// WalkinEventPublisher notifies downstream consumers of counsellor decisions.
// Failures are logged and swallowed; the decision itself has already been
// committed.
type WalkinEventPublisher interface {
	WalkinDecided(ctx context.Context, walkin *models.WalkinRequest) error
}

// WalkinServiceConfig tunes workflow behaviour.
type WalkinServiceConfig struct {
	// AllowRemodify permits decide(modified) on a request already in the
	// modified state. Defaults to off.
	AllowRemodify bool
}

// WalkinService drives the walk-in request lifecycle: student submission and
// counsellor decisions over the requested/approved/modified/rejected machine.
type WalkinService struct {
	repo      walkinStore
	profiles  studentProfileReader
	audit     auditLogger
	events    WalkinEventPublisher
	logger    *zap.Logger
	cfg       WalkinServiceConfig
	now       func() time.Time
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// WalkinServiceOption configures the service.
type WalkinServiceOption func(*WalkinService)

// WithWalkinEventPublisher attaches a decision event publisher.
func WithWalkinEventPublisher(publisher WalkinEventPublisher) WalkinServiceOption {
	return func(s *WalkinService) {
		if publisher != nil {
			s.events = publisher
		}
	}
}

// WithWalkinClock overrides the time source (tests).
func WithWalkinClock(now func() time.Time) WalkinServiceOption {
	return func(s *WalkinService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewWalkinService constructs the service.
func NewWalkinService(repo walkinStore, profiles studentProfileReader, audit auditLogger, logger *zap.Logger, cfg WalkinServiceConfig, opts ...WalkinServiceOption) *WalkinService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &WalkinService{
		repo:     repo,
		profiles: profiles,
		audit:    audit,
		logger:   logger,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// visitDateLayout is the wire format for visit dates.
const visitDateLayout = "2006-01-02"

// Submit validates and creates a walk-in request for the student.
//
// Validation reports the first failing field. Creation requires the student
// to already have an assigned counsellor; without one the form is suppressed
// client-side and the server refuses with a precondition failure. Historical
// reads are never gated.
func (s *WalkinService) Submit(ctx context.Context, studentID string, req dto.CreateWalkinRequest) (*models.WalkinRequest, error) {
	visitDate, err := s.validateSubmission(req)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetProfile(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	if profile.AssignedCounsellorID == nil || *profile.AssignedCounsellorID == "" {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "awaiting counsellor assignment")
	}

	now := s.now()
	walkin := &models.WalkinRequest{
		StudentID:            studentID,
		AssignedCounsellorID: profile.AssignedCounsellorID,
		VisitDate:            visitDate,
		VisitTime:            strings.TrimSpace(req.VisitTime),
		NumberOfPersons:      req.NumberOfPersons,
		Reason:               strings.TrimSpace(req.Reason),
		Status:               models.WalkinStatusRequested,
		CounsellorNote:       nil,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.repo.Create(ctx, walkin); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create walk-in request")
	}
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &studentID,
		Action:     models.AuditActionWalkinSubmit,
		Resource:   "walkin",
		ResourceID: &walkin.ID,
	})
	return walkin, nil
}

func (s *WalkinService) validateSubmission(req dto.CreateWalkinRequest) (time.Time, error) {
	raw := strings.TrimSpace(req.VisitDate)
	if raw == "" {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "visit_date is required")
	}
	visitDate, err := time.Parse(visitDateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "visit_date must be formatted as YYYY-MM-DD")
	}
	// Date-only comparison; submitting for later today is allowed.
	today := s.now().Truncate(24 * time.Hour)
	if visitDate.Before(today) {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "visit_date must not be in the past")
	}
	if strings.TrimSpace(req.VisitTime) == "" {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "visit_time is required")
	}
	if req.NumberOfPersons < 1 {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "number_of_persons must be at least 1")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "reason is required")
	}
	return visitDate, nil
}

// Availability reports the submission gate for the student form.
func (s *WalkinService) Availability(ctx context.Context, studentID string) (*dto.WalkinAvailability, error) {
	profile, err := s.profiles.GetProfile(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	assigned := profile.AssignedCounsellorID != nil && *profile.AssignedCounsellorID != ""

	outstanding := 0
	walkins, err := s.repo.List(ctx, models.WalkinFilter{
		StudentID: studentID,
		Status:    []models.WalkinStatus{models.WalkinStatusRequested},
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list walk-in requests")
	}
	outstanding = len(walkins)

	return &dto.WalkinAvailability{
		CanSubmit:           assigned,
		AwaitingAssignment:  !assigned,
		OutstandingRequests: outstanding,
	}, nil
}

// ListMine returns the student's request history with badges.
func (s *WalkinService) ListMine(ctx context.Context, studentID string, query dto.WalkinQuery) ([]dto.WalkinItem, error) {
	walkins, err := s.repo.List(ctx, models.WalkinFilter{
		StudentID: studentID,
		Status:    query.Status,
		Limit:     query.Limit,
		Offset:    query.Offset,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list walk-in requests")
	}
	return decorate(walkins)
}

// ListAssigned returns the counsellor's review queue with badges.
func (s *WalkinService) ListAssigned(ctx context.Context, counsellorID string, query dto.WalkinQuery) ([]dto.WalkinItem, error) {
	walkins, err := s.repo.List(ctx, models.WalkinFilter{
		CounsellorID: counsellorID,
		Status:       query.Status,
		Limit:        query.Limit,
		Offset:       query.Offset,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assigned walk-ins")
	}
	return decorate(walkins)
}

func decorate(walkins []models.WalkinRequest) ([]dto.WalkinItem, error) {
	items := make([]dto.WalkinItem, 0, len(walkins))
	for _, walkin := range walkins {
		badge, err := dto.BadgeForStatus(walkin.Status)
		if err != nil {
			return nil, err
		}
		items = append(items, dto.WalkinItem{WalkinRequest: walkin, Badge: badge})
	}
	return items, nil
}

// Decide applies a counsellor decision to a request.
//
// Legal transitions: requested → approved|modified|rejected, and
// approved → modified. A further modified → modified edge is gated by
// configuration. The write carries the status the counsellor read, so a
// concurrent decision surfaces as a conflict and the caller must refresh.
func (s *WalkinService) Decide(ctx context.Context, counsellorID, id string, req dto.DecideWalkinRequest) (*models.WalkinRequest, error) {
	walkin, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load walk-in request")
	}
	if walkin.AssignedCounsellorID == nil || *walkin.AssignedCounsellorID != counsellorID {
		return nil, appErrors.ErrForbidden
	}
	if !walkin.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnknownStatus, "walk-in record holds an unknown status: "+string(walkin.Status))
	}

	action := req.Status
	switch action {
	case models.WalkinStatusApproved, models.WalkinStatusModified, models.WalkinStatusRejected:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be approved, modified, or rejected")
	}

	if err := s.checkTransition(walkin.Status, action); err != nil {
		return nil, err
	}

	params := repository.DecideWalkinParams{
		ID:             walkin.ID,
		ExpectedStatus: walkin.Status,
		Status:         action,
		CounsellorNote: optionalText(req.CounsellorNote),
		UpdatedAt:      s.now(),
	}

	if action == models.WalkinStatusModified {
		// Both replacements are required; a modify that changes nothing is
		// rejected rather than treated as a no-op.
		rawDate := strings.TrimSpace(req.VisitDate)
		rawTime := strings.TrimSpace(req.VisitTime)
		if rawDate == "" || rawTime == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "visit_date and visit_time are required when modifying")
		}
		newDate, err := time.Parse(visitDateLayout, rawDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "visit_date must be formatted as YYYY-MM-DD")
		}
		params.VisitDate = &newDate
		params.VisitTime = &rawTime
	}

	if err := s.repo.UpdateStatus(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "walk-in request was decided concurrently; refresh and retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update walk-in request")
	}

	walkin.Status = action
	walkin.CounsellorNote = params.CounsellorNote
	walkin.UpdatedAt = params.UpdatedAt
	if params.VisitDate != nil {
		walkin.VisitDate = *params.VisitDate
	}
	if params.VisitTime != nil {
		walkin.VisitTime = *params.VisitTime
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &counsellorID,
		Action:     models.AuditActionWalkinDecide,
		Resource:   "walkin",
		ResourceID: &walkin.ID,
		NewValues:  []byte(`{"status":"` + string(action) + `"}`),
	})
	if s.events != nil {
		if err := s.events.WalkinDecided(ctx, walkin); err != nil {
			s.logger.Warn("failed to publish walk-in decision event", zap.Error(err))
		}
	}
	return walkin, nil
}

func (s *WalkinService) checkTransition(current, action models.WalkinStatus) error {
	switch current {
	case models.WalkinStatusRequested:
		return nil
	case models.WalkinStatusApproved:
		if action == models.WalkinStatusModified {
			return nil
		}
	case models.WalkinStatusModified:
		if action == models.WalkinStatusModified && s.cfg.AllowRemodify {
			return nil
		}
	case models.WalkinStatusRejected:
		// terminal
	}
	return appErrors.Clone(appErrors.ErrInvalidTransition,
		"cannot apply "+string(action)+" to a "+string(current)+" request")
}

func (s *WalkinService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "walkin-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func optionalText(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
