package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/unifyi-dev/admissions-crm-api/internal/dto"
	"github.com/unifyi-dev/admissions-crm-api/internal/models"
	appErrors "github.com/unifyi-dev/admissions-crm-api/pkg/errors"
	"github.com/unifyi-dev/admissions-crm-api/pkg/export"
	"github.com/unifyi-dev/admissions-crm-api/pkg/jobs"
	"github.com/unifyi-dev/admissions-crm-api/pkg/mailer"
)

type communicationStore interface {
	Create(ctx context.Context, comm *models.Communication) error
	GetByID(ctx context.Context, id string) (*models.Communication, error)
	List(ctx context.Context, limit, offset int) ([]models.Communication, error)
	UpdateDeliveryResult(ctx context.Context, id string, successful, failed int, status models.CommunicationStatus) error
}

type universityStore interface {
	ListActive(ctx context.Context) ([]models.University, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.University, error)
}

// CommunicationEventPublisher announces finished broadcasts.
type CommunicationEventPublisher interface {
	CommunicationDispatched(ctx context.Context, comm *models.Communication) error
}

// CommunicationService orchestrates admin email broadcasts: it persists the
// record synchronously, then fans the per-recipient sends out to a worker
// queue and writes the aggregate outcome back.
type CommunicationService struct {
	repo         communicationStore
	universities universityStore
	mail         mailer.Mailer
	audit        auditLogger
	events       CommunicationEventPublisher
	queue        *jobs.Queue
	logger       *zap.Logger
}

// CommunicationServiceOption configures the service.
type CommunicationServiceOption func(*CommunicationService)

// WithCommunicationEventPublisher attaches a completion event publisher.
func WithCommunicationEventPublisher(publisher CommunicationEventPublisher) CommunicationServiceOption {
	return func(s *CommunicationService) {
		if publisher != nil {
			s.events = publisher
		}
	}
}

// NewCommunicationService constructs the service. Call StartDispatch before
// accepting traffic and StopDispatch on shutdown.
func NewCommunicationService(repo communicationStore, universities universityStore, mail mailer.Mailer, audit auditLogger, logger *zap.Logger, queueCfg jobs.QueueConfig, opts ...CommunicationServiceOption) *CommunicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &CommunicationService{
		repo:         repo,
		universities: universities,
		mail:         mail,
		audit:        audit,
		logger:       logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	queueCfg.Logger = logger
	svc.queue = jobs.NewQueue("communication-dispatch", svc.handleDispatchJob, queueCfg)
	return svc
}

// StartDispatch launches the broadcast worker pool.
func (s *CommunicationService) StartDispatch(ctx context.Context) {
	s.queue.Start(ctx)
}

// StopDispatch drains and stops the worker pool.
func (s *CommunicationService) StopDispatch() {
	s.queue.Stop()
}

// dispatchPayload carries the resolved recipients into the worker.
type dispatchPayload struct {
	CommunicationID string
	Subject         string
	Message         string
	Recipients      []models.University
}

// Send validates the broadcast, persists its record, and queues dispatch.
// The returned record reflects the pre-dispatch state; delivery results are
// written asynchronously.
func (s *CommunicationService) Send(ctx context.Context, req dto.SendCommunicationRequest, senderID string) (*models.Communication, error) {
	if strings.TrimSpace(req.Subject) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "message is required")
	}
	if !req.SendToAll && len(req.UniversityIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "select at least one university or send to all")
	}

	var (
		recipients []models.University
		err        error
	)
	if req.SendToAll {
		recipients, err = s.universities.ListActive(ctx)
	} else {
		recipients, err = s.universities.ListByIDs(ctx, req.UniversityIDs)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve recipients")
	}
	if len(recipients) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no active recipients matched the selection")
	}

	recipientIDs := make(pq.StringArray, 0, len(recipients))
	for _, uni := range recipients {
		recipientIDs = append(recipientIDs, uni.ID)
	}

	comm := &models.Communication{
		Type:                   models.CommunicationTypeEmail,
		Subject:                strings.TrimSpace(req.Subject),
		Message:                req.Message,
		SentBy:                 senderID,
		RecipientUniversityIDs: recipientIDs,
		SendToAll:              req.SendToAll,
		TotalRecipients:        len(recipients),
		Status:                 models.CommunicationStatusSent,
	}
	if err := s.repo.Create(ctx, comm); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record communication")
	}

	job := jobs.Job{
		ID:   uuid.NewString(),
		Type: "communication.dispatch",
		Payload: dispatchPayload{
			CommunicationID: comm.ID,
			Subject:         comm.Subject,
			Message:         comm.Message,
			Recipients:      recipients,
		},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Error("failed to enqueue broadcast dispatch", zap.String("communication_id", comm.ID), zap.Error(err))
		if updateErr := s.repo.UpdateDeliveryResult(ctx, comm.ID, 0, comm.TotalRecipients, models.CommunicationStatusFailed); updateErr != nil {
			s.logger.Error("failed to mark broadcast failed", zap.String("communication_id", comm.ID), zap.Error(updateErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue broadcast dispatch")
	}

	s.emitAudit(ctx, senderID, comm)
	return comm, nil
}

// handleDispatchJob emails every recipient and records the aggregate outcome.
func (s *CommunicationService) handleDispatchJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(dispatchPayload)
	if !ok {
		s.logger.Error("unexpected dispatch payload type", zap.String("job_id", job.ID))
		return nil
	}

	successful, failed := 0, 0
	for _, recipient := range payload.Recipients {
		if err := s.mail.Send(recipient.Email, payload.Subject, payload.Message); err != nil {
			failed++
			s.logger.Warn("broadcast delivery failed",
				zap.String("communication_id", payload.CommunicationID),
				zap.String("university_id", recipient.ID),
				zap.Error(err))
			continue
		}
		successful++
	}

	status := models.CommunicationStatusSent
	switch {
	case successful == 0:
		status = models.CommunicationStatusFailed
	case failed > 0:
		status = models.CommunicationStatusPartial
	}

	if err := s.repo.UpdateDeliveryResult(ctx, payload.CommunicationID, successful, failed, status); err != nil {
		s.logger.Error("failed to record broadcast outcome",
			zap.String("communication_id", payload.CommunicationID), zap.Error(err))
		return err
	}

	if s.events != nil {
		comm := &models.Communication{
			ID:              payload.CommunicationID,
			Subject:         payload.Subject,
			TotalRecipients: len(payload.Recipients),
			Successful:      successful,
			Failed:          failed,
			Status:          status,
			UpdatedAt:       time.Now().UTC(),
		}
		if err := s.events.CommunicationDispatched(ctx, comm); err != nil {
			s.logger.Warn("failed to publish broadcast event",
				zap.String("communication_id", payload.CommunicationID), zap.Error(err))
		}
	}
	return nil
}

// History lists broadcast records, newest first.
func (s *CommunicationService) History(ctx context.Context, query dto.CommunicationQuery) ([]models.Communication, error) {
	comms, err := s.repo.List(ctx, query.Limit, query.Offset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list communications")
	}
	return comms, nil
}

// ListUniversities feeds the recipient picker.
func (s *CommunicationService) ListUniversities(ctx context.Context) ([]models.University, error) {
	universities, err := s.universities.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list universities")
	}
	return universities, nil
}

// ExportHistory renders the broadcast history as CSV.
func (s *CommunicationService) ExportHistory(ctx context.Context, query dto.CommunicationQuery) ([]byte, error) {
	comms, err := s.History(ctx, query)
	if err != nil {
		return nil, err
	}
	dataset := export.Dataset{
		Headers: []string{"ID", "Subject", "Sent By", "Recipients", "Successful", "Failed", "Status", "Sent At"},
		Rows:    make([]map[string]string, 0, len(comms)),
	}
	for _, comm := range comms {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":         comm.ID,
			"Subject":    comm.Subject,
			"Sent By":    comm.SentBy,
			"Recipients": strconv.Itoa(comm.TotalRecipients),
			"Successful": strconv.Itoa(comm.Successful),
			"Failed":     strconv.Itoa(comm.Failed),
			"Status":     string(comm.Status),
			"Sent At":    comm.CreatedAt.Format(time.RFC3339),
		})
	}
	csv, err := export.NewCSVExporter().Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render history export")
	}
	return csv, nil
}

func (s *CommunicationService) emitAudit(ctx context.Context, senderID string, comm *models.Communication) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &senderID,
		Action:     models.AuditActionBroadcastSend,
		Resource:   "communication",
		ResourceID: &comm.ID,
		IPAddress:  "system",
		UserAgent:  "communication-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
