package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unifyi-dev/admissions-crm-api/internal/dto"
	"github.com/unifyi-dev/admissions-crm-api/internal/models"
	"github.com/unifyi-dev/admissions-crm-api/internal/repository"
	appErrors "github.com/unifyi-dev/admissions-crm-api/pkg/errors"
	"github.com/unifyi-dev/admissions-crm-api/pkg/storage"
)

type documentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.Document, error)
	Review(ctx context.Context, params repository.ReviewDocumentParams) error
}

// DocumentServiceConfig carries upload constraints.
type DocumentServiceConfig struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// DocumentService manages upload and counsellor verification of admission
// documents. Files live in local storage behind HMAC-signed download tokens.
type DocumentService struct {
	repo     documentStore
	profiles studentProfileReader
	files    *storage.LocalStorage
	signer   *storage.SignedURLSigner
	audit    auditLogger
	logger   *zap.Logger
	cfg      DocumentServiceConfig
}

// NewDocumentService constructs the service.
func NewDocumentService(repo documentStore, profiles studentProfileReader, files *storage.LocalStorage, signer *storage.SignedURLSigner, audit auditLogger, logger *zap.Logger, cfg DocumentServiceConfig) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		repo:     repo,
		profiles: profiles,
		files:    files,
		signer:   signer,
		audit:    audit,
		logger:   logger,
		cfg:      cfg,
	}
}

// Upload stores a student's document and records its metadata as pending.
func (s *DocumentService) Upload(ctx context.Context, studentID, name, contentType string, size int64, content io.Reader) (*models.Document, error) {
	if strings.TrimSpace(name) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "document name is required")
	}
	if s.cfg.MaxFileSizeBytes > 0 && size > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d byte limit", s.cfg.MaxFileSizeBytes))
	}
	if len(s.cfg.AllowedMIMEs) > 0 && !s.mimeAllowed(contentType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported file type: "+contentType)
	}

	fileKey := filepath.Join(studentID, uuid.NewString()+filepath.Ext(name))
	if _, err := s.files.SaveStream(fileKey, content); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
	}

	doc := &models.Document{
		StudentID:   studentID,
		Name:        strings.TrimSpace(name),
		FileKey:     fileKey,
		ContentType: contentType,
		SizeBytes:   size,
		Status:      models.DocumentStatusPending,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		if removeErr := s.files.Delete(fileKey); removeErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("file_key", fileKey), zap.Error(removeErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record document")
	}
	return doc, nil
}

func (s *DocumentService) mimeAllowed(contentType string) bool {
	for _, allowed := range s.cfg.AllowedMIMEs {
		if strings.EqualFold(allowed, contentType) {
			return true
		}
	}
	return false
}

// ListForStudent returns a student's documents. Students see their own;
// counsellors see documents of students assigned to them.
func (s *DocumentService) ListForStudent(ctx context.Context, studentID string, actor *models.JWTClaims) ([]models.Document, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleStudent:
		if actor.UserID != studentID {
			return nil, appErrors.ErrForbidden
		}
	case models.RoleCounsellor:
		profile, err := s.profiles.GetProfile(ctx, studentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.ErrNotFound
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
		}
		if profile.AssignedCounsellorID == nil || *profile.AssignedCounsellorID != actor.UserID {
			return nil, appErrors.ErrForbidden
		}
	case models.RoleAdmin, models.RoleSuperAdmin:
		// full access
	default:
		return nil, appErrors.ErrForbidden
	}

	docs, err := s.repo.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return docs, nil
}

// Review records a counsellor verdict on a pending document. Rejection
// requires a reason; a document already reviewed surfaces as an illegal
// transition, and a concurrent review as a conflict.
func (s *DocumentService) Review(ctx context.Context, counsellorID, docID string, req dto.ReviewDocumentRequest) (*models.Document, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	if doc.Status != models.DocumentStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "document is already "+string(doc.Status))
	}

	var reason *string
	switch req.Status {
	case models.DocumentStatusVerified:
	case models.DocumentStatusRejected:
		trimmed := strings.TrimSpace(req.RejectionReason)
		if trimmed == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "rejection_reason is required when rejecting")
		}
		reason = &trimmed
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be verified or rejected")
	}

	now := time.Now().UTC()
	params := repository.ReviewDocumentParams{
		ID:              doc.ID,
		Status:          req.Status,
		RejectionReason: reason,
		ReviewedBy:      counsellorID,
		ReviewedAt:      now,
	}
	if err := s.repo.Review(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "document was reviewed concurrently; refresh and retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review document")
	}

	doc.Status = req.Status
	doc.RejectionReason = reason
	doc.ReviewedBy = &counsellorID
	doc.ReviewedAt = &now

	s.emitAudit(ctx, counsellorID, doc)
	return doc, nil
}

// DownloadToken issues a signed token for fetching the stored file.
func (s *DocumentService) DownloadToken(ctx context.Context, docID string) (*dto.DocumentDownload, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	token, expiresAt, err := s.signer.Generate(doc.ID, doc.FileKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}
	return &dto.DocumentDownload{
		DocumentID: doc.ID,
		Token:      token,
		ExpiresAt:  expiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// OpenByToken validates a signed token and opens the underlying file.
func (s *DocumentService) OpenByToken(token string) (io.ReadCloser, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open stored document")
	}
	return file, relPath, nil
}

func (s *DocumentService) emitAudit(ctx context.Context, counsellorID string, doc *models.Document) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &counsellorID,
		Action:     models.AuditActionDocumentReview,
		Resource:   "document",
		ResourceID: &doc.ID,
		NewValues:  []byte(`{"status":"` + string(doc.Status) + `"}`),
		IPAddress:  "system",
		UserAgent:  "document-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
