package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unifyi-dev/admissions-crm-api/internal/dto"
	"github.com/unifyi-dev/admissions-crm-api/internal/models"
	"github.com/unifyi-dev/admissions-crm-api/internal/repository"
	appErrors "github.com/unifyi-dev/admissions-crm-api/pkg/errors"
	"github.com/unifyi-dev/admissions-crm-api/pkg/storage"
)

type documentRepoStub struct {
	docs map[string]*models.Document
}

func newDocumentRepoStub() *documentRepoStub {
	return &documentRepoStub{docs: make(map[string]*models.Document)}
}

func (m *documentRepoStub) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = "doc-1"
	}
	m.docs[doc.ID] = doc
	return nil
}

func (m *documentRepoStub) GetByID(ctx context.Context, id string) (*models.Document, error) {
	if doc, ok := m.docs[id]; ok {
		copy := *doc
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *documentRepoStub) ListForStudent(ctx context.Context, studentID string) ([]models.Document, error) {
	result := make([]models.Document, 0)
	for _, doc := range m.docs {
		if doc.StudentID == studentID {
			result = append(result, *doc)
		}
	}
	return result, nil
}

func (m *documentRepoStub) Review(ctx context.Context, params repository.ReviewDocumentParams) error {
	doc, ok := m.docs[params.ID]
	if !ok || doc.Status != models.DocumentStatusPending {
		return sql.ErrNoRows
	}
	doc.Status = params.Status
	doc.RejectionReason = params.RejectionReason
	doc.ReviewedBy = &params.ReviewedBy
	doc.ReviewedAt = &params.ReviewedAt
	return nil
}

func newDocumentServiceForTest(t *testing.T, repo *documentRepoStub) *DocumentService {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Minute)
	profiles := &profileStub{profiles: map[string]*models.StudentProfile{
		"student-1": {UserID: "student-1", AssignedCounsellorID: strPtr("counsellor-1")},
	}}
	return NewDocumentService(repo, profiles, files, signer, &walkinAuditStub{}, nil,
		DocumentServiceConfig{
			MaxFileSizeBytes: 1024,
			AllowedMIMEs:     []string{"application/pdf"},
		})
}

func TestDocumentServiceUpload(t *testing.T) {
	repo := newDocumentRepoStub()
	svc := newDocumentServiceForTest(t, repo)

	doc, err := svc.Upload(context.Background(), "student-1", "marksheet.pdf",
		"application/pdf", 42, strings.NewReader("pdf bytes"))
	require.NoError(t, err)
	require.Equal(t, models.DocumentStatusPending, doc.Status)
	require.NotEmpty(t, doc.FileKey)
}

func TestDocumentServiceUploadRejectsTypeAndSize(t *testing.T) {
	repo := newDocumentRepoStub()
	svc := newDocumentServiceForTest(t, repo)

	_, err := svc.Upload(context.Background(), "student-1", "selfie.gif",
		"image/gif", 42, strings.NewReader("gif"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Upload(context.Background(), "student-1", "huge.pdf",
		"application/pdf", 5000, strings.NewReader("pdf"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDocumentServiceReviewVerify(t *testing.T) {
	repo := newDocumentRepoStub()
	repo.docs["doc-1"] = &models.Document{
		ID: "doc-1", StudentID: "student-1", Status: models.DocumentStatusPending,
	}
	svc := newDocumentServiceForTest(t, repo)

	doc, err := svc.Review(context.Background(), "counsellor-1", "doc-1", dto.ReviewDocumentRequest{
		Status: models.DocumentStatusVerified,
	})
	require.NoError(t, err)
	require.Equal(t, models.DocumentStatusVerified, doc.Status)
	require.Equal(t, "counsellor-1", *doc.ReviewedBy)
}

func TestDocumentServiceRejectRequiresReason(t *testing.T) {
	repo := newDocumentRepoStub()
	repo.docs["doc-1"] = &models.Document{
		ID: "doc-1", StudentID: "student-1", Status: models.DocumentStatusPending,
	}
	svc := newDocumentServiceForTest(t, repo)

	_, err := svc.Review(context.Background(), "counsellor-1", "doc-1", dto.ReviewDocumentRequest{
		Status: models.DocumentStatusRejected,
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	doc, err := svc.Review(context.Background(), "counsellor-1", "doc-1", dto.ReviewDocumentRequest{
		Status:          models.DocumentStatusRejected,
		RejectionReason: "illegible scan",
	})
	require.NoError(t, err)
	require.Equal(t, "illegible scan", *doc.RejectionReason)
}

func TestDocumentServiceReviewAlreadyReviewed(t *testing.T) {
	repo := newDocumentRepoStub()
	repo.docs["doc-1"] = &models.Document{
		ID: "doc-1", StudentID: "student-1", Status: models.DocumentStatusVerified,
	}
	svc := newDocumentServiceForTest(t, repo)

	_, err := svc.Review(context.Background(), "counsellor-1", "doc-1", dto.ReviewDocumentRequest{
		Status: models.DocumentStatusVerified,
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestDocumentServiceListAuthorization(t *testing.T) {
	repo := newDocumentRepoStub()
	repo.docs["doc-1"] = &models.Document{
		ID: "doc-1", StudentID: "student-1", Status: models.DocumentStatusPending,
	}
	svc := newDocumentServiceForTest(t, repo)

	docs, err := svc.ListForStudent(context.Background(), "student-1", studentClaims("student-1"))
	require.NoError(t, err)
	require.Len(t, docs, 1)

	_, err = svc.ListForStudent(context.Background(), "student-1", studentClaims("student-2"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	docs, err = svc.ListForStudent(context.Background(), "student-1", counsellorClaims("counsellor-1"))
	require.NoError(t, err)
	require.Len(t, docs, 1)

	_, err = svc.ListForStudent(context.Background(), "student-1", counsellorClaims("counsellor-2"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDocumentServiceDownloadRoundTrip(t *testing.T) {
	repo := newDocumentRepoStub()
	svc := newDocumentServiceForTest(t, repo)

	doc, err := svc.Upload(context.Background(), "student-1", "marksheet.pdf",
		"application/pdf", 9, strings.NewReader("pdf bytes"))
	require.NoError(t, err)

	download, err := svc.DownloadToken(context.Background(), doc.ID)
	require.NoError(t, err)

	file, _, err := svc.OpenByToken(download.Token)
	require.NoError(t, err)
	defer file.Close()
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	require.Equal(t, "pdf bytes", string(content))

	_, _, err = svc.OpenByToken("tampered.token.payload.sig")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
