package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unifyi-dev/admissions-crm-api/internal/models"
)

// DocumentRepository persists admission document metadata.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, student_id, name, file_key, content_type, size_bytes,
       status, rejection_reason, reviewed_by, reviewed_at, uploaded_at`

// Create inserts a freshly uploaded document row.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Status == "" {
		doc.Status = models.DocumentStatusPending
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	const query = `INSERT INTO documents
	(id, student_id, name, file_key, content_type, size_bytes, status, rejection_reason, reviewed_by, reviewed_at, uploaded_at)
	VALUES (:id, :student_id, :name, :file_key, :content_type, :size_bytes, :status, :rejection_reason, :reviewed_by, :reviewed_at, :uploaded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// GetByID fetches a document by identifier.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListForStudent returns a student's documents, newest first.
func (r *DocumentRepository) ListForStudent(ctx context.Context, studentID string) ([]models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE student_id = $1 ORDER BY uploaded_at DESC, id ASC`
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, studentID); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// ReviewDocumentParams groups the review write.
type ReviewDocumentParams struct {
	ID              string
	Status          models.DocumentStatus
	RejectionReason *string
	ReviewedBy      string
	ReviewedAt      time.Time
}

// Review persists the verdict; only pending documents are eligible.
// Returns sql.ErrNoRows when the document was reviewed concurrently.
func (r *DocumentRepository) Review(ctx context.Context, params ReviewDocumentParams) error {
	query := fmt.Sprintf(`UPDATE documents SET status = :status, rejection_reason = :rejection_reason,
	reviewed_by = :reviewed_by, reviewed_at = :reviewed_at WHERE id = :id AND status = '%s'`,
		models.DocumentStatusPending)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":               params.ID,
		"status":           params.Status,
		"rejection_reason": params.RejectionReason,
		"reviewed_by":      params.ReviewedBy,
		"reviewed_at":      params.ReviewedAt,
	})
	if err != nil {
		return fmt.Errorf("review document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check document review rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountPendingForCounsellor counts pending documents across the counsellor's
// assigned students.
func (r *DocumentRepository) CountPendingForCounsellor(ctx context.Context, counsellorID string) (int, error) {
	const query = `SELECT COUNT(*) FROM documents d
	JOIN student_profiles p ON p.user_id = d.student_id
	WHERE p.assigned_counsellor_id = $1 AND d.status = 'pending'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, counsellorID); err != nil {
		return 0, fmt.Errorf("count pending documents: %w", err)
	}
	return count, nil
}
