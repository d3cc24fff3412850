package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unifyi-dev/admissions-crm-api/internal/models"
)

// WalkinRepository persists walk-in request workflow data.
type WalkinRepository struct {
	db *sqlx.DB
}

// NewWalkinRepository constructs the repository.
func NewWalkinRepository(db *sqlx.DB) *WalkinRepository {
	return &WalkinRepository{db: db}
}

const walkinColumns = `id, student_id, assigned_counsellor_id, visit_date, visit_time,
       number_of_persons, reason, status, counsellor_note, created_at, updated_at`

// Create inserts a new walk-in request row.
func (r *WalkinRepository) Create(ctx context.Context, walkin *models.WalkinRequest) error {
	if walkin.ID == "" {
		walkin.ID = uuid.NewString()
	}
	if walkin.Status == "" {
		walkin.Status = models.WalkinStatusRequested
	}
	now := time.Now().UTC()
	if walkin.CreatedAt.IsZero() {
		walkin.CreatedAt = now
	}
	if walkin.UpdatedAt.IsZero() {
		walkin.UpdatedAt = walkin.CreatedAt
	}
	const query = `INSERT INTO walkin_requests
	(id, student_id, assigned_counsellor_id, visit_date, visit_time, number_of_persons, reason, status, counsellor_note, created_at, updated_at)
	VALUES (:id, :student_id, :assigned_counsellor_id, :visit_date, :visit_time, :number_of_persons, :reason, :status, :counsellor_note, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, walkin); err != nil {
		return fmt.Errorf("create walkin request: %w", err)
	}
	return nil
}

// GetByID fetches a walk-in request by identifier.
func (r *WalkinRepository) GetByID(ctx context.Context, id string) (*models.WalkinRequest, error) {
	query := `SELECT ` + walkinColumns + ` FROM walkin_requests WHERE id = $1`
	var walkin models.WalkinRequest
	if err := r.db.GetContext(ctx, &walkin, query, id); err != nil {
		return nil, err
	}
	return &walkin, nil
}

// List returns walk-in requests matching the filter, most recent first with
// a stable id tie-break.
func (r *WalkinRepository) List(ctx context.Context, filter models.WalkinFilter) ([]models.WalkinRequest, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT ` + walkinColumns + ` FROM walkin_requests`)

	conditions := make([]string, 0, 3)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.CounsellorID != "" {
		args = append(args, filter.CounsellorID)
		conditions = append(conditions, fmt.Sprintf("assigned_counsellor_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC, id ASC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var walkins []models.WalkinRequest
	if err := r.db.SelectContext(ctx, &walkins, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list walkin requests: %w", err)
	}
	return walkins, nil
}

// DecideWalkinParams groups the columns a counsellor decision may touch.
// ExpectedStatus guards the write: the row is only updated while it still
// holds the status read by the caller.
type DecideWalkinParams struct {
	ID             string
	ExpectedStatus models.WalkinStatus
	Status         models.WalkinStatus
	CounsellorNote *string
	VisitDate      *time.Time
	VisitTime      *string
	UpdatedAt      time.Time
}

// UpdateStatus persists a counsellor decision as a single conditional write.
// Returns sql.ErrNoRows when the row's status changed since the caller's
// read, which the service surfaces as a conflict.
func (r *WalkinRepository) UpdateStatus(ctx context.Context, params DecideWalkinParams) error {
	setParts := []string{
		"status = :status",
		"counsellor_note = :counsellor_note",
		"updated_at = :updated_at",
	}
	if params.VisitDate != nil {
		setParts = append(setParts, "visit_date = :visit_date")
	}
	if params.VisitTime != nil {
		setParts = append(setParts, "visit_time = :visit_time")
	}
	query := fmt.Sprintf("UPDATE walkin_requests SET %s WHERE id = :id AND status = :expected_status",
		strings.Join(setParts, ", "))
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":              params.ID,
		"expected_status": params.ExpectedStatus,
		"status":          params.Status,
		"counsellor_note": params.CounsellorNote,
		"visit_date":      params.VisitDate,
		"visit_time":      params.VisitTime,
		"updated_at":      params.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("update walkin status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check walkin update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByStatus aggregates a counsellor's requests per status.
func (r *WalkinRepository) CountByStatus(ctx context.Context, counsellorID string) (*models.WalkinStatusCounts, error) {
	const query = `SELECT
	COUNT(*) FILTER (WHERE status = 'requested') AS requested,
	COUNT(*) FILTER (WHERE status = 'approved') AS approved,
	COUNT(*) FILTER (WHERE status = 'modified') AS modified,
	COUNT(*) FILTER (WHERE status = 'rejected') AS rejected
	FROM walkin_requests WHERE assigned_counsellor_id = $1`
	var counts models.WalkinStatusCounts
	if err := r.db.GetContext(ctx, &counts, query, counsellorID); err != nil {
		return nil, fmt.Errorf("count walkin statuses: %w", err)
	}
	return &counts, nil
}
