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

// QueryRepository persists student query threads and their messages.
type QueryRepository struct {
	db *sqlx.DB
}

// NewQueryRepository constructs the repository.
func NewQueryRepository(db *sqlx.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

const queryColumns = `id, student_id, assigned_counsellor_id, subject, status, created_at, updated_at`

// Create inserts a thread together with its first message.
func (r *QueryRepository) Create(ctx context.Context, query *models.Query, first *models.QueryMessage) error {
	if query.ID == "" {
		query.ID = uuid.NewString()
	}
	if query.Status == "" {
		query.Status = models.QueryStatusPending
	}
	now := time.Now().UTC()
	if query.CreatedAt.IsZero() {
		query.CreatedAt = now
	}
	if query.UpdatedAt.IsZero() {
		query.UpdatedAt = query.CreatedAt
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin query create: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertQuery = `INSERT INTO queries
	(id, student_id, assigned_counsellor_id, subject, status, created_at, updated_at)
	VALUES (:id, :student_id, :assigned_counsellor_id, :subject, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, query); err != nil {
		return fmt.Errorf("create query: %w", err)
	}

	first.QueryID = query.ID
	if err := insertMessage(ctx, tx, first); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit query create: %w", err)
	}
	return nil
}

// GetByID fetches a thread by identifier.
func (r *QueryRepository) GetByID(ctx context.Context, id string) (*models.Query, error) {
	query := `SELECT ` + queryColumns + ` FROM queries WHERE id = $1`
	var q models.Query
	if err := r.db.GetContext(ctx, &q, query, id); err != nil {
		return nil, err
	}
	return &q, nil
}

// ListForStudent returns a student's threads, newest first.
func (r *QueryRepository) ListForStudent(ctx context.Context, studentID string) ([]models.Query, error) {
	query := `SELECT ` + queryColumns + ` FROM queries WHERE student_id = $1 ORDER BY created_at DESC, id ASC`
	var queries []models.Query
	if err := r.db.SelectContext(ctx, &queries, query, studentID); err != nil {
		return nil, fmt.Errorf("list student queries: %w", err)
	}
	return queries, nil
}

// ListForCounsellor returns threads assigned to a counsellor, newest first.
func (r *QueryRepository) ListForCounsellor(ctx context.Context, counsellorID string, statuses []models.QueryStatus) ([]models.Query, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + queryColumns + ` FROM queries WHERE assigned_counsellor_id = $1`)
	args := []interface{}{counsellorID}
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		builder.WriteString(fmt.Sprintf(" AND status IN (%s)", strings.Join(placeholders, ",")))
	}
	builder.WriteString(" ORDER BY created_at DESC, id ASC")
	var queries []models.Query
	if err := r.db.SelectContext(ctx, &queries, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list counsellor queries: %w", err)
	}
	return queries, nil
}

// ListMessages returns a thread's messages oldest first.
func (r *QueryRepository) ListMessages(ctx context.Context, queryID string) ([]models.QueryMessage, error) {
	const query = `SELECT id, query_id, sender_id, sender_role, body, created_at
	FROM query_messages WHERE query_id = $1 ORDER BY created_at ASC, id ASC`
	var messages []models.QueryMessage
	if err := r.db.SelectContext(ctx, &messages, query, queryID); err != nil {
		return nil, fmt.Errorf("list query messages: %w", err)
	}
	return messages, nil
}

// AppendMessage adds a message and moves the thread to the given status,
// guarded against concurrent closure.
func (r *QueryRepository) AppendMessage(ctx context.Context, message *models.QueryMessage, newStatus models.QueryStatus) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin query reply: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	result, err := tx.ExecContext(ctx,
		`UPDATE queries SET status = $1, updated_at = $2 WHERE id = $3 AND status <> $4`,
		newStatus, time.Now().UTC(), message.QueryID, models.QueryStatusClosed)
	if err != nil {
		return fmt.Errorf("update query status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check query update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	if err := insertMessage(ctx, tx, message); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit query reply: %w", err)
	}
	return nil
}

// UpdateStatus moves a thread between statuses with an expected-status guard.
func (r *QueryRepository) UpdateStatus(ctx context.Context, id string, expected, next models.QueryStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE queries SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		next, time.Now().UTC(), id, expected)
	if err != nil {
		return fmt.Errorf("update query status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check query status rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Stats recomputes thread counts for a counsellor from the stored rows.
func (r *QueryRepository) Stats(ctx context.Context, counsellorID string) (*models.QueryStats, error) {
	const query = `SELECT
	COUNT(*) AS total,
	COUNT(*) FILTER (WHERE status = 'pending') AS pending,
	COUNT(*) FILTER (WHERE status = 'answered') AS answered,
	COUNT(*) FILTER (WHERE status = 'closed') AS closed
	FROM queries WHERE assigned_counsellor_id = $1`
	var stats models.QueryStats
	if err := r.db.GetContext(ctx, &stats, query, counsellorID); err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	return &stats, nil
}

func insertMessage(ctx context.Context, tx *sqlx.Tx, message *models.QueryMessage) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO query_messages (id, query_id, sender_id, sender_role, body, created_at)
	VALUES (:id, :query_id, :sender_id, :sender_role, :body, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("insert query message: %w", err)
	}
	return nil
}
