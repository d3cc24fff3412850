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

// CommunicationRepository persists admin broadcast records.
type CommunicationRepository struct {
	db *sqlx.DB
}

// NewCommunicationRepository constructs the repository.
func NewCommunicationRepository(db *sqlx.DB) *CommunicationRepository {
	return &CommunicationRepository{db: db}
}

const communicationColumns = `id, type, subject, message, sent_by, recipient_university_ids,
       send_to_all, total_recipients, successful, failed, status, created_at, updated_at`

// Create inserts a broadcast record before dispatch begins.
func (r *CommunicationRepository) Create(ctx context.Context, comm *models.Communication) error {
	if comm.ID == "" {
		comm.ID = uuid.NewString()
	}
	if comm.Type == "" {
		comm.Type = models.CommunicationTypeEmail
	}
	now := time.Now().UTC()
	if comm.CreatedAt.IsZero() {
		comm.CreatedAt = now
	}
	if comm.UpdatedAt.IsZero() {
		comm.UpdatedAt = comm.CreatedAt
	}
	const query = `INSERT INTO communications
	(id, type, subject, message, sent_by, recipient_university_ids, send_to_all, total_recipients, successful, failed, status, created_at, updated_at)
	VALUES (:id, :type, :subject, :message, :sent_by, :recipient_university_ids, :send_to_all, :total_recipients, :successful, :failed, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comm); err != nil {
		return fmt.Errorf("create communication: %w", err)
	}
	return nil
}

// GetByID fetches a broadcast record.
func (r *CommunicationRepository) GetByID(ctx context.Context, id string) (*models.Communication, error) {
	query := `SELECT ` + communicationColumns + ` FROM communications WHERE id = $1`
	var comm models.Communication
	if err := r.db.GetContext(ctx, &comm, query, id); err != nil {
		return nil, err
	}
	return &comm, nil
}

// List returns broadcast history, newest first.
func (r *CommunicationRepository) List(ctx context.Context, limit, offset int) ([]models.Communication, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT `+communicationColumns+` FROM communications ORDER BY created_at DESC, id ASC LIMIT %d OFFSET %d`, limit, offset)
	var comms []models.Communication
	if err := r.db.SelectContext(ctx, &comms, query); err != nil {
		return nil, fmt.Errorf("list communications: %w", err)
	}
	return comms, nil
}

// UpdateDeliveryResult records aggregate dispatch outcome for a broadcast.
func (r *CommunicationRepository) UpdateDeliveryResult(ctx context.Context, id string, successful, failed int, status models.CommunicationStatus) error {
	const query = `UPDATE communications SET successful = $1, failed = $2, status = $3, updated_at = $4 WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, successful, failed, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update communication delivery: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check communication update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
