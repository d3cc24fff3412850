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

// PaymentRepository persists student fee payment orders.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, student_id, fee_type, amount, status, order_ref, created_at, updated_at`

// Create inserts a pending payment order.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.OrderRef == "" {
		payment.OrderRef = uuid.NewString()
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	now := time.Now().UTC()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	if payment.UpdatedAt.IsZero() {
		payment.UpdatedAt = payment.CreatedAt
	}
	const query = `INSERT INTO payments
	(id, student_id, fee_type, amount, status, order_ref, created_at, updated_at)
	VALUES (:id, :student_id, :fee_type, :amount, :status, :order_ref, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// GetByID fetches a payment by identifier.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByOrderRef fetches a payment by its gateway order reference.
func (r *PaymentRepository) GetByOrderRef(ctx context.Context, orderRef string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_ref = $1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, orderRef); err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListForStudent returns a student's payments, newest first.
func (r *PaymentRepository) ListForStudent(ctx context.Context, studentID string) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE student_id = $1 ORDER BY created_at DESC, id ASC`
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, studentID); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// HasSuccessfulPayment reports whether the student already settled a fee type.
func (r *PaymentRepository) HasSuccessfulPayment(ctx context.Context, studentID string, feeType models.FeeType) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM payments WHERE student_id = $1 AND fee_type = $2 AND status = 'success')`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, feeType); err != nil {
		return false, fmt.Errorf("check successful payment: %w", err)
	}
	return exists, nil
}

// Settle moves a pending order to its final status. Returns sql.ErrNoRows
// when the order was already settled.
func (r *PaymentRepository) Settle(ctx context.Context, id string, status models.PaymentStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		status, time.Now().UTC(), id, models.PaymentStatusPending)
	if err != nil {
		return fmt.Errorf("settle payment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check payment settle rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
