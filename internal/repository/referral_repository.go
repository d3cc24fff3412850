package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unifyi-dev/admissions-crm-api/internal/models"
)

// ReferralRepository persists friend invitations.
type ReferralRepository struct {
	db *sqlx.DB
}

// NewReferralRepository constructs the repository.
func NewReferralRepository(db *sqlx.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// Create inserts a referral row.
func (r *ReferralRepository) Create(ctx context.Context, referral *models.Referral) error {
	if referral.ID == "" {
		referral.ID = uuid.NewString()
	}
	if referral.Status == "" {
		referral.Status = models.ReferralStatusInvited
	}
	now := time.Now().UTC()
	if referral.CreatedAt.IsZero() {
		referral.CreatedAt = now
	}
	if referral.UpdatedAt.IsZero() {
		referral.UpdatedAt = referral.CreatedAt
	}
	const query = `INSERT INTO referrals
	(id, referrer_student_id, friend_name, friend_email, status, created_at, updated_at)
	VALUES (:id, :referrer_student_id, :friend_name, :friend_email, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, referral); err != nil {
		return fmt.Errorf("create referral: %w", err)
	}
	return nil
}

// ListForStudent returns a student's referrals, newest first.
func (r *ReferralRepository) ListForStudent(ctx context.Context, studentID string) ([]models.Referral, error) {
	const query = `SELECT id, referrer_student_id, friend_name, friend_email, status, created_at, updated_at
	FROM referrals WHERE referrer_student_id = $1 ORDER BY created_at DESC, id ASC`
	var referrals []models.Referral
	if err := r.db.SelectContext(ctx, &referrals, query, studentID); err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	return referrals, nil
}
