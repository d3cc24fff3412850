package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/unifyi-dev/admissions-crm-api/internal/models"
)

// StudentRepository reads admissions profile state for student users.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// GetProfile fetches the admissions profile for a student user.
func (r *StudentRepository) GetProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	const query = `SELECT user_id, university_id, assigned_counsellor_id, application_id, referral_code, created_at, updated_at
	FROM student_profiles WHERE user_id = $1`
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, err
	}
	return &profile, nil
}
