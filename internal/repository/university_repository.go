package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/unifyi-dev/admissions-crm-api/internal/models"
)

// UniversityRepository reads the broadcast recipient roster.
type UniversityRepository struct {
	db *sqlx.DB
}

// NewUniversityRepository constructs the repository.
func NewUniversityRepository(db *sqlx.DB) *UniversityRepository {
	return &UniversityRepository{db: db}
}

// ListActive returns all active universities ordered by name.
func (r *UniversityRepository) ListActive(ctx context.Context) ([]models.University, error) {
	const query = `SELECT id, name, email, active, created_at FROM universities WHERE active = true ORDER BY name ASC`
	var universities []models.University
	if err := r.db.SelectContext(ctx, &universities, query); err != nil {
		return nil, fmt.Errorf("list universities: %w", err)
	}
	return universities, nil
}

// ListByIDs returns the active universities among the provided identifiers.
func (r *UniversityRepository) ListByIDs(ctx context.Context, ids []string) ([]models.University, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, name, email, active, created_at FROM universities WHERE active = true AND id IN (%s) ORDER BY name ASC`,
		strings.Join(placeholders, ","))
	var universities []models.University
	if err := r.db.SelectContext(ctx, &universities, query, args...); err != nil {
		return nil, fmt.Errorf("list universities by ids: %w", err)
	}
	return universities, nil
}
