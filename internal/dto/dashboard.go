package dto

import (
	"time"

	"github.com/unifyi-dev/admissions-crm-api/internal/models"
)

// CounsellorDashboard is a stats snapshot recomputed from the record sets.
type CounsellorDashboard struct {
	Walkins          models.WalkinStatusCounts `json:"walkins"`
	PendingQueries   int                       `json:"pending_queries"`
	PendingDocuments int                       `json:"pending_documents"`
	GeneratedAt      time.Time                 `json:"generated_at"`
}
