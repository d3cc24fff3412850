package dto

import "github.com/unifyi-dev/admissions-crm-api/internal/models"

// ReviewDocumentRequest captures the counsellor verdict on a document.
// RejectionReason is required when Status is rejected.
type ReviewDocumentRequest struct {
	Status          models.DocumentStatus `json:"status"`
	RejectionReason string                `json:"rejection_reason"`
}

// DocumentDownload carries a signed token for fetching the stored file.
type DocumentDownload struct {
	DocumentID string `json:"document_id"`
	Token      string `json:"token"`
	ExpiresAt  string `json:"expires_at"`
}
