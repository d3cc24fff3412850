package models

import "time"

// DocumentStatus captures the verification lifecycle of an uploaded document.
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusVerified DocumentStatus = "verified"
	DocumentStatusRejected DocumentStatus = "rejected"
)

// Document is a student-uploaded admission document awaiting verification.
type Document struct {
	ID              string         `db:"id" json:"id"`
	StudentID       string         `db:"student_id" json:"student_id"`
	Name            string         `db:"name" json:"name"`
	FileKey         string         `db:"file_key" json:"-"`
	ContentType     string         `db:"content_type" json:"content_type"`
	SizeBytes       int64          `db:"size_bytes" json:"size_bytes"`
	Status          DocumentStatus `db:"status" json:"status"`
	RejectionReason *string        `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ReviewedBy      *string        `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	UploadedAt      time.Time      `db:"uploaded_at" json:"uploaded_at"`
}
