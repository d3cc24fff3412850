package models

import (
	"time"

	"github.com/lib/pq"
)

// CommunicationType enumerates supported broadcast channels.
type CommunicationType string

const (
	CommunicationTypeEmail CommunicationType = "email"
)

// CommunicationStatus reflects aggregate delivery outcome.
type CommunicationStatus string

const (
	CommunicationStatusSent    CommunicationStatus = "sent"
	CommunicationStatusPartial CommunicationStatus = "partial"
	CommunicationStatusFailed  CommunicationStatus = "failed"
)

// Communication records an admin email broadcast and its delivery results.
type Communication struct {
	ID                     string              `db:"id" json:"id"`
	Type                   CommunicationType   `db:"type" json:"type"`
	Subject                string              `db:"subject" json:"subject"`
	Message                string              `db:"message" json:"message"`
	SentBy                 string              `db:"sent_by" json:"sent_by"`
	RecipientUniversityIDs pq.StringArray      `db:"recipient_university_ids" json:"recipient_university_ids"`
	SendToAll              bool                `db:"send_to_all" json:"send_to_all"`
	TotalRecipients        int                 `db:"total_recipients" json:"total_recipients"`
	Successful             int                 `db:"successful" json:"successful"`
	Failed                 int                 `db:"failed" json:"failed"`
	Status                 CommunicationStatus `db:"status" json:"status"`
	CreatedAt              time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time           `db:"updated_at" json:"updated_at"`
}

// University is a broadcast recipient maintained by the platform admins.
type University struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
