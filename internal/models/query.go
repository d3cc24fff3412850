package models

import "time"

// QueryStatus tracks a support thread between a student and a counsellor.
type QueryStatus string

const (
	QueryStatusPending  QueryStatus = "pending"
	QueryStatusAnswered QueryStatus = "answered"
	QueryStatusClosed   QueryStatus = "closed"
)

// Query is a student-opened question thread handled by the assigned counsellor.
type Query struct {
	ID                   string      `db:"id" json:"id"`
	StudentID            string      `db:"student_id" json:"student_id"`
	AssignedCounsellorID *string     `db:"assigned_counsellor_id" json:"assigned_counsellor_id,omitempty"`
	Subject              string      `db:"subject" json:"subject"`
	Status               QueryStatus `db:"status" json:"status"`
	CreatedAt            time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time   `db:"updated_at" json:"updated_at"`
}

// QueryMessage is a single message inside a query thread.
type QueryMessage struct {
	ID         string    `db:"id" json:"id"`
	QueryID    string    `db:"query_id" json:"query_id"`
	SenderID   string    `db:"sender_id" json:"sender_id"`
	SenderRole UserRole  `db:"sender_role" json:"sender_role"`
	Body       string    `db:"body" json:"body"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// QueryStats aggregates thread counts per status for the counsellor view.
// Values are recomputed from the store on each read rather than patched
// incrementally, so they cannot drift from the authoritative set.
type QueryStats struct {
	Total    int `db:"total" json:"total"`
	Pending  int `db:"pending" json:"pending"`
	Answered int `db:"answered" json:"answered"`
	Closed   int `db:"closed" json:"closed"`
}
