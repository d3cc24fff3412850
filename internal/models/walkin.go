package models

import "time"

// WalkinStatus captures workflow states for campus visit requests.
type WalkinStatus string

const (
	WalkinStatusRequested WalkinStatus = "requested"
	WalkinStatusApproved  WalkinStatus = "approved"
	WalkinStatusModified  WalkinStatus = "modified"
	WalkinStatusRejected  WalkinStatus = "rejected"
)

// Valid reports whether the status is one of the four known values.
func (s WalkinStatus) Valid() bool {
	switch s {
	case WalkinStatusRequested, WalkinStatusApproved, WalkinStatusModified, WalkinStatusRejected:
		return true
	}
	return false
}

// WalkinRequest stores a student-submitted campus visit booking.
//
// The student owns creation (date, time, persons, reason); the assigned
// counsellor exclusively owns status, counsellor_note, and any date/time
// revision applied during a "modified" decision. Requests are never deleted.
type WalkinRequest struct {
	ID                   string       `db:"id" json:"id"`
	StudentID            string       `db:"student_id" json:"student_id"`
	AssignedCounsellorID *string      `db:"assigned_counsellor_id" json:"assigned_counsellor_id,omitempty"`
	VisitDate            time.Time    `db:"visit_date" json:"visit_date"`
	VisitTime            string       `db:"visit_time" json:"visit_time"`
	NumberOfPersons      int          `db:"number_of_persons" json:"number_of_persons"`
	Reason               string       `db:"reason" json:"reason"`
	Status               WalkinStatus `db:"status" json:"status"`
	CounsellorNote       *string      `db:"counsellor_note" json:"counsellor_note,omitempty"`
	CreatedAt            time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time    `db:"updated_at" json:"updated_at"`
}

// WalkinFilter constrains listing queries.
type WalkinFilter struct {
	StudentID    string
	CounsellorID string
	Status       []WalkinStatus
	Limit        int
	Offset       int
}

// WalkinStatusCounts aggregates requests per status for dashboards.
type WalkinStatusCounts struct {
	Requested int `db:"requested" json:"requested"`
	Approved  int `db:"approved" json:"approved"`
	Modified  int `db:"modified" json:"modified"`
	Rejected  int `db:"rejected" json:"rejected"`
}
