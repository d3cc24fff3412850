package models

import "time"

// ReferralStatus tracks how far an invited friend has progressed.
type ReferralStatus string

const (
	ReferralStatusInvited    ReferralStatus = "invited"
	ReferralStatusRegistered ReferralStatus = "registered"
	ReferralStatusEnrolled   ReferralStatus = "enrolled"
)

// Referral records a friend invitation issued by a student.
type Referral struct {
	ID                string         `db:"id" json:"id"`
	ReferrerStudentID string         `db:"referrer_student_id" json:"referrer_student_id"`
	FriendName        string         `db:"friend_name" json:"friend_name"`
	FriendEmail       string         `db:"friend_email" json:"friend_email"`
	Status            ReferralStatus `db:"status" json:"status"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}
