package models

import "time"

// StudentProfile carries admissions state attached to a student user.
//
// AssignedCounsellorID is written by the external lead-assignment process;
// this API only ever reads it.
type StudentProfile struct {
	UserID               string    `db:"user_id" json:"user_id"`
	UniversityID         *string   `db:"university_id" json:"university_id,omitempty"`
	AssignedCounsellorID *string   `db:"assigned_counsellor_id" json:"assigned_counsellor_id,omitempty"`
	ApplicationID        *string   `db:"application_id" json:"application_id,omitempty"`
	ReferralCode         string    `db:"referral_code" json:"referral_code"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}
