package dto

import "github.com/unifyi-dev/admissions-crm-api/internal/models"

// InviteReferralRequest records a friend invitation.
type InviteReferralRequest struct {
	FriendName  string `json:"friend_name" validate:"required"`
	FriendEmail string `json:"friend_email" validate:"required,email"`
}

// ReferralSummary lists a student's referrals with totals recomputed from
// the record set.
type ReferralSummary struct {
	ReferralCode string            `json:"referral_code"`
	Total        int               `json:"total"`
	Registered   int               `json:"registered"`
	Enrolled     int               `json:"enrolled"`
	Referrals    []models.Referral `json:"referrals"`
}
