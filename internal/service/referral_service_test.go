package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unifyi-dev/admissions-crm-api/internal/dto"
	"github.com/unifyi-dev/admissions-crm-api/internal/models"
	appErrors "github.com/unifyi-dev/admissions-crm-api/pkg/errors"
)

type referralRepoStub struct {
	referrals []models.Referral
}

func (m *referralRepoStub) Create(ctx context.Context, referral *models.Referral) error {
	if referral.ID == "" {
		referral.ID = "ref-1"
	}
	m.referrals = append(m.referrals, *referral)
	return nil
}

func (m *referralRepoStub) ListForStudent(ctx context.Context, studentID string) ([]models.Referral, error) {
	result := make([]models.Referral, 0)
	for _, referral := range m.referrals {
		if referral.ReferrerStudentID == studentID {
			result = append(result, referral)
		}
	}
	return result, nil
}

func newReferralServiceForTest(repo *referralRepoStub) *ReferralService {
	profiles := &profileStub{profiles: map[string]*models.StudentProfile{
		"student-1": {UserID: "student-1", ReferralCode: "FRIEND-42"},
	}}
	return NewReferralService(repo, profiles, nil, nil)
}

func TestReferralServiceInvite(t *testing.T) {
	repo := &referralRepoStub{}
	svc := newReferralServiceForTest(repo)

	referral, err := svc.Invite(context.Background(), "student-1", dto.InviteReferralRequest{
		FriendName:  "Priya",
		FriendEmail: "priya@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, models.ReferralStatusInvited, referral.Status)
	require.Len(t, repo.referrals, 1)
}

func TestReferralServiceInviteValidation(t *testing.T) {
	repo := &referralRepoStub{}
	svc := newReferralServiceForTest(repo)

	cases := []dto.InviteReferralRequest{
		{FriendEmail: "priya@example.com"},
		{FriendName: "Priya"},
		{FriendName: "Priya", FriendEmail: "not-an-email"},
		{FriendName: "Priya", FriendEmail: "Jane Doe <jane@example.com>"},
	}
	for _, req := range cases {
		_, err := svc.Invite(context.Background(), "student-1", req)
		require.Error(t, err)
		require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
	require.Empty(t, repo.referrals)
}

func TestReferralServiceListMineRecomputesTotals(t *testing.T) {
	repo := &referralRepoStub{referrals: []models.Referral{
		{ID: "r1", ReferrerStudentID: "student-1", Status: models.ReferralStatusInvited},
		{ID: "r2", ReferrerStudentID: "student-1", Status: models.ReferralStatusRegistered},
		{ID: "r3", ReferrerStudentID: "student-1", Status: models.ReferralStatusEnrolled},
		{ID: "r4", ReferrerStudentID: "student-2", Status: models.ReferralStatusEnrolled},
	}}
	svc := newReferralServiceForTest(repo)

	summary, err := svc.ListMine(context.Background(), "student-1")
	require.NoError(t, err)
	require.Equal(t, 3, summary.Total)
	require.Equal(t, 2, summary.Registered)
	require.Equal(t, 1, summary.Enrolled)
	require.Equal(t, "FRIEND-42", summary.ReferralCode)
}
