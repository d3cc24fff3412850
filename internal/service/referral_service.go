package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unifyi-dev/admissions-crm-api/internal/dto"
	"github.com/unifyi-dev/admissions-crm-api/internal/models"
	appErrors "github.com/unifyi-dev/admissions-crm-api/pkg/errors"
)

type referralStore interface {
	Create(ctx context.Context, referral *models.Referral) error
	ListForStudent(ctx context.Context, studentID string) ([]models.Referral, error)
}

// ReferralService records friend invitations and reports progress totals.
type ReferralService struct {
	repo      referralStore
	profiles  studentProfileReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReferralService constructs the service.
func NewReferralService(repo referralStore, profiles studentProfileReader, validate *validator.Validate, logger *zap.Logger) *ReferralService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferralService{repo: repo, profiles: profiles, validator: validate, logger: logger}
}

// Invite records a new invitation in the invited state.
func (s *ReferralService) Invite(ctx context.Context, studentID string, req dto.InviteReferralRequest) (*models.Referral, error) {
	req.FriendName = strings.TrimSpace(req.FriendName)
	req.FriendEmail = strings.TrimSpace(req.FriendEmail)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invitation payload")
	}

	referral := &models.Referral{
		ReferrerStudentID: studentID,
		FriendName:        req.FriendName,
		FriendEmail:       req.FriendEmail,
		Status:            models.ReferralStatusInvited,
	}
	if err := s.repo.Create(ctx, referral); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record referral")
	}
	return referral, nil
}

// ListMine returns the student's referrals with totals recomputed from the
// returned records, alongside their shareable code.
func (s *ReferralService) ListMine(ctx context.Context, studentID string) (*dto.ReferralSummary, error) {
	referrals, err := s.repo.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list referrals")
	}

	summary := &dto.ReferralSummary{
		Total:     len(referrals),
		Referrals: referrals,
	}
	for _, referral := range referrals {
		switch referral.Status {
		case models.ReferralStatusRegistered:
			summary.Registered++
		case models.ReferralStatusEnrolled:
			// enrolled implies registered
			summary.Registered++
			summary.Enrolled++
		}
	}

	code, err := s.MyCode(ctx, studentID)
	if err == nil {
		summary.ReferralCode = code
	} else if !errors.Is(err, appErrors.ErrNotFound) {
		return nil, err
	}
	return summary, nil
}

// MyCode returns the student's shareable referral code from their profile.
func (s *ReferralService) MyCode(ctx context.Context, studentID string) (string, error) {
	profile, err := s.profiles.GetProfile(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.ErrNotFound
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	return profile.ReferralCode, nil
}
