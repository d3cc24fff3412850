package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unifyi-dev/admissions-crm-api/internal/dto"
	"github.com/unifyi-dev/admissions-crm-api/internal/models"
	appErrors "github.com/unifyi-dev/admissions-crm-api/pkg/errors"
	"github.com/unifyi-dev/admissions-crm-api/pkg/response"
)

type referralService interface {
	Invite(ctx context.Context, studentID string, req dto.InviteReferralRequest) (*models.Referral, error)
	ListMine(ctx context.Context, studentID string) (*dto.ReferralSummary, error)
	MyCode(ctx context.Context, studentID string) (string, error)
}

// ReferralHandler exposes REST endpoints for friend referrals.
type ReferralHandler struct {
	service referralService
}

// NewReferralHandler constructs the handler.
func NewReferralHandler(service referralService) *ReferralHandler {
	return &ReferralHandler{service: service}
}

// Invite godoc
// @Summary Invite a friend
// @Tags Referrals
// @Accept json
// @Produce json
// @Param payload body dto.InviteReferralRequest true "Invitation payload"
// @Success 201 {object} response.Envelope
// @Router /referrals [post]
func (h *ReferralHandler) Invite(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.InviteReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid invitation payload"))
		return
	}
	referral, err := h.service.Invite(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, referral, nil)
}

// ListMine godoc
// @Summary List the student's referrals with progress totals
// @Tags Referrals
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /referrals/mine [get]
func (h *ReferralHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, err := h.service.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// MyCode godoc
// @Summary Get the student's shareable referral code
// @Tags Referrals
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /referrals/code [get]
func (h *ReferralHandler) MyCode(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	code, err := h.service.MyCode(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"referral_code": code}, nil)
}
