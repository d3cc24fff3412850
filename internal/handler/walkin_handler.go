package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unifyi-dev/admissions-crm-api/internal/dto"
	"github.com/unifyi-dev/admissions-crm-api/internal/models"
	appErrors "github.com/unifyi-dev/admissions-crm-api/pkg/errors"
	"github.com/unifyi-dev/admissions-crm-api/pkg/response"
)

type walkinService interface {
	Submit(ctx context.Context, studentID string, req dto.CreateWalkinRequest) (*models.WalkinRequest, error)
	Availability(ctx context.Context, studentID string) (*dto.WalkinAvailability, error)
	ListMine(ctx context.Context, studentID string, query dto.WalkinQuery) ([]dto.WalkinItem, error)
	ListAssigned(ctx context.Context, counsellorID string, query dto.WalkinQuery) ([]dto.WalkinItem, error)
	Decide(ctx context.Context, counsellorID, id string, req dto.DecideWalkinRequest) (*models.WalkinRequest, error)
}

// WalkinHandler exposes REST endpoints for the walk-in visit workflow.
type WalkinHandler struct {
	service walkinService
}

// NewWalkinHandler constructs the handler.
func NewWalkinHandler(service walkinService) *WalkinHandler {
	return &WalkinHandler{service: service}
}

// Submit godoc
// @Summary Submit a walk-in visit request
// @Tags Walkins
// @Accept json
// @Produce json
// @Param payload body dto.CreateWalkinRequest true "Visit request"
// @Success 201 {object} response.Envelope
// @Router /walkins [post]
func (h *WalkinHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateWalkinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid walk-in payload"))
		return
	}
	walkin, err := h.service.Submit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, walkin, nil)
}

// Availability godoc
// @Summary Report whether the student can submit a new request
// @Tags Walkins
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /walkins/availability [get]
func (h *WalkinHandler) Availability(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	availability, err := h.service.Availability(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, availability, nil)
}

// ListMine godoc
// @Summary List the student's own walk-in requests
// @Tags Walkins
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /walkins/mine [get]
func (h *WalkinHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	items, err := h.service.ListMine(c.Request.Context(), claims.UserID, walkinQueryFromRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// ListAssigned godoc
// @Summary List walk-in requests assigned to the counsellor
// @Tags Walkins
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /walkins/assigned [get]
func (h *WalkinHandler) ListAssigned(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	items, err := h.service.ListAssigned(c.Request.Context(), claims.UserID, walkinQueryFromRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Decide godoc
// @Summary Approve, modify, or reject a walk-in request
// @Tags Walkins
// @Accept json
// @Produce json
// @Param id path string true "Walk-in request ID"
// @Param payload body dto.DecideWalkinRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /walkins/{id}/decision [post]
func (h *WalkinHandler) Decide(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.DecideWalkinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	walkin, err := h.service.Decide(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, walkin, nil)
}

func walkinQueryFromRequest(c *gin.Context) dto.WalkinQuery {
	query := dto.WalkinQuery{}
	if raw := c.Query("status"); raw != "" {
		parts := strings.Split(raw, ",")
		statuses := make([]models.WalkinStatus, 0, len(parts))
		for _, part := range parts {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			statuses = append(statuses, models.WalkinStatus(part))
		}
		query.Status = statuses
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			query.Limit = limit
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil {
			query.Offset = offset
		}
	}
	return query
}
