package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unifyi-dev/admissions-crm-api/internal/dto"
	"github.com/unifyi-dev/admissions-crm-api/internal/middleware"
	appErrors "github.com/unifyi-dev/admissions-crm-api/pkg/errors"
	"github.com/unifyi-dev/admissions-crm-api/pkg/response"
)

type dashboardService interface {
	CounsellorSnapshot(ctx context.Context, counsellorID string) (*dto.CounsellorDashboard, bool, error)
}

// DashboardHandler wires the counsellor dashboard to HTTP.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Counsellor godoc
// @Summary Counsellor dashboard snapshot
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Counsellor(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	snapshot, cached, err := h.service.CounsellorSnapshot(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, snapshot, nil, middleware.ExtractMeta(c))
}
