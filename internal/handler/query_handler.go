package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unifyi-dev/admissions-crm-api/internal/dto"
	"github.com/unifyi-dev/admissions-crm-api/internal/models"
	appErrors "github.com/unifyi-dev/admissions-crm-api/pkg/errors"
	"github.com/unifyi-dev/admissions-crm-api/pkg/response"
)

type queryService interface {
	Create(ctx context.Context, studentID string, req dto.CreateQueryRequest) (*models.Query, error)
	ListMine(ctx context.Context, studentID string) ([]models.Query, error)
	ListAssigned(ctx context.Context, counsellorID string, statuses []models.QueryStatus) ([]models.Query, error)
	Thread(ctx context.Context, queryID string, actor *models.JWTClaims) (*models.Query, []models.QueryMessage, error)
	Reply(ctx context.Context, queryID string, actor *models.JWTClaims, req dto.ReplyQueryRequest) (*models.QueryMessage, error)
	Close(ctx context.Context, queryID string, actor *models.JWTClaims) (*models.Query, error)
	Stats(ctx context.Context, counsellorID string) (*models.QueryStats, error)
}

// QueryHandler exposes REST endpoints for student question threads.
type QueryHandler struct {
	service queryService
}

// NewQueryHandler constructs the handler.
func NewQueryHandler(service queryService) *QueryHandler {
	return &QueryHandler{service: service}
}

// Create godoc
// @Summary Open a query thread
// @Tags Queries
// @Accept json
// @Produce json
// @Param payload body dto.CreateQueryRequest true "Thread payload"
// @Success 201 {object} response.Envelope
// @Router /queries [post]
func (h *QueryHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query payload"))
		return
	}
	query, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, query, nil)
}

// ListMine godoc
// @Summary List the student's own threads
// @Tags Queries
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /queries/mine [get]
func (h *QueryHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	queries, err := h.service.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, queries, nil)
}

// ListAssigned godoc
// @Summary List threads assigned to the counsellor
// @Tags Queries
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Success 200 {object} response.Envelope
// @Router /queries/assigned [get]
func (h *QueryHandler) ListAssigned(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var statuses []models.QueryStatus
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			statuses = append(statuses, models.QueryStatus(part))
		}
	}
	queries, err := h.service.ListAssigned(c.Request.Context(), claims.UserID, statuses)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, queries, nil)
}

// Thread godoc
// @Summary Get a thread with its messages
// @Tags Queries
// @Produce json
// @Param id path string true "Query ID"
// @Success 200 {object} response.Envelope
// @Router /queries/{id} [get]
func (h *QueryHandler) Thread(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query, messages, err := h.service.Thread(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"query": query, "messages": messages}, nil)
}

// Reply godoc
// @Summary Reply to a thread
// @Tags Queries
// @Accept json
// @Produce json
// @Param id path string true "Query ID"
// @Param payload body dto.ReplyQueryRequest true "Reply payload"
// @Success 201 {object} response.Envelope
// @Router /queries/{id}/replies [post]
func (h *QueryHandler) Reply(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ReplyQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid reply payload"))
		return
	}
	message, err := h.service.Reply(c.Request.Context(), c.Param("id"), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, message, nil)
}

// Close godoc
// @Summary Close a thread
// @Tags Queries
// @Produce json
// @Param id path string true "Query ID"
// @Success 200 {object} response.Envelope
// @Router /queries/{id}/close [post]
func (h *QueryHandler) Close(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query, err := h.service.Close(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, query, nil)
}

// Stats godoc
// @Summary Thread counts per status for the counsellor
// @Tags Queries
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /queries/stats [get]
func (h *QueryHandler) Stats(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
