package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/unifyi-dev/admissions-crm-api/internal/dto"
	"github.com/unifyi-dev/admissions-crm-api/internal/models"
	appErrors "github.com/unifyi-dev/admissions-crm-api/pkg/errors"
	"github.com/unifyi-dev/admissions-crm-api/pkg/response"
)

type communicationService interface {
	Send(ctx context.Context, req dto.SendCommunicationRequest, senderID string) (*models.Communication, error)
	History(ctx context.Context, query dto.CommunicationQuery) ([]models.Communication, error)
	ListUniversities(ctx context.Context) ([]models.University, error)
	ExportHistory(ctx context.Context, query dto.CommunicationQuery) ([]byte, error)
}

// CommunicationHandler exposes REST endpoints for admin email broadcasts.
type CommunicationHandler struct {
	service communicationService
}

// NewCommunicationHandler constructs the handler.
func NewCommunicationHandler(service communicationService) *CommunicationHandler {
	return &CommunicationHandler{service: service}
}

// Send godoc
// @Summary Send an email broadcast to universities
// @Tags Communications
// @Accept json
// @Produce json
// @Param payload body dto.SendCommunicationRequest true "Broadcast payload"
// @Success 202 {object} response.Envelope
// @Router /communications [post]
func (h *CommunicationHandler) Send(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SendCommunicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid broadcast payload"))
		return
	}
	comm, err := h.service.Send(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, comm, nil)
}

// History godoc
// @Summary List broadcast history
// @Tags Communications
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /communications [get]
func (h *CommunicationHandler) History(c *gin.Context) {
	comms, err := h.service.History(c.Request.Context(), communicationQueryFromRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comms, nil)
}

// ListUniversities godoc
// @Summary List active universities for the recipient picker
// @Tags Communications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /communications/universities [get]
func (h *CommunicationHandler) ListUniversities(c *gin.Context) {
	universities, err := h.service.ListUniversities(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, universities, nil)
}

// ExportHistory godoc
// @Summary Export broadcast history as CSV
// @Tags Communications
// @Produce text/csv
// @Success 200 {file} file
// @Router /communications/export [get]
func (h *CommunicationHandler) ExportHistory(c *gin.Context) {
	csv, err := h.service.ExportHistory(c.Request.Context(), communicationQueryFromRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="communications.csv"`)
	c.Data(http.StatusOK, "text/csv", csv)
}

func communicationQueryFromRequest(c *gin.Context) dto.CommunicationQuery {
	query := dto.CommunicationQuery{}
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
