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

type paymentService interface {
	GetFee(ctx context.Context) *models.FeeSchedule
	CreateOrder(ctx context.Context, studentID string, req dto.CreateOrderRequest) (*models.Payment, error)
	Confirm(ctx context.Context, req dto.ConfirmPaymentRequest) (*models.Payment, error)
	ListMine(ctx context.Context, studentID string) ([]models.Payment, error)
	Receipt(ctx context.Context, studentID, paymentID string) ([]byte, error)
}

// PaymentHandler exposes REST endpoints for registration fee payments.
type PaymentHandler struct {
	service paymentService
}

// NewPaymentHandler constructs the handler.
func NewPaymentHandler(service paymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// GetFee godoc
// @Summary Get the current fee schedule
// @Tags Payments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /payments/fee [get]
func (h *PaymentHandler) GetFee(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.GetFee(c.Request.Context()), nil)
}

// CreateOrder godoc
// @Summary Open a fee payment order
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body dto.CreateOrderRequest true "Order payload"
// @Success 201 {object} response.Envelope
// @Router /payments/orders [post]
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid order payload"))
		return
	}
	payment, err := h.service.CreateOrder(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, payment, nil)
}

// Confirm godoc
// @Summary Settle an order from the gateway callback
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body dto.ConfirmPaymentRequest true "Settlement payload"
// @Success 200 {object} response.Envelope
// @Router /payments/confirm [post]
func (h *PaymentHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid settlement payload"))
		return
	}
	payment, err := h.service.Confirm(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// ListMine godoc
// @Summary List the student's payments
// @Tags Payments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /payments/mine [get]
func (h *PaymentHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	payments, err := h.service.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

// Receipt godoc
// @Summary Download a PDF receipt for a successful payment
// @Tags Payments
// @Produce application/pdf
// @Param id path string true "Payment ID"
// @Success 200 {file} file
// @Router /payments/{id}/receipt [get]
func (h *PaymentHandler) Receipt(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	pdf, err := h.service.Receipt(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="receipt.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
