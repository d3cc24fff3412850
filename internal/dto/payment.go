package dto

import "github.com/unifyi-dev/admissions-crm-api/internal/models"

// CreateOrderRequest opens a fee payment order.
type CreateOrderRequest struct {
	FeeType models.FeeType `json:"fee_type" validate:"required"`
	Amount  int64          `json:"amount" validate:"required,min=1"`
}

// ConfirmPaymentRequest is the gateway callback payload settling an order.
type ConfirmPaymentRequest struct {
	OrderRef string               `json:"order_ref" validate:"required"`
	Status   models.PaymentStatus `json:"status" validate:"required"`
}
