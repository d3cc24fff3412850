package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/unifyi-dev/admissions-crm-api/internal/dto"
	"github.com/unifyi-dev/admissions-crm-api/internal/models"
	appErrors "github.com/unifyi-dev/admissions-crm-api/pkg/errors"
	"github.com/unifyi-dev/admissions-crm-api/pkg/export"
)

type paymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetByOrderRef(ctx context.Context, orderRef string) (*models.Payment, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.Payment, error)
	HasSuccessfulPayment(ctx context.Context, studentID string, feeType models.FeeType) (bool, error)
	Settle(ctx context.Context, id string, status models.PaymentStatus) error
}

// PaymentServiceConfig carries the fee schedule. Amounts are minor units.
type PaymentServiceConfig struct {
	FeeEnabled      bool
	RegistrationFee int64
	DiscountAmount  int64
}

// PaymentService manages registration fee orders. Orders are created pending
// and settled exactly once by the gateway callback.
type PaymentService struct {
	repo   paymentStore
	logger *zap.Logger
	cfg    PaymentServiceConfig
}

// NewPaymentService constructs the service.
func NewPaymentService(repo paymentStore, logger *zap.Logger, cfg PaymentServiceConfig) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, logger: logger, cfg: cfg}
}

// GetFee returns the current fee schedule as presented to students.
func (s *PaymentService) GetFee(ctx context.Context) *models.FeeSchedule {
	final := s.cfg.RegistrationFee - s.cfg.DiscountAmount
	if final < 0 {
		final = 0
	}
	return &models.FeeSchedule{
		FeeEnabled:     s.cfg.FeeEnabled,
		ActualFee:      s.cfg.RegistrationFee,
		DiscountAmount: s.cfg.DiscountAmount,
		FinalFee:       final,
	}
}

// CreateOrder opens a pending order for the student. The submitted amount
// must match the configured fee, and a student who already paid is refused.
func (s *PaymentService) CreateOrder(ctx context.Context, studentID string, req dto.CreateOrderRequest) (*models.Payment, error) {
	if !s.cfg.FeeEnabled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "fee collection is currently disabled")
	}
	if req.FeeType != models.FeeTypeRegistration {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported fee_type: "+string(req.FeeType))
	}
	schedule := s.GetFee(ctx)
	if req.Amount != schedule.FinalFee {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("amount must match the current fee of %d", schedule.FinalFee))
	}

	paid, err := s.repo.HasSuccessfulPayment(ctx, studentID, req.FeeType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check payment history")
	}
	if paid {
		return nil, appErrors.Clone(appErrors.ErrConflict, "registration fee is already paid")
	}

	payment := &models.Payment{
		StudentID: studentID,
		FeeType:   req.FeeType,
		Amount:    req.Amount,
		Status:    models.PaymentStatusPending,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment order")
	}
	return payment, nil
}

// Confirm settles a pending order from the gateway callback. Settling an
// already-settled order surfaces as a conflict.
func (s *PaymentService) Confirm(ctx context.Context, req dto.ConfirmPaymentRequest) (*models.Payment, error) {
	switch req.Status {
	case models.PaymentStatusSuccess, models.PaymentStatusFailed:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be success or failed")
	}

	payment, err := s.repo.GetByOrderRef(ctx, req.OrderRef)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment order")
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "order is already "+string(payment.Status))
	}

	if err := s.repo.Settle(ctx, payment.ID, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "order was settled concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to settle payment")
	}
	payment.Status = req.Status
	return payment, nil
}

// ListMine returns the student's payment history, newest first.
func (s *PaymentService) ListMine(ctx context.Context, studentID string) ([]models.Payment, error) {
	payments, err := s.repo.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, nil
}

// Receipt renders a PDF receipt for a successful payment owned by the student.
func (s *PaymentService) Receipt(ctx context.Context, studentID, paymentID string) ([]byte, error) {
	payment, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if payment.StudentID != studentID {
		return nil, appErrors.ErrForbidden
	}
	if payment.Status != models.PaymentStatusSuccess {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "receipt is only available for successful payments")
	}

	dataset := export.Dataset{
		Headers: []string{"Field", "Value"},
		Rows: []map[string]string{
			{"Field": "Receipt No", "Value": payment.OrderRef},
			{"Field": "Student ID", "Value": payment.StudentID},
			{"Field": "Fee Type", "Value": string(payment.FeeType)},
			{"Field": "Amount", "Value": fmt.Sprintf("%d", payment.Amount)},
			{"Field": "Status", "Value": string(payment.Status)},
			{"Field": "Paid At", "Value": payment.UpdatedAt.Format("2006-01-02 15:04:05 MST")},
		},
	}
	pdf, err := export.NewPDFExporter().Render(dataset, "Payment Receipt")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	return pdf, nil
}
