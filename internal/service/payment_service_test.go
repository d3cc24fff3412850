package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unifyi-dev/admissions-crm-api/internal/dto"
	"github.com/unifyi-dev/admissions-crm-api/internal/models"
	appErrors "github.com/unifyi-dev/admissions-crm-api/pkg/errors"
)

type paymentRepoStub struct {
	payments map[string]*models.Payment
}

func newPaymentRepoStub() *paymentRepoStub {
	return &paymentRepoStub{payments: make(map[string]*models.Payment)}
}

func (m *paymentRepoStub) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = "pay-1"
	}
	if payment.OrderRef == "" {
		payment.OrderRef = "order-1"
	}
	m.payments[payment.ID] = payment
	return nil
}

func (m *paymentRepoStub) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	if payment, ok := m.payments[id]; ok {
		copy := *payment
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *paymentRepoStub) GetByOrderRef(ctx context.Context, orderRef string) (*models.Payment, error) {
	for _, payment := range m.payments {
		if payment.OrderRef == orderRef {
			copy := *payment
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *paymentRepoStub) ListForStudent(ctx context.Context, studentID string) ([]models.Payment, error) {
	result := make([]models.Payment, 0)
	for _, payment := range m.payments {
		if payment.StudentID == studentID {
			result = append(result, *payment)
		}
	}
	return result, nil
}

func (m *paymentRepoStub) HasSuccessfulPayment(ctx context.Context, studentID string, feeType models.FeeType) (bool, error) {
	for _, payment := range m.payments {
		if payment.StudentID == studentID && payment.FeeType == feeType && payment.Status == models.PaymentStatusSuccess {
			return true, nil
		}
	}
	return false, nil
}

func (m *paymentRepoStub) Settle(ctx context.Context, id string, status models.PaymentStatus) error {
	payment, ok := m.payments[id]
	if !ok || payment.Status != models.PaymentStatusPending {
		return sql.ErrNoRows
	}
	payment.Status = status
	return nil
}

func newPaymentServiceForTest(repo *paymentRepoStub) *PaymentService {
	return NewPaymentService(repo, nil, PaymentServiceConfig{
		FeeEnabled:      true,
		RegistrationFee: 1000,
		DiscountAmount:  200,
	})
}

func TestPaymentServiceGetFee(t *testing.T) {
	svc := newPaymentServiceForTest(newPaymentRepoStub())

	fee := svc.GetFee(context.Background())
	require.True(t, fee.FeeEnabled)
	require.Equal(t, int64(1000), fee.ActualFee)
	require.Equal(t, int64(200), fee.DiscountAmount)
	require.Equal(t, int64(800), fee.FinalFee)
}

func TestPaymentServiceCreateOrder(t *testing.T) {
	repo := newPaymentRepoStub()
	svc := newPaymentServiceForTest(repo)

	payment, err := svc.CreateOrder(context.Background(), "student-1", dto.CreateOrderRequest{
		FeeType: models.FeeTypeRegistration,
		Amount:  800,
	})
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPending, payment.Status)
	require.NotEmpty(t, payment.OrderRef)
}

func TestPaymentServiceCreateOrderAmountMustMatchFee(t *testing.T) {
	svc := newPaymentServiceForTest(newPaymentRepoStub())

	_, err := svc.CreateOrder(context.Background(), "student-1", dto.CreateOrderRequest{
		FeeType: models.FeeTypeRegistration,
		Amount:  1000,
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceCreateOrderRefusedWhenAlreadyPaid(t *testing.T) {
	repo := newPaymentRepoStub()
	repo.payments["old"] = &models.Payment{
		ID: "old", StudentID: "student-1",
		FeeType: models.FeeTypeRegistration,
		Status:  models.PaymentStatusSuccess,
	}
	svc := newPaymentServiceForTest(repo)

	_, err := svc.CreateOrder(context.Background(), "student-1", dto.CreateOrderRequest{
		FeeType: models.FeeTypeRegistration,
		Amount:  800,
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceConfirmSettlesOnce(t *testing.T) {
	repo := newPaymentRepoStub()
	svc := newPaymentServiceForTest(repo)

	payment, err := svc.CreateOrder(context.Background(), "student-1", dto.CreateOrderRequest{
		FeeType: models.FeeTypeRegistration,
		Amount:  800,
	})
	require.NoError(t, err)

	settled, err := svc.Confirm(context.Background(), dto.ConfirmPaymentRequest{
		OrderRef: payment.OrderRef,
		Status:   models.PaymentStatusSuccess,
	})
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusSuccess, settled.Status)

	_, err = svc.Confirm(context.Background(), dto.ConfirmPaymentRequest{
		OrderRef: payment.OrderRef,
		Status:   models.PaymentStatusFailed,
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceReceipt(t *testing.T) {
	repo := newPaymentRepoStub()
	repo.payments["pay-9"] = &models.Payment{
		ID: "pay-9", StudentID: "student-1",
		FeeType:   models.FeeTypeRegistration,
		Amount:    800,
		Status:    models.PaymentStatusSuccess,
		OrderRef:  "order-9",
		UpdatedAt: time.Now().UTC(),
	}
	svc := newPaymentServiceForTest(repo)

	pdf, err := svc.Receipt(context.Background(), "student-1", "pay-9")
	require.NoError(t, err)
	require.NotEmpty(t, pdf)

	_, err = svc.Receipt(context.Background(), "student-2", "pay-9")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceReceiptRequiresSuccess(t *testing.T) {
	repo := newPaymentRepoStub()
	repo.payments["pay-9"] = &models.Payment{
		ID: "pay-9", StudentID: "student-1",
		FeeType:  models.FeeTypeRegistration,
		Amount:   800,
		Status:   models.PaymentStatusPending,
		OrderRef: "order-9",
	}
	svc := newPaymentServiceForTest(repo)

	_, err := svc.Receipt(context.Background(), "student-1", "pay-9")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
