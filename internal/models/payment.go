package models

import "time"

// PaymentStatus tracks the lifecycle of a fee payment order.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// FeeType identifies which fee a payment settles.
type FeeType string

const (
	FeeTypeRegistration FeeType = "registration"
)

// Payment records a student fee payment order and its outcome.
type Payment struct {
	ID        string        `db:"id" json:"id"`
	StudentID string        `db:"student_id" json:"student_id"`
	FeeType   FeeType       `db:"fee_type" json:"fee_type"`
	Amount    int64         `db:"amount" json:"amount"`
	Status    PaymentStatus `db:"status" json:"status"`
	OrderRef  string        `db:"order_ref" json:"order_ref"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// FeeSchedule describes the registration fee as presented to the student.
type FeeSchedule struct {
	FeeEnabled     bool  `json:"fee_enabled"`
	ActualFee      int64 `json:"actual_fee"`
	DiscountAmount int64 `json:"discount_amount"`
	FinalFee       int64 `json:"final_fee"`
}
