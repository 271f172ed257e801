package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the provider-side state of a payment
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusSucceeded         PaymentStatus = "succeeded"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefundPending     PaymentStatus = "refund_pending"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

// PaymentProviderStripe is the only provider wired today
const PaymentProviderStripe = "stripe"

// Payment is one provider payment attempt for an order or a booking
type Payment struct {
	ID                  uuid.UUID     `db:"id" json:"id"`
	OrderID             uuid.NullUUID `db:"order_id" json:"order_id"`
	BookingID           uuid.NullUUID `db:"booking_id" json:"booking_id"`
	UserID              uuid.UUID     `db:"user_id" json:"user_id"`
	Provider            string        `db:"provider" json:"provider"`
	ProviderPaymentID   string        `db:"provider_payment_id" json:"provider_payment_id"`
	AmountCents         int64         `db:"amount_cents" json:"amount_cents"`
	Currency            string        `db:"currency" json:"currency"`
	Status              PaymentStatus `db:"status" json:"status"`
	AmountRefundedCents int64         `db:"amount_refunded_cents" json:"amount_refunded_cents"`
	FailureMessage      NullString    `db:"failure_message" json:"failure_message"`
	PaidAt              NullTime      `db:"paid_at" json:"paid_at"`
	CreatedAt           time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updated_at"`
}

// CreateOrderPaymentRequest starts payment of an order
type CreateOrderPaymentRequest struct {
	OrderID uuid.UUID `json:"order_id" binding:"required"`
}

// CreateBookingPaymentRequest starts payment of a booking
type CreateBookingPaymentRequest struct {
	BookingID uuid.UUID `json:"booking_id" binding:"required"`
}

// PaymentIntentResponse hands the client secret to the browser checkout
type PaymentIntentResponse struct {
	PaymentID    uuid.UUID `json:"payment_id"`
	ClientSecret string    `json:"client_secret"`
	AmountCents  int64     `json:"amount_cents"`
	Currency     string    `json:"currency"`
}
