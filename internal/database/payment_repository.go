package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
)

const paymentColumns = `id, order_id, booking_id, user_id, provider, provider_payment_id, amount_cents,
		       currency, status, amount_refunded_cents, failure_message, paid_at, created_at, updated_at`

// WebhookOutcome reports what a provider event changed
type WebhookOutcome struct {
	Payment *models.Payment
	// Changed is false when the event was a replay
	Changed bool
	// Orphaned is set when money arrived for an order or booking that is no longer payable
	Orphaned bool
}

// PaymentRepository handles payments and the order/booking updates driven by provider events
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a pending payment attempt
func (r *PaymentRepository) Create(p *models.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = models.PaymentStatusPending
	}

	query := `
		INSERT INTO payments (
			id, order_id, booking_id, user_id, provider, provider_payment_id,
			amount_cents, currency, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowx(query,
		p.ID, p.OrderID, p.BookingID, p.UserID, p.Provider, p.ProviderPaymentID,
		p.AmountCents, p.Currency, p.Status,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByID retrieves a payment
func (r *PaymentRepository) GetByID(id uuid.UUID) (*models.Payment, error) {
	return r.getOne(`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
}

// GetSucceededForOrder returns the captured payment of an order, if any
func (r *PaymentRepository) GetSucceededForOrder(orderID uuid.UUID) (*models.Payment, error) {
	return r.getOne(`SELECT `+paymentColumns+`
		FROM payments
		WHERE order_id = $1 AND status = 'succeeded'
		ORDER BY paid_at DESC
		LIMIT 1`, orderID)
}

// GetSucceededForBooking returns the captured payment of a booking, if any
func (r *PaymentRepository) GetSucceededForBooking(bookingID uuid.UUID) (*models.Payment, error) {
	return r.getOne(`SELECT `+paymentColumns+`
		FROM payments
		WHERE booking_id = $1 AND status = 'succeeded'
		ORDER BY paid_at DESC
		LIMIT 1`, bookingID)
}

func (r *PaymentRepository) getOne(query string, args ...interface{}) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.Get(&p, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

// MarkRefundPending records that a refund was requested from the provider
func (r *PaymentRepository) MarkRefundPending(id uuid.UUID) error {
	_, err := r.db.Exec(`
		UPDATE payments SET status = 'refund_pending', updated_at = NOW()
		WHERE id = $1 AND status = 'succeeded'
	`, id)
	if err != nil {
		return fmt.Errorf("failed to mark refund pending: %w", err)
	}
	return nil
}

// ============================================================================
// WEBHOOK TRANSITIONS
// ============================================================================

// lockByProviderID loads and locks a payment inside tx; nil when unknown
func lockByProviderID(tx *sqlx.Tx, providerPaymentID string) (*models.Payment, error) {
	var p models.Payment
	err := tx.Get(&p, `SELECT `+paymentColumns+` FROM payments WHERE provider_payment_id = $1 FOR UPDATE`, providerPaymentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock payment: %w", err)
	}
	return &p, nil
}

// targetClosed reports whether the order or booking of a succeeded payment was cancelled
// before its money was refunded
func targetClosed(tx *sqlx.Tx, p *models.Payment) (bool, error) {
	var status string
	var err error
	switch {
	case p.OrderID.Valid:
		err = tx.Get(&status, `SELECT status FROM orders WHERE id = $1`, p.OrderID.UUID)
		if err == nil {
			s := models.OrderStatus(status)
			return s == models.OrderStatusCancelled || s == models.OrderStatusRefunded, nil
		}
	case p.BookingID.Valid:
		err = tx.Get(&status, `SELECT status FROM tour_bookings WHERE id = $1`, p.BookingID.UUID)
		if err == nil {
			return models.TourBookingStatus(status) == models.BookingStatusCancelled, nil
		}
	default:
		return false, nil
	}
	if err == sql.ErrNoRows {
		return true, nil
	}
	return false, fmt.Errorf("failed to load payment target: %w", err)
}

// ApplySucceeded marks a payment succeeded and the order paid or the booking confirmed.
// Returns nil for unknown payment intents.
func (r *PaymentRepository) ApplySucceeded(providerPaymentID string, paidAt time.Time) (*WebhookOutcome, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := lockByProviderID(tx, providerPaymentID)
	if err != nil || p == nil {
		return nil, err
	}

	out := &WebhookOutcome{Payment: p}
	if p.Status != models.PaymentStatusPending && p.Status != models.PaymentStatusFailed {
		if p.Status == models.PaymentStatusSucceeded {
			if out.Orphaned, err = targetClosed(tx, p); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	if _, err := tx.Exec(`
		UPDATE payments
		SET status = 'succeeded', paid_at = $1, failure_message = NULL, updated_at = NOW()
		WHERE id = $2
	`, paidAt, p.ID); err != nil {
		return nil, fmt.Errorf("failed to mark payment succeeded: %w", err)
	}
	p.Status = models.PaymentStatusSucceeded
	p.PaidAt = models.NullTime{NullTime: sql.NullTime{Time: paidAt, Valid: true}}
	out.Changed = true

	var result sql.Result
	switch {
	case p.OrderID.Valid:
		result, err = tx.Exec(`
			UPDATE orders SET status = 'paid', payment_status = 'paid', updated_at = NOW()
			WHERE id = $1 AND status = 'pending'
		`, p.OrderID.UUID)
	case p.BookingID.Valid:
		result, err = tx.Exec(`
			UPDATE tour_bookings SET status = 'confirmed', payment_status = 'paid', updated_at = NOW()
			WHERE id = $1 AND status = 'pending'
		`, p.BookingID.UUID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply payment to target: %w", err)
	}
	if result != nil {
		n, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to get rows affected: %w", err)
		}
		out.Orphaned = n == 0
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return out, nil
}

// ApplyFailed records a failed charge. The order or booking stays pending so it can be retried.
func (r *PaymentRepository) ApplyFailed(providerPaymentID, message string) (*WebhookOutcome, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := lockByProviderID(tx, providerPaymentID)
	if err != nil || p == nil {
		return nil, err
	}

	out := &WebhookOutcome{Payment: p}
	if p.Status != models.PaymentStatusPending {
		return out, nil
	}

	if _, err := tx.Exec(`
		UPDATE payments SET status = 'failed', failure_message = $1, updated_at = NOW()
		WHERE id = $2
	`, models.NewNullString(message), p.ID); err != nil {
		return nil, fmt.Errorf("failed to mark payment failed: %w", err)
	}
	p.Status = models.PaymentStatusFailed
	p.FailureMessage = models.NewNullString(message)
	out.Changed = true

	switch {
	case p.OrderID.Valid:
		_, err = tx.Exec(`UPDATE orders SET payment_status = 'failed', updated_at = NOW() WHERE id = $1 AND status = 'pending'`,
			p.OrderID.UUID)
	case p.BookingID.Valid:
		_, err = tx.Exec(`UPDATE tour_bookings SET payment_status = 'failed', updated_at = NOW() WHERE id = $1 AND status = 'pending'`,
			p.BookingID.UUID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply payment failure to target: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return out, nil
}

// ApplyRefund records the cumulative refunded amount of a charge. A full refund marks the
// order refunded (restoring stock if it still held any) or cancels an active booking.
func (r *PaymentRepository) ApplyRefund(providerPaymentID string, amountRefunded int64) (*WebhookOutcome, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := lockByProviderID(tx, providerPaymentID)
	if err != nil || p == nil {
		return nil, err
	}

	out := &WebhookOutcome{Payment: p}
	if amountRefunded <= p.AmountRefundedCents {
		return out, nil
	}

	full := amountRefunded >= p.AmountCents
	status := models.PaymentStatusPartiallyRefunded
	if full {
		status = models.PaymentStatusRefunded
	}

	if _, err := tx.Exec(`
		UPDATE payments SET status = $1, amount_refunded_cents = $2, updated_at = NOW()
		WHERE id = $3
	`, status, amountRefunded, p.ID); err != nil {
		return nil, fmt.Errorf("failed to record refund: %w", err)
	}
	p.Status = status
	p.AmountRefundedCents = amountRefunded
	out.Changed = true

	if full {
		switch {
		case p.OrderID.Valid:
			err = refundOrder(tx, p.OrderID.UUID)
		case p.BookingID.Valid:
			err = refundBooking(tx, p.BookingID.UUID)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return out, nil
}

func refundOrder(tx *sqlx.Tx, orderID uuid.UUID) error {
	var status models.OrderStatus
	if err := tx.Get(&status, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID); err != nil {
		return fmt.Errorf("failed to lock order: %w", err)
	}

	if !status.HoldsStock() {
		_, err := tx.Exec(`UPDATE orders SET payment_status = 'refunded', updated_at = NOW() WHERE id = $1`, orderID)
		if err != nil {
			return fmt.Errorf("failed to mark order refunded: %w", err)
		}
		return nil
	}

	if _, err := tx.Exec(`
		UPDATE orders
		SET status = 'refunded', payment_status = 'refunded',
		    cancellation_reason = $1, cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $2
	`, models.ReasonRefunded, orderID); err != nil {
		return fmt.Errorf("failed to mark order refunded: %w", err)
	}
	if _, err := tx.Exec(restoreOrderStock, orderID); err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}
	return nil
}

func refundBooking(tx *sqlx.Tx, bookingID uuid.UUID) error {
	_, err := tx.Exec(`
		UPDATE tour_bookings
		SET payment_status = 'refunded',
		    status = CASE WHEN status IN ('pending', 'confirmed') THEN 'cancelled' ELSE status END,
		    cancellation_reason = CASE WHEN status IN ('pending', 'confirmed') THEN $1 ELSE cancellation_reason END,
		    cancelled_at = CASE WHEN status IN ('pending', 'confirmed') THEN NOW() ELSE cancelled_at END,
		    updated_at = NOW()
		WHERE id = $2
	`, models.ReasonRefunded, bookingID)
	if err != nil {
		return fmt.Errorf("failed to mark booking refunded: %w", err)
	}
	return nil
}
