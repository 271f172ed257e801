package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/sirupsen/logrus"
)

// PaymentEventRepository is the webhook event ledger
type PaymentEventRepository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewPaymentEventRepository creates a new payment event repository
func NewPaymentEventRepository(db *sqlx.DB, logger *logrus.Logger) *PaymentEventRepository {
	return &PaymentEventRepository{
		db:     db,
		logger: logger,
	}
}

// Record upserts the ledger entry for a provider event. A redelivery of the
// same event bumps attempts and overwrites the outcome.
func (r *PaymentEventRepository) Record(ctx context.Context, ev *models.PaymentEvent) error {
	if ev == nil {
		return fmt.Errorf("payment event cannot be nil")
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}

	query := `
		INSERT INTO payment_events (
			id, provider_event_id, event_type, provider_payment_id,
			payment_id, outcome, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (provider_event_id) DO UPDATE SET
			outcome       = EXCLUDED.outcome,
			error_message = EXCLUDED.error_message,
			payment_id    = COALESCE(EXCLUDED.payment_id, payment_events.payment_id),
			attempts      = payment_events.attempts + 1,
			processed_at  = NOW()
		RETURNING id, attempts, received_at, processed_at`

	err := r.db.QueryRowxContext(ctx, query,
		ev.ID, ev.ProviderEventID, ev.EventType, ev.ProviderPaymentID,
		ev.PaymentID, ev.Outcome, ev.ErrorMessage,
	).Scan(&ev.ID, &ev.Attempts, &ev.ReceivedAt, &ev.ProcessedAt)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"event_id":   ev.ProviderEventID,
			"event_type": ev.EventType,
		}).Error("Failed to record payment event")
		return fmt.Errorf("failed to record payment event: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"event_id": ev.ProviderEventID,
		"outcome":  ev.Outcome,
		"attempts": ev.Attempts,
	}).Debug("Payment event recorded")

	return nil
}

// IsProcessed reports whether an event was already handled successfully.
// Failed deliveries are not processed so a retry runs them again.
func (r *PaymentEventRepository) IsProcessed(ctx context.Context, providerEventID string) (bool, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM payment_events
		WHERE provider_event_id = $1
		  AND outcome <> $2`

	if err := r.db.GetContext(ctx, &count, query, providerEventID, models.EventOutcomeFailed); err != nil {
		return false, fmt.Errorf("failed to check payment event: %w", err)
	}

	return count > 0, nil
}

// ListByPayment returns the events that touched a payment, oldest first
func (r *PaymentEventRepository) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*models.PaymentEvent, error) {
	events := []*models.PaymentEvent{}
	query := `
		SELECT id, provider_event_id, event_type, provider_payment_id, payment_id,
		       outcome, error_message, attempts, received_at, processed_at
		FROM payment_events
		WHERE payment_id = $1
		ORDER BY received_at ASC`

	if err := r.db.SelectContext(ctx, &events, query, paymentID); err != nil {
		return nil, fmt.Errorf("failed to list payment events: %w", err)
	}

	return events, nil
}
