package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/database"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/pkg/payment"
	"github.com/sirupsen/logrus"
)

// PaymentService creates provider payment intents and applies webhook events
type PaymentService struct {
	payments PaymentStore
	orders   OrderStore
	bookings BookingStore
	gateway  payment.Gateway
	refunds  *refunder
	events   PaymentEventLog // nil disables the webhook ledger
	currency string
	logger   *logrus.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	payments PaymentStore,
	orders OrderStore,
	bookings BookingStore,
	gateway payment.Gateway,
	currency string,
	logger *logrus.Logger,
) *PaymentService {
	if currency == "" {
		currency = "eur"
	}
	return &PaymentService{
		payments: payments,
		orders:   orders,
		bookings: bookings,
		gateway:  gateway,
		refunds:  &refunder{payments: payments, gateway: gateway, logger: logger},
		currency: strings.ToLower(currency),
		logger:   logger,
	}
}

// ============================================================================
// PAYMENT CREATION
// ============================================================================

// CreateForOrder starts payment of the actor's pending order
func (s *PaymentService) CreateForOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.PaymentIntentResponse, error) {
	order, err := requireFound(s.orders.GetByID(orderID))
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.UserID {
		return nil, models.ErrForbidden
	}
	if order.Status != models.OrderStatusPending || !awaitingPayment(order.PaymentStatus) {
		return nil, models.ErrInvalidStatus
	}

	p := &models.Payment{
		OrderID:     uuid.NullUUID{UUID: order.ID, Valid: true},
		UserID:      actor.UserID,
		AmountCents: order.TotalCents,
	}
	return s.start(ctx, p, "CheeseMap order "+order.OrderNumber, map[string]string{
		"order_id": order.ID.String(),
		"user_id":  actor.UserID.String(),
	})
}

// CreateForBooking starts payment of the actor's pending booking
func (s *PaymentService) CreateForBooking(ctx context.Context, actor Actor, bookingID uuid.UUID) (*models.PaymentIntentResponse, error) {
	booking, err := requireFound(s.bookings.GetByID(bookingID))
	if err != nil {
		return nil, err
	}
	if booking.UserID != actor.UserID {
		return nil, models.ErrForbidden
	}
	if booking.Status != models.BookingStatusPending || !awaitingPayment(booking.PaymentStatus) {
		return nil, models.ErrInvalidStatus
	}

	description := "CheeseMap tour booking"
	if booking.TourTitle != nil {
		description = "CheeseMap tour: " + *booking.TourTitle
	}

	p := &models.Payment{
		BookingID:   uuid.NullUUID{UUID: booking.ID, Valid: true},
		UserID:      actor.UserID,
		AmountCents: booking.TotalCents,
	}
	return s.start(ctx, p, description, map[string]string{
		"booking_id": booking.ID.String(),
		"user_id":    actor.UserID.String(),
	})
}

// start creates the provider intent and records the pending payment
func (s *PaymentService) start(ctx context.Context, p *models.Payment, description string, metadata map[string]string) (*models.PaymentIntentResponse, error) {
	if p.AmountCents <= 0 {
		return nil, models.NewValidationError("amount", "nothing to pay")
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, payment.IntentRequest{
		AmountCents: p.AmountCents,
		Currency:    s.currency,
		Description: description,
		Metadata:    metadata,
	})
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id":      p.UserID,
			"amount_cents": p.AmountCents,
		}).WithError(err).Error("Failed to create payment intent")
		return nil, fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}

	p.Provider = models.PaymentProviderStripe
	p.ProviderPaymentID = intent.ID
	p.Currency = s.currency
	p.Status = models.PaymentStatusPending
	if err := s.payments.Create(p); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id":          p.ID,
		"provider_payment_id": intent.ID,
		"amount_cents":        p.AmountCents,
	}).Info("Payment intent created")

	return &models.PaymentIntentResponse{
		PaymentID:    p.ID,
		ClientSecret: intent.ClientSecret,
		AmountCents:  p.AmountCents,
		Currency:     p.Currency,
	}, nil
}

// Get returns a payment to its payer or an admin
func (s *PaymentService) Get(actor Actor, id uuid.UUID) (*models.Payment, error) {
	p, err := requireFound(s.payments.GetByID(id))
	if err != nil {
		return nil, err
	}
	if p.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	return p, nil
}

func awaitingPayment(state models.PaymentState) bool {
	return state == models.PaymentStateUnpaid || state == models.PaymentStateFailed
}

// ============================================================================
// WEBHOOK
// ============================================================================

// SetEventLog enables the webhook event ledger
func (s *PaymentService) SetEventLog(events PaymentEventLog) {
	s.events = events
}

// Events returns the webhook history of a payment (admin only)
func (s *PaymentService) Events(ctx context.Context, actor Actor, paymentID uuid.UUID) ([]*models.PaymentEvent, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	if _, err := requireFound(s.payments.GetByID(paymentID)); err != nil {
		return nil, err
	}
	if s.events == nil {
		return []*models.PaymentEvent{}, nil
	}
	return s.events.ListByPayment(ctx, paymentID)
}

// HandleWebhook verifies a provider event and applies it. Unknown intents and
// unhandled event types are acknowledged; only signature and storage failures
// return an error. With the ledger enabled, events already processed are
// skipped and every delivery is recorded.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}

	entry := s.logger.WithFields(logrus.Fields{
		"event_id":            event.ID,
		"event_type":          event.Type,
		"provider_payment_id": event.PaymentIntentID,
	})

	if s.events != nil && event.ID != "" {
		done, err := s.events.IsProcessed(ctx, event.ID)
		if err != nil {
			return err
		}
		if done {
			entry.Info("Duplicate webhook delivery ignored")
			return nil
		}
	}

	outcome, paymentID, err := s.applyEvent(ctx, event, entry)

	ledger := &models.PaymentEvent{
		ProviderEventID:   event.ID,
		EventType:         event.Type,
		ProviderPaymentID: models.NewNullString(event.PaymentIntentID),
		PaymentID:         paymentID,
		Outcome:           outcome,
	}
	if err != nil {
		ledger.Outcome = models.EventOutcomeFailed
		ledger.ErrorMessage = models.NewNullString(err.Error())
	}
	return s.recordEvent(ctx, ledger, err)
}

// applyEvent dispatches one event and returns the ledger outcome with the local payment it touched
func (s *PaymentService) applyEvent(ctx context.Context, event *payment.Event, entry *logrus.Entry) (string, uuid.NullUUID, error) {
	var (
		none    uuid.NullUUID
		outcome *database.WebhookOutcome
		err     error
	)
	switch event.Type {
	case payment.EventPaymentSucceeded:
		paidAt := event.Created
		if paidAt.IsZero() {
			paidAt = time.Now()
		}
		outcome, err = s.payments.ApplySucceeded(event.PaymentIntentID, paidAt)
	case payment.EventPaymentFailed:
		outcome, err = s.payments.ApplyFailed(event.PaymentIntentID, event.FailureMessage)
	case payment.EventChargeRefunded:
		outcome, err = s.payments.ApplyRefund(event.PaymentIntentID, event.AmountRefunded)
	default:
		entry.Info("Ignoring unhandled webhook event")
		return models.EventOutcomeIgnored, none, nil
	}
	if err != nil {
		entry.WithError(err).Error("Failed to apply webhook event")
		return models.EventOutcomeFailed, none, err
	}

	if outcome == nil || outcome.Payment == nil {
		entry.Warn("Webhook for unknown payment intent")
		return models.EventOutcomeUnknownIntent, none, nil
	}
	paymentID := uuid.NullUUID{UUID: outcome.Payment.ID, Valid: true}
	if outcome.Changed {
		entry.WithField("payment_status", outcome.Payment.Status).Info("Webhook event applied")
	}

	// A replay still refunds while the money sits on a closed order or booking.
	// Refund errors fail the event so the provider redelivers it.
	if outcome.Orphaned {
		entry.Warn("Payment succeeded for an order or booking that is no longer payable, refunding")
		if err := s.refunds.refund(ctx, outcome.Payment); err != nil {
			entry.WithError(err).Error("Failed to refund orphaned payment")
			return models.EventOutcomeFailed, paymentID, err
		}
		return models.EventOutcomeApplied, paymentID, nil
	}

	if !outcome.Changed {
		entry.Info("Webhook event already applied")
		return models.EventOutcomeAlreadyApplied, paymentID, nil
	}
	return models.EventOutcomeApplied, paymentID, nil
}

// recordEvent writes the ledger entry; applyErr is returned unchanged so the provider retries
func (s *PaymentService) recordEvent(ctx context.Context, ev *models.PaymentEvent, applyErr error) error {
	if s.events == nil || ev.ProviderEventID == "" {
		return applyErr
	}
	if err := s.events.Record(ctx, ev); err != nil {
		if applyErr != nil {
			return applyErr
		}
		return err
	}
	return applyErr
}
