package services

import (
	"context"
	"fmt"

	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/pkg/payment"
	"github.com/sirupsen/logrus"
)

// refunder requests provider refunds for succeeded payments
type refunder struct {
	payments PaymentStore
	gateway  payment.Gateway
	logger   *logrus.Logger
}

// refund asks the provider to refund p and marks it refund_pending.
// The webhook for charge.refunded completes the bookkeeping.
func (r *refunder) refund(ctx context.Context, p *models.Payment) error {
	if _, err := r.gateway.Refund(ctx, p.ProviderPaymentID); err != nil {
		r.logger.WithFields(logrus.Fields{
			"payment_id":          p.ID,
			"provider_payment_id": p.ProviderPaymentID,
		}).WithError(err).Error("Refund request failed")
		return fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}

	if err := r.payments.MarkRefundPending(p.ID); err != nil {
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"payment_id":   p.ID,
		"amount_cents": p.AmountCents,
	}).Info("Refund requested")

	return nil
}

// refundError renders a refund failure for API responses
func refundError(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
