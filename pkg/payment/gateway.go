package payment

import (
	"context"
	"errors"
	"time"
)

// Event types the marketplace reacts to
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
	EventChargeRefunded   = "charge.refunded"
)

// ErrInvalidSignature is returned when a webhook payload fails verification
var ErrInvalidSignature = errors.New("invalid webhook signature")

// IntentRequest describes a charge to prepare for client-side confirmation
type IntentRequest struct {
	AmountCents int64
	Currency    string
	Description string
	Metadata    map[string]string
}

// Intent is a provider payment intent
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Refund is a provider refund
type Refund struct {
	ID     string
	Status string
}

// Event is a verified provider webhook event reduced to the fields the marketplace uses
type Event struct {
	ID              string
	Type            string
	PaymentIntentID string
	// AmountRefunded is cumulative, set for charge.refunded
	AmountRefunded int64
	FailureMessage string
	Created        time.Time
}

// Gateway is the payment provider boundary
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	Refund(ctx context.Context, paymentIntentID string) (*Refund, error)
	ParseWebhook(payload []byte, signatureHeader string) (*Event, error)
}
