package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeGateway implements Gateway with the Stripe API
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway creates a gateway from a secret key and webhook signing secret
func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)

	return &StripeGateway{
		api:           api,
		webhookSecret: webhookSecret,
	}
}

// CreatePaymentIntent creates a PaymentIntent with automatic payment methods
func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

// Refund refunds the full captured amount of a PaymentIntent
func (g *StripeGateway) Refund(ctx context.Context, paymentIntentID string) (*Refund, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx

	r, err := g.api.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}

	return &Refund{ID: r.ID, Status: string(r.Status)}, nil
}

// stripeObject holds the event object fields for PaymentIntents and Charges
type stripeObject struct {
	ID               string `json:"id"`
	Object           string `json:"object"`
	PaymentIntent    string `json:"payment_intent"`
	AmountRefunded   int64  `json:"amount_refunded"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

// ParseWebhook verifies the Stripe-Signature header and extracts the payment intent reference
func (g *StripeGateway) ParseWebhook(payload []byte, signatureHeader string) (*Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{
		ID:      evt.ID,
		Type:    string(evt.Type),
		Created: time.Unix(evt.Created, 0),
	}
	if evt.Data == nil || len(evt.Data.Raw) == 0 {
		return out, nil
	}

	var obj stripeObject
	if err := json.Unmarshal(evt.Data.Raw, &obj); err != nil {
		return nil, fmt.Errorf("failed to decode event object: %w", err)
	}

	switch obj.Object {
	case "payment_intent":
		out.PaymentIntentID = obj.ID
		if obj.LastPaymentError != nil {
			out.FailureMessage = obj.LastPaymentError.Message
		}
	case "charge":
		out.PaymentIntentID = obj.PaymentIntent
		out.AmountRefunded = obj.AmountRefunded
	}

	return out, nil
}
