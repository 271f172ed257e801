package payment

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func signedHeader(t *testing.T, payload []byte) string {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestParseWebhook(t *testing.T) {
	gateway := NewStripeGateway("sk_test_unused", testWebhookSecret)

	t.Run("Payment intent succeeded", func(t *testing.T) {
		payload := []byte(`{
			"id": "evt_1", "object": "event", "type": "payment_intent.succeeded", "created": 1760000000,
			"data": {"object": {"id": "pi_123", "object": "payment_intent", "status": "succeeded"}}
		}`)

		evt, err := gateway.ParseWebhook(payload, signedHeader(t, payload))
		require.NoError(t, err)
		assert.Equal(t, "evt_1", evt.ID)
		assert.Equal(t, EventPaymentSucceeded, evt.Type)
		assert.Equal(t, "pi_123", evt.PaymentIntentID)
		assert.Equal(t, int64(1760000000), evt.Created.Unix())
	})

	t.Run("Payment failed carries message", func(t *testing.T) {
		payload := []byte(`{
			"id": "evt_2", "object": "event", "type": "payment_intent.payment_failed", "created": 1760000000,
			"data": {"object": {"id": "pi_456", "object": "payment_intent",
				"last_payment_error": {"message": "Your card was declined."}}}
		}`)

		evt, err := gateway.ParseWebhook(payload, signedHeader(t, payload))
		require.NoError(t, err)
		assert.Equal(t, "pi_456", evt.PaymentIntentID)
		assert.Equal(t, "Your card was declined.", evt.FailureMessage)
	})

	t.Run("Charge refunded maps to payment intent", func(t *testing.T) {
		payload := []byte(`{
			"id": "evt_3", "object": "event", "type": "charge.refunded", "created": 1760000000,
			"data": {"object": {"id": "ch_1", "object": "charge", "payment_intent": "pi_789",
				"amount": 2400, "amount_refunded": 2400, "refunded": true}}
		}`)

		evt, err := gateway.ParseWebhook(payload, signedHeader(t, payload))
		require.NoError(t, err)
		assert.Equal(t, EventChargeRefunded, evt.Type)
		assert.Equal(t, "pi_789", evt.PaymentIntentID)
		assert.Equal(t, int64(2400), evt.AmountRefunded)
	})

	t.Run("Bad signature", func(t *testing.T) {
		payload := []byte(`{"id": "evt_4", "object": "event", "type": "payment_intent.succeeded", "data": {"object": {}}}`)

		_, err := gateway.ParseWebhook(payload, "t=1,v1=deadbeef")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidSignature))
	})

	t.Run("Tampered payload", func(t *testing.T) {
		payload := []byte(`{"id": "evt_5", "object": "event", "type": "payment_intent.succeeded", "data": {"object": {"id": "pi_1", "object": "payment_intent"}}}`)
		header := signedHeader(t, payload)
		tampered := []byte(`{"id": "evt_5", "object": "event", "type": "payment_intent.succeeded", "data": {"object": {"id": "pi_2", "object": "payment_intent"}}}`)

		_, err := gateway.ParseWebhook(tampered, header)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
}
