package models

import (
	"time"

	"github.com/google/uuid"
)

// Outcomes recorded for each provider webhook event
const (
	EventOutcomeApplied        = "applied"
	EventOutcomeAlreadyApplied = "already_applied"
	EventOutcomeUnknownIntent  = "unknown_intent"
	EventOutcomeIgnored        = "ignored"
	EventOutcomeFailed         = "failed"
)

// PaymentEvent is the ledger entry for one provider webhook delivery
type PaymentEvent struct {
	ID                uuid.UUID     `db:"id" json:"id"`
	ProviderEventID   string        `db:"provider_event_id" json:"provider_event_id"`
	EventType         string        `db:"event_type" json:"event_type"`
	ProviderPaymentID NullString    `db:"provider_payment_id" json:"provider_payment_id"`
	PaymentID         uuid.NullUUID `db:"payment_id" json:"payment_id"`
	Outcome           string        `db:"outcome" json:"outcome"`
	ErrorMessage      NullString    `db:"error_message" json:"error_message"`
	Attempts          int           `db:"attempts" json:"attempts"`
	ReceivedAt        time.Time     `db:"received_at" json:"received_at"`
	ProcessedAt       time.Time     `db:"processed_at" json:"processed_at"`
}
