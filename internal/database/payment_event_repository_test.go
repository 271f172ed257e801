package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaymentEventRepository(t *testing.T) (*PaymentEventRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlxDB, mock := newMockDB(t)
	logger, _ := test.NewNullLogger()
	return NewPaymentEventRepository(sqlxDB, logger), mock
}

func TestPaymentEventRepository_Record(t *testing.T) {
	t.Run("Upserts And Returns Attempts", func(t *testing.T) {
		repo, mock := newPaymentEventRepository(t)
		paymentID := uuid.New()
		now := time.Now()

		ev := &models.PaymentEvent{
			ProviderEventID:   "evt_1",
			EventType:         "payment_intent.succeeded",
			ProviderPaymentID: models.NewNullString("pi_1"),
			PaymentID:         uuid.NullUUID{UUID: paymentID, Valid: true},
			Outcome:           models.EventOutcomeApplied,
		}

		mock.ExpectQuery(`INSERT INTO payment_events .* ON CONFLICT \(provider_event_id\) DO UPDATE`).
			WithArgs(sqlmock.AnyArg(), "evt_1", "payment_intent.succeeded", "pi_1",
				sqlmock.AnyArg(), models.EventOutcomeApplied, nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "attempts", "received_at", "processed_at"}).
				AddRow(uuid.NewString(), 2, now.Add(-time.Minute), now))

		require.NoError(t, repo.Record(context.Background(), ev))
		assert.Equal(t, 2, ev.Attempts)
		assert.NotEqual(t, uuid.Nil, ev.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		repo, mock := newPaymentEventRepository(t)

		mock.ExpectQuery(`INSERT INTO payment_events`).WillReturnError(fmt.Errorf("connection refused"))

		err := repo.Record(context.Background(), &models.PaymentEvent{ProviderEventID: "evt_2", Outcome: models.EventOutcomeIgnored})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to record payment event")

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nil Event", func(t *testing.T) {
		repo, _ := newPaymentEventRepository(t)
		assert.Error(t, repo.Record(context.Background(), nil))
	})
}

func TestPaymentEventRepository_IsProcessed(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  bool
	}{
		{"Seen", 1, true},
		{"Unseen Or Failed", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newPaymentEventRepository(t)

			mock.ExpectQuery(`SELECT COUNT\(\*\) FROM payment_events`).
				WithArgs("evt_1", models.EventOutcomeFailed).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.count))

			got, err := repo.IsProcessed(context.Background(), "evt_1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPaymentEventRepository_ListByPayment(t *testing.T) {
	repo, mock := newPaymentEventRepository(t)
	paymentID := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "provider_event_id", "event_type", "provider_payment_id", "payment_id",
		"outcome", "error_message", "attempts", "received_at", "processed_at",
	}).
		AddRow(uuid.NewString(), "evt_1", "payment_intent.succeeded", "pi_1", paymentID.String(),
			models.EventOutcomeApplied, nil, 1, now, now).
		AddRow(uuid.NewString(), "evt_2", "charge.refunded", "pi_1", paymentID.String(),
			models.EventOutcomeApplied, nil, 1, now, now)

	mock.ExpectQuery(`FROM payment_events\s+WHERE payment_id = \$1`).
		WithArgs(paymentID).
		WillReturnRows(rows)

	events, err := repo.ListByPayment(context.Background(), paymentID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "evt_1", events[0].ProviderEventID)
	assert.Equal(t, "pi_1", events[1].ProviderPaymentID.String)
	assert.Equal(t, paymentID, events[1].PaymentID.UUID)

	assert.NoError(t, mock.ExpectationsWereMet())
}
