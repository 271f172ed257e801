package services

import (
	"testing"
	"time"

	"github.com/shadikamal997/cheesemap-sub001/internal/database"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronService_RunNow_ExpireUnpaid(t *testing.T) {
	logger, hook := newTestLogger()
	bookings := newFakeBookingStore()
	bookings.expired = 2
	orders := newFakeOrderStore()
	orders.expired = 1

	svc := NewCronService(bookings, orders, newFakeTokenStore(), nil, 45, logger)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.RunNow(JobExpireUnpaid))

	want := now.Add(-45 * time.Minute)
	assert.Equal(t, want, bookings.expireCut)
	assert.Equal(t, want, orders.expireCut)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Expired unpaid holds", entry.Message)
	assert.Equal(t, int64(2), entry.Data["bookings"])
	assert.Equal(t, int64(1), entry.Data["orders"])
}

func TestCronService_DefaultHold(t *testing.T) {
	logger, _ := newTestLogger()
	bookings := newFakeBookingStore()
	orders := newFakeOrderStore()

	svc := NewCronService(bookings, orders, newFakeTokenStore(), nil, 0, logger)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.RunNow(JobExpireUnpaid))
	assert.Equal(t, now.Add(-30*time.Minute), bookings.expireCut)
}

func TestCronService_RunNow_CompleteSchedules(t *testing.T) {
	logger, hook := newTestLogger()
	bookings := newFakeBookingStore()
	bookings.completion = database.CompletionResult{Schedules: 1, Bookings: 3, Stamps: 3}

	svc := NewCronService(bookings, newFakeOrderStore(), newFakeTokenStore(), nil, 30, logger)
	require.NoError(t, svc.RunNow(JobCompleteSchedules))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Completed past tour schedules", entry.Message)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
}

func TestCronService_RunNow_Cleanup(t *testing.T) {
	logger, hook := newTestLogger()
	svc := NewCronService(newFakeBookingStore(), newFakeOrderStore(), newFakeTokenStore(), nil, 30, logger)

	require.NoError(t, svc.RunNow(JobCleanup))
	assert.Equal(t, "Cleanup finished", hook.LastEntry().Message)
}

func TestCronService_RunNow_Unknown(t *testing.T) {
	logger, _ := newTestLogger()
	svc := NewCronService(newFakeBookingStore(), newFakeOrderStore(), newFakeTokenStore(), nil, 30, logger)

	assert.ErrorIs(t, svc.RunNow("make_cheese"), ErrUnknownJob)
}

func TestCronService_StartAndStatus(t *testing.T) {
	logger, _ := newTestLogger()
	svc := NewCronService(newFakeBookingStore(), newFakeOrderStore(), newFakeTokenStore(), nil, 30, logger)

	require.NoError(t, svc.Start())
	defer svc.Stop()

	status := svc.GetJobStatus()
	assert.Equal(t, 3, status["job_count"])
	assert.Equal(t, true, status["running"])

	names := []string{}
	for _, job := range status["jobs"].([]map[string]interface{}) {
		names = append(names, job["name"].(string))
	}
	assert.ElementsMatch(t, []string{JobExpireUnpaid, JobCompleteSchedules, JobCleanup}, names)
}
