package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeAvailability(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	full := models.TourSchedule{ID: uuid.New(), StartsAt: now.Add(48 * time.Hour), EndsAt: now.Add(50 * time.Hour), Capacity: 10, Status: models.ScheduleStatusScheduled}
	open := models.TourSchedule{ID: uuid.New(), StartsAt: now.Add(24 * time.Hour), EndsAt: now.Add(26 * time.Hour), Capacity: 10, Status: models.ScheduleStatusScheduled}
	past := models.TourSchedule{ID: uuid.New(), StartsAt: now.Add(-2 * time.Hour), EndsAt: now.Add(-time.Hour), Capacity: 10, Status: models.ScheduleStatusScheduled}
	overbooked := models.TourSchedule{ID: uuid.New(), StartsAt: now.Add(72 * time.Hour), EndsAt: now.Add(74 * time.Hour), Capacity: 4, Status: models.ScheduleStatusScheduled}
	cancelled := models.TourSchedule{ID: uuid.New(), StartsAt: now.Add(30 * time.Hour), EndsAt: now.Add(32 * time.Hour), Capacity: 10, Status: models.ScheduleStatusCancelled}
	completed := models.TourSchedule{ID: uuid.New(), StartsAt: now.Add(-48 * time.Hour), EndsAt: now.Add(-46 * time.Hour), Capacity: 10, Status: models.ScheduleStatusCompleted}

	booked := map[uuid.UUID]int{
		full.ID:       10,
		open.ID:       3,
		past.ID:       1,
		overbooked.ID: 6,
	}

	slots := ComputeAvailability(
		[]models.TourSchedule{full, open, past, overbooked, cancelled, completed},
		booked, now,
	)

	require.Len(t, slots, 5, "cancelled slots are skipped")

	// ordered by start
	assert.Equal(t, completed.ID, slots[0].ScheduleID)
	assert.Equal(t, past.ID, slots[1].ScheduleID)
	assert.Equal(t, open.ID, slots[2].ScheduleID)
	assert.Equal(t, full.ID, slots[3].ScheduleID)
	assert.Equal(t, overbooked.ID, slots[4].ScheduleID)

	assert.False(t, slots[0].Available, "completed")
	assert.Equal(t, 10, slots[0].Remaining)

	assert.False(t, slots[1].Available, "already started")
	assert.Equal(t, 9, slots[1].Remaining)

	assert.True(t, slots[2].Available)
	assert.Equal(t, 3, slots[2].Booked)
	assert.Equal(t, 7, slots[2].Remaining)

	assert.False(t, slots[3].Available, "full")
	assert.Equal(t, 0, slots[3].Remaining)

	assert.False(t, slots[4].Available)
	assert.Equal(t, 0, slots[4].Remaining, "remaining never goes negative")
	assert.Equal(t, 6, slots[4].Booked)
}

func TestComputeAvailability_Empty(t *testing.T) {
	slots := ComputeAvailability(nil, nil, time.Now())
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestAvailabilityWindow(t *testing.T) {
	now := time.Date(2026, 6, 1, 15, 30, 0, 0, time.UTC)
	day := func(m time.Month, d int) time.Time { return time.Date(2026, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name      string
		from, to  time.Time
		wantStart time.Time
		wantEnd   time.Time
		wantErr   bool
	}{
		{name: "defaults", wantStart: day(6, 1), wantEnd: day(7, 2)},
		{name: "single day", from: day(6, 10), to: day(6, 10), wantStart: day(6, 10), wantEnd: day(6, 11)},
		{name: "from only", from: day(6, 10), wantStart: day(6, 10), wantEnd: day(7, 11)},
		{name: "exactly 90 days", from: day(6, 1), to: day(8, 30), wantStart: day(6, 1), wantEnd: day(8, 31)},
		{name: "over 90 days", from: day(6, 1), to: day(8, 31), wantErr: true},
		{name: "to before from", from: day(6, 10), to: day(6, 9), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := AvailabilityWindow(tt.from, tt.to, now)
			if tt.wantErr {
				var vErr *models.ValidationError
				assert.ErrorAs(t, err, &vErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestAvailabilityWindow_LocalClock(t *testing.T) {
	paris := time.FixedZone("CEST", 2*3600)
	day := func(m time.Month, d int) time.Time { return time.Date(2026, m, d, 0, 0, 0, 0, time.UTC) }

	// 01:00 in Paris is still the previous UTC day
	now := time.Date(2026, 6, 2, 1, 0, 0, 0, paris)

	start, end, err := AvailabilityWindow(time.Time{}, day(6, 1), now)
	require.NoError(t, err)
	assert.Equal(t, day(6, 1), start)
	assert.Equal(t, day(6, 2), end)
	assert.Equal(t, time.UTC, start.Location())

	start, end, err = AvailabilityWindow(time.Time{}, time.Time{}, now)
	require.NoError(t, err)
	assert.Equal(t, day(6, 1), start)
	assert.Equal(t, day(7, 2), end)
}

func TestTourService_Availability(t *testing.T) {
	logger, _ := newTestLogger()
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	tours := newFakeTourStore()
	tour := &models.Tour{ID: uuid.New(), BusinessID: uuid.New(), Title: "Cave visit", IsActive: true}
	tours.tours[tour.ID] = tour

	inRange := &models.TourSchedule{ID: uuid.New(), TourID: tour.ID, StartsAt: now.Add(26 * time.Hour), EndsAt: now.Add(28 * time.Hour), Capacity: 8, Status: models.ScheduleStatusScheduled}
	outOfRange := &models.TourSchedule{ID: uuid.New(), TourID: tour.ID, StartsAt: now.AddDate(0, 0, 10), EndsAt: now.AddDate(0, 0, 10).Add(time.Hour), Capacity: 8, Status: models.ScheduleStatusScheduled}
	tours.schedules[inRange.ID] = inRange
	tours.schedules[outOfRange.ID] = outOfRange
	tours.booked[inRange.ID] = 5

	svc := NewTourService(tours, NewBusinessService(newFakeBusinessStore(), nil, nil, logger), logger)
	svc.now = func() time.Time { return now }

	slots, err := svc.Availability(tour.ID, now, now.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, inRange.ID, slots[0].ScheduleID)
	assert.Equal(t, 3, slots[0].Remaining)
	assert.True(t, slots[0].Available)

	// [from 00:00, to+1 00:00)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), tours.listArgs[0])
	assert.Equal(t, time.Date(2026, 6, 4, 0, 0, 0, 0, time.UTC), tours.listArgs[1])

	_, err = svc.Availability(uuid.New(), time.Time{}, time.Time{})
	assert.ErrorIs(t, err, models.ErrNotFound)
}
