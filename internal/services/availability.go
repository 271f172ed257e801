package services

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
)

const (
	defaultAvailabilityDays = 30
	maxAvailabilityDays     = 90
)

// ComputeAvailability derives remaining capacity per slot from the booked
// participant counts. Cancelled slots are skipped and the result is ordered by start.
func ComputeAvailability(schedules []models.TourSchedule, booked map[uuid.UUID]int, now time.Time) []models.SlotAvailability {
	slots := make([]models.SlotAvailability, 0, len(schedules))

	for _, s := range schedules {
		if s.Status == models.ScheduleStatusCancelled {
			continue
		}

		taken := booked[s.ID]
		remaining := s.Capacity - taken
		if remaining < 0 {
			remaining = 0
		}

		slots = append(slots, models.SlotAvailability{
			ScheduleID: s.ID,
			StartsAt:   s.StartsAt,
			EndsAt:     s.EndsAt,
			Status:     s.Status,
			Capacity:   s.Capacity,
			Booked:     taken,
			Remaining:  remaining,
			Available:  s.Status == models.ScheduleStatusScheduled && s.StartsAt.After(now) && remaining > 0,
		})
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].StartsAt.Before(slots[j].StartsAt)
	})

	return slots
}

// AvailabilityWindow resolves the inclusive [from, to] calendar range of an
// availability query into the half-open instant range [start, end).
// Zero dates take the defaults relative to now. Calendar days are UTC days.
func AvailabilityWindow(from, to, now time.Time) (time.Time, time.Time, error) {
	if from.IsZero() {
		from = now
	}
	from = startOfDay(from)

	if to.IsZero() {
		to = from.AddDate(0, 0, defaultAvailabilityDays)
	}
	to = startOfDay(to)

	if to.Before(from) {
		return time.Time{}, time.Time{}, models.NewValidationError("to", "must not be before from")
	}
	if to.Sub(from) > maxAvailabilityDays*24*time.Hour {
		return time.Time{}, time.Time{}, models.NewValidationError("to", "range must not exceed 90 days")
	}

	return from, to.AddDate(0, 0, 1), nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
