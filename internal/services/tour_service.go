package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/sirupsen/logrus"
)

// TourService manages tours, their schedules and slot availability
type TourService struct {
	tours      TourStore
	businesses *BusinessService
	now        func() time.Time
	logger     *logrus.Logger
}

// NewTourService creates a new TourService
func NewTourService(tours TourStore, businesses *BusinessService, logger *logrus.Logger) *TourService {
	return &TourService{
		tours:      tours,
		businesses: businesses,
		now:        time.Now,
		logger:     logger,
	}
}

// ============================================================================
// TOURS
// ============================================================================

// CreateTour offers a new tour at a verified business
func (s *TourService) CreateTour(actor Actor, businessID uuid.UUID, req *models.CreateTourRequest) (*models.Tour, error) {
	if _, err := s.businesses.RequireSeller(actor, businessID); err != nil {
		return nil, err
	}

	t := &models.Tour{
		BusinessID:              businessID,
		Title:                   strings.TrimSpace(req.Title),
		Description:             models.NewNullString(req.Description),
		DurationMinutes:         req.DurationMinutes,
		PriceCents:              req.PriceCents,
		MaxGroupSize:            req.MaxGroupSize,
		Languages:               models.StringArray(req.Languages),
		CancellationCutoffHours: models.DefaultCancellationCutoffHours,
	}
	if t.Languages == nil {
		t.Languages = models.StringArray{"fr"}
	}
	if req.CancellationCutoffHours != nil {
		t.CancellationCutoffHours = *req.CancellationCutoffHours
	}

	if err := s.tours.CreateTour(t); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"tour_id":     t.ID,
		"business_id": businessID,
		"price_cents": t.PriceCents,
	}).Info("Tour created")

	return t, nil
}

// GetTour returns an active tour
func (s *TourService) GetTour(id uuid.UUID) (*models.Tour, error) {
	t, err := requireFound(s.tours.GetTour(id))
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, models.ErrNotFound
	}
	return t, nil
}

// ListTours lists active tours, optionally of one business
func (s *TourService) ListTours(businessID uuid.NullUUID, limit, offset int) ([]*models.Tour, error) {
	limit, offset = clampPage(limit, offset)
	return s.tours.ListTours(businessID, limit, offset)
}

// UpdateTour applies a partial update
func (s *TourService) UpdateTour(actor Actor, id uuid.UUID, req *models.UpdateTourRequest) (*models.Tour, error) {
	t, err := s.ownedTour(actor, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		t.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		t.Description = models.NewNullString(*req.Description)
	}
	if req.DurationMinutes != nil {
		t.DurationMinutes = *req.DurationMinutes
	}
	if req.PriceCents != nil {
		t.PriceCents = *req.PriceCents
	}
	if req.MaxGroupSize != nil {
		t.MaxGroupSize = *req.MaxGroupSize
	}
	if req.Languages != nil {
		t.Languages = models.StringArray(req.Languages)
	}
	if req.CancellationCutoffHours != nil {
		t.CancellationCutoffHours = *req.CancellationCutoffHours
	}

	if err := s.tours.UpdateTour(t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeactivateTour withdraws a tour; existing bookings are kept
func (s *TourService) DeactivateTour(actor Actor, id uuid.UUID) error {
	if _, err := s.ownedTour(actor, id); err != nil {
		return err
	}
	return s.tours.DeactivateTour(id)
}

// ownedTour loads an active tour whose business the actor manages
func (s *TourService) ownedTour(actor Actor, id uuid.UUID) (*models.Tour, error) {
	t, err := s.GetTour(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.businesses.RequireOwner(actor, t.BusinessID); err != nil {
		return nil, err
	}
	return t, nil
}

// ============================================================================
// SCHEDULES
// ============================================================================

// CreateSchedule opens a bookable slot in the future
func (s *TourService) CreateSchedule(actor Actor, tourID uuid.UUID, req *models.CreateScheduleRequest) (*models.TourSchedule, error) {
	t, err := s.ownedTour(actor, tourID)
	if err != nil {
		return nil, err
	}
	if !req.StartsAt.After(s.now()) {
		return nil, models.NewValidationError("starts_at", "must be in the future")
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, models.NewValidationError("ends_at", "must be after starts_at")
	}

	schedule := &models.TourSchedule{
		TourID:   t.ID,
		StartsAt: req.StartsAt.UTC(),
		EndsAt:   req.EndsAt.UTC(),
		Capacity: req.Capacity,
	}
	if err := s.tours.CreateSchedule(schedule); err != nil {
		return nil, err
	}

	return schedule, nil
}

// ListSchedules returns the slots of a tour in the inclusive date range,
// cancelled ones included so clients can show them.
func (s *TourService) ListSchedules(tourID uuid.UUID, from, to time.Time) ([]models.TourSchedule, error) {
	if _, err := s.GetTour(tourID); err != nil {
		return nil, err
	}

	start, end, err := AvailabilityWindow(from, to, s.now())
	if err != nil {
		return nil, err
	}

	return s.tours.ListSchedules(tourID, start, end, true)
}

// Availability computes remaining capacity for each slot of a tour in the
// inclusive date range [from, to]
func (s *TourService) Availability(tourID uuid.UUID, from, to time.Time) ([]models.SlotAvailability, error) {
	if _, err := s.GetTour(tourID); err != nil {
		return nil, err
	}

	now := s.now()
	start, end, err := AvailabilityWindow(from, to, now)
	if err != nil {
		return nil, err
	}

	schedules, err := s.tours.ListSchedules(tourID, start, end, false)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(schedules))
	for i := range schedules {
		ids[i] = schedules[i].ID
	}

	booked, err := s.tours.BookedParticipants(ids)
	if err != nil {
		return nil, err
	}

	return ComputeAvailability(schedules, booked, now), nil
}

// scheduleOwner loads a schedule and checks the actor manages its tour
func (s *TourService) scheduleOwner(actor Actor, scheduleID uuid.UUID) (*models.TourSchedule, *models.Tour, error) {
	schedule, err := requireFound(s.tours.GetSchedule(scheduleID))
	if err != nil {
		return nil, nil, err
	}

	t, err := requireFound(s.tours.GetTour(schedule.TourID))
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.businesses.RequireOwner(actor, t.BusinessID); err != nil {
		return nil, nil, err
	}

	return schedule, t, nil
}
