package services

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
)

// PassportService manages a consumer's cheese passport
type PassportService struct {
	stamps     PassportStore
	businesses *BusinessService
}

// NewPassportService creates a new PassportService
func NewPassportService(stamps PassportStore, businesses *BusinessService) *PassportService {
	return &PassportService{stamps: stamps, businesses: businesses}
}

// Get returns the actor's stamps with totals
func (s *PassportService) Get(actor Actor) (*models.Passport, error) {
	summary, err := s.stamps.Summary(actor.UserID)
	if err != nil {
		return nil, err
	}
	stamps, err := s.stamps.ListByUser(actor.UserID)
	if err != nil {
		return nil, err
	}
	return &models.Passport{Summary: summary, Stamps: stamps}, nil
}

// AddStamp records a tasting at an active business
func (s *PassportService) AddStamp(actor Actor, req *models.CreateStampRequest) (*models.PassportStamp, error) {
	if _, err := s.businesses.Get(req.BusinessID); err != nil {
		return nil, err
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return nil, models.NewValidationError("rating", "must be between 1 and 5")
	}

	stamp := &models.PassportStamp{
		UserID:     actor.UserID,
		BusinessID: req.BusinessID,
		CheeseName: strings.TrimSpace(req.CheeseName),
		Rating:     req.Rating,
		Notes:      models.NewNullString(req.Notes),
		Source:     models.StampSourceManual,
	}
	if err := s.stamps.AddStamp(stamp); err != nil {
		return nil, err
	}
	return stamp, nil
}

// DeleteStamp removes one of the actor's stamps
func (s *PassportService) DeleteStamp(actor Actor, id uuid.UUID) error {
	return s.stamps.DeleteStamp(id, actor.UserID)
}
