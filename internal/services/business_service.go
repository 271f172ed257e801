package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/pkg/geocode"
	"github.com/shadikamal997/cheesemap-sub001/pkg/validator"
	"github.com/sirupsen/logrus"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// BusinessService handles business listings, their photos and ownership checks
type BusinessService struct {
	businesses BusinessStore
	geocoder   geocode.Geocoder // nil when geocoding is disabled
	images     *ImageService
	phones     *validator.PhoneValidator
	logger     *logrus.Logger
}

// NewBusinessService creates a new BusinessService
func NewBusinessService(businesses BusinessStore, geocoder geocode.Geocoder, images *ImageService, logger *logrus.Logger) *BusinessService {
	return &BusinessService{
		businesses: businesses,
		geocoder:   geocoder,
		images:     images,
		phones:     validator.NewPhoneValidator(),
		logger:     logger,
	}
}

// ============================================================================
// ACCESS CHECKS
// ============================================================================

// RequireOwner loads an active business the actor may manage
func (s *BusinessService) RequireOwner(actor Actor, businessID uuid.UUID) (*models.Business, error) {
	b, err := s.businesses.GetByID(businessID)
	if err != nil {
		return nil, err
	}
	if b == nil || !b.IsActive {
		return nil, models.ErrNotFound
	}
	if !actor.owns(b) {
		return nil, models.ErrForbidden
	}
	return b, nil
}

// RequireSeller is RequireOwner for operations that need a verified business
func (s *BusinessService) RequireSeller(actor Actor, businessID uuid.UUID) (*models.Business, error) {
	b, err := s.RequireOwner(actor, businessID)
	if err != nil {
		return nil, err
	}
	if !b.IsVerified() {
		return nil, models.ErrBusinessNotVerified
	}
	return b, nil
}

// ============================================================================
// LISTINGS
// ============================================================================

// Get returns an active business
func (s *BusinessService) Get(id uuid.UUID) (*models.Business, error) {
	b, err := s.businesses.GetByID(id)
	if err != nil {
		return nil, err
	}
	if b == nil || !b.IsActive {
		return nil, models.ErrNotFound
	}
	return b, nil
}

// List searches the map
func (s *BusinessService) List(f models.BusinessFilter) ([]*models.Business, error) {
	if f.Type != "" && !validBusinessType(models.BusinessType(f.Type)) {
		return nil, models.NewValidationError("type", "must be one of farm, fromagerie, affineur, restaurant")
	}
	if (f.Latitude == nil) != (f.Longitude == nil) {
		return nil, models.NewValidationError("lat", "lat and lng must be given together")
	}
	if f.Latitude != nil && f.RadiusKm <= 0 {
		f.RadiusKm = 50
	}
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset)

	return s.businesses.List(f)
}

// ListMine returns the actor's own businesses
func (s *BusinessService) ListMine(actor Actor) ([]*models.Business, error) {
	return s.businesses.ListByOwner(actor.UserID)
}

// Create lists a new business owned by the actor
func (s *BusinessService) Create(ctx context.Context, actor Actor, req *models.CreateBusinessRequest) (*models.Business, error) {
	if !actor.Has(models.RoleProducer) && !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}

	b := &models.Business{
		OwnerID:      actor.UserID,
		Name:         strings.TrimSpace(req.Name),
		BusinessType: req.BusinessType,
		Description:  models.NewNullString(req.Description),
		Address:      strings.TrimSpace(req.Address),
		City:         strings.TrimSpace(req.City),
		PostalCode:   req.PostalCode,
		Region:       models.NewNullString(req.Region),
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Email:        models.NewNullString(strings.ToLower(req.Email)),
		Website:      models.NewNullString(req.Website),
		Images:       models.StringArray{},
	}

	if req.Phone != "" {
		phone, err := s.phones.Validate(req.Phone)
		if err != nil {
			return nil, models.NewValidationError("phone", err.Error())
		}
		b.Phone = models.NewNullString(phone)
	}
	if req.SIRET != "" {
		siret, err := validator.NormalizeSIRET(req.SIRET)
		if err != nil {
			return nil, models.NewValidationError("siret", err.Error())
		}
		b.SIRET = models.NewNullString(siret)
	}

	if b.Latitude == nil || b.Longitude == nil {
		s.locate(ctx, b)
	}

	if err := s.businesses.Create(b); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"business_id": b.ID,
		"owner_id":    b.OwnerID,
		"type":        b.BusinessType,
		"geocoded":    b.Latitude != nil,
	}).Info("Business created")

	return b, nil
}

// Update applies a partial update. A changed address without explicit
// coordinates is geocoded again.
func (s *BusinessService) Update(ctx context.Context, actor Actor, id uuid.UUID, req *models.UpdateBusinessRequest) (*models.Business, error) {
	b, err := s.RequireOwner(actor, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		b.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		b.Description = models.NewNullString(*req.Description)
	}
	if req.Address != nil {
		b.Address = strings.TrimSpace(*req.Address)
	}
	if req.City != nil {
		b.City = strings.TrimSpace(*req.City)
	}
	if req.PostalCode != nil {
		b.PostalCode = *req.PostalCode
	}
	if req.Region != nil {
		b.Region = models.NewNullString(*req.Region)
	}
	if req.Phone != nil {
		b.Phone = models.NullString{}
		if *req.Phone != "" {
			phone, err := s.phones.Validate(*req.Phone)
			if err != nil {
				return nil, models.NewValidationError("phone", err.Error())
			}
			b.Phone = models.NewNullString(phone)
		}
	}
	if req.Email != nil {
		b.Email = models.NewNullString(strings.ToLower(*req.Email))
	}
	if req.Website != nil {
		b.Website = models.NewNullString(*req.Website)
	}

	switch {
	case req.Latitude != nil && req.Longitude != nil:
		b.Latitude, b.Longitude = req.Latitude, req.Longitude
	case req.Latitude != nil || req.Longitude != nil:
		return nil, models.NewValidationError("latitude", "latitude and longitude must be given together")
	case req.AddressChanged():
		b.Latitude, b.Longitude = nil, nil
		s.locate(ctx, b)
	}

	if err := s.businesses.Update(b); err != nil {
		return nil, err
	}

	return b, nil
}

// Deactivate hides a business from the map
func (s *BusinessService) Deactivate(actor Actor, id uuid.UUID) error {
	if _, err := s.RequireOwner(actor, id); err != nil {
		return err
	}
	return s.businesses.Deactivate(id)
}

// AddImage resizes and stores a photo and appends it to the gallery
func (s *BusinessService) AddImage(ctx context.Context, actor Actor, id uuid.UUID, r io.Reader) (string, error) {
	if _, err := s.RequireOwner(actor, id); err != nil {
		return "", err
	}

	url, err := s.images.Upload(ctx, "businesses/"+id.String(), r)
	if err != nil {
		return "", err
	}

	if err := s.businesses.AddImage(id, url); err != nil {
		return "", err
	}

	return url, nil
}

// locate fills coordinates (and region when missing) from the address.
// Lookup failures are logged and leave the business without coordinates.
func (s *BusinessService) locate(ctx context.Context, b *models.Business) {
	if s.geocoder == nil {
		return
	}

	res, err := s.geocoder.Geocode(ctx, b.Address, b.PostalCode, b.City)
	if err != nil {
		entry := s.logger.WithFields(logrus.Fields{
			"address":  b.Address,
			"postcode": b.PostalCode,
			"city":     b.City,
		})
		if errors.Is(err, geocode.ErrNoMatch) {
			entry.Info("No geocoding match for business address")
		} else {
			entry.WithError(err).Warn("Geocoding failed")
		}
		return
	}

	lat, lng := res.Latitude, res.Longitude
	b.Latitude, b.Longitude = &lat, &lng
	if !b.Region.Valid && res.Region != "" {
		b.Region = models.NewNullString(res.Region)
	}
}

func validBusinessType(t models.BusinessType) bool {
	for _, v := range models.ValidBusinessTypes {
		if v == t {
			return true
		}
	}
	return false
}

// clampPage applies the default and maximum page size
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// requireFound converts a nil lookup into models.ErrNotFound
func requireFound[T any](v *T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, models.ErrNotFound
	}
	return v, nil
}
