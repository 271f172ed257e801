package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/sirupsen/logrus"
)

// FarmService tracks production batches and their cellar logs
type FarmService struct {
	batches    FarmBatchStore
	businesses *BusinessService
	now        func() time.Time
	logger     *logrus.Logger
}

// NewFarmService creates a new FarmService
func NewFarmService(batches FarmBatchStore, businesses *BusinessService, logger *logrus.Logger) *FarmService {
	return &FarmService{
		batches:    batches,
		businesses: businesses,
		now:        time.Now,
		logger:     logger,
	}
}

// producer loads a business the actor manages that can make cheese
func (s *FarmService) producer(actor Actor, businessID uuid.UUID) (*models.Business, error) {
	b, err := s.businesses.RequireOwner(actor, businessID)
	if err != nil {
		return nil, err
	}
	if !b.BusinessType.ProducesCheese() {
		return nil, models.NewValidationError("business_type", "batches are only tracked for farms and affineurs")
	}
	return b, nil
}

// CreateBatch starts a production batch
func (s *FarmService) CreateBatch(actor Actor, businessID uuid.UUID, req *models.CreateBatchRequest) (*models.FarmBatch, error) {
	if _, err := s.producer(actor, businessID); err != nil {
		return nil, err
	}

	produced, err := time.Parse("2006-01-02", req.ProductionDate)
	if err != nil {
		return nil, models.NewValidationError("production_date", "must be YYYY-MM-DD")
	}
	if produced.After(s.now()) {
		return nil, models.NewValidationError("production_date", "must not be in the future")
	}

	batch := &models.FarmBatch{
		BusinessID:         businessID,
		BatchCode:          strings.TrimSpace(req.BatchCode),
		CheeseName:         strings.TrimSpace(req.CheeseName),
		MilkType:           req.MilkType,
		Quantity:           req.Quantity,
		ProductionDate:     produced,
		TargetRipeningDays: req.TargetRipeningDays,
		Status:             models.BatchStatusAging,
		Notes:              models.NewNullString(req.Notes),
	}
	if err := s.batches.Create(batch); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"batch_id":    batch.ID,
		"batch_code":  batch.BatchCode,
		"business_id": businessID,
	}).Info("Farm batch created")

	return batch, nil
}

// ListBatches returns a producer's batches, optionally by status
func (s *FarmService) ListBatches(actor Actor, businessID uuid.UUID, status string) ([]*models.FarmBatch, error) {
	if _, err := s.producer(actor, businessID); err != nil {
		return nil, err
	}
	return s.batches.ListByBusiness(businessID, status)
}

// GetBatch returns a batch with its aging history
func (s *FarmService) GetBatch(actor Actor, id uuid.UUID) (*models.BatchDetail, error) {
	batch, err := s.ownedBatch(actor, id)
	if err != nil {
		return nil, err
	}

	logs, err := s.batches.ListAgingLogs(id)
	if err != nil {
		return nil, err
	}

	return &models.BatchDetail{
		FarmBatch: batch,
		ReadyOn:   batch.ReadyOn().Format("2006-01-02"),
		AgeDays:   batch.AgeDays(s.now()),
		AgingLogs: logs,
	}, nil
}

// UpdateBatch applies a partial update
func (s *FarmService) UpdateBatch(actor Actor, id uuid.UUID, req *models.UpdateBatchRequest) (*models.FarmBatch, error) {
	batch, err := s.ownedBatch(actor, id)
	if err != nil {
		return nil, err
	}

	if req.Quantity != nil {
		batch.Quantity = *req.Quantity
	}
	if req.TargetRipeningDays != nil {
		batch.TargetRipeningDays = *req.TargetRipeningDays
	}
	if req.Status != nil {
		batch.Status = *req.Status
	}
	if req.Notes != nil {
		batch.Notes = models.NewNullString(*req.Notes)
	}

	if err := s.batches.Update(batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// AddAgingLog records a cellar operation on a batch that is still aging
func (s *FarmService) AddAgingLog(actor Actor, batchID uuid.UUID, req *models.CreateAgingLogRequest) (*models.AgingLog, error) {
	batch, err := s.ownedBatch(actor, batchID)
	if err != nil {
		return nil, err
	}
	if batch.Status == models.BatchStatusDiscarded || batch.Status == models.BatchStatusSoldOut {
		return nil, models.ErrInvalidStatus
	}

	loggedAt := s.now()
	if req.LoggedAt != nil {
		loggedAt = *req.LoggedAt
	}
	if loggedAt.Before(batch.ProductionDate) {
		return nil, models.NewValidationError("logged_at", "must not be before the production date")
	}

	entry := &models.AgingLog{
		BatchID:      batchID,
		LoggedAt:     loggedAt,
		TemperatureC: req.TemperatureC,
		HumidityPct:  req.HumidityPct,
		Action:       req.Action,
		Notes:        models.NewNullString(req.Notes),
		LoggedBy:     actor.UserID,
	}
	if err := s.batches.AddAgingLog(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ListAgingLogs returns a batch's cellar history
func (s *FarmService) ListAgingLogs(actor Actor, batchID uuid.UUID) ([]*models.AgingLog, error) {
	if _, err := s.ownedBatch(actor, batchID); err != nil {
		return nil, err
	}
	return s.batches.ListAgingLogs(batchID)
}

func (s *FarmService) ownedBatch(actor Actor, id uuid.UUID) (*models.FarmBatch, error) {
	batch, err := requireFound(s.batches.GetByID(id))
	if err != nil {
		return nil, err
	}
	if _, err := s.businesses.RequireOwner(actor, batch.BusinessID); err != nil {
		return nil, err
	}
	return batch, nil
}
