package services

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/sirupsen/logrus"
)

// InventoryService manages the cheeses a shop sells
type InventoryService struct {
	items      InventoryStore
	businesses *BusinessService
	images     *ImageService
	logger     *logrus.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(items InventoryStore, businesses *BusinessService, images *ImageService, logger *logrus.Logger) *InventoryService {
	return &InventoryService{
		items:      items,
		businesses: businesses,
		images:     images,
		logger:     logger,
	}
}

// Create adds a cheese to a verified business's shop
func (s *InventoryService) Create(actor Actor, businessID uuid.UUID, req *models.CreateInventoryRequest) (*models.ShopInventory, error) {
	if _, err := s.businesses.RequireSeller(actor, businessID); err != nil {
		return nil, err
	}

	item := &models.ShopInventory{
		BusinessID:    businessID,
		CheeseName:    strings.TrimSpace(req.CheeseName),
		MilkType:      req.MilkType,
		AOC:           req.AOC,
		Description:   models.NewNullString(req.Description),
		Unit:          req.Unit,
		PriceCents:    req.PriceCents,
		StockQuantity: req.StockQuantity,
		IsAvailable:   true,
		ImageURL:      models.NewNullString(req.ImageURL),
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	if err := s.items.Create(item); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"inventory_id": item.ID,
		"business_id":  businessID,
		"cheese":       item.CheeseName,
	}).Info("Inventory item created")

	return item, nil
}

// ListForBusiness returns the available cheeses of an active business
func (s *InventoryService) ListForBusiness(businessID uuid.UUID) ([]*models.ShopInventory, error) {
	if _, err := s.businesses.Get(businessID); err != nil {
		return nil, err
	}
	return s.items.ListByBusiness(businessID, true)
}

// Update applies a partial update
func (s *InventoryService) Update(actor Actor, id uuid.UUID, req *models.UpdateInventoryRequest) (*models.ShopInventory, error) {
	item, err := s.owned(actor, id)
	if err != nil {
		return nil, err
	}

	if req.CheeseName != nil {
		item.CheeseName = strings.TrimSpace(*req.CheeseName)
	}
	if req.MilkType != nil {
		item.MilkType = *req.MilkType
	}
	if req.AOC != nil {
		item.AOC = *req.AOC
	}
	if req.Description != nil {
		item.Description = models.NewNullString(*req.Description)
	}
	if req.Unit != nil {
		item.Unit = *req.Unit
	}
	if req.PriceCents != nil {
		item.PriceCents = *req.PriceCents
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	if req.ImageURL != nil {
		item.ImageURL = models.NewNullString(*req.ImageURL)
	}

	if err := s.items.Update(item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes an item; items already ordered are hidden instead
func (s *InventoryService) Delete(actor Actor, id uuid.UUID) error {
	if _, err := s.owned(actor, id); err != nil {
		return err
	}
	return s.items.Delete(id)
}

// AdjustStock changes stock by delta and returns the new quantity. Stock never goes below zero.
func (s *InventoryService) AdjustStock(actor Actor, id uuid.UUID, delta int) (*models.ShopInventory, error) {
	if delta == 0 {
		return nil, models.NewValidationError("delta", "must not be zero")
	}

	item, err := s.owned(actor, id)
	if err != nil {
		return nil, err
	}

	stock, err := s.items.AdjustStock(id, delta)
	if err != nil {
		return nil, err
	}
	item.StockQuantity = stock

	s.logger.WithFields(logrus.Fields{
		"inventory_id": id,
		"delta":        delta,
		"stock":        stock,
	}).Info("Stock adjusted")

	return item, nil
}

// SetImage uploads a photo for the item
func (s *InventoryService) SetImage(ctx context.Context, actor Actor, id uuid.UUID, r io.Reader) (*models.ShopInventory, error) {
	item, err := s.owned(actor, id)
	if err != nil {
		return nil, err
	}

	url, err := s.images.Upload(ctx, "inventory/"+item.BusinessID.String(), r)
	if err != nil {
		return nil, err
	}

	item.ImageURL = models.NewNullString(url)
	if err := s.items.Update(item); err != nil {
		return nil, err
	}
	return item, nil
}

// owned loads an item of a business the actor manages
func (s *InventoryService) owned(actor Actor, id uuid.UUID) (*models.ShopInventory, error) {
	item, err := requireFound(s.items.GetByID(id))
	if err != nil {
		return nil, err
	}
	if _, err := s.businesses.RequireOwner(actor, item.BusinessID); err != nil {
		return nil, err
	}
	return item, nil
}
