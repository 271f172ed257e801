package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/internal/services"
	"github.com/sirupsen/logrus"
)

// InventoryHandler handles a shop's cheese inventory
type InventoryHandler struct {
	inventory      *services.InventoryService
	maxUploadBytes int64
	logger         *logrus.Logger
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventory *services.InventoryService, maxUploadBytes int64, logger *logrus.Logger) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, maxUploadBytes: maxUploadBytes, logger: logger}
}

// ListInventory handles GET /api/v1/businesses/:id/inventory
func (h *InventoryHandler) ListInventory(c *gin.Context) {
	businessID, ok := parseID(c, "id")
	if !ok {
		return
	}

	items, err := h.inventory.ListForBusiness(businessID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// CreateItem handles POST /api/v1/businesses/:id/inventory
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	businessID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.CreateInventoryRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.inventory.Create(actorFrom(c), businessID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// UpdateItem handles PUT /api/v1/inventory/:id
func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateInventoryRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.inventory.Update(actorFrom(c), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// DeleteItem handles DELETE /api/v1/inventory/:id
func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.inventory.Delete(actorFrom(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Item removed"})
}

// AdjustStock handles PATCH /api/v1/inventory/:id/stock
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.AdjustStockRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.inventory.AdjustStock(actorFrom(c), id, req.Delta)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// UploadImage handles POST /api/v1/inventory/:id/image (multipart "image")
func (h *InventoryHandler) UploadImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	file, ok := openImage(c, h.maxUploadBytes)
	if !ok {
		return
	}
	defer file.Close()

	item, err := h.inventory.SetImage(c.Request.Context(), actorFrom(c), id, file)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, item)
}
