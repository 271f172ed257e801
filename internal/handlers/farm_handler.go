package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/internal/services"
	"github.com/sirupsen/logrus"
)

// FarmHandler handles production batches and their aging logs
type FarmHandler struct {
	farm   *services.FarmService
	logger *logrus.Logger
}

// NewFarmHandler creates a new FarmHandler
func NewFarmHandler(farm *services.FarmService, logger *logrus.Logger) *FarmHandler {
	return &FarmHandler{farm: farm, logger: logger}
}

// ListBatches handles GET /api/v1/businesses/:id/batches?status=
func (h *FarmHandler) ListBatches(c *gin.Context) {
	businessID, ok := parseID(c, "id")
	if !ok {
		return
	}

	batches, err := h.farm.ListBatches(actorFrom(c), businessID, c.Query("status"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"batches": batches})
}

// CreateBatch handles POST /api/v1/businesses/:id/batches
func (h *FarmHandler) CreateBatch(c *gin.Context) {
	businessID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.CreateBatchRequest
	if !bindJSON(c, &req) {
		return
	}

	batch, err := h.farm.CreateBatch(actorFrom(c), businessID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, batch)
}

// GetBatch handles GET /api/v1/batches/:id
func (h *FarmHandler) GetBatch(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.farm.GetBatch(actorFrom(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// UpdateBatch handles PUT /api/v1/batches/:id
func (h *FarmHandler) UpdateBatch(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateBatchRequest
	if !bindJSON(c, &req) {
		return
	}

	batch, err := h.farm.UpdateBatch(actorFrom(c), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, batch)
}

// ListAgingLogs handles GET /api/v1/batches/:id/aging-logs
func (h *FarmHandler) ListAgingLogs(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	logs, err := h.farm.ListAgingLogs(actorFrom(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"aging_logs": logs})
}

// AddAgingLog handles POST /api/v1/batches/:id/aging-logs
func (h *FarmHandler) AddAgingLog(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.CreateAgingLogRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, err := h.farm.AddAgingLog(actorFrom(c), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}
