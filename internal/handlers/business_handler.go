package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/internal/services"
	"github.com/sirupsen/logrus"
)

// BusinessHandler handles map listings, photos and verification requests
type BusinessHandler struct {
	businesses     *services.BusinessService
	verifications  *services.VerificationService
	maxUploadBytes int64
	logger         *logrus.Logger
}

// NewBusinessHandler creates a new BusinessHandler
func NewBusinessHandler(
	businesses *services.BusinessService,
	verifications *services.VerificationService,
	maxUploadBytes int64,
	logger *logrus.Logger,
) *BusinessHandler {
	return &BusinessHandler{
		businesses:     businesses,
		verifications:  verifications,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// businessQuery is the map search query string
type businessQuery struct {
	Type      string   `form:"type"`
	City      string   `form:"city"`
	Region    string   `form:"region"`
	Query     string   `form:"q" binding:"max=200"`
	Verified  bool     `form:"verified"`
	Latitude  *float64 `form:"lat" binding:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `form:"lng" binding:"omitempty,gte=-180,lte=180"`
	RadiusKm  float64  `form:"radius_km" binding:"gte=0,lte=500"`
	Limit     int      `form:"limit" binding:"gte=0,lte=100"`
	Offset    int      `form:"offset" binding:"gte=0"`
}

// ListBusinesses handles GET /api/v1/businesses
func (h *BusinessHandler) ListBusinesses(c *gin.Context) {
	var q businessQuery
	if !bindQuery(c, &q) {
		return
	}

	businesses, err := h.businesses.List(models.BusinessFilter{
		Type:         q.Type,
		City:         q.City,
		Region:       q.Region,
		Query:        q.Query,
		VerifiedOnly: q.Verified,
		Latitude:     q.Latitude,
		Longitude:    q.Longitude,
		RadiusKm:     q.RadiusKm,
		Limit:        q.Limit,
		Offset:       q.Offset,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"businesses": businesses,
		"count":      len(businesses),
	})
}

// GetBusiness handles GET /api/v1/businesses/:id
func (h *BusinessHandler) GetBusiness(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	business, err := h.businesses.Get(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, business)
}

// ListMyBusinesses handles GET /api/v1/users/me/businesses
func (h *BusinessHandler) ListMyBusinesses(c *gin.Context) {
	businesses, err := h.businesses.ListMine(actorFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"businesses": businesses})
}

// CreateBusiness handles POST /api/v1/businesses
func (h *BusinessHandler) CreateBusiness(c *gin.Context) {
	var req models.CreateBusinessRequest
	if !bindJSON(c, &req) {
		return
	}

	business, err := h.businesses.Create(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, business)
}

// UpdateBusiness handles PUT /api/v1/businesses/:id
func (h *BusinessHandler) UpdateBusiness(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateBusinessRequest
	if !bindJSON(c, &req) {
		return
	}

	business, err := h.businesses.Update(c.Request.Context(), actorFrom(c), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, business)
}

// DeleteBusiness handles DELETE /api/v1/businesses/:id
func (h *BusinessHandler) DeleteBusiness(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.businesses.Deactivate(actorFrom(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Business removed from the map"})
}

// UploadImage handles POST /api/v1/businesses/:id/images (multipart "image")
func (h *BusinessHandler) UploadImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	file, ok := openImage(c, h.maxUploadBytes)
	if !ok {
		return
	}
	defer file.Close()

	url, err := h.businesses.AddImage(c.Request.Context(), actorFrom(c), id, file)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// SubmitVerification handles POST /api/v1/businesses/:id/verification
func (h *BusinessHandler) SubmitVerification(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.SubmitVerificationRequest
	if !bindJSON(c, &req) {
		return
	}

	request, err := h.verifications.Submit(actorFrom(c), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// ListVerifications handles GET /api/v1/businesses/:id/verification
func (h *BusinessHandler) ListVerifications(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	requests, err := h.verifications.ListForBusiness(actorFrom(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}
