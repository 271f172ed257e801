package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/internal/services"
	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// TourHandler handles tours, their schedules and availability
type TourHandler struct {
	tours    *services.TourService
	bookings *services.BookingService
	logger   *logrus.Logger
}

// NewTourHandler creates a new TourHandler
func NewTourHandler(tours *services.TourService, bookings *services.BookingService, logger *logrus.Logger) *TourHandler {
	return &TourHandler{tours: tours, bookings: bookings, logger: logger}
}

// ListTours handles GET /api/v1/tours?business_id=&limit=&offset=
func (h *TourHandler) ListTours(c *gin.Context) {
	var businessID uuid.NullUUID
	if raw := c.Query("business_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_id",
				Message: "Invalid business_id: must be a UUID",
			})
			return
		}
		businessID = uuid.NullUUID{UUID: id, Valid: true}
	}

	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}

	tours, err := h.tours.ListTours(businessID, limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tours": tours})
}

// GetTour handles GET /api/v1/tours/:id
func (h *TourHandler) GetTour(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	tour, err := h.tours.GetTour(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, tour)
}

// CreateTour handles POST /api/v1/businesses/:id/tours
func (h *TourHandler) CreateTour(c *gin.Context) {
	businessID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.CreateTourRequest
	if !bindJSON(c, &req) {
		return
	}

	tour, err := h.tours.CreateTour(actorFrom(c), businessID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, tour)
}

// UpdateTour handles PUT /api/v1/tours/:id
func (h *TourHandler) UpdateTour(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateTourRequest
	if !bindJSON(c, &req) {
		return
	}

	tour, err := h.tours.UpdateTour(actorFrom(c), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, tour)
}

// DeleteTour handles DELETE /api/v1/tours/:id
func (h *TourHandler) DeleteTour(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.tours.DeactivateTour(actorFrom(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Tour deactivated"})
}

// CreateSchedule handles POST /api/v1/tours/:id/schedules
func (h *TourHandler) CreateSchedule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.CreateScheduleRequest
	if !bindJSON(c, &req) {
		return
	}

	schedule, err := h.tours.CreateSchedule(actorFrom(c), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, schedule)
}

// ListSchedules handles GET /api/v1/tours/:id/schedules?from=&to=
func (h *TourHandler) ListSchedules(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}

	schedules, err := h.tours.ListSchedules(id, from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedules": schedules})
}

// Availability handles GET /api/v1/tours/:id/availability?from=&to=
func (h *TourHandler) Availability(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}

	slots, err := h.tours.Availability(id, from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tour_id": id,
		"slots":   slots,
	})
}

// CancelSchedule handles POST /api/v1/tour-schedules/:id/cancel
func (h *TourHandler) CancelSchedule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	res, err := h.bookings.CancelSchedule(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// dateRange reads optional from/to query dates (YYYY-MM-DD)
func dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	var out [2]time.Time
	for i, name := range []string{"from", "to"} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "Invalid date",
				Details: map[string]interface{}{name: "must be YYYY-MM-DD"},
			})
			return time.Time{}, time.Time{}, false
		}
		out[i] = t
	}
	return out[0], out[1], true
}
