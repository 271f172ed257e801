package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/internal/services"
	"github.com/sirupsen/logrus"
)

// BookingHandler handles tour bookings
type BookingHandler struct {
	bookings *services.BookingService
	logger   *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookings *services.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreateTourBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	booking, err := h.bookings.Create(actorFrom(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// ListMyBookings handles GET /api/v1/bookings/me
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	bookings, err := h.bookings.ListMine(actorFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookings.Get(actorFrom(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.CancelRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	res, err := h.bookings.Cancel(c.Request.Context(), actorFrom(c), id, req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// ListBusinessBookings handles GET /api/v1/businesses/:id/bookings?status=
func (h *BookingHandler) ListBusinessBookings(c *gin.Context) {
	businessID, ok := parseID(c, "id")
	if !ok {
		return
	}

	bookings, err := h.bookings.ListForBusiness(actorFrom(c), businessID, c.Query("status"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}
