package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/internal/services"
	"github.com/sirupsen/logrus"
)

// OrderHandler handles shop orders
type OrderHandler struct {
	orders *services.OrderService
	logger *logrus.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders *services.OrderService, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// CreateOrder handles POST /api/v1/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orders.Create(actorFrom(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// ListMyOrders handles GET /api/v1/orders/me
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	orders, err := h.orders.ListMine(actorFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrder handles GET /api/v1/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.Get(actorFrom(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// CancelOrder handles POST /api/v1/orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.CancelRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	res, err := h.orders.Cancel(c.Request.Context(), actorFrom(c), id, req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// UpdateOrderStatus handles PATCH /api/v1/orders/:id/status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orders.UpdateStatus(actorFrom(c), id, req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListBusinessOrders handles GET /api/v1/businesses/:id/orders?status=
func (h *OrderHandler) ListBusinessOrders(c *gin.Context) {
	businessID, ok := parseID(c, "id")
	if !ok {
		return
	}

	orders, err := h.orders.ListForBusiness(actorFrom(c), businessID, c.Query("status"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
