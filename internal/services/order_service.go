package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/database"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/pkg/payment"
	"github.com/sirupsen/logrus"
)

const maxOrderLines = 50

// OrderService handles shop orders
type OrderService struct {
	orders     OrderStore
	businesses *BusinessService
	refunds    *refunder
	now        func() time.Time
	logger     *logrus.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orders OrderStore,
	businesses *BusinessService,
	payments PaymentStore,
	gateway payment.Gateway,
	logger *logrus.Logger,
) *OrderService {
	return &OrderService{
		orders:     orders,
		businesses: businesses,
		refunds:    &refunder{payments: payments, gateway: gateway, logger: logger},
		now:        time.Now,
		logger:     logger,
	}
}

// Create places an order with one verified business. Stock is checked and
// decremented by the store under row locks.
func (s *OrderService) Create(actor Actor, req *models.CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 || len(req.Items) > maxOrderLines {
		return nil, models.NewValidationError("items", "an order must have between 1 and 50 items")
	}

	lines := make([]models.OrderLine, 0, len(req.Items))
	seen := make(map[uuid.UUID]bool, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, models.NewValidationError("quantity", "must be at least 1")
		}
		if seen[item.InventoryID] {
			return nil, models.NewValidationError("items", "each inventory item may appear only once")
		}
		seen[item.InventoryID] = true
		lines = append(lines, models.OrderLine{InventoryID: item.InventoryID, Quantity: item.Quantity})
	}

	address := strings.TrimSpace(req.DeliveryAddress)
	switch req.Fulfillment {
	case models.FulfillmentDelivery:
		if address == "" {
			return nil, models.NewValidationError("delivery_address", "required for delivery")
		}
	case models.FulfillmentPickup:
		address = ""
	default:
		return nil, models.NewValidationError("fulfillment", "must be pickup or delivery")
	}

	business, err := s.businesses.Get(req.BusinessID)
	if err != nil {
		return nil, err
	}
	if !business.IsVerified() {
		return nil, models.ErrBusinessNotVerified
	}

	order, err := s.orders.CreateOrder(database.NewOrder{
		UserID:          actor.UserID,
		BusinessID:      business.ID,
		Fulfillment:     req.Fulfillment,
		DeliveryAddress: address,
		Notes:           strings.TrimSpace(req.Notes),
		Lines:           lines,
		Now:             s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"business_id":  business.ID,
		"user_id":      actor.UserID,
		"total_cents":  order.TotalCents,
		"lines":        len(lines),
	}).Info("Order created")

	return order, nil
}

// Get returns an order visible to its customer, the business owner or an admin
func (s *OrderService) Get(actor Actor, id uuid.UUID) (*models.Order, error) {
	order, err := requireFound(s.orders.GetByID(id))
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.UserID {
		manager, err := s.manages(actor, order)
		if err != nil {
			return nil, err
		}
		if !manager {
			return nil, models.ErrForbidden
		}
	}
	return order, nil
}

// ListMine returns the actor's orders
func (s *OrderService) ListMine(actor Actor) ([]*models.Order, error) {
	return s.orders.ListByUser(actor.UserID)
}

// ListForBusiness returns a business's orders, optionally by status
func (s *OrderService) ListForBusiness(actor Actor, businessID uuid.UUID, status string) ([]*models.Order, error) {
	if _, err := s.businesses.RequireOwner(actor, businessID); err != nil {
		return nil, err
	}
	return s.orders.ListByBusiness(businessID, status)
}

// Cancel cancels an order and restores its stock. Customers may cancel while
// the order is pending or paid; the business owner and admins also while it
// is being prepared. Paid orders are refunded after commit.
func (s *OrderService) Cancel(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*models.OrderCancellation, error) {
	order, err := requireFound(s.orders.GetByID(id))
	if err != nil {
		return nil, err
	}

	manager, err := s.manages(actor, order)
	if err != nil {
		return nil, err
	}
	customer := order.UserID == actor.UserID
	if !customer && !manager {
		return nil, models.ErrForbidden
	}

	allowed := []models.OrderStatus{models.OrderStatusPending, models.OrderStatusPaid}
	if manager {
		allowed = append(allowed, models.OrderStatusPreparing)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = models.ReasonCancelledByCustomer
		if manager && !customer {
			reason = models.ReasonCancelledByBusiness
		}
	}

	cancelled, err := s.orders.CancelOrder(id, reason, allowed)
	if err != nil {
		return nil, err
	}
	cancelled.Items = order.Items

	s.logger.WithFields(logrus.Fields{
		"order_id": id,
		"actor_id": actor.UserID,
		"reason":   reason,
	}).Info("Order cancelled")

	result := &models.OrderCancellation{Order: cancelled}
	if cancelled.PaymentStatus == models.PaymentStateRefundPending {
		result.RefundError = refundError(s.refundOrder(ctx, cancelled.ID))
	}

	return result, nil
}

// UpdateStatus applies a fulfilment step on behalf of the business owner
func (s *OrderService) UpdateStatus(actor Actor, id uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	order, err := requireFound(s.orders.GetByID(id))
	if err != nil {
		return nil, err
	}
	if _, err := s.businesses.RequireOwner(actor, order.BusinessID); err != nil {
		return nil, err
	}

	updated, err := s.orders.UpdateStatus(id, to)
	if err != nil {
		return nil, err
	}
	updated.Items = order.Items

	s.logger.WithFields(logrus.Fields{
		"order_id": id,
		"from":     order.Status,
		"to":       to,
	}).Info("Order status updated")

	return updated, nil
}

func (s *OrderService) refundOrder(ctx context.Context, orderID uuid.UUID) error {
	p, err := s.refunds.payments.GetSucceededForOrder(orderID)
	if err != nil {
		return err
	}
	if p == nil {
		s.logger.WithField("order_id", orderID).Warn("No succeeded payment found for refund")
		return nil
	}
	return s.refunds.refund(ctx, p)
}

// manages reports whether the actor is an admin or owns the order's business
func (s *OrderService) manages(actor Actor, order *models.Order) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	b, err := s.businesses.businesses.GetByID(order.BusinessID)
	if err != nil {
		return false, err
	}
	return b != nil && b.OwnerID == actor.UserID, nil
}
