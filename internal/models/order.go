package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle of a shop order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

// HoldsStock reports whether the order still has stock reserved
func (s OrderStatus) HoldsStock() bool {
	switch s {
	case OrderStatusCancelled, OrderStatusRefunded:
		return false
	}
	return true
}

// FulfillmentMethod is how the customer receives an order
type FulfillmentMethod string

const (
	FulfillmentPickup   FulfillmentMethod = "pickup"
	FulfillmentDelivery FulfillmentMethod = "delivery"
)

// orderTransitions lists the status changes a business owner may apply
var orderTransitions = map[FulfillmentMethod]map[OrderStatus][]OrderStatus{
	FulfillmentPickup: {
		OrderStatusPaid:      {OrderStatusPreparing},
		OrderStatusPreparing: {OrderStatusReady},
		OrderStatusReady:     {OrderStatusCompleted},
	},
	FulfillmentDelivery: {
		OrderStatusPaid:      {OrderStatusPreparing},
		OrderStatusPreparing: {OrderStatusShipped},
		OrderStatusShipped:   {OrderStatusCompleted},
	},
}

// CanTransition reports whether an owner may move an order from one status to another
func CanTransition(method FulfillmentMethod, from, to OrderStatus) bool {
	for _, next := range orderTransitions[method][from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is a consumer purchase from one business
type Order struct {
	ID                 uuid.UUID         `db:"id" json:"id"`
	OrderNumber        string            `db:"order_number" json:"order_number"`
	UserID             uuid.UUID         `db:"user_id" json:"user_id"`
	BusinessID         uuid.UUID         `db:"business_id" json:"business_id"`
	Status             OrderStatus       `db:"status" json:"status"`
	PaymentStatus      PaymentState      `db:"payment_status" json:"payment_status"`
	Fulfillment        FulfillmentMethod `db:"fulfillment" json:"fulfillment"`
	DeliveryAddress    NullString        `db:"delivery_address" json:"delivery_address"`
	TotalCents         int64             `db:"total_cents" json:"total_cents"`
	Notes              NullString        `db:"notes" json:"notes"`
	CancellationReason NullString        `db:"cancellation_reason" json:"cancellation_reason"`
	CancelledAt        NullTime          `db:"cancelled_at" json:"cancelled_at"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updated_at"`

	Items []OrderItem `db:"-" json:"items,omitempty"`
}

// OrderItem is one line of an order with name and price snapshots
type OrderItem struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrderID        uuid.UUID `db:"order_id" json:"order_id"`
	InventoryID    uuid.UUID `db:"inventory_id" json:"inventory_id"`
	CheeseName     string    `db:"cheese_name" json:"cheese_name"`
	Unit           SaleUnit  `db:"unit" json:"unit"`
	Quantity       int       `db:"quantity" json:"quantity"`
	UnitPriceCents int64     `db:"unit_price_cents" json:"unit_price_cents"`
	LineTotalCents int64     `db:"line_total_cents" json:"line_total_cents"`
}

// OrderLine is a requested inventory quantity when placing an order
type OrderLine struct {
	InventoryID uuid.UUID
	Quantity    int
}

// GenerateOrderNumber builds a human-friendly order reference, e.g. CM-20261015-3F9A1C
func GenerateOrderNumber(now time.Time) string {
	suffix := uuid.New().String()[:6]
	return "CM-" + now.Format("20060102") + "-" + strings.ToUpper(suffix)
}

// OrderItemRequest is one requested line
type OrderItemRequest struct {
	InventoryID uuid.UUID `json:"inventory_id" binding:"required"`
	Quantity    int       `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest places an order with one business
type CreateOrderRequest struct {
	BusinessID      uuid.UUID          `json:"business_id" binding:"required"`
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,max=50,dive"`
	Fulfillment     FulfillmentMethod  `json:"fulfillment" binding:"required,oneof=pickup delivery"`
	DeliveryAddress string             `json:"delivery_address" binding:"max=500"`
	Notes           string             `json:"notes" binding:"max=1000"`
}

// UpdateOrderStatusRequest applies an owner fulfilment step
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required,oneof=preparing ready shipped completed"`
}

// OrderCancellation is the outcome of cancelling an order
type OrderCancellation struct {
	Order       *Order `json:"order"`
	RefundError string `json:"refund_error,omitempty"`
}
