package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
)

const orderColumns = `id, order_number, user_id, business_id, status, payment_status, fulfillment,
		       delivery_address, total_cents, notes, cancellation_reason, cancelled_at,
		       created_at, updated_at`

const orderItemColumns = `id, order_id, inventory_id, cheese_name, unit, quantity, unit_price_cents, line_total_cents`

// restoreOrderStock puts the quantities of one order back on the shelf
const restoreOrderStock = `
		UPDATE shop_inventory si
		SET stock_quantity = si.stock_quantity + oi.quantity, updated_at = NOW()
		FROM order_items oi
		WHERE oi.order_id = $1 AND si.id = oi.inventory_id`

// NewOrder is the input of a stock-checked purchase
type NewOrder struct {
	UserID          uuid.UUID
	BusinessID      uuid.UUID
	Fulfillment     models.FulfillmentMethod
	DeliveryAddress string
	Notes           string
	Lines           []models.OrderLine
	Now             time.Time
}

// OrderRepository handles shop orders
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateOrder locks the referenced inventory rows, checks and decrements stock,
// then inserts the order and its items with name and price snapshots.
func (r *OrderRepository) CreateOrder(in NewOrder) (*models.Order, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ids := make([]string, len(in.Lines))
	for i, line := range in.Lines {
		ids[i] = line.InventoryID.String()
	}

	// Locked in id order so concurrent orders cannot deadlock
	var items []models.ShopInventory
	err = tx.Select(&items, `SELECT `+inventoryColumns+`
		FROM shop_inventory
		WHERE id = ANY($1::uuid[])
		ORDER BY id
		FOR UPDATE`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to lock inventory: %w", err)
	}

	byID := make(map[uuid.UUID]models.ShopInventory, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     models.GenerateOrderNumber(in.Now),
		UserID:          in.UserID,
		BusinessID:      in.BusinessID,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStateUnpaid,
		Fulfillment:     in.Fulfillment,
		DeliveryAddress: models.NewNullString(in.DeliveryAddress),
		Notes:           models.NewNullString(in.Notes),
	}

	for _, line := range in.Lines {
		item, ok := byID[line.InventoryID]
		if !ok || item.BusinessID != in.BusinessID {
			return nil, models.NewValidationError("items", fmt.Sprintf("inventory item %s is not sold by this business", line.InventoryID))
		}
		if !item.IsAvailable {
			return nil, models.NewValidationError("items", fmt.Sprintf("%s is not available", item.CheeseName))
		}
		if item.StockQuantity < line.Quantity {
			return nil, &models.StockError{
				InventoryID: item.ID,
				CheeseName:  item.CheeseName,
				Requested:   line.Quantity,
				Available:   item.StockQuantity,
			}
		}

		lineTotal := item.PriceCents * int64(line.Quantity)
		order.TotalCents += lineTotal
		order.Items = append(order.Items, models.OrderItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			InventoryID:    item.ID,
			CheeseName:     item.CheeseName,
			Unit:           item.Unit,
			Quantity:       line.Quantity,
			UnitPriceCents: item.PriceCents,
			LineTotalCents: lineTotal,
		})
	}

	for _, it := range order.Items {
		_, err := tx.Exec(`UPDATE shop_inventory SET stock_quantity = stock_quantity - $1, updated_at = NOW() WHERE id = $2`,
			it.Quantity, it.InventoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
	}

	err = tx.QueryRowx(`
		INSERT INTO orders (
			id, order_number, user_id, business_id, status, payment_status,
			fulfillment, delivery_address, total_cents, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`,
		order.ID, order.OrderNumber, order.UserID, order.BusinessID, order.Status, order.PaymentStatus,
		order.Fulfillment, order.DeliveryAddress, order.TotalCents, order.Notes,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for _, it := range order.Items {
		_, err := tx.Exec(`
			INSERT INTO order_items (
				id, order_id, inventory_id, cheese_name, unit, quantity, unit_price_cents, line_total_cents
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, it.ID, it.OrderID, it.InventoryID, it.CheeseName, it.Unit, it.Quantity, it.UnitPriceCents, it.LineTotalCents)
		if err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return order, nil
}

// GetByID retrieves an order with its items
func (r *OrderRepository) GetByID(id uuid.UUID) (*models.Order, error) {
	var order models.Order

	err := r.db.Get(&order, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	order.Items = []models.OrderItem{}
	err = r.db.Select(&order.Items, `SELECT `+orderItemColumns+` FROM order_items WHERE order_id = $1 ORDER BY cheese_name`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}

	return &order, nil
}

// ListByUser returns a customer's orders, newest first
func (r *OrderRepository) ListByUser(userID uuid.UUID) ([]*models.Order, error) {
	orders := []*models.Order{}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	if err := r.db.Select(&orders, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list user orders: %w", err)
	}

	return orders, nil
}

// ListByBusiness returns orders placed with a business, optionally by status
func (r *OrderRepository) ListByBusiness(businessID uuid.UUID, status string) ([]*models.Order, error) {
	orders := []*models.Order{}

	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE business_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`

	if err := r.db.Select(&orders, query, businessID, status); err != nil {
		return nil, fmt.Errorf("failed to list business orders: %w", err)
	}

	return orders, nil
}

// CancelOrder cancels an order whose current status is in allowed and restores its stock.
// Paid orders move to refund_pending; the caller requests the refund after this returns.
func (r *OrderRepository) CancelOrder(id uuid.UUID, reason string, allowed []models.OrderStatus) (*models.Order, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status models.OrderStatus
	err = tx.Get(&status, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	if !containsStatus(allowed, status) {
		return nil, models.ErrInvalidStatus
	}

	var order models.Order
	err = tx.Get(&order, `
		UPDATE orders
		SET status = 'cancelled',
		    cancellation_reason = $1,
		    cancelled_at = NOW(),
		    payment_status = CASE WHEN payment_status = 'paid' THEN 'refund_pending' ELSE payment_status END,
		    updated_at = NOW()
		WHERE id = $2
		RETURNING `+orderColumns, reason, id)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	if _, err := tx.Exec(restoreOrderStock, id); err != nil {
		return nil, fmt.Errorf("failed to restore stock: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &order, nil
}

// UpdateStatus applies an owner fulfilment transition
func (r *OrderRepository) UpdateStatus(id uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current struct {
		Status      models.OrderStatus       `db:"status"`
		Fulfillment models.FulfillmentMethod `db:"fulfillment"`
	}
	err = tx.Get(&current, `SELECT status, fulfillment FROM orders WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	if !models.CanTransition(current.Fulfillment, current.Status, to) {
		return nil, models.ErrInvalidStatus
	}

	var order models.Order
	err = tx.Get(&order, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING `+orderColumns, to, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &order, nil
}

// ExpireUnpaid cancels pending orders not paid before the cutoff and restores their stock
func (r *OrderRepository) ExpireUnpaid(createdBefore time.Time) (int64, error) {
	var expired int64

	err := r.db.QueryRowx(`
		WITH expired AS (
			UPDATE orders
			SET status = 'cancelled',
			    cancellation_reason = $1,
			    cancelled_at = NOW(),
			    updated_at = NOW()
			WHERE status = 'pending'
			  AND payment_status IN ('unpaid', 'failed')
			  AND created_at < $2
			RETURNING id
		), restored AS (
			UPDATE shop_inventory si
			SET stock_quantity = si.stock_quantity + q.qty, updated_at = NOW()
			FROM (
				SELECT oi.inventory_id, SUM(oi.quantity) AS qty
				FROM order_items oi
				JOIN expired e ON e.id = oi.order_id
				GROUP BY oi.inventory_id
			) q
			WHERE si.id = q.inventory_id
			RETURNING 1
		)
		SELECT COUNT(*) FROM expired
	`, models.ReasonPaymentTimeout, createdBefore).Scan(&expired)
	if err != nil {
		return 0, fmt.Errorf("failed to expire unpaid orders: %w", err)
	}

	return expired, nil
}

func containsStatus(list []models.OrderStatus, s models.OrderStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
